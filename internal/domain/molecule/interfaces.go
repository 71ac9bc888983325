package molecule

import (
	"context"
)

// Toolkit is the cheminformatics engine: parsing, embedding, descriptors and
// depiction. Invalid SMILES are reported with errors.ErrCodeMoleculeInvalidSMILES.
type Toolkit interface {
	Validate(ctx context.Context, smiles string) (canonical string, err error)
	Conformer(ctx context.Context, smiles string, opts ConformerOptions) (*Conformer, error)
	Descriptors(ctx context.Context, smiles string) (*Descriptors, error)
	Depict(ctx context.Context, smiles string, opts DepictOptions) (*Image, error)
}

// ToxicityPredictor runs the Tox21 classifier.
type ToxicityPredictor interface {
	Predict(ctx context.Context, smiles string) (*ToxicityReport, error)
}

// NameResolver looks up a common name for a structure.
type NameResolver interface {
	ResolveName(ctx context.Context, smiles string) (string, error)
}

// Assistant answers a free-text prompt.
type Assistant interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

//Personal.AI order the ending
