package molecule

import (
	"encoding/base64"
	"strings"
)

// ForceField selects the optimiser applied after embedding.
type ForceField string

const (
	ForceFieldUFF  ForceField = "UFF"
	ForceFieldMMFF ForceField = "MMFF"
)

// ConformerOptions controls 3D embedding.
type ConformerOptions struct {
	AddHydrogens bool       `json:"add_hydrogens"`
	ForceField   ForceField `json:"force_field"`
	RandomSeed   int        `json:"random_seed,omitempty"`
}

// DefaultConformerOptions embeds with explicit hydrogens and UFF.
func DefaultConformerOptions() ConformerOptions {
	return ConformerOptions{AddHydrogens: true, ForceField: ForceFieldUFF}
}

// Conformer is a 3D-embedded molecule.
type Conformer struct {
	SMILES   string `json:"smiles"`
	MolBlock string `json:"mol_block"`
}

// ImageFormat is the encoding of a depiction.
type ImageFormat string

const (
	FormatPNG ImageFormat = "png"
	FormatSVG ImageFormat = "svg"
)

// DepictOptions controls rendering. UseConformer draws the 3D-embedded
// structure instead of the computed 2D layout.
type DepictOptions struct {
	Format       ImageFormat `json:"format"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	UseConformer bool        `json:"use_conformer"`
}

// Image is a rendered depiction.
type Image struct {
	Format ImageFormat
	Data   []byte
}

// Base64 encodes the image payload with standard padding.
func (i *Image) Base64() string {
	if i == nil || len(i.Data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(i.Data)
}

// ContentType returns the MIME type of the image.
func (i *Image) ContentType() string {
	if i == nil {
		return ""
	}
	switch i.Format {
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

// NormalizeSMILES trims whitespace. An empty result means no SMILES was given.
func NormalizeSMILES(s string) string {
	return strings.TrimSpace(s)
}

//Personal.AI order the ending
