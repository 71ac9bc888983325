package molecule

import (
	"fmt"
	"strconv"
	"strings"
)

// UnknownMoleculeName is reported when no name could be resolved.
const UnknownMoleculeName = "Unknown Molecule"

// Wire keys of the properties map.
const (
	KeyMolecularWeight = "Molecular Weight"
	KeyLogP            = "LogP"
	KeyHBondDonors     = "H-Bond Donors"
	KeyHBondAcceptors  = "H-Bond Acceptors"
	KeyRotatableBonds  = "Rotatable Bonds"
	KeyTPSA            = "TPSA"
	KeyAromaticRings   = "Aromatic Rings"
	KeyMoleculeName    = "Molecule Name"
)

// Descriptors are the physico-chemical properties computed for a molecule.
type Descriptors struct {
	CanonicalSMILES string  `json:"canonical_smiles,omitempty"`
	ExactMolWt      float64 `json:"exact_mol_wt"`
	LogP            float64 `json:"logp"`
	HBondDonors     int     `json:"h_bond_donors"`
	HBondAcceptors  int     `json:"h_bond_acceptors"`
	RotatableBonds  int     `json:"rotatable_bonds"`
	TPSA            float64 `json:"tpsa"`
	AromaticRings   int     `json:"aromatic_rings"`
	Name            string  `json:"name,omitempty"`
}

// DisplayName returns Name or UnknownMoleculeName.
func (d *Descriptors) DisplayName() string {
	if d == nil || strings.TrimSpace(d.Name) == "" {
		return UnknownMoleculeName
	}
	return d.Name
}

// WireMap renders the descriptors with two-decimal floats and integer counts.
func (d *Descriptors) WireMap() map[string]string {
	return map[string]string{
		KeyMolecularWeight: fmt.Sprintf("%.2f", d.ExactMolWt),
		KeyLogP:            fmt.Sprintf("%.2f", d.LogP),
		KeyHBondDonors:     strconv.Itoa(d.HBondDonors),
		KeyHBondAcceptors:  strconv.Itoa(d.HBondAcceptors),
		KeyRotatableBonds:  strconv.Itoa(d.RotatableBonds),
		KeyTPSA:            fmt.Sprintf("%.2f", d.TPSA),
		KeyAromaticRings:   strconv.Itoa(d.AromaticRings),
		KeyMoleculeName:    d.DisplayName(),
	}
}

// DescribeProperties renders the descriptor lines fed to the assistant.
func DescribeProperties(d *Descriptors) string {
	if d == nil {
		return ""
	}
	lines := []string{
		fmt.Sprintf("Molecular Weight: %.2f g/mol", d.ExactMolWt),
		fmt.Sprintf("LogP: %.2f (lipophilicity)", d.LogP),
		fmt.Sprintf("H-Bond Donors: %d", d.HBondDonors),
		fmt.Sprintf("H-Bond Acceptors: %d", d.HBondAcceptors),
		fmt.Sprintf("Rotatable Bonds: %d", d.RotatableBonds),
		fmt.Sprintf("TPSA: %.2f Å²", d.TPSA),
		fmt.Sprintf("Aromatic Rings: %d", d.AromaticRings),
	}
	return strings.Join(lines, "\n")
}

//Personal.AI order the ending
