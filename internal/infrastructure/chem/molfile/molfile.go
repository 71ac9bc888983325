// Package molfile reads MDL V2000 molfiles (MOL blocks) produced by the
// cheminformatics toolkit. Only the connection table is decoded: header,
// counts line, atom block and bond block. Properties blocks are ignored.
package molfile

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	errs "github.com/turtacn/ToxInsight/pkg/errors"
)

const (
	headerLines  = 3
	countsMinLen = 6
	atomMinLen   = 34
	bondMinLen   = 9
)

// Atom is one row of the atom block.
type Atom struct {
	X, Y, Z float64
	Element string
}

// Bond is one row of the bond block. From and To are zero-based atom indexes.
type Bond struct {
	From, To int
	Order    int
	Stereo   int
}

// Molecule is the decoded connection table.
type Molecule struct {
	Name    string
	Program string
	Comment string
	Atoms   []Atom
	Bonds   []Bond
}

// AtomCount returns the number of atoms.
func (m *Molecule) AtomCount() int { return len(m.Atoms) }

// BondCount returns the number of bonds.
func (m *Molecule) BondCount() int { return len(m.Bonds) }

// Is3D reports whether any atom has a non-zero z coordinate.
func (m *Molecule) Is3D() bool {
	for _, a := range m.Atoms {
		if a.Z != 0 {
			return true
		}
	}
	return false
}

// Parse decodes a V2000 MOL block.
func Parse(block string) (*Molecule, error) {
	if strings.TrimSpace(block) == "" {
		return nil, errs.New(errs.ErrCodeMoleculeParsingFailed, "empty MOL block")
	}
	sc := bufio.NewScanner(strings.NewReader(block))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	mol := &Molecule{}
	header := make([]string, 0, headerLines)
	for i := 0; i < headerLines; i++ {
		if !sc.Scan() {
			return nil, truncated("header", i+1)
		}
		header = append(header, strings.TrimRight(sc.Text(), "\r"))
	}
	mol.Name = strings.TrimSpace(header[0])
	mol.Program = strings.TrimSpace(header[1])
	mol.Comment = strings.TrimSpace(header[2])

	if !sc.Scan() {
		return nil, truncated("counts line", headerLines+1)
	}
	atomCount, bondCount, err := parseCounts(strings.TrimRight(sc.Text(), "\r"))
	if err != nil {
		return nil, err
	}

	mol.Atoms = make([]Atom, 0, atomCount)
	for i := 0; i < atomCount; i++ {
		if !sc.Scan() {
			return nil, truncated("atom block", i+1)
		}
		a, err := parseAtom(sc.Text())
		if err != nil {
			return nil, errs.Wrap(err, errs.ErrCodeMoleculeParsingFailed, "malformed atom line").
				WithDetail(fmt.Sprintf("atom %d", i+1))
		}
		mol.Atoms = append(mol.Atoms, a)
	}

	mol.Bonds = make([]Bond, 0, bondCount)
	for i := 0; i < bondCount; i++ {
		if !sc.Scan() {
			return nil, truncated("bond block", i+1)
		}
		b, err := parseBond(sc.Text(), atomCount)
		if err != nil {
			return nil, errs.Wrap(err, errs.ErrCodeMoleculeParsingFailed, "malformed bond line").
				WithDetail(fmt.Sprintf("bond %d", i+1))
		}
		mol.Bonds = append(mol.Bonds, b)
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(err, errs.ErrCodeMoleculeParsingFailed, "reading MOL block")
	}
	return mol, nil
}

func truncated(section string, line int) error {
	return errs.New(errs.ErrCodeMoleculeParsingFailed, "truncated MOL block").
		WithDetail(fmt.Sprintf("%s line %d", section, line))
}

func parseCounts(line string) (atoms, bonds int, err error) {
	if strings.Contains(line, "V3000") {
		return 0, 0, errs.New(errs.ErrCodeMoleculeInvalidFormat, "V3000 MOL blocks are not supported")
	}
	if len(line) < countsMinLen {
		return 0, 0, errs.New(errs.ErrCodeMoleculeParsingFailed, "malformed counts line").WithDetail(line)
	}
	atoms, err = fixedInt(line, 0, 3)
	if err != nil {
		return 0, 0, errs.Wrap(err, errs.ErrCodeMoleculeParsingFailed, "malformed counts line")
	}
	bonds, err = fixedInt(line, 3, 6)
	if err != nil {
		return 0, 0, errs.Wrap(err, errs.ErrCodeMoleculeParsingFailed, "malformed counts line")
	}
	if atoms < 0 || bonds < 0 {
		return 0, 0, errs.New(errs.ErrCodeMoleculeParsingFailed, "negative counts").WithDetail(line)
	}
	return atoms, bonds, nil
}

// Atom line: xxxxx.xxxxyyyyy.yyyyzzzzz.zzzz aaa...
func parseAtom(line string) (Atom, error) {
	if len(line) < atomMinLen {
		return Atom{}, fmt.Errorf("line too short (%d chars)", len(line))
	}
	x, err := fixedFloat(line, 0, 10)
	if err != nil {
		return Atom{}, err
	}
	y, err := fixedFloat(line, 10, 20)
	if err != nil {
		return Atom{}, err
	}
	z, err := fixedFloat(line, 20, 30)
	if err != nil {
		return Atom{}, err
	}
	elem := strings.TrimSpace(line[31:34])
	if elem == "" {
		return Atom{}, fmt.Errorf("missing element symbol")
	}
	return Atom{X: x, Y: y, Z: z, Element: elem}, nil
}

// Bond line: 111222tttsss
func parseBond(line string, atomCount int) (Bond, error) {
	if len(line) < bondMinLen {
		return Bond{}, fmt.Errorf("line too short (%d chars)", len(line))
	}
	from, err := fixedInt(line, 0, 3)
	if err != nil {
		return Bond{}, err
	}
	to, err := fixedInt(line, 3, 6)
	if err != nil {
		return Bond{}, err
	}
	order, err := fixedInt(line, 6, 9)
	if err != nil {
		return Bond{}, err
	}
	if from < 1 || from > atomCount || to < 1 || to > atomCount {
		return Bond{}, fmt.Errorf("atom index out of range: %d-%d of %d", from, to, atomCount)
	}
	stereo := 0
	if len(line) >= 12 {
		if s, err := fixedInt(line, 9, 12); err == nil {
			stereo = s
		}
	}
	return Bond{From: from - 1, To: to - 1, Order: order, Stereo: stereo}, nil
}

func fixedInt(line string, start, end int) (int, error) {
	return strconv.Atoi(strings.TrimSpace(line[start:end]))
}

func fixedFloat(line string, start, end int) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(line[start:end]), 64)
}

//Personal.AI order the ending
