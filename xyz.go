/*
 * xyz.go, part of goqdk.
 *
 * Copyright 2024 The goqdk authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package chem

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/qchemlab/goqdk/v3"
)

//An element symbol followed by 3 numbers. The numbers can be signed,
//integral, decimal or in exponent form.
const floatPattern = `([+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?)`

var xyzLine = regexp.MustCompile(`^\s*([A-Za-z]{1,3})\s+` + floatPattern + `\s+` + floatPattern + `\s+` + floatPattern + `\s*$`)

//Markers of the charge block that can follow the atoms.
const (
	chargeStart = "$set"
	chargeKey   = "chrg"
	chargeEnd   = "$end"
)

//FormatError is returned when XYZ text can't be parsed, either because
//the atom count line is missing or malformed, or because the number of
//atoms found is not the declared one.
type FormatError struct {
	Declared int //-1 if no valid count line was found.
	Found    int
	reason   string
	deco     []string
}

func (err *FormatError) Error() string {
	if err.reason != "" {
		return "chem: invalid XYZ: " + err.reason
	}
	return fmt.Sprintf("chem: invalid XYZ: number of atoms %d does not match number of elements found %d", err.Declared, err.Found)
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err *FormatError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//parseAtomLine returns the atom in an XYZ coordinate line.
func parseAtomLine(line string) (Atom, bool) {
	m := xyzLine.FindStringSubmatch(line)
	if m == nil {
		return Atom{}, false
	}
	var c [3]float64
	for i := range c {
		f, err := strconv.ParseFloat(m[i+2], 64)
		if err != nil {
			return Atom{}, false
		}
		c[i] = f
	}
	return Atom{Symbol: m[1], X: c[0], Y: c[1], Z: c[2]}, true
}

//parseCount reads an atom count line.
func parseCount(line string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 0 {
		return -1, &FormatError{Declared: -1, reason: fmt.Sprintf("bad atom count line %q", line)}
	}
	return n, nil
}

//GeometryFromXYZ parses XYZ text: an atom count line, a title line
//(ignored) and one "<element> <x> <y> <z>" line per atom, optionally
//followed by a $set/chrg N/$end charge block. Text without any newline
//gives an empty geometry. A *FormatError is returned if the count line
//is missing or if it doesn't match the number of atom lines.
func GeometryFromXYZ(text string) (*Geometry, error) {
	if !strings.Contains(text, "\n") {
		return NewGeometry(nil, nil), nil
	}
	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) {
		return nil, &FormatError{Declared: -1, reason: "no atom count line", deco: []string{"GeometryFromXYZ"}}
	}
	n, err := parseCount(lines[i])
	if err != nil {
		return nil, errDecorate(err, "GeometryFromXYZ")
	}
	i += 2 //count and title
	var atoms []Atom //n is not trusted before the atoms are counted
	var charge *int
	inblock := false
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == chargeStart:
			inblock = true
		case line == chargeEnd:
			inblock = false
		case inblock:
			f := strings.Fields(line)
			if len(f) == 2 && f[0] == chargeKey {
				if c, err := strconv.Atoi(f[1]); err == nil {
					charge = &c
				}
			}
		default:
			if a, ok := parseAtomLine(line); ok {
				atoms = append(atoms, a)
			}
		}
	}
	if len(atoms) != n {
		return nil, &FormatError{Declared: n, Found: len(atoms), deco: []string{"GeometryFromXYZ"}}
	}
	return NewGeometry(atoms, charge), nil
}

//XYZ returns the geometry in XYZ format, with the given title ("unnamed"
//if title is empty). A charge block is added after the atoms if the
//charge is known and not zero.
func (G *Geometry) XYZ(title string) string {
	if title == "" {
		title = "unnamed"
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(G.Len()))
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString("\n")
	for i := 0; i < G.Len(); i++ {
		b.WriteString(G.Atom(i).XYZ())
		b.WriteString("\n")
	}
	if c, ok := G.Charge(); ok && c != 0 {
		fmt.Fprintf(&b, "%s\n%s %d\n%s\n", chargeStart, chargeKey, c, chargeEnd)
	}
	return b.String()
}

//XYZDefault returns the geometry in XYZ format with the default title.
func (G *Geometry) XYZDefault() string {
	return G.XYZ("")
}

//XYZTrajRead reads a multi-frame XYZ stream (for instance, a conformer
//ensemble) into a Molecule. All frames must have the same atoms. If the
//title of a frame is a number, it is taken as the energy of that frame.
func XYZTrajRead(r io.Reader) (*Molecule, error) {
	errid := "XYZTrajRead"
	sc := bufio.NewScanner(r)
	var mol *Molecule
	lineno := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		lineno++
		return sc.Text(), true
	}
	for {
		line, ok := next()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		n, err := parseCount(line)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", errid, lineno, err)
		}
		title, _ := next()
		energy := math.NaN()
		if e, err := strconv.ParseFloat(strings.TrimSpace(title), 64); err == nil {
			energy = e
		}
		var frame []Atom
		for i := 0; i < n; i++ {
			line, ok := next()
			if !ok {
				return nil, fmt.Errorf("%s: %w", errid, &FormatError{Declared: n, Found: i})
			}
			a, ok := parseAtomLine(line)
			if !ok {
				return nil, fmt.Errorf("%s: line %d: %w", errid, lineno, &FormatError{Declared: n, Found: i, reason: fmt.Sprintf("bad atom line %q", line)})
			}
			frame = append(frame, a)
		}
		symbols := make([]string, n)
		coords := v3.Zeros(n)
		for i, a := range frame {
			symbols[i] = a.Symbol
			coords.SetVec(i, a.X, a.Y, a.Z)
		}
		if mol == nil {
			atoms := make([]*Atom, n)
			for i, s := range symbols {
				atoms[i] = &Atom{Symbol: s}
			}
			mol = NewMolecule(atoms, 0, 1)
		}
		if err := mol.AddFrame(coords, energy); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", errid, lineno, err)
		}
		for i, s := range symbols {
			if mol.Atom(i).Symbol != s {
				return nil, fmt.Errorf("%s: line %d: frame %d has %s where the first frame has %s", errid, lineno, mol.NFrames()-1, s, mol.Atom(i).Symbol)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	if mol == nil {
		return nil, fmt.Errorf("%s: no frames found", errid)
	}
	return mol, nil
}
