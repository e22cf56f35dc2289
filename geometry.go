/*
 * geometry.go, part of goqdk.
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
	"iter"
	"strconv"
	"strings"

	"github.com/qchemlab/goqdk/v3"
)

//Atom is an element symbol with cartesian coordinates.
//It is a value: copies are independent.
type Atom struct {
	Symbol string
	X, Y, Z float64
}

//AtomFromTuple builds an Atom from a (name, x, y, z) coordinate tuple.
func AtomFromTuple(c CoordTuple) Atom {
	return Atom{Symbol: c.Name, X: c.X, Y: c.Y, Z: c.Z}
}

//XYZ returns the atom as an XYZ line, without line terminator.
func (A Atom) XYZ() string {
	return A.Symbol + " " + FormatFloat(A.X) + " " + FormatFloat(A.Y) + " " + FormatFloat(A.Z)
}

//CoordTuple is an element name with its coordinates.
type CoordTuple struct {
	Name    string
	X, Y, Z float64
}

//Geometry is an ordered set of atoms with coordinates, plus an
//optional total charge. The order of the atoms is significant.
//A Geometry is not modified after it is built.
type Geometry struct {
	symbols []string
	coords  *v3.Matrix
	charge  *int
}

//NewGeometry returns a Geometry with copies of the given atoms, in order.
//charge can be nil if the charge is not known.
func NewGeometry(atoms []Atom, charge *int) *Geometry {
	G := &Geometry{symbols: make([]string, len(atoms)), coords: v3.Zeros(len(atoms))}
	for i, a := range atoms {
		G.symbols[i] = a.Symbol
		G.coords.SetVec(i, a.X, a.Y, a.Z)
	}
	if charge != nil {
		c := *charge
		G.charge = &c
	}
	return G
}

//newGeometryCoords builds a Geometry from symbols and coordinates,
//which are not copied.
func newGeometryCoords(symbols []string, coords *v3.Matrix, charge *int) *Geometry {
	if coords == nil {
		coords = v3.Zeros(0)
	}
	return &Geometry{symbols: symbols, coords: coords, charge: charge}
}

//Len returns the number of atoms in the geometry.
func (G *Geometry) Len() int {
	return len(G.symbols)
}

//Atom returns a copy of the ith atom. It panics if i is out of range.
func (G *Geometry) Atom(i int) *Atom {
	v := G.coords.Vec(i)
	return &Atom{Symbol: G.symbols[i], X: v[0], Y: v[1], Z: v[2]}
}

//Atoms returns copies of all the atoms, in order.
func (G *Geometry) Atoms() []Atom {
	ret := make([]Atom, G.Len())
	for i := range ret {
		ret[i] = *G.Atom(i)
	}
	return ret
}

//Charge returns the charge of the geometry, and whether it is known.
func (G *Geometry) Charge() (int, bool) {
	if G.charge == nil {
		return 0, false
	}
	return *G.charge, true
}

//Coords returns a copy of the coordinates of the geometry.
func (G *Geometry) Coords() *v3.Matrix {
	return G.coords.Copy()
}

//Coordinates returns a sequence of (name, x, y, z) tuples, in atom order.
//The sequence can be ranged over any number of times.
func (G *Geometry) Coordinates() iter.Seq[CoordTuple] {
	return func(yield func(CoordTuple) bool) {
		for i := range G.symbols {
			v := G.coords.Vec(i)
			if !yield(CoordTuple{G.symbols[i], v[0], v[1], v[2]}) {
				return
			}
		}
	}
}

//Format returns the atoms of the geometry as XYZ lines joined by sep.
//This is the geometry block used in input decks.
func (G *Geometry) Format(sep string) string {
	lines := make([]string, 0, G.Len())
	for i := range G.symbols {
		lines = append(lines, G.Atom(i).XYZ())
	}
	return strings.Join(lines, sep)
}

//Equal returns true if both geometries have the same atoms in the same
//order, with the same coordinates and charge.
func (G *Geometry) Equal(O *Geometry) bool {
	if G.Len() != O.Len() {
		return false
	}
	for i, s := range G.symbols {
		if s != O.symbols[i] {
			return false
		}
	}
	if (G.charge == nil) != (O.charge == nil) {
		return false
	}
	if G.charge != nil && *G.charge != *O.charge {
		return false
	}
	return G.coords.Equal(O.coords)
}

//FormatFloat returns the shortest representation of f that parses
//back to the same value, always with at least one decimal ("0.0", "0.74").
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

//GeometryFromMolecule builds a Geometry from a representative conformer
//of mol, chosen among at most nconfs conformers (10 if nconfs <= 0).
//The charge of the geometry is the formal charge of mol.
func GeometryFromMolecule(mol Moleculer, nconfs int) (*Geometry, error) {
	errid := "GeometryFromMolecule"
	if nconfs <= 0 {
		nconfs = 10
	}
	coords, err := mol.Conformer(nconfs)
	if err != nil {
		return nil, errDecorate(err, errid)
	}
	if coords.NVecs() != mol.Len() {
		return nil, &CError{"chem/GeometryFromMolecule: conformer has " + strconv.Itoa(coords.NVecs()) + " atoms, molecule has " + strconv.Itoa(mol.Len()), []string{errid}}
	}
	symbols := make([]string, mol.Len())
	for i := range symbols {
		symbols[i] = mol.Atom(i).Symbol
	}
	charge := mol.Charge()
	return newGeometryCoords(symbols, coords.Copy(), &charge), nil
}

//errDecorate decorates err if it is one of ours, and returns it.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(Error); ok {
		e.Decorate(caller)
	}
	return err
}
