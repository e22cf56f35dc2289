/*
 * molecule.go, part of goqdk.
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
	"fmt"
	"math"

	"github.com/qchemlab/goqdk/v3"
)

//Topology contains information about a molecule which is not expected to
//change in time, i.e. everything except for coordinates.
//Only the element symbol of each Atom is used.
type Topology struct {
	Atoms  []*Atom
	charge int
	multi  int
}

//NewTopology returns a topology with the given atoms, charge and multiplicity.
func NewTopology(atoms []*Atom, charge, multi int) *Topology {
	return &Topology{Atoms: atoms, charge: charge, multi: multi}
}

//Atom returns the ith atom of the topology. Panics if i is out of range.
func (T *Topology) Atom(i int) *Atom {
	return T.Atoms[i]
}

//Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

//Charge returns the total charge of the topology.
func (T *Topology) Charge() int {
	return T.charge
}

//Multi returns the multiplicity of the topology.
func (T *Topology) Multi() int {
	return T.multi
}

//SetCharge sets the total charge of the topology.
func (T *Topology) SetCharge(c int) {
	T.charge = c
}

//SetMulti sets the multiplicity of the topology.
func (T *Topology) SetMulti(m int) {
	T.multi = m
}

//Molecule is a topology together with one or more sets of coordinates
//(frames, or conformers) and, optionally, their energies.
//It implements Moleculer.
type Molecule struct {
	*Topology
	Coords   []*v3.Matrix
	Energies []float64 //NaN where unknown.
}

var _ Moleculer = (*Molecule)(nil)

//NewMolecule returns a Molecule without frames.
func NewMolecule(atoms []*Atom, charge, multi int) *Molecule {
	return &Molecule{Topology: NewTopology(atoms, charge, multi)}
}

//AddFrame adds a set of coordinates with its energy (NaN if unknown)
//to the molecule.
func (M *Molecule) AddFrame(coords *v3.Matrix, energy float64) error {
	if coords.NVecs() != M.Len() {
		return &CError{fmt.Sprintf("chem/AddFrame: frame has %d atoms, molecule has %d", coords.NVecs(), M.Len()), []string{"AddFrame"}}
	}
	M.Coords = append(M.Coords, coords)
	M.Energies = append(M.Energies, energy)
	return nil
}

//NFrames returns the number of frames in the molecule.
func (M *Molecule) NFrames() int {
	return len(M.Coords)
}

//Conformer returns the lowest-energy frame among the first nconfs frames
//(all frames if nconfs <= 0). If no energies are known, the first frame is
//returned. The returned matrix is not a copy.
func (M *Molecule) Conformer(nconfs int) (*v3.Matrix, error) {
	if len(M.Coords) == 0 {
		return nil, &CError{"chem/Conformer: molecule has no coordinates", []string{"Conformer"}}
	}
	n := len(M.Coords)
	if nconfs > 0 && nconfs < n {
		n = nconfs
	}
	best := 0
	bestE := math.Inf(1)
	for i := 0; i < n; i++ {
		e := math.NaN()
		if i < len(M.Energies) {
			e = M.Energies[i]
		}
		if !math.IsNaN(e) && e < bestE {
			best, bestE = i, e
		}
	}
	c := M.Coords[best]
	if c.NVecs() != M.Len() {
		return nil, &CError{fmt.Sprintf("chem/Conformer: frame %d has %d atoms, molecule has %d", best, c.NVecs(), M.Len()), []string{"Conformer"}}
	}
	return c, nil
}
