/*
 * molcas.go, part of goqdk.
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

package qm

import (
	"fmt"
	"strings"

	"github.com/qchemlab/goqdk"
	"github.com/rs/zerolog"
)

//The geometry lines in the Coord block are indented.
const molcasGeometrySep = "\n  "

const molcasTemplate = `
&GATEWAY
Coord
  %d
  %s
  %s
Basis=%s
Group=%s

&SEWARD
%s

&SCF
Charge=%d
Spin=%d
%s
`

const molcasCASSCF = `
&RASSCF
  Charge= %d
  Nactel  =  %d
  Ras2  =  %d
  Ciroot  =  %d %d 1
`

const molcasFCIDUMP = `
&RASSCF
  DMRG
  FCIDUMP
  TYPEINDEX
  Spin=%d
  Charge=%d

  RGINPUT
  nsweeps = 5
  max_bond_dimension = 500
  ENDRG
`

//MolcasOptions are the settings for an OpenMolcas input deck.
type MolcasOptions struct {
	MolName           string
	Charge            *int //nil: taken from the molecule, or the geometry.
	Spin              int
	Basis             string
	Symmetry          string
	IntegralKeyword   string //"Cholesky", "DIRECT", "1CCD"...
	Method            string
	Broombridge       bool //write a DMRG/FCIDUMP section, to obtain the data for a Broombridge file.
	NumActiveEl       *int //nil: all the electrons of the molecule.
	NumActiveOrbitals int
	CIRoot            int
	Conformers        int //how many conformers to consider when the geometry comes from a molecule.
	Log               *zerolog.Logger
}

//DefaultMolcasOptions returns options for a CASSCF calculation on the
//ground state, with a minimal ANO-RCC basis and no symmetry.
func DefaultMolcasOptions() *MolcasOptions {
	return &MolcasOptions{
		Spin:       1,
		Basis:      "ANO-RCC-MB",
		Symmetry:   "C1",
		Method:     "CASSCF",
		CIRoot:     1,
		Conformers: 10,
	}
}

//OpenMolcasInput returns an OpenMolcas input deck. The geometry is geom if
//given (if mol is also given, it is only used for the charge and the number
//of electrons), otherwise a conformer of mol. A nil o means the default options.
//A CASSCF method gives a &RASSCF section, unless o.Broombridge is set, which
//gives a DMRG/FCIDUMP &RASSCF section instead. Other methods give no &RASSCF
//section. The values are not validated.
func OpenMolcasInput(mol chem.Moleculer, geom *chem.Geometry, o *MolcasOptions) (string, error) {
	errid := "OpenMolcasInput"
	if o == nil {
		o = DefaultMolcasOptions()
	}
	g, err := resolveGeometry(mol, geom, o.Conformers, o.Log)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errid, err)
	}
	charge := resolveCharge(o.Charge, mol, g)
	rasscf := ""
	switch {
	case strings.ToUpper(o.Method) == "CASSCF" && !o.Broombridge:
		nel, err := activeElectrons(o.NumActiveEl, mol, g)
		if err != nil {
			return "", fmt.Errorf("%s: %w", errid, err)
		}
		rasscf = fmt.Sprintf(molcasCASSCF, charge, nel, o.NumActiveOrbitals, o.CIRoot, o.CIRoot)
	case o.Broombridge:
		rasscf = fmt.Sprintf(molcasFCIDUMP, o.Spin, charge)
	}
	return fmt.Sprintf(molcasTemplate,
		g.Len(),
		o.MolName,
		g.Format(molcasGeometrySep),
		o.Basis,
		o.Symmetry,
		o.IntegralKeyword,
		charge,
		o.Spin,
		rasscf), nil
}

//MolcasHandle writes OpenMolcas inputs and runs the program.
//Note that the default options are NOT considered part of the API, so they can always change.
type MolcasHandle struct {
	handle
	Options *MolcasOptions
}

func NewMolcasHandle() *MolcasHandle {
	run := new(MolcasHandle)
	run.SetDefaults()
	return run
}

//SetDefaults sets the default options, the pymolcas command and the
//.inp extension for inputs.
func (O *MolcasHandle) SetDefaults() {
	O.setDefaults("pymolcas", ".inp")
	O.Options = DefaultMolcasOptions()
}

//BuildInput writes an OpenMolcas input for mol or geom, see OpenMolcasInput.
func (O *MolcasHandle) BuildInput(mol chem.Moleculer, geom *chem.Geometry) error {
	if O.Options.Log == nil {
		O.Options.Log = O.log
	}
	text, err := OpenMolcasInput(mol, geom, O.Options)
	if err != nil {
		return err
	}
	return O.writeInput(text)
}
