/*
 * psi4.go, part of goqdk.
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

//Psi4Bases are the basis sets accepted by Psi4Input.
var Psi4Bases = []string{"3-21G", "6-31G", "cc-pVDZ", "def2-SVP"}

const psi4Template = `
memory %d GB

molecule %s {
symmetry %s
%d %d
  %s
}

set {
  basis %s
  scf_type %s
  reference %s
  d_convergence 1e-8
  e_convergence 1e-8
}

%s
`

const psi4Energy = "e = %s('%s')"

const psi4FCIDUMP = `
e, wfn = %s('SCF', return_wfn=True)
%s
fcidump(wfn, fname='fcidump', oe_ints=['EIGENVALUES'])
clean()
`

//Psi4Options are the settings for a Psi4 input.
type Psi4Options struct {
	MolName    string
	Charge     *int
	Spin       int
	Basis      string
	Symmetry   string //"C1", "C2v", "Cs"... Must be C1 to obtain Broombridge data.
	Method     string //"SCF", "HF", "DFT", "CC2", "CCSD", "CASSCF", "MP2"
	Driver     string //"energy" or "optimize"
	SCFType    string //"DIRECT", "DF", "PK", "OUT_OF_CORE" or "PS"
	MemoryGB   int
	Reference  string
	Conformers int
	Log        *zerolog.Logger
}

//DefaultPsi4Options returns options for a restricted SCF energy
//with the 3-21G basis.
func DefaultPsi4Options() *Psi4Options {
	return &Psi4Options{
		Spin:       1,
		Basis:      "3-21G",
		Symmetry:   "C1",
		Method:     "SCF",
		Driver:     "energy",
		SCFType:    "PK",
		MemoryGB:   1,
		Reference:  "rhf",
		Conformers: 10,
	}
}

//Psi4Input returns a Psi4 input that runs an SCF calculation and dumps the
//integrals in FCIDUMP format. If the method is not SCF, an energy with that
//method is also requested. The geometry is chosen as in OpenMolcasInput.
//An error is returned if the basis is not one of Psi4Bases.
func Psi4Input(mol chem.Moleculer, geom *chem.Geometry, o *Psi4Options) (string, error) {
	errid := "Psi4Input"
	if o == nil {
		o = DefaultPsi4Options()
	}
	if !isInString(Psi4Bases, o.Basis) {
		return "", fmt.Errorf("%s: unknown basis: %s. Please choose from: %s", errid, o.Basis, strings.Join(Psi4Bases, ", "))
	}
	g, err := resolveGeometry(mol, geom, o.Conformers, o.Log)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errid, err)
	}
	energy := ""
	if strings.ToUpper(o.Method) != "SCF" {
		energy = fmt.Sprintf(psi4Energy, o.Driver, o.Method)
	}
	method := fmt.Sprintf(psi4FCIDUMP, o.Driver, energy)
	return fmt.Sprintf(psi4Template,
		o.MemoryGB,
		o.MolName,
		o.Symmetry,
		resolveCharge(o.Charge, mol, g),
		o.Spin,
		g.Format(molcasGeometrySep),
		o.Basis,
		o.SCFType,
		o.Reference,
		method), nil
}

//Psi4Handle writes Psi4 inputs and runs the program.
//Note that the default options are NOT considered part of the API, so they can always change.
type Psi4Handle struct {
	handle
	Options *Psi4Options
}

func NewPsi4Handle() *Psi4Handle {
	run := new(Psi4Handle)
	run.SetDefaults()
	return run
}

//SetDefaults sets the default options, the psi4 command and the
//.dat extension for inputs.
func (O *Psi4Handle) SetDefaults() {
	O.setDefaults("psi4", ".dat")
	O.Options = DefaultPsi4Options()
}

//BuildInput writes a Psi4 input for mol or geom, see Psi4Input.
func (O *Psi4Handle) BuildInput(mol chem.Moleculer, geom *chem.Geometry) error {
	if O.Options.Log == nil {
		O.Options.Log = O.log
	}
	text, err := Psi4Input(mol, geom, O.Options)
	if err != nil {
		return err
	}
	return O.writeInput(text)
}
