/*
 * nwchem.go, part of goqdk.
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

	"github.com/qchemlab/goqdk"
	"github.com/rs/zerolog"
)

var nwchemUnits = []string{"au", "angstrom"}

const nwchemTemplate = `
start %s

echo
%s

geometry units %s
symmetry c1
%s
end

basis
* library %s
end

charge %d

scf
thresh %.1e
tol2e %s
%s
%s
%s
end

tce
%s
tilesize 1
2eorb
2emet 13
nroots %d
thresh %.1e
end

set tce:print_integrals T
set tce:qorb %d
set tce:qela %d
set tce:qelb %d

task tce %s
`

//NWChemOptions are the settings for an NWChem TCE input deck.
type NWChemOptions struct {
	MolName           string
	NumActiveOrbitals int
	Memory            string
	GeometryUnits     string //"au" or "angstrom"
	Basis             string
	Charge            *int //nil: taken from the molecule, or the geometry.
	SCFThresh         float64
	SCFTol2e          float64
	RHF               string //"rhf" or "rohf"
	Spin              string
	NOpen             *int //number of singly occupied orbitals, omitted if nil.
	Method            string
	NumTCERoot        int
	TCEThresh         float64
	Driver            string
	NumActiveEl       *int //nil: all the electrons of the molecule.
	Conformers        int
	Log               *zerolog.Logger
}

//DefaultNWChemOptions returns options for a CCSD energy with the STO-3G basis.
func DefaultNWChemOptions() *NWChemOptions {
	return &NWChemOptions{
		Memory:        "memory stack 1000 mb heap 100 mb global 1000 mb noverify",
		GeometryUnits: "au",
		Basis:         "sto-3g",
		SCFThresh:     1e-10,
		SCFTol2e:      1e-10,
		RHF:           "rhf",
		Spin:          "singlet",
		Method:        "ccsd",
		NumTCERoot:    5,
		TCEThresh:     1e-6,
		Driver:        "energy",
		Conformers:    10,
	}
}

//NWChemInput returns an NWChem input deck for a tensor contraction engine
//(TCE) calculation. The geometry is chosen as in OpenMolcasInput. The active
//electrons are split evenly between alpha and beta. An error is returned if
//the geometry units are not "au" or "angstrom".
func NWChemInput(mol chem.Moleculer, geom *chem.Geometry, o *NWChemOptions) (string, error) {
	errid := "NWChemInput"
	if o == nil {
		o = DefaultNWChemOptions()
	}
	if !isInString(nwchemUnits, o.GeometryUnits) {
		return "", fmt.Errorf("%s: unknown geometry unit: %s", errid, o.GeometryUnits)
	}
	g, err := resolveGeometry(mol, geom, o.Conformers, o.Log)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errid, err)
	}
	nel, err := activeElectrons(o.NumActiveEl, mol, g)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errid, err)
	}
	nopen := ""
	if o.NOpen != nil {
		nopen = fmt.Sprintf("nopen %d", *o.NOpen)
	}
	return fmt.Sprintf(nwchemTemplate,
		o.MolName,
		o.Memory,
		o.GeometryUnits,
		g.Format("\n"),
		o.Basis,
		resolveCharge(o.Charge, mol, g),
		o.SCFThresh,
		pyFloat(o.SCFTol2e),
		o.RHF,
		o.Spin,
		nopen,
		o.Method,
		o.NumTCERoot,
		o.TCEThresh,
		o.NumActiveOrbitals,
		nel/2,
		nel/2,
		o.Driver), nil
}

//NWChemHandle writes NWChem inputs and runs the program.
//Note that the default options are NOT considered part of the API, so they can always change.
type NWChemHandle struct {
	handle
	Options *NWChemOptions
}

func NewNWChemHandle() *NWChemHandle {
	run := new(NWChemHandle)
	run.SetDefaults()
	return run
}

//SetDefaults sets the default options, the nwchem command and the
//.nw extension for inputs.
func (O *NWChemHandle) SetDefaults() {
	O.setDefaults("nwchem", ".nw")
	O.Options = DefaultNWChemOptions()
}

//BuildInput writes an NWChem input for mol or geom, see NWChemInput.
func (O *NWChemHandle) BuildInput(mol chem.Moleculer, geom *chem.Geometry) error {
	if O.Options.Log == nil {
		O.Options.Log = O.log
	}
	text, err := NWChemInput(mol, geom, O.Options)
	if err != nil {
		return err
	}
	return O.writeInput(text)
}

//Same as the previous, but with strings.
func isInString(container []string, test string) bool {
	if container == nil {
		return false
	}
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}
