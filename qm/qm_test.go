/*
 * qm_test.go, part of goqdk.
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
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qchemlab/goqdk"
	"github.com/rs/zerolog"
)

func water(Te *testing.T) *chem.Geometry {
	zero := 0
	return chem.NewGeometry([]chem.Atom{
		{Symbol: "O", X: 0.002, Y: 0.398, Z: 0.0},
		{Symbol: "H", X: 0.762, Y: -0.203, Z: 0.0},
		{Symbol: "H", X: -0.764, Y: -0.195, Z: 0.0},
	}, &zero)
}

const waterEnsemble = `3
-76.1
O 0.0 0.0 0.0
H 0.76 0.59 0.0
H -0.76 0.59 0.0
3
-76.3
O 0.002 0.398 0.0
H 0.762 -0.203 0.0
H -0.764 -0.195 0.0
`

const broombridgeDeck = `
&GATEWAY
Coord
  3
  
  O 0.002 0.398 0.0
  H 0.762 -0.203 0.0
  H -0.764 -0.195 0.0
Basis=ANO-RCC-MB
Group=C1

&SEWARD


&SCF
Charge=0
Spin=1

&RASSCF
  DMRG
  FCIDUMP
  TYPEINDEX
  Spin=1
  Charge=0

  RGINPUT
  nsweeps = 5
  max_bond_dimension = 500
  ENDRG

`

func TestMolcasBroombridge(Te *testing.T) {
	o := DefaultMolcasOptions()
	zero := 0
	o.Charge = &zero
	o.Broombridge = true
	deck, err := OpenMolcasInput(nil, water(Te), o)
	if err != nil {
		Te.Fatal(err)
	}
	if deck != broombridgeDeck {
		Te.Errorf("unexpected deck:\n%s", deck)
	}
	//the FCIDUMP section is written whatever the method.
	for _, m := range []string{"SCF", "MP2"} {
		o.Method = m
		deck, err = OpenMolcasInput(nil, water(Te), o)
		if err != nil {
			Te.Fatal(err)
		}
		if !strings.Contains(deck, "  FCIDUMP\n") || !strings.Contains(deck, "  Spin=1\n  Charge=0\n") {
			Te.Errorf("no FCIDUMP section for method %s:\n%s", m, deck)
		}
		if strings.Contains(deck, "Nactel") || strings.Contains(deck, "Ciroot") {
			Te.Errorf("unexpected CASSCF section for method %s:\n%s", m, deck)
		}
	}
}

func TestMolcasCASSCF(Te *testing.T) {
	o := DefaultMolcasOptions()
	o.MolName = "water"
	o.NumActiveOrbitals = 4
	o.CIRoot = 3
	o.IntegralKeyword = "Cholesky"
	deck, err := OpenMolcasInput(nil, water(Te), o)
	if err != nil {
		Te.Fatal(err)
	}
	want := "\n&SCF\nCharge=0\nSpin=1\n\n&RASSCF\n  Charge= 0\n  Nactel  =  10\n  Ras2  =  4\n  Ciroot  =  3 3 1\n\n"
	if !strings.HasSuffix(deck, want) {
		Te.Errorf("unexpected deck:\n%s", deck)
	}
	if !strings.Contains(deck, "Coord\n  3\n  water\n  O 0.002") || !strings.Contains(deck, "&SEWARD\nCholesky\n") {
		Te.Errorf("unexpected header:\n%s", deck)
	}
	//the method is not case sensitive, and the electrons can be given.
	o.Method = "casscf"
	four := 4
	o.NumActiveEl = &four
	deck, _ = OpenMolcasInput(nil, water(Te), o)
	if !strings.Contains(deck, "Nactel  =  4\n") {
		Te.Errorf("active electrons not used:\n%s", deck)
	}
	fmt.Println(deck)
}

func TestMolcasNoRASSCF(Te *testing.T) {
	o := DefaultMolcasOptions()
	o.Method = "SCF"
	deck, err := OpenMolcasInput(nil, water(Te), o)
	if err != nil {
		Te.Fatal(err)
	}
	if strings.Contains(deck, "&RASSCF") {
		Te.Errorf("unexpected RASSCF section:\n%s", deck)
	}
	if !strings.HasSuffix(deck, "Charge=0\nSpin=1\n\n") {
		Te.Errorf("unexpected deck ending: %q", deck[len(deck)-30:])
	}
}

func TestMolcasFromMolecule(Te *testing.T) {
	mol, err := chem.XYZTrajRead(strings.NewReader(waterEnsemble))
	if err != nil {
		Te.Fatal(err)
	}
	mol.SetCharge(1)
	deck, err := OpenMolcasInput(mol, nil, nil)
	if err != nil {
		Te.Fatal(err)
	}
	for _, s := range []string{"  O 0.002 0.398 0.0\n  H 0.762", "Charge=1\n", "Charge= 1\n", "Nactel  =  10\n"} {
		if !strings.Contains(deck, s) {
			Te.Errorf("%q not found in deck:\n%s", s, deck)
		}
	}
	//the explicit geometry wins, with a warning, but the charge comes from the molecule.
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	o := DefaultMolcasOptions()
	o.Log = &l
	single := chem.NewGeometry([]chem.Atom{{Symbol: "He"}}, nil)
	deck, err = OpenMolcasInput(mol, single, o)
	if err != nil {
		Te.Fatal(err)
	}
	if !strings.Contains(deck, "Coord\n  1\n  \n  He 0.0 0.0 0.0\n") || !strings.Contains(deck, "Charge=1\n") {
		Te.Errorf("unexpected deck:\n%s", deck)
	}
	if !strings.Contains(buf.String(), "Ignoring molecule") {
		Te.Errorf("no warning logged: %q", buf.String())
	}
	if _, err = OpenMolcasInput(nil, nil, nil); err == nil {
		Te.Error("deck built without molecule or geometry")
	}
}

func TestNWChem(Te *testing.T) {
	o := DefaultNWChemOptions()
	o.MolName = "water"
	o.NumActiveOrbitals = 6
	one := 1
	o.NOpen = &one
	deck, err := NWChemInput(nil, water(Te), o)
	if err != nil {
		Te.Fatal(err)
	}
	for _, s := range []string{
		"\nstart water\n\necho\nmemory stack 1000 mb heap 100 mb global 1000 mb noverify\n",
		"geometry units au\nsymmetry c1\nO 0.002 0.398 0.0\nH 0.762 -0.203 0.0\nH -0.764 -0.195 0.0\nend\n",
		"scf\nthresh 1.0e-10\ntol2e 1e-10\nrhf\nsinglet\nnopen 1\nend\n",
		"nroots 5\nthresh 1.0e-06\nend\n",
		"set tce:qorb 6\nset tce:qela 5\nset tce:qelb 5\n\ntask tce energy\n",
	} {
		if !strings.Contains(deck, s) {
			Te.Errorf("%q not found in deck:\n%s", s, deck)
		}
	}
	o.GeometryUnits = "bohr"
	if _, err := NWChemInput(nil, water(Te), o); err == nil {
		Te.Error("unknown units accepted")
	}
}

func TestPsi4(Te *testing.T) {
	o := DefaultPsi4Options()
	o.MolName = "water"
	deck, err := Psi4Input(nil, water(Te), o)
	if err != nil {
		Te.Fatal(err)
	}
	if !strings.Contains(deck, "molecule water {\nsymmetry C1\n0 1\n  O 0.002 0.398 0.0\n  H") {
		Te.Errorf("unexpected molecule block:\n%s", deck)
	}
	if !strings.Contains(deck, "\ne, wfn = energy('SCF', return_wfn=True)\n\nfcidump(") {
		Te.Errorf("unexpected method section:\n%s", deck)
	}
	o.Method = "CCSD"
	deck, _ = Psi4Input(nil, water(Te), o)
	if !strings.Contains(deck, "return_wfn=True)\ne = energy('CCSD')\nfcidump(") {
		Te.Errorf("no energy line:\n%s", deck)
	}
	o.Basis = "sto-3g"
	if _, err := Psi4Input(nil, water(Te), o); err == nil {
		Te.Error("unknown basis accepted")
	}
}

func TestHandles(Te *testing.T) {
	dir := Te.TempDir()
	handles := []Handle{NewMolcasHandle(), NewNWChemHandle(), NewPsi4Handle()}
	exts := []string{".inp", ".nw", ".dat"}
	for i, h := range handles {
		h.SetName("water")
		h.SetWorkDir(dir)
		if err := h.BuildInput(nil, water(Te)); err != nil {
			Te.Fatal(err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "water"+exts[i]))
		if err != nil {
			Te.Fatal(err)
		}
		if !strings.Contains(string(data), "O 0.002 0.398 0.0") {
			Te.Errorf("unexpected input file:\n%s", data)
		}
	}
	mh := NewMolcasHandle()
	mh.SetWorkDir(dir)
	mh.SetCommand("goqdk-no-such-program")
	if err := mh.Run(true); err == nil {
		Te.Error("running a missing program gave no error")
	}
	if _, err := exec.LookPath("true"); err == nil {
		mh.SetCommand("true")
		if err := mh.Run(true); err != nil {
			Te.Error(err)
		}
	}
}
