/*
 * qm.go, part of goqdk.
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
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/qchemlab/goqdk"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//This allows to set QM calculations using different programs.
type Handle interface {

	//Sets the name for the job, used for input
	//and output files. The extentions will depend on the program.
	SetName(name string)

	//SetWorkDir sets the directory where input and output files are written.
	SetWorkDir(dir string)

	//BuildInput writes an input file for the QM program. The geometry is
	//taken from geom if given, otherwise from a conformer of mol.
	BuildInput(mol chem.Moleculer, geom *chem.Geometry) error

	//Run runs the QM program for a calculation previously set.
	//it waits or not for the result depending of the value of
	//wait.
	Run(wait bool) (err error)
}

var (
	_ Handle = (*MolcasHandle)(nil)
	_ Handle = (*NWChemHandle)(nil)
	_ Handle = (*Psi4Handle)(nil)
)

//handle has what is common to the handles of all programs.
type handle struct {
	inputname string
	workdir   string
	command   string
	ext       string
	log       *zerolog.Logger
}

func (O *handle) SetName(name string) {
	O.inputname = name
}

func (O *handle) SetWorkDir(dir string) {
	O.workdir = dir
}

//SetCommand sets the program to be executed by Run.
func (O *handle) SetCommand(name string) {
	O.command = name
}

//SetLogger sets the logger used for warnings.
func (O *handle) SetLogger(l *zerolog.Logger) {
	O.log = l
}

func (O *handle) setDefaults(command, ext string) {
	O.inputname = "goqdk"
	O.workdir = "."
	O.command = command
	O.ext = ext
}

//InputName returns the path of the input file for the current job.
func (O *handle) InputName() string {
	return filepath.Join(O.workdir, O.inputname+O.ext)
}

func (O *handle) writeInput(text string) error {
	if err := os.WriteFile(O.InputName(), []byte(text), 0o644); err != nil {
		return fmt.Errorf("qm/BuildInput: %w", err)
	}
	return nil
}

//Run runs the command given by the string O.command
//it waits or not for the result depending on wait.
//The output goes to a file with the job name and the .out extension.
func (O *handle) Run(wait bool) (err error) {
	errid := "qm/Run"
	out, err := os.Create(filepath.Join(O.workdir, O.inputname+".out"))
	if err != nil {
		return fmt.Errorf("%s: %w", errid, err)
	}
	command := exec.Command(O.command, O.inputname+O.ext)
	command.Dir = O.workdir
	command.Stdout = out
	command.Stderr = out
	if !wait {
		if err = command.Start(); err != nil {
			out.Close()
			return fmt.Errorf("%s: %s: %w", errid, O.command, err)
		}
		go func() {
			command.Wait()
			out.Close()
		}()
		return nil
	}
	defer out.Close()
	if err = command.Run(); err != nil {
		return fmt.Errorf("%s: %s: %w", errid, O.command, err)
	}
	return nil
}

//Utilities here

//logger returns l, or the global logger if l is nil.
func logger(l *zerolog.Logger) *zerolog.Logger {
	if l == nil {
		return &log.Logger
	}
	return l
}

//resolveGeometry returns geom if given, otherwise a geometry from a conformer
//of mol. A warning is logged if both are given.
func resolveGeometry(mol chem.Moleculer, geom *chem.Geometry, nconfs int, l *zerolog.Logger) (*chem.Geometry, error) {
	if geom != nil {
		if mol != nil {
			logger(l).Warn().Msg("Ignoring molecule, using specified geometry instead")
		}
		return geom, nil
	}
	if mol == nil {
		return nil, fmt.Errorf("qm: either a molecule or a geometry is needed")
	}
	g, err := chem.GeometryFromMolecule(mol, nconfs)
	if err != nil {
		return nil, fmt.Errorf("qm: %w", err)
	}
	return g, nil
}

//resolveCharge returns charge if given, otherwise the formal charge of mol,
//otherwise the charge of geom, otherwise 0.
func resolveCharge(charge *int, mol chem.Moleculer, geom *chem.Geometry) int {
	if charge != nil {
		return *charge
	}
	if mol != nil {
		return mol.Charge()
	}
	if geom != nil {
		if c, ok := geom.Charge(); ok {
			return c
		}
	}
	return 0
}

//activeElectrons returns n if given, otherwise the number of electrons
//of mol or, if mol is nil, of geom.
func activeElectrons(n *int, mol chem.Moleculer, geom *chem.Geometry) (int, error) {
	if n != nil {
		return *n, nil
	}
	if mol == nil && geom == nil {
		return 0, fmt.Errorf("qm: can't count electrons without a molecule or a geometry")
	}
	var a chem.Atomer = geom
	if mol != nil {
		a = mol
	}
	ne, err := chem.NumElectrons(a)
	if err != nil {
		return 0, fmt.Errorf("qm: %w", err)
	}
	return ne, nil
}

//pyFloat formats f the way the input templates of the solvers expect
//plain numbers: exponent form for very small or very large values,
//shortest decimal form otherwise.
func pyFloat(f float64) string {
	a := math.Abs(f)
	if a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return chem.FormatFloat(f)
}
