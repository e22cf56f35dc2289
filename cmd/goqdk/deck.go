/*
 * deck.go, part of goqdk.
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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	chem "github.com/qchemlab/goqdk"
	"github.com/qchemlab/goqdk/qm"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

//runXYZ reads a geometry and writes it again, compressed or not depending
//on the extension of the output. For trajectories, the lowest energy
//conformer is written.
func runXYZ(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("xyz", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	traj := fs.Bool("traj", false, "the input is a multi-frame XYZ file")
	confs := fs.Int("conformers", 10, "frames considered for the lowest energy conformer")
	title := fs.String("title", "", "title line of the output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return fmt.Errorf("xyz: need an input and optionally an output file")
	}
	geom, err := readGeometry(fs.Arg(0), *traj, *confs)
	if err != nil {
		return err
	}
	if fs.NArg() == 1 {
		_, err = io.WriteString(stdout, geom.XYZ(*title))
		return err
	}
	return chem.XYZFileWrite(fs.Arg(1), geom, *title)
}

func readGeometry(fname string, traj bool, confs int) (*chem.Geometry, error) {
	if !traj {
		return chem.XYZFileRead(fname)
	}
	mol, err := chem.XYZTrajFileRead(fname)
	if err != nil {
		return nil, err
	}
	return chem.GeometryFromMolecule(mol, confs)
}

//deckFlags are the options shared by all the deck formats.
type deckFlags struct {
	format      string
	outdir      string
	jobs        int
	traj        bool
	charge      int
	chargeSet   bool
	spin        int
	basis       string
	method      string
	broombridge bool
	activeOrbs  int
	conformers  int
}

func (d *deckFlags) chargePtr() *int {
	if !d.chargeSet {
		return nil
	}
	c := d.charge
	return &c
}

//handle returns a handle for the format, configured from the flags.
//Each file gets its own handle, since handles are not safe for concurrent use.
func (d *deckFlags) handle(name string) (qm.Handle, error) {
	var h qm.Handle
	switch strings.ToLower(d.format) {
	case "molcas", "openmolcas":
		m := qm.NewMolcasHandle()
		m.Options.MolName = name
		m.Options.Charge = d.chargePtr()
		m.Options.Conformers = d.conformers
		m.Options.Broombridge = d.broombridge
		if d.spin > 0 {
			m.Options.Spin = d.spin
		}
		if d.basis != "" {
			m.Options.Basis = d.basis
		}
		if d.method != "" {
			m.Options.Method = d.method
		}
		if d.activeOrbs > 0 {
			m.Options.NumActiveOrbitals = d.activeOrbs
		}
		h = m
	case "nwchem":
		n := qm.NewNWChemHandle()
		n.Options.MolName = name
		n.Options.Charge = d.chargePtr()
		n.Options.Conformers = d.conformers
		if d.basis != "" {
			n.Options.Basis = d.basis
		}
		if d.method != "" {
			n.Options.Method = d.method
		}
		if d.activeOrbs > 0 {
			n.Options.NumActiveOrbitals = d.activeOrbs
		}
		h = n
	case "psi4":
		p := qm.NewPsi4Handle()
		p.Options.MolName = name
		p.Options.Charge = d.chargePtr()
		p.Options.Conformers = d.conformers
		if d.spin > 0 {
			p.Options.Spin = d.spin
		}
		if d.basis != "" {
			p.Options.Basis = d.basis
		}
		if d.method != "" {
			p.Options.Method = d.method
		}
		h = p
	default:
		return nil, fmt.Errorf("deck: unknown format %q", d.format)
	}
	h.SetName(name)
	h.SetWorkDir(d.outdir)
	return h, nil
}

//baseName strips the directory and the known extensions from fname.
func baseName(fname string) string {
	b := filepath.Base(fname)
	for _, ext := range []string{".gz", ".zst", ".zstd", ".xyz"} {
		b = strings.TrimSuffix(b, ext)
	}
	return b
}

//runDeck writes an input deck for each geometry file, several at a time.
func runDeck(ctx context.Context, args []string, stdout io.Writer) error {
	d := new(deckFlags)
	fs := flag.NewFlagSet("deck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&d.format, "format", "molcas", "deck format: molcas, nwchem or psi4")
	fs.StringVar(&d.outdir, "o", ".", "directory for the decks")
	fs.IntVar(&d.jobs, "j", runtime.NumCPU(), "files processed at the same time")
	fs.BoolVar(&d.traj, "traj", false, "the inputs are multi-frame XYZ files")
	fs.IntVar(&d.charge, "charge", 0, "total charge, taken from the files if not given")
	fs.IntVar(&d.spin, "spin", 0, "spin multiplicity")
	fs.StringVar(&d.basis, "basis", "", "basis set")
	fs.StringVar(&d.method, "method", "", "method")
	fs.BoolVar(&d.broombridge, "broombridge", false, "write the section that dumps Broombridge data (molcas)")
	fs.IntVar(&d.activeOrbs, "active-orbitals", 0, "number of active orbitals")
	fs.IntVar(&d.conformers, "conformers", 10, "frames considered for the lowest energy conformer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "charge" {
			d.chargeSet = true
		}
	})
	if fs.NArg() == 0 {
		return fmt.Errorf("deck: no geometry files")
	}
	if d.jobs < 1 {
		d.jobs = 1
	}
	files := fs.Args()
	written := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.jobs)
	for i, fname := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name, err := writeDeck(d, fname)
			if err != nil {
				return fmt.Errorf("%s: %w", fname, err)
			}
			written[i] = name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, w := range written {
		fmt.Fprintln(stdout, w)
	}
	return nil
}

//writeDeck writes the deck for one geometry file and returns its path.
func writeDeck(d *deckFlags, fname string) (string, error) {
	name := baseName(fname)
	h, err := d.handle(name)
	if err != nil {
		return "", err
	}
	if d.traj {
		mol, err := chem.XYZTrajFileRead(fname)
		if err != nil {
			return "", err
		}
		err = h.BuildInput(mol, nil)
		if err != nil {
			return "", err
		}
	} else {
		geom, err := chem.XYZFileRead(fname)
		if err != nil {
			return "", err
		}
		if err := h.BuildInput(nil, geom); err != nil {
			return "", err
		}
	}
	type named interface{ InputName() string }
	out := name
	if n, ok := h.(named); ok {
		out = n.InputName()
	}
	log.Debug().Str("geometry", fname).Str("deck", out).Msg("Deck written")
	return out, nil
}
