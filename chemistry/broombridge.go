/*
 * broombridge.go, part of goqdk.
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

package chemistry

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//IndexConvention is the way spin orbitals are mapped to qubit indices.
type IndexConvention int

const (
	UpDown IndexConvention = iota + 1
	HalfUp
)

func (I IndexConvention) String() string {
	switch I {
	case UpDown:
		return "UpDown"
	case HalfUp:
		return "HalfUp"
	}
	return fmt.Sprintf("IndexConvention(%d)", int(I))
}

//ProblemDescription is one electronic structure problem of a Broombridge file.
type ProblemDescription struct {
	Metadata                map[string]any   `yaml:"metadata"`
	InitialStateSuggestions []map[string]any `yaml:"initial_state_suggestions"`
	BasisSet                map[string]any   `yaml:"basis_set"`
	Geometry                map[string]any   `yaml:"geometry"`
	CoulombRepulsion        map[string]any   `yaml:"coulomb_repulsion"`
	SCFEnergy               map[string]any   `yaml:"scf_energy"`
	SCFEnergyOffset         map[string]any   `yaml:"scf_energy_offset"`
	FCIEnergy               map[string]any   `yaml:"fci_energy"`
	NOrbitals               int              `yaml:"n_orbitals"`
	NElectrons              int              `yaml:"n_electrons"`
	EnergyOffset            map[string]any   `yaml:"energy_offset"`
	Hamiltonian             map[string]any   `yaml:"hamiltonian"`
}

//Broombridge is a Broombridge data structure.
type Broombridge struct {
	Schema             string               `yaml:"$schema"`
	Format             map[string]any       `yaml:"format"`
	Generator          map[string]any       `yaml:"generator"`
	Bibliography       []any                `yaml:"bibliography"`
	ProblemDescription []ProblemDescription `yaml:"problem_description"`
}

//ReadBroombridge decodes a Broombridge YAML document.
func ReadBroombridge(r io.Reader) (*Broombridge, error) {
	b := new(Broombridge)
	if err := yaml.NewDecoder(r).Decode(b); err != nil {
		return nil, fmt.Errorf("ReadBroombridge: %w", err)
	}
	if len(b.ProblemDescription) == 0 {
		return nil, fmt.Errorf("ReadBroombridge: no problem description")
	}
	return b, nil
}

//BroombridgeFileRead reads the Broombridge file fname.
func BroombridgeFileRead(fname string) (*Broombridge, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("BroombridgeFileRead: %w", err)
	}
	defer f.Close()
	return ReadBroombridge(f)
}

//Problem returns the i-th problem description.
func (B *Broombridge) Problem(i int) (*ProblemDescription, error) {
	if i < 0 || i >= len(B.ProblemDescription) {
		return nil, fmt.Errorf("Broombridge/Problem: index %d out of range, %d problems", i, len(B.ProblemDescription))
	}
	return &B.ProblemDescription[i], nil
}

//InitialStateLabels returns the labels of the suggested initial states, in order.
func (P *ProblemDescription) InitialStateLabels() []string {
	ret := make([]string, 0, len(P.InitialStateSuggestions))
	for _, s := range P.InitialStateSuggestions {
		if l, ok := s["Label"].(string); ok {
			ret = append(ret, l)
		}
	}
	return ret
}

//broombridgeFromMap builds a Broombridge from the value the kernel returns.
//Nested values are kept as they come, tuples included, so they can be
//sent back to the kernel unchanged.
func broombridgeFromMap(v any) (*Broombridge, error) {
	errid := "broombridgeFromMap"
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object, got %T", errid, v)
	}
	b := new(Broombridge)
	for k, val := range m {
		switch strings.TrimLeft(k, "$") {
		case "schema":
			b.Schema, _ = val.(string)
		case "format":
			b.Format = asMap(val)
		case "generator":
			b.Generator = asMap(val)
		case "bibliography":
			b.Bibliography, _ = val.([]any)
		case "problem_description":
			list, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("%s: problem_description is %T, not a list", errid, val)
			}
			for i, p := range list {
				pm, ok := p.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%s: problem description %d is %T", errid, i, p)
				}
				b.ProblemDescription = append(b.ProblemDescription, problemFromMap(pm))
			}
		}
	}
	return b, nil
}

func problemFromMap(m map[string]any) ProblemDescription {
	p := ProblemDescription{
		Metadata:         asMap(m["metadata"]),
		BasisSet:         asMap(m["basis_set"]),
		Geometry:         asMap(m["geometry"]),
		CoulombRepulsion: asMap(m["coulomb_repulsion"]),
		SCFEnergy:        asMap(m["scf_energy"]),
		SCFEnergyOffset:  asMap(m["scf_energy_offset"]),
		FCIEnergy:        asMap(m["fci_energy"]),
		NOrbitals:        asInt(m["n_orbitals"]),
		NElectrons:       asInt(m["n_electrons"]),
		EnergyOffset:     asMap(m["energy_offset"]),
		Hamiltonian:      asMap(m["hamiltonian"]),
	}
	if list, ok := m["initial_state_suggestions"].([]any); ok {
		for _, s := range list {
			if sm, ok := s.(map[string]any); ok {
				p.InitialStateSuggestions = append(p.InitialStateSuggestions, sm)
			}
		}
	}
	return p
}

//toMap returns the problem with the keys the kernel uses.
func (P *ProblemDescription) toMap() map[string]any {
	sugg := make([]any, len(P.InitialStateSuggestions))
	for i, s := range P.InitialStateSuggestions {
		sugg[i] = s
	}
	return map[string]any{
		"metadata":                  orEmpty(P.Metadata),
		"initial_state_suggestions": sugg,
		"basis_set":                 orEmpty(P.BasisSet),
		"geometry":                  orEmpty(P.Geometry),
		"coulomb_repulsion":         orEmpty(P.CoulombRepulsion),
		"scf_energy":                orEmpty(P.SCFEnergy),
		"scf_energy_offset":         orEmpty(P.SCFEnergyOffset),
		"fci_energy":                orEmpty(P.FCIEnergy),
		"n_orbitals":                P.NOrbitals,
		"n_electrons":               P.NElectrons,
		"energy_offset":             orEmpty(P.EnergyOffset),
		"hamiltonian":               orEmpty(P.Hamiltonian),
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

//asInt accepts the numbers that come from JSON (float64) or YAML (int).
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
