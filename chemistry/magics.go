/*
 * magics.go, part of goqdk.
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
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/qchemlab/goqdk/chemjson"
	"github.com/qchemlab/goqdk/kernel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//PackageName is the NuGet package with the chemistry magics.
const PackageName = "Microsoft.Quantum.Chemistry.Jupyter"

func logger() *zerolog.Logger {
	l := log.Logger.With().Str("component", "chemistry").Logger()
	return &l
}

//FermionHamiltonian is a fermion Hamiltonian as the kernel represents it.
//Terms are kept as the kernel sends them.
type FermionHamiltonian struct {
	SystemIndices []int
	Terms         []any
}

//FermionTerm is a term to add to a Hamiltonian: the indices of the
//fermionic operators and the coefficient.
type FermionTerm struct {
	Indices []int
	Coeff   float64
}

//InputState is a trial state for a chemistry simulation, as the kernel
//represents it.
type InputState map[string]any

//Method returns the method the state was prepared with, "" if unknown.
func (I InputState) Method() string {
	s, _ := I["Method"].(string)
	return s
}

//JWEncodedData is a problem encoded with the Jordan-Wigner transformation.
//The terms and the input state are left as the kernel sends them, so they
//can be passed on to a Q# operation.
type JWEncodedData struct {
	NumQubits        int
	HamiltonianTerms any
	InputState       any
	EnergyOffset     float64
}

//Tuple returns the data in the shape Q# chemistry operations take.
func (J JWEncodedData) Tuple() chemjson.Tuple {
	return chemjson.T(J.NumQubits, J.HamiltonianTerms, J.InputState, J.EnergyOffset)
}

func jwFromValue(v any) (JWEncodedData, error) {
	var items []any
	switch t := v.(type) {
	case chemjson.Tuple:
		items = t
	case []any:
		items = t
	default:
		return JWEncodedData{}, fmt.Errorf("jwFromValue: expected a 4-tuple, got %T", v)
	}
	if len(items) != 4 {
		return JWEncodedData{}, fmt.Errorf("jwFromValue: expected a 4-tuple, got %d items", len(items))
	}
	off, ok := items[3].(float64)
	if !ok {
		return JWEncodedData{}, fmt.Errorf("jwFromValue: energy offset is %T", items[3])
	}
	return JWEncodedData{
		NumQubits:        asInt(items[0]),
		HamiltonianTerms: items[1],
		InputState:       items[2],
		EnergyOffset:     off,
	}, nil
}

func hamiltonianFromValue(v any) (*FermionHamiltonian, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("hamiltonianFromValue: expected an object, got %T", v)
	}
	h := new(FermionHamiltonian)
	if idx, ok := m["system_indices"].([]any); ok {
		for _, i := range idx {
			h.SystemIndices = append(h.SystemIndices, asInt(i))
		}
	}
	h.Terms, _ = m["terms"].([]any)
	return h, nil
}

func (F *FermionHamiltonian) toMap() map[string]any {
	idx := F.SystemIndices
	if idx == nil {
		idx = []int{}
	}
	terms := F.Terms
	if terms == nil {
		terms = []any{}
	}
	return map[string]any{"system_indices": idx, "terms": terms}
}

func stateFromValue(v any) (InputState, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("stateFromValue: expected an object, got %T", v)
	}
	return InputState(m), nil
}

//EnableMagic loads the chemistry magics in the kernel, unless they are
//already there.
func EnableMagic(ctx context.Context, c *kernel.Client) error {
	pkgs, err := c.Packages(ctx)
	if err != nil {
		return fmt.Errorf("chemistry/EnableMagic: %w", err)
	}
	//packages are listed as name::version
	if slices.ContainsFunc(pkgs, func(p string) bool {
		name, _, _ := strings.Cut(p, "::")
		return strings.TrimSpace(name) == PackageName
	}) {
		return nil
	}
	if err := c.AddPackage(ctx, PackageName); err != nil {
		return fmt.Errorf("chemistry/EnableMagic: %w", err)
	}
	return nil
}

//magicValue runs a chemistry magic, failing on any kernel error.
func magicValue(ctx context.Context, c *kernel.Client, name string, args map[string]any) (any, error) {
	res, err := c.ExecuteMagic(ctx, name, args, kernel.RaiseOnError(true))
	if err != nil {
		return nil, err
	}
	if !res.Present {
		return nil, fmt.Errorf("%s: no result from the kernel", name)
	}
	return res.Value, nil
}

//LoadBroombridge loads the Broombridge file fname in the kernel. The path
//is the one the kernel sees.
func LoadBroombridge(ctx context.Context, c *kernel.Client, fname string) (*Broombridge, error) {
	errid := "chemistry/LoadBroombridge"
	if err := EnableMagic(ctx, c); err != nil {
		return nil, err
	}
	logger().Info().Str("file", fname).Msg("Loading Broombridge data")
	res, err := c.Execute(ctx, "%chemistry.broombridge "+fname, kernel.RaiseOnError(true))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	if !res.Present {
		return nil, fmt.Errorf("%s: no result from the kernel", errid)
	}
	b, err := broombridgeFromMap(res.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	return b, nil
}

//LoadFermionHamiltonian loads the fermion Hamiltonian of the Broombridge
//file fname.
func LoadFermionHamiltonian(ctx context.Context, c *kernel.Client, fname string, conv IndexConvention) (*FermionHamiltonian, error) {
	errid := "chemistry/LoadFermionHamiltonian"
	if err := EnableMagic(ctx, c); err != nil {
		return nil, err
	}
	logger().Info().Str("file", fname).Stringer("index_convention", conv).Msg("Loading fermion Hamiltonian")
	v, err := magicValue(ctx, c, "chemistry.fh.load", map[string]any{
		"file_name":        fname,
		"index_convention": conv.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	h, err := hamiltonianFromValue(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	return h, nil
}

//LoadInputState loads the input state with the given label from the
//Broombridge file fname. An empty label gives the greedy (Hartree-Fock) state.
func LoadInputState(ctx context.Context, c *kernel.Client, fname, label string, conv IndexConvention) (InputState, error) {
	errid := "chemistry/LoadInputState"
	if err := EnableMagic(ctx, c); err != nil {
		return nil, err
	}
	logger().Info().Str("file", fname).Str("label", label).Stringer("index_convention", conv).Msg("Loading input state")
	v, err := magicValue(ctx, c, "chemistry.inputstate.load", map[string]any{
		"file_name":          fname,
		"wavefunction_label": label,
		"index_convention":   conv.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	s, err := stateFromValue(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	return s, nil
}

//LoadFermionHamiltonian loads the fermion Hamiltonian of the problem.
//The chemistry magics must be enabled.
func (P *ProblemDescription) LoadFermionHamiltonian(ctx context.Context, c *kernel.Client, conv IndexConvention) (*FermionHamiltonian, error) {
	errid := "ProblemDescription/LoadFermionHamiltonian"
	logger().Info().Stringer("index_convention", conv).Msg("Loading fermion Hamiltonian from problem description")
	v, err := magicValue(ctx, c, "chemistry.fh.load", map[string]any{
		"problem_description": P.toMap(),
		"index_convention":    conv.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	h, err := hamiltonianFromValue(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	return h, nil
}

//LoadInputState loads the input state of the problem with the given label.
//An empty label gives the greedy (Hartree-Fock) state. The chemistry
//magics must be enabled.
func (P *ProblemDescription) LoadInputState(ctx context.Context, c *kernel.Client, label string, conv IndexConvention) (InputState, error) {
	errid := "ProblemDescription/LoadInputState"
	logger().Info().Str("label", label).Stringer("index_convention", conv).Msg("Loading input state from problem description")
	v, err := magicValue(ctx, c, "chemistry.inputstate.load", map[string]any{
		"problem_description": P.toMap(),
		"wavefunction_label":  label,
		"index_convention":    conv.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	s, err := stateFromValue(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	return s, nil
}

//AddTerms adds terms to the Hamiltonian. F is replaced by the Hamiltonian
//the kernel returns.
func (F *FermionHamiltonian) AddTerms(ctx context.Context, c *kernel.Client, terms []FermionTerm) error {
	errid := "FermionHamiltonian/AddTerms"
	logger().Info().Int("terms", len(terms)).Msg("Adding terms to fermion Hamiltonian")
	ft := make([]any, len(terms))
	for i, t := range terms {
		ft[i] = chemjson.T(t.Indices, t.Coeff)
	}
	v, err := magicValue(ctx, c, "chemistry.fh.add_terms", map[string]any{
		"hamiltonian":   F.toMap(),
		"fermion_terms": ft,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errid, err)
	}
	h, err := hamiltonianFromValue(v)
	if err != nil {
		return fmt.Errorf("%s: %w", errid, err)
	}
	*F = *h
	return nil
}

//Encode encodes the Hamiltonian and the input state with the
//Jordan-Wigner transformation.
func Encode(ctx context.Context, c *kernel.Client, h *FermionHamiltonian, state InputState) (JWEncodedData, error) {
	errid := "chemistry/Encode"
	if err := EnableMagic(ctx, c); err != nil {
		return JWEncodedData{}, err
	}
	logger().Info().Msg("Doing JW encoding")
	st := map[string]any(state)
	if st == nil {
		st = map[string]any{}
	}
	v, err := magicValue(ctx, c, "chemistry.encode", map[string]any{
		"hamiltonian": h.toMap(),
		"input_state": st,
	})
	if err != nil {
		return JWEncodedData{}, fmt.Errorf("%s: %w", errid, err)
	}
	jw, err := jwFromValue(v)
	if err != nil {
		return JWEncodedData{}, fmt.Errorf("%s: %w", errid, err)
	}
	return jw, nil
}

//LoadAndEncode loads the problem with index problem from the Broombridge
//file fname and encodes it with the input state label. An empty label
//selects the first suggested initial state.
func LoadAndEncode(ctx context.Context, c *kernel.Client, fname string, problem int, label string) (JWEncodedData, error) {
	errid := "chemistry/LoadAndEncode"
	b, err := LoadBroombridge(ctx, c, fname)
	if err != nil {
		return JWEncodedData{}, err
	}
	p, err := b.Problem(problem)
	if err != nil {
		return JWEncodedData{}, fmt.Errorf("%s: %w", errid, err)
	}
	if label == "" {
		labels := p.InitialStateLabels()
		if len(labels) == 0 {
			return JWEncodedData{}, fmt.Errorf("%s: problem %d suggests no initial state", errid, problem)
		}
		label = labels[0]
		logger().Info().Str("label", label).Msg("Using initial state label")
	}
	state, err := LoadInputState(ctx, c, fname, label, UpDown)
	if err != nil {
		return JWEncodedData{}, err
	}
	h, err := p.LoadFermionHamiltonian(ctx, c, UpDown)
	if err != nil {
		return JWEncodedData{}, err
	}
	return Encode(ctx, c, h, state)
}
