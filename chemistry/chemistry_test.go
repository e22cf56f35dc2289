/*
 * chemistry_test.go, part of goqdk.
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
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/qchemlab/goqdk/chemjson"
	"github.com/qchemlab/goqdk/kernel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const h2Broombridge = `"$schema": https://raw.githubusercontent.com/Microsoft/Quantum/master/Chemistry/Schema/broombridge-0.2.schema.json
format:
  version: '0.2'
generator:
  source: nwchem
  version: '6.8'
bibliography:
- {url: 'https://doi.org/10.1016/j.cpc.2010.04.018'}
- {url: 'https://doi.org/10.1063/1.4961138'}
- {url: 'https://arxiv.org/abs/1712.06060'}
problem_description:
- metadata: {molecule_name: unknown}
  basis_set: {type: gaussian, name: sto-3g}
  geometry:
    coordinate_system: cartesian
    units: angstrom
    atoms:
    - {name: H, coords: [0.0, 0.0, 0.0]}
    - {name: H, coords: [0.0, 0.0, 0.74]}
  coulomb_repulsion: {units: hartree, value: 0.713776188}
  scf_energy: {units: hartree, value: -1.116706137}
  scf_energy_offset: {units: hartree, value: 0.0}
  fci_energy: {units: hartree, value: -1.137270174, upper: -1.137, lower: -1.138}
  energy_offset: {units: hartree, value: 0.713776188}
  n_orbitals: 2
  n_electrons: 2
  hamiltonian:
    one_electron_integrals:
      units: hartree
      format: sparse
      values:
      - [1, 1, -1.252477495]
      - [2, 2, -0.475934275]
  initial_state_suggestions:
  - Label: UCCSD |G>
    method: unitary_coupled_cluster
    energy: {units: hartree, value: -1.137}
  - Label: greedy
    method: sparse_multi_configurational
`

//fakeKernel answers the chemistry magics like IQ# does.
type fakeKernel struct {
	mu       sync.Mutex
	enabled  bool
	sent     []string
	addTerms map[string]any
}

func (f *fakeKernel) Start(ctx context.Context) error    { return nil }
func (f *fakeKernel) Shutdown(ctx context.Context) error { return nil }

func (f *fakeKernel) Send(ctx context.Context, code string) (kernel.EventStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, code)
	evs := []kernel.Event{{Type: kernel.MsgStatus, ExecutionState: kernel.StatusBusy}}
	evs = append(evs, f.answer(code)...)
	evs = append(evs, kernel.Event{Type: kernel.MsgStatus, ExecutionState: kernel.StatusIdle})
	return &fakeStream{events: evs}, nil
}

func resultEvent(v any) kernel.Event {
	b, err := chemjson.Marshal(v)
	if err != nil {
		panic(err)
	}
	data := map[string]any{kernel.MIMEJSON: string(b)}
	return kernel.Event{Type: kernel.MsgExecuteResult, Data: data, Content: map[string]any{"data": data}}
}

func errorEvent(text string) kernel.Event {
	return kernel.Event{Type: kernel.MsgStream, Name: "stderr", Text: text}
}

//args decodes the JSON arguments of a magic command.
func args(code string) map[string]any {
	i := strings.Index(code, "{")
	v, err := chemjson.Unmarshal([]byte(code[i:]))
	if err != nil {
		panic(err)
	}
	return v.(map[string]any)
}

func hamiltonian() map[string]any {
	return map[string]any{
		"system_indices": []any{0, 1, 2, 3},
		"terms": []any{
			chemjson.T("Identity", []any{chemjson.T([]any{}, 0.713776188)}),
			chemjson.T("PP", []any{chemjson.T([]any{0, 0}, -1.252477495)}),
		},
	}
}

func (f *fakeKernel) answer(code string) []kernel.Event {
	switch {
	case code == "%package":
		pkgs := []any{"Microsoft.Quantum.Standard::0.28.302812"}
		if f.enabled {
			pkgs = append(pkgs, PackageName+"::0.28.302812")
		}
		return []kernel.Event{resultEvent(pkgs)}
	case code == "%package "+PackageName:
		f.enabled = true
		return []kernel.Event{{Type: kernel.MsgStream, Name: "stdout", Text: "Adding package " + PackageName}}
	case !f.enabled && strings.HasPrefix(code, "%chemistry"):
		return []kernel.Event{errorEvent("No such magic command: " + code)}
	case strings.HasPrefix(code, "%chemistry.broombridge "):
		if strings.HasSuffix(code, "missing.yaml") {
			return []kernel.Event{errorEvent("Could not find file missing.yaml\n")}
		}
		b, err := ReadBroombridge(strings.NewReader(h2Broombridge))
		if err != nil {
			panic(err)
		}
		p := b.ProblemDescription[0].toMap()
		return []kernel.Event{resultEvent(map[string]any{
			"$schema":             b.Schema,
			"format":              b.Format,
			"generator":           b.Generator,
			"bibliography":        b.Bibliography,
			"problem_description": []any{p},
		})}
	case strings.HasPrefix(code, "%chemistry.fh.load "):
		return []kernel.Event{resultEvent(hamiltonian())}
	case strings.HasPrefix(code, "%chemistry.fh.add_terms "):
		a := args(code)
		f.addTerms = a
		h := a["hamiltonian"].(map[string]any)
		terms := h["terms"].([]any)
		h["terms"] = append(terms, chemjson.T("PPQQ", a["fermion_terms"]))
		return []kernel.Event{resultEvent(h)}
	case strings.HasPrefix(code, "%chemistry.inputstate.load "):
		a := args(code)
		method := "UnitaryCoupledCluster"
		if a["wavefunction_label"] == "" {
			method = "SparseMultiConfigurational"
		}
		return []kernel.Event{resultEvent(map[string]any{
			"Method":     method,
			"Label":      a["wavefunction_label"],
			"Convention": a["index_convention"],
		})}
	case strings.HasPrefix(code, "%chemistry.encode "):
		terms := chemjson.T([]any{}, []any{}, []any{}, []any{})
		state := chemjson.T(3, []any{
			chemjson.T(chemjson.T(1.0, 0.0), []any{0, 1}),
			chemjson.T(chemjson.T(0.1, 0.0), []any{2, 3}),
			chemjson.T(chemjson.T(0.1, 0.0), []any{0, 2}),
			chemjson.T(chemjson.T(0.1, 0.0), []any{1, 3}),
			chemjson.T(chemjson.T(0.1, 0.0), []any{0, 1, 2, 3}),
		})
		return []kernel.Event{resultEvent(chemjson.T(12, terms, state, -3.7893))}
	}
	return []kernel.Event{errorEvent("unknown command\n")}
}

func (f *fakeKernel) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeStream struct {
	events []kernel.Event
	i      int
}

func (s *fakeStream) Next(ctx context.Context) (kernel.Event, error) {
	if s.i >= len(s.events) {
		return kernel.Event{}, io.EOF
	}
	ev := s.events[s.i]
	s.i++
	return ev, nil
}

func open(t *testing.T) (*kernel.Client, *fakeKernel) {
	t.Helper()
	f := &fakeKernel{}
	c, err := kernel.Open(context.Background(), f, kernel.WithLogger(zerolog.Nop()), kernel.WithHandler(func(kernel.Event) {}))
	require.NoError(t, err)
	t.Cleanup(func() { c.Stop(context.Background()) })
	return c, f
}

func TestReadBroombridge(t *testing.T) {
	b, err := ReadBroombridge(strings.NewReader(h2Broombridge))
	require.NoError(t, err)
	require.Len(t, b.ProblemDescription, 1)
	require.Len(t, b.Bibliography, 3)
	require.True(t, strings.HasSuffix(b.Schema, "broombridge-0.2.schema.json"))
	p, err := b.Problem(0)
	require.NoError(t, err)
	require.Equal(t, 2, p.NOrbitals)
	require.Equal(t, 2, p.NElectrons)
	require.Equal(t, "sto-3g", p.BasisSet["name"])
	require.Equal(t, []string{"UCCSD |G>", "greedy"}, p.InitialStateLabels())
	_, err = b.Problem(1)
	require.Error(t, err)

	_, err = ReadBroombridge(strings.NewReader("format: {version: '0.2'}\n"))
	require.Error(t, err)
	_, err = ReadBroombridge(strings.NewReader("problem_description: [\n"))
	require.Error(t, err)
}

func TestBroombridgeFileRead(t *testing.T) {
	name := filepath.Join(t.TempDir(), "h2.yaml")
	require.NoError(t, os.WriteFile(name, []byte(h2Broombridge), 0o644))
	b, err := BroombridgeFileRead(name)
	require.NoError(t, err)
	require.Len(t, b.ProblemDescription, 1)
	_, err = BroombridgeFileRead(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
}

func TestEnableMagic(t *testing.T) {
	c, f := open(t)
	ctx := context.Background()
	require.NoError(t, EnableMagic(ctx, c))
	require.NoError(t, EnableMagic(ctx, c))
	require.Equal(t, []string{"%package", "%package " + PackageName, "%package"}, f.commands())
}

func TestLoadBroombridge(t *testing.T) {
	c, _ := open(t)
	ctx := context.Background()
	b, err := LoadBroombridge(ctx, c, "h2.yaml")
	require.NoError(t, err)
	require.Len(t, b.ProblemDescription, 1)
	require.Len(t, b.Bibliography, 3)
	require.NotEmpty(t, b.Schema)
	require.Equal(t, 2, b.ProblemDescription[0].NElectrons)

	_, err = LoadBroombridge(ctx, c, "missing.yaml")
	var rerr *kernel.RemoteExecutionError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, []string{"Could not find file missing.yaml\n"}, rerr.Messages)
}

func TestLoadFermionHamiltonian(t *testing.T) {
	c, f := open(t)
	ctx := context.Background()
	h1, err := LoadFermionHamiltonian(ctx, c, "h2.yaml", HalfUp)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3}, h1.SystemIndices)
	require.Len(t, h1.Terms, 2)
	cmds := f.commands()
	last := cmds[len(cmds)-1]
	require.Equal(t, map[string]any{"file_name": "h2.yaml", "index_convention": "HalfUp"}, args(last))

	b, err := LoadBroombridge(ctx, c, "h2.yaml")
	require.NoError(t, err)
	h2, err := b.ProblemDescription[0].LoadFermionHamiltonian(ctx, c, HalfUp)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	cmds = f.commands()
	a := args(cmds[len(cmds)-1])
	pd := a["problem_description"].(map[string]any)
	require.Equal(t, 2.0, pd["n_orbitals"])
	require.Equal(t, "HalfUp", a["index_convention"])
}

func TestLoadInputState(t *testing.T) {
	c, _ := open(t)
	ctx := context.Background()
	s1, err := LoadInputState(ctx, c, "h2.yaml", "UCCSD |G>", UpDown)
	require.NoError(t, err)
	require.Equal(t, "UnitaryCoupledCluster", s1.Method())
	require.Equal(t, "UpDown", s1["Convention"])

	greedy, err := LoadInputState(ctx, c, "h2.yaml", "", HalfUp)
	require.NoError(t, err)
	require.Equal(t, "SparseMultiConfigurational", greedy.Method())
	require.NotEqual(t, s1, greedy)
}

func TestAddTerms(t *testing.T) {
	c, f := open(t)
	ctx := context.Background()
	h, err := LoadFermionHamiltonian(ctx, c, "h2.yaml", UpDown)
	require.NoError(t, err)
	err = h.AddTerms(ctx, c, []FermionTerm{{Indices: []int{0, 1, 1, 0}, Coeff: 0.5}})
	require.NoError(t, err)
	require.Len(t, h.Terms, 3)
	//terms travel as tuples of indices and coefficient
	ft := f.addTerms["fermion_terms"].([]any)
	require.Equal(t, chemjson.Tuple{[]any{0.0, 1.0, 1.0, 0.0}, 0.5}, ft[0])
}

func TestLoadAndEncode(t *testing.T) {
	c, f := open(t)
	jw, err := LoadAndEncode(context.Background(), c, "h2.yaml", 0, "")
	require.NoError(t, err)
	require.Equal(t, 12, jw.NumQubits)
	require.InDelta(t, -3.7893, jw.EnergyOffset, 1e-6)
	require.Len(t, jw.HamiltonianTerms, 4)
	state := jw.InputState.(chemjson.Tuple)
	require.Len(t, state[1], 5)
	require.Len(t, jw.Tuple(), 4)

	var label any
	for _, cmd := range f.commands() {
		if strings.HasPrefix(cmd, "%chemistry.inputstate.load ") {
			label = args(cmd)["wavefunction_label"]
		}
	}
	require.Equal(t, "UCCSD |G>", label)

	_, err = LoadAndEncode(context.Background(), c, "h2.yaml", 3, "")
	require.Error(t, err)
}

func TestIndexConvention(t *testing.T) {
	require.Equal(t, "UpDown", UpDown.String())
	require.Equal(t, "HalfUp", HalfUp.String())
	require.Equal(t, "IndexConvention(7)", IndexConvention(7).String())
}
