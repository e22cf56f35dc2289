/*
 * kernel.go, part of goqdk.
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
	"slices"
	"strings"
	"time"

	"github.com/qchemlab/goqdk/chemistry"
	"github.com/qchemlab/goqdk/chemjson"
	"github.com/qchemlab/goqdk/kernel"
	"github.com/qchemlab/goqdk/kernel/jupyter"
	"github.com/rs/zerolog/log"
)

//newTransport builds the transport for the kernel commands.
var newTransport = func(cfg jupyter.Config) kernel.Transport {
	return jupyter.NewTransport(cfg, jupyter.WithLogger(log.Logger.With().Str("component", "jupyter").Logger()))
}

func loadConfig(path string) (jupyter.Config, error) {
	if path != "" {
		return jupyter.LoadConfig(path)
	}
	cfg := jupyter.DefaultConfig()
	jupyter.ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return jupyter.Config{}, err
	}
	return cfg, nil
}

//kernelFlags returns a flag set with the options every kernel command takes.
func kernelFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	conf := fs.String("config", "", "TOML file with the Jupyter server settings")
	return fs, conf
}

//withKernel runs fn with a started client, which prints the kernel output
//to stdout.
func withKernel(ctx context.Context, conf string, stdout io.Writer, fn func(*kernel.Client) error) error {
	cfg, err := loadConfig(conf)
	if err != nil {
		return err
	}
	show := func(ev kernel.Event) {
		if ev.Type == kernel.MsgStream {
			io.WriteString(stdout, ev.Text)
		}
	}
	return kernel.WithClient(ctx, newTransport(cfg), fn, kernel.WithHandler(show))
}

//printValue writes v as JSON, with tuples tagged.
func printValue(stdout io.Writer, v any) error {
	b, err := chemjson.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s\n", b)
	return err
}

//params decodes the optional JSON object with the parameters of an operation.
func params(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	v, err := chemjson.Unmarshal([]byte(strings.Join(args, " ")))
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parameters must be a JSON object, not %T", v)
	}
	return m, nil
}

func runExec(ctx context.Context, args []string, stdout io.Writer) error {
	fs, conf := kernelFlags("exec")
	raise := fs.Bool("raise", true, "fail if the kernel writes errors")
	timeout := fs.Duration("timeout", 0, "time limit for the command, none if 0")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("exec: no code")
	}
	code := strings.Join(fs.Args(), " ")
	return withKernel(ctx, *conf, stdout, func(c *kernel.Client) error {
		res, err := c.Execute(ctx, code, kernel.RaiseOnError(*raise), kernel.Timeout(*timeout))
		if err != nil {
			return err
		}
		if !res.Present {
			return nil
		}
		return printValue(stdout, res.Value)
	})
}

func runSimulate(ctx context.Context, args []string, stdout io.Writer) error {
	fs, conf := kernelFlags("simulate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("simulate: no operation")
	}
	p, err := params(fs.Args()[1:])
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	return withKernel(ctx, *conf, stdout, func(c *kernel.Client) error {
		v, err := c.Simulate(ctx, fs.Arg(0), p)
		if err != nil {
			return err
		}
		return printValue(stdout, v)
	})
}

func runEstimate(ctx context.Context, args []string, stdout io.Writer) error {
	fs, conf := kernelFlags("estimate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("estimate: no operation")
	}
	p, err := params(fs.Args()[1:])
	if err != nil {
		return fmt.Errorf("estimate: %w", err)
	}
	return withKernel(ctx, *conf, stdout, func(c *kernel.Client) error {
		counts, err := c.Estimate(ctx, fs.Arg(0), p)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(counts))
		for k := range counts {
			names = append(names, k)
		}
		slices.Sort(names)
		for _, k := range names {
			fmt.Fprintf(stdout, "%s\t%d\n", k, counts[k])
		}
		return nil
	})
}

//runEncode loads a Broombridge file in the kernel and prints the
//Jordan-Wigner encoded problem.
func runEncode(ctx context.Context, args []string, stdout io.Writer) error {
	fs, conf := kernelFlags("encode")
	problem := fs.Int("problem", 0, "index of the problem description")
	label := fs.String("label", "", "initial state label, the first suggested if empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("encode: need one Broombridge file")
	}
	return withKernel(ctx, *conf, stdout, func(c *kernel.Client) error {
		jw, err := chemistry.LoadAndEncode(ctx, c, fs.Arg(0), *problem, *label)
		if err != nil {
			return err
		}
		return printValue(stdout, jw.Tuple())
	})
}

func runReady(ctx context.Context, args []string, stdout io.Writer) error {
	fs, conf := kernelFlags("ready")
	attempts := fs.Int("attempts", 20, "readiness probes before giving up")
	interval := fs.Duration("interval", time.Second, "time between probes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withKernel(ctx, *conf, stdout, func(c *kernel.Client) error {
		if err := c.WaitReady(ctx, *attempts, *interval); err != nil {
			return err
		}
		_, err := fmt.Fprintln(stdout, kernel.ReadyState)
		return err
	})
}
