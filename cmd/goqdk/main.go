/*
 * main.go, part of goqdk.
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

//Command goqdk converts geometries, writes input decks for quantum
//chemistry programs and talks to an IQ# kernel.
//
//	goqdk xyz [-traj] [-title t] in.xyz [out.xyz.gz]
//	goqdk deck [-format molcas|nwchem|psi4] [-j n] [-o dir] files...
//	goqdk exec [-config kernel.toml] [-raise] code
//	goqdk simulate [-config kernel.toml] Operation ['{"n": 3}']
//	goqdk estimate [-config kernel.toml] Operation ['{"n": 3}']
//	goqdk encode [-config kernel.toml] [-problem i] [-label l] broombridge.yaml
//	goqdk ready [-config kernel.toml] [-attempts n]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/qchemlab/goqdk/internal/logging"
)

var errUsage = errors.New("usage: goqdk xyz|deck|exec|simulate|estimate|encode|ready [flags] args")

func main() {
	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "goqdk: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "xyz":
		return runXYZ(rest, stdout)
	case "deck":
		return runDeck(ctx, rest, stdout)
	case "exec":
		return runExec(ctx, rest, stdout)
	case "simulate":
		return runSimulate(ctx, rest, stdout)
	case "estimate":
		return runEstimate(ctx, rest, stdout)
	case "encode":
		return runEncode(ctx, rest, stdout)
	case "ready":
		return runReady(ctx, rest, stdout)
	}
	return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
}
