/*
 * commands.go, part of goqdk.
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

package kernel

import (
	"context"
	"fmt"
	"math"

	"github.com/qchemlab/goqdk/chemjson"
)

//magic returns the text of a magic command with JSON arguments.
func magic(name, target string, args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	b, err := chemjson.Marshal(args)
	if err != nil {
		return "", err
	}
	if target == "" {
		return fmt.Sprintf("%%%s %s", name, b), nil
	}
	return fmt.Sprintf("%%%s %s %s", name, target, b), nil
}

//value returns the value of a result, nil if there is none.
func value(res Result, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

//Compile sends Q# source code to the kernel.
func (C *Client) Compile(ctx context.Context, body string) (Result, error) {
	return C.Execute(ctx, body)
}

//ExecuteMagic runs the magic command %name with args encoded as JSON,
//with tuples tagged.
func (C *Client) ExecuteMagic(ctx context.Context, name string, args map[string]any, opts ...ExecOption) (Result, error) {
	cmd, err := magic(name, "", args)
	if err != nil {
		return Result{}, fmt.Errorf("kernel/ExecuteMagic: %w", err)
	}
	return C.Execute(ctx, cmd, opts...)
}

//Simulate runs the operation op on the full state simulator with the
//given parameters, and returns its result.
func (C *Client) Simulate(ctx context.Context, op string, params map[string]any) (any, error) {
	cmd, err := magic("simulate", op, params)
	if err != nil {
		return nil, fmt.Errorf("kernel/Simulate: %w", err)
	}
	return value(C.Execute(ctx, cmd))
}

//Estimate runs the resources estimator on the operation op and returns
//the count for each metric.
func (C *Client) Estimate(ctx context.Context, op string, params map[string]any) (map[string]int, error) {
	errid := "kernel/Estimate"
	cmd, err := magic("estimate", op, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	v, err := value(C.Execute(ctx, cmd))
	if err != nil {
		return nil, err
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result %T", errid, v)
	}
	//JSON turns the counts into floats.
	ret := make(map[string]int, len(raw))
	for k, c := range raw {
		f, ok := c.(float64)
		if !ok {
			return nil, fmt.Errorf("%s: count for %s is %T, not a number", errid, k, c)
		}
		ret[k] = int(math.Trunc(f))
	}
	return ret, nil
}

//AddPackage adds a NuGet package to the kernel. Errors written by the
//kernel make it fail.
func (C *Client) AddPackage(ctx context.Context, name string) error {
	_, err := C.Execute(ctx, "%package "+name, RaiseOnError(true))
	return err
}

//Packages returns the packages loaded in the kernel.
func (C *Client) Packages(ctx context.Context) ([]string, error) {
	return toStrings(value(C.Execute(ctx, "%package", RaiseOnError(false))))
}

//Reload recompiles the Q# files in the workspace of the kernel.
func (C *Client) Reload(ctx context.Context) error {
	_, err := C.Execute(ctx, "%workspace reload", RaiseOnError(true))
	return err
}

//AvailableOperations returns the names of all the operations the kernel knows.
func (C *Client) AvailableOperations(ctx context.Context) ([]string, error) {
	return toStrings(value(C.Execute(ctx, "%who", RaiseOnError(false))))
}

//WorkspaceOperations returns the names of the operations in the workspace.
func (C *Client) WorkspaceOperations(ctx context.Context) ([]string, error) {
	return toStrings(value(C.Execute(ctx, "%workspace")))
}

//OperationMetadata returns what the kernel knows about the operation name.
func (C *Client) OperationMetadata(ctx context.Context, name string) (map[string]any, error) {
	v, err := value(C.Execute(ctx, "?"+name))
	if err != nil || v == nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("kernel/OperationMetadata: unexpected result %T", v)
	}
	return m, nil
}

//toStrings converts a decoded list of names.
func toStrings(v any, err error) ([]string, error) {
	if err != nil || v == nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("kernel: expected a list of names, got %T", v)
	}
	ret := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("kernel: item %d of the list is %T, not a name", i, item)
		}
		ret[i] = s
	}
	return ret, nil
}
