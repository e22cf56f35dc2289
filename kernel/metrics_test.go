/*
 * metrics_test.go, part of goqdk.
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
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCommandLabel(t *testing.T) {
	require.Equal(t, "simulate", commandLabel(`%simulate Sample.Op {}`))
	require.Equal(t, "package", commandLabel("%package"))
	require.Equal(t, "metadata", commandLabel("?Sample.Op"))
	require.Equal(t, "code", commandLabel("operation Foo() : Unit {}"))
	require.Equal(t, "simulate", commandLabel("%simulate\tSample.Op"))
	require.Equal(t, "chemistry.encode", commandLabel("%chemistry.encode\n{\"a\": 1}"))
	require.Equal(t, "magic", commandLabel("%"))
}

func TestOutcomeLabel(t *testing.T) {
	require.Equal(t, "ok", outcomeLabel(nil))
	require.Equal(t, "remote_error", outcomeLabel(&RemoteExecutionError{Messages: []string{"x"}}))
	require.Equal(t, "protocol_error", outcomeLabel(&ProtocolViolationError{Reason: ErrMultipleResults}))
	require.Equal(t, "error", outcomeLabel(errors.New("boom")))
}

func TestExecuteRecordsMetrics(t *testing.T) {
	ok := commandsTotal.WithLabelValues("workspace", "ok")
	failed := commandsTotal.WithLabelValues("workspace", "remote_error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	f := &fakeTransport{script: reply(result(`["Sample.Op"]`))}
	c := started(t, f)
	_, err := c.Execute(context.Background(), "%workspace")
	require.NoError(t, err)
	f.script = reply(stream("stderr", "no workspace\n"))
	_, err = c.Execute(context.Background(), "%workspace reload", RaiseOnError(true))
	require.Error(t, err)

	require.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	require.Equal(t, failedBefore+1, testutil.ToFloat64(failed))

	//commands refused before reaching the kernel are not counted
	c.Stop(context.Background())
	_, err = c.Execute(context.Background(), "%workspace")
	require.ErrorIs(t, err, ErrClientStopped)
	require.Equal(t, okBefore+1, testutil.ToFloat64(ok))
}
