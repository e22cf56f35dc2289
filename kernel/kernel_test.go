/*
 * kernel_test.go, part of goqdk.
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
	"io"
	"sync"
	"testing"
	"time"

	"github.com/qchemlab/goqdk/chemjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

//fakeTransport answers each command with a scripted list of events.
type fakeTransport struct {
	mu          sync.Mutex
	startErr    error
	shutdownErr error
	script      func(code string) []Event
	block       bool //streams never end, Next waits for the context.
	starting    chan struct{} //if set, closed when Start is entered.
	release     chan struct{} //if set, Start waits for it.
	sendErr     error
	sent        []string
	starts      int
	shutdowns   int
}

func (f *fakeTransport) Start(ctx context.Context) error {
	if f.release != nil {
		close(f.starting)
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}

func (f *fakeTransport) Send(ctx context.Context, code string) (EventStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, code)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	var evs []Event
	if f.script != nil {
		evs = f.script(code)
	}
	return &fakeStream{events: evs, block: f.block}, nil
}

func (f *fakeTransport) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdowns++
	return f.shutdownErr
}

func (f *fakeTransport) lastSent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeStream struct {
	events []Event
	i      int
	block  bool
}

func (s *fakeStream) Next(ctx context.Context) (Event, error) {
	if s.block {
		<-ctx.Done()
		return Event{}, ctx.Err()
	}
	if s.i >= len(s.events) {
		return Event{}, io.EOF
	}
	ev := s.events[s.i]
	s.i++
	return ev, nil
}

func busy() Event { return Event{Type: MsgStatus, ExecutionState: StatusBusy} }
func idle() Event { return Event{Type: MsgStatus, ExecutionState: StatusIdle} }

func stream(name, text string) Event {
	return Event{Type: MsgStream, Name: name, Text: text}
}

func result(json any) Event {
	data := map[string]any{"text/plain": "result"}
	if json != nil {
		data[MIMEJSON] = json
	}
	return Event{Type: MsgExecuteResult, Data: data, Content: map[string]any{"data": data}}
}

//reply returns a script that answers every command with evs, between
//busy and idle.
func reply(evs ...Event) func(string) []Event {
	return func(string) []Event {
		ret := []Event{busy()}
		ret = append(ret, evs...)
		return append(ret, idle())
	}
}

func quiet() Option {
	return WithLogger(zerolog.Nop())
}

func started(t *testing.T, f *fakeTransport) *Client {
	t.Helper()
	c, err := Open(context.Background(), f, quiet())
	require.NoError(t, err)
	require.Equal(t, StateReady, c.State())
	return c
}

func TestExecuteSingleResult(t *testing.T) {
	f := &fakeTransport{script: reply(stream("stdout", "hello\n"), result(`{"a": [1, 2]}`))}
	var seen []Event
	c := started(t, f)
	res, err := c.Execute(context.Background(), "Foo()", Passthrough(func(e Event) {
		if e.Type == MsgStream {
			seen = append(seen, e)
		}
	}))
	require.NoError(t, err)
	require.True(t, res.Present)
	require.Equal(t, map[string]any{"a": []any{1.0, 2.0}}, res.Value)
	require.Len(t, seen, 1)
	require.Equal(t, "hello\n", seen[0].Text)
	require.Equal(t, "Foo()", f.lastSent())
	require.Equal(t, StateReady, c.State())
}

func TestExecuteDecodesTuples(t *testing.T) {
	b, err := chemjson.Marshal([]any{chemjson.T("q", 1.0)})
	require.NoError(t, err)
	f := &fakeTransport{script: reply(result(string(b)))}
	c := started(t, f)
	res, err := c.Execute(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, []any{chemjson.Tuple{"q", 1.0}}, res.Value)

	//embedded JSON values are accepted too
	f.script = reply(result(map[string]any{"@type": "tuple", "Item1": "a", "Item2": 2.0}))
	res, err = c.Execute(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, chemjson.Tuple{"a", 2.0}, res.Value)
}

func TestExecuteNoResult(t *testing.T) {
	f := &fakeTransport{script: reply(stream("stdout", "nothing to see"))}
	c := started(t, f)
	res, err := c.Execute(context.Background(), "x", Passthrough(nil))
	require.NoError(t, err)
	require.False(t, res.Present)
	require.Nil(t, res.Raw)

	f.script = reply(result(nil))
	res, err = c.Execute(context.Background(), "x")
	require.NoError(t, err)
	require.False(t, res.Present)
	require.NotNil(t, res.Raw)
}

func TestExecuteRaiseOnError(t *testing.T) {
	f := &fakeTransport{script: reply(
		stream("stderr", "first error\n"),
		stream("stdout", "out"),
		stream("stderr", "second error\n"),
	)}
	c := started(t, f)
	_, err := c.Execute(context.Background(), "x", RaiseOnError(true), Passthrough(nil))
	var rerr *RemoteExecutionError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, []string{"first error\n", "second error\n"}, rerr.Messages)
	require.Equal(t, "The Q# kernel raised the following errors:\n    first error\n    second error", err.Error())

	//without raising, stderr goes to the handler
	var n int
	_, err = c.Execute(context.Background(), "x", Passthrough(func(e Event) {
		if e.Type == MsgStream {
			n++
		}
	}))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, StateReady, c.State())
}

func TestExecuteProtocolViolations(t *testing.T) {
	f := &fakeTransport{script: reply(result(`1`), result(`2`))}
	c := started(t, f)
	_, err := c.Execute(context.Background(), "x")
	var perr *ProtocolViolationError
	require.ErrorAs(t, err, &perr)
	require.ErrorIs(t, err, ErrMultipleResults)

	f.script = func(string) []Event { return []Event{busy(), result(`1`)} }
	_, err = c.Execute(context.Background(), "x")
	require.ErrorIs(t, err, ErrIncompleteResponse)
	require.Equal(t, StateReady, c.State())
}

func TestExecuteStates(t *testing.T) {
	f := &fakeTransport{script: reply()}
	c := New(f, quiet())
	_, err := c.Execute(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
	require.Equal(t, 1, f.shutdowns)
	_, err = c.Execute(context.Background(), "x")
	var serr *ClientStoppedError
	require.ErrorAs(t, err, &serr)
	require.ErrorIs(t, err, ErrClientStopped)
	require.Error(t, c.Start(context.Background()))
}

func TestExecuteBusy(t *testing.T) {
	f := &fakeTransport{block: true}
	c := started(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		_, err := c.Execute(ctx, "slow")
		done <- err
	}()
	require.Eventually(t, func() bool { return c.State() == StateExecuting }, time.Second, time.Millisecond)
	_, err := c.Execute(context.Background(), "fast")
	require.ErrorIs(t, err, ErrBusy)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Equal(t, StateReady, c.State())
}

func TestExecuteTimeout(t *testing.T) {
	f := &fakeTransport{block: true}
	c := started(t, f)
	_, err := c.Execute(context.Background(), "x", Timeout(10*time.Millisecond))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStartFailure(t *testing.T) {
	boom := errors.New("no kernel")
	f := &fakeTransport{startErr: boom}
	_, err := Open(context.Background(), f, quiet())
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, f.shutdowns)

	c := New(f, quiet())
	require.Error(t, c.Start(context.Background()))
	require.Equal(t, StateFailed, c.State())
	r := c.Ready(context.Background())
	require.Equal(t, FailedState, r.State)
	require.ErrorIs(t, r.Reason, boom)

	//a failed start can be retried
	f.startErr = nil
	require.NoError(t, c.Start(context.Background()))
	require.Equal(t, StateReady, c.State())
}

func TestStopDuringStart(t *testing.T) {
	f := &fakeTransport{starting: make(chan struct{}), release: make(chan struct{})}
	c := New(f, quiet())
	errc := make(chan error, 1)
	go func() {
		errc <- c.Start(context.Background())
	}()
	<-f.starting
	require.NoError(t, c.Stop(context.Background()))
	close(f.release)
	err := <-errc
	require.ErrorIs(t, err, ErrClientStopped)
	require.Equal(t, StateStopped, c.State())
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, 1, f.starts)
	//the kernel started after Stop is shut down by Start itself
	require.Equal(t, 2, f.shutdowns)
}

func TestWithClient(t *testing.T) {
	f := &fakeTransport{script: reply(result(`"ok"`))}
	var got any
	err := WithClient(context.Background(), f, func(c *Client) error {
		res, err := c.Execute(context.Background(), "x")
		got = res.Value
		return err
	}, quiet())
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 1, f.shutdowns)

	boom := errors.New("boom")
	err = WithClient(context.Background(), f, func(*Client) error { return boom }, quiet())
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, f.shutdowns)
}

func TestStopSwallowsErrors(t *testing.T) {
	f := &fakeTransport{shutdownErr: errors.New("gone")}
	c := started(t, f)
	require.NoError(t, c.Stop(context.Background()))
	require.Equal(t, StateStopped, c.State())
}
