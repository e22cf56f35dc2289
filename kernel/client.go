/*
 * client.go, part of goqdk.
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
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/qchemlab/goqdk/chemjson"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//Result is the decoded result of a command. Present is false if the kernel
//sent no result, or a result without a JSON representation.
type Result struct {
	Value   any
	Present bool
	Raw     map[string]any //content of the execute_result message, if any.
}

//Client sends commands to a kernel through a Transport.
//The client is safe for concurrent use, but it executes only one command
//at a time: a second concurrent Execute fails with ErrBusy.
type Client struct {
	mu          sync.Mutex
	t           Transport
	state       State
	reason      error //why the start failed
	log         zerolog.Logger
	passthrough Handler
	probe       time.Duration
}

//Option configures a Client.
type Option func(*Client)

//WithLogger sets the logger for the client.
func WithLogger(l zerolog.Logger) Option {
	return func(C *Client) {
		C.log = l
	}
}

//WithHandler sets the default handler for events that are not results.
//The default handler logs stream output and errors.
func WithHandler(h Handler) Option {
	return func(C *Client) {
		C.passthrough = h
	}
}

//WithProbeTimeout sets how long Ready waits for the kernel to answer.
func WithProbeTimeout(d time.Duration) Option {
	return func(C *Client) {
		C.probe = d
	}
}

//New returns a client for the kernel behind t. The client needs to be
//started before it can execute commands.
func New(t Transport, opts ...Option) *Client {
	C := &Client{
		t:     t,
		state: StateUninitialized,
		log:   log.Logger.With().Str("component", "kernel").Logger(),
		probe: 30 * time.Second,
	}
	for _, o := range opts {
		o(C)
	}
	if C.passthrough == nil {
		C.passthrough = C.logEvent
	}
	return C
}

//Open returns a started client. If the start fails, the transport is
//shut down before returning. The caller should Stop the client when done.
func Open(ctx context.Context, t Transport, opts ...Option) (*Client, error) {
	C := New(t, opts...)
	if err := C.Start(ctx); err != nil {
		C.Stop(context.WithoutCancel(ctx))
		return nil, err
	}
	return C, nil
}

//WithClient opens a client, calls fn with it and stops it, whatever fn returns.
func WithClient(ctx context.Context, t Transport, fn func(*Client) error, opts ...Option) error {
	C, err := Open(ctx, t, opts...)
	if err != nil {
		return err
	}
	defer C.Stop(context.WithoutCancel(ctx))
	return fn(C)
}

//State returns the current state of the client.
func (C *Client) State() State {
	C.mu.Lock()
	defer C.mu.Unlock()
	return C.state
}

//Start starts the transport. On failure the client goes to StateFailed,
//and Start can be tried again.
func (C *Client) Start(ctx context.Context) error {
	errid := "kernel/Start"
	C.mu.Lock()
	next, err := transition(C.state, eventStart)
	if err != nil {
		C.mu.Unlock()
		return fmt.Errorf("%s: %w", errid, err)
	}
	C.state = next
	C.reason = nil
	C.mu.Unlock()

	C.log.Info().Msg("Starting IQ# kernel...")
	err = C.t.Start(ctx)

	C.mu.Lock()
	if C.state != StateStarting {
		//stopped meanwhile, Stop found nothing to shut down
		C.mu.Unlock()
		if err == nil {
			if serr := C.t.Shutdown(context.WithoutCancel(ctx)); serr != nil {
				C.log.Warn().Err(serr).Msg("Error shutting down the IQ# kernel")
			}
			err = ErrClientStopped
		}
		return fmt.Errorf("%s: %w", errid, err)
	}
	defer C.mu.Unlock()
	if err != nil {
		C.state, _ = transition(C.state, eventStartFailed)
		C.reason = err
		C.log.Error().Err(err).Msg("IQ# kernel failed to start")
		return fmt.Errorf("%s: %w", errid, err)
	}
	C.state, _ = transition(C.state, eventStarted)
	C.log.Info().Msg("IQ# kernel ready")
	return nil
}

//Stop shuts the transport down. It can be called any number of times, and
//it always returns nil: shutdown errors are only logged.
func (C *Client) Stop(ctx context.Context) error {
	C.mu.Lock()
	prev := C.state
	C.state, _ = transition(C.state, eventStop)
	C.mu.Unlock()
	if prev == StateStopped || prev == StateUninitialized {
		return nil
	}
	if err := C.t.Shutdown(ctx); err != nil {
		C.log.Warn().Err(err).Msg("Error shutting down the IQ# kernel")
	}
	return nil
}

//ExecOption configures a single Execute call.
type ExecOption func(*execConfig)

type execConfig struct {
	raise   bool
	timeout time.Duration
	handler Handler
}

//RaiseOnError makes stderr output of the kernel an error: the command
//fails with a RemoteExecutionError containing every stderr message.
func RaiseOnError(raise bool) ExecOption {
	return func(c *execConfig) {
		c.raise = raise
	}
}

//Timeout limits the time to wait for the kernel to finish the command.
func Timeout(d time.Duration) ExecOption {
	return func(c *execConfig) {
		c.timeout = d
	}
}

//Passthrough sets the handler for the events of this command that are
//not part of the result.
func Passthrough(h Handler) ExecOption {
	return func(c *execConfig) {
		c.handler = h
	}
}

//Execute sends command to the kernel and waits until the kernel is idle
//again. It returns the decoded result, if the kernel sent one.
func (C *Client) Execute(ctx context.Context, command string, opts ...ExecOption) (Result, error) {
	C.mu.Lock()
	cfg := execConfig{handler: C.passthrough}
	C.mu.Unlock()
	for _, o := range opts {
		o(&cfg)
	}
	if err := C.begin(command); err != nil {
		return Result{}, err
	}
	defer C.end()

	start := time.Now()
	res, err := C.run(ctx, command, cfg)
	recordCommand(command, err, time.Since(start))
	return res, err
}

//run sends the command and collects the answer of the kernel.
func (C *Client) run(ctx context.Context, command string, cfg execConfig) (Result, error) {
	errid := "kernel/Execute"
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}
	C.log.Debug().Str("command", command).Msg("Executing")
	stream, err := C.t.Send(ctx, command)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", errid, err)
	}
	var result *Event
	var errs []string
	for {
		ev, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return Result{}, &ProtocolViolationError{Command: command, Reason: ErrIncompleteResponse}
		}
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", errid, err)
		}
		if ev.Completes() {
			break
		}
		switch {
		case ev.Type == MsgExecuteResult:
			if result != nil {
				return Result{}, &ProtocolViolationError{Command: command, Reason: ErrMultipleResults}
			}
			result = &ev
		case cfg.raise && ev.Type == MsgStream && ev.Name == "stderr":
			errs = append(errs, ev.Text)
		default:
			if cfg.handler != nil {
				cfg.handler(ev)
			}
		}
	}
	if len(errs) > 0 {
		return Result{}, &RemoteExecutionError{Messages: errs}
	}
	if result == nil {
		return Result{}, nil
	}
	return decodeResult(*result)
}

//begin moves the client to StateExecuting, or says why it can't.
func (C *Client) begin(command string) error {
	C.mu.Lock()
	defer C.mu.Unlock()
	switch C.state {
	case StateStopped:
		return &ClientStoppedError{Command: command}
	case StateExecuting:
		return ErrBusy
	case StateReady:
	default:
		return fmt.Errorf("%w (state %s)", ErrNotReady, C.state)
	}
	C.state, _ = transition(C.state, eventExecute)
	return nil
}

//end moves the client back to StateReady, unless it was stopped.
func (C *Client) end() {
	C.mu.Lock()
	defer C.mu.Unlock()
	if C.state == StateExecuting {
		C.state, _ = transition(C.state, eventDone)
	}
}

//decodeResult decodes the JSON representation of a result. The kernel
//sends it as a string containing JSON, but an already decoded value is
//also accepted. A string that is not valid JSON is taken as the value.
func decodeResult(ev Event) (Result, error) {
	res := Result{Raw: ev.Content}
	v, ok := ev.Data[MIMEJSON]
	if !ok {
		return res, nil
	}
	res.Present = true
	if s, ok := v.(string); ok {
		val, err := chemjson.Unmarshal([]byte(s))
		if err != nil {
			res.Value = s
			return res, nil
		}
		res.Value = val
		return res, nil
	}
	res.Value = chemjson.UnmapTuples(v)
	return res, nil
}

//logEvent is the default handler: kernel output goes to the log.
func (C *Client) logEvent(ev Event) {
	switch ev.Type {
	case MsgStream:
		lvl := C.log.Info()
		if ev.Name == "stderr" {
			lvl = C.log.Warn()
		}
		lvl.Str("stream", ev.Name).Msg(strings.TrimRight(ev.Text, "\n"))
	case MsgError:
		C.log.Warn().Interface("content", ev.Content).Msg(ev.Text)
	default:
		C.log.Debug().Str("type", ev.Type).Interface("data", ev.Data).Msg("kernel message")
	}
}
