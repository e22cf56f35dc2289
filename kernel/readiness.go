/*
 * readiness.go, part of goqdk.
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
	"time"
)

//ReadinessState says whether a kernel can take commands.
type ReadinessState int

const (
	//ReadyState: commands will be accepted.
	ReadyState ReadinessState = iota
	//StartingState: not yet, but it may be soon.
	StartingState
	//FailedState: the kernel won't become ready.
	FailedState
)

func (s ReadinessState) String() string {
	switch s {
	case ReadyState:
		return "ready"
	case StartingState:
		return "starting"
	case FailedState:
		return "failed"
	}
	return fmt.Sprintf("ReadinessState(%d)", int(s))
}

//Readiness is the answer of Ready. Reason is nil for ReadyState.
type Readiness struct {
	State  ReadinessState
	Reason error
}

//Ready checks whether the kernel can take commands. A started client is
//probed by asking the kernel for its history. A probe that times out, or
//that finds the transport not yet connected, means the kernel is still
//starting. Ready doesn't fail: problems are reported in the Readiness.
func (C *Client) Ready(ctx context.Context) Readiness {
	C.mu.Lock()
	state, reason, probe := C.state, C.reason, C.probe
	C.mu.Unlock()
	switch state {
	case StateUninitialized, StateStarting:
		return Readiness{State: StartingState}
	case StateExecuting:
		return Readiness{State: StartingState, Reason: ErrBusy}
	case StateFailed:
		return Readiness{State: FailedState, Reason: reason}
	case StateStopped:
		return Readiness{State: FailedState, Reason: ErrClientStopped}
	}
	_, err := C.Execute(ctx, "%history", Timeout(probe), Passthrough(func(Event) {}))
	switch {
	case err == nil:
		return Readiness{State: ReadyState}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrNotConnected), errors.Is(err, ErrBusy):
		C.log.Debug().Err(err).Msg("IQ# kernel not ready yet")
		return Readiness{State: StartingState, Reason: err}
	default:
		C.log.Debug().Err(err).Msg("IQ# kernel readiness probe failed")
		return Readiness{State: FailedState, Reason: err}
	}
}

//WaitReady calls Ready up to attempts times (20 if attempts <= 0), every
//interval (1s if interval <= 0), until the kernel is ready. It returns the
//reason if the kernel fails, and an error wrapping ErrNotReady if it
//is still not ready after all the attempts.
func (C *Client) WaitReady(ctx context.Context, attempts int, interval time.Duration) error {
	errid := "kernel/WaitReady"
	if attempts <= 0 {
		attempts = 20
	}
	if interval <= 0 {
		interval = time.Second
	}
	var last error
	for i := 0; i < attempts; i++ {
		r := C.Ready(ctx)
		switch r.State {
		case ReadyState:
			return nil
		case FailedState:
			return fmt.Errorf("%s: %w", errid, r.Reason)
		}
		last = r.Reason
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", errid, ctx.Err())
		case <-time.After(interval):
		}
	}
	if last != nil {
		return fmt.Errorf("%s: %w after %d attempts (last: %v)", errid, ErrNotReady, attempts, last)
	}
	return fmt.Errorf("%s: %w after %d attempts", errid, ErrNotReady, attempts)
}
