/*
 * errors.go, part of goqdk.
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
	"errors"
	"fmt"
	"strings"
)

//Sentinel errors for the client.
var (
	//ErrClientStopped is returned, wrapped in a ClientStoppedError, for
	//commands sent after Stop.
	ErrClientStopped = errors.New("kernel: client stopped")

	//ErrBusy indicates a command was sent while another one was executing.
	ErrBusy = errors.New("kernel: a command is already executing")

	//ErrNotReady indicates the kernel has not been started, or failed to start.
	ErrNotReady = errors.New("kernel: not ready")

	//ErrNotConnected is returned by transports used before they are started.
	ErrNotConnected = errors.New("kernel: transport not connected")

	//ErrMultipleResults means the kernel sent more than one result for a command.
	ErrMultipleResults = errors.New("more than one execute_result")

	//ErrIncompleteResponse means the messages for a command ended before
	//the kernel reported it was idle.
	ErrIncompleteResponse = errors.New("messages ended before the kernel went idle")
)

//errorBanner starts the message of a RemoteExecutionError.
const errorBanner = "The Q# kernel raised the following errors:\n"

//RemoteExecutionError contains the messages the kernel wrote to
//stderr while executing a command.
type RemoteExecutionError struct {
	Messages []string
}

func (e *RemoteExecutionError) Error() string {
	lines := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		lines[i] = "    " + strings.TrimRight(m, "\n")
	}
	return errorBanner + strings.Join(lines, "\n")
}

//ProtocolViolationError is returned when the messages received for a
//command don't follow the protocol.
type ProtocolViolationError struct {
	Command string
	Reason  error
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("kernel: protocol violation executing %q: %v", e.Command, e.Reason)
}

//Unwrap returns the reason for errors.Is/As support.
func (e *ProtocolViolationError) Unwrap() error {
	return e.Reason
}

//ClientStoppedError is returned for commands sent to a stopped client.
type ClientStoppedError struct {
	Command string
}

func (e *ClientStoppedError) Error() string {
	return fmt.Sprintf("%v: can't execute %q", ErrClientStopped, e.Command)
}

//Is reports whether target is ErrClientStopped.
func (e *ClientStoppedError) Is(target error) bool {
	return target == ErrClientStopped
}
