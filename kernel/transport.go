/*
 * transport.go, part of goqdk.
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

import "context"

//Jupyter message types the client deals with.
const (
	MsgStatus        = "status"
	MsgStream        = "stream"
	MsgExecuteResult = "execute_result"
	MsgExecuteReply  = "execute_reply"
	MsgDisplayData   = "display_data"
	MsgError         = "error"
)

//Execution states in status messages.
const (
	StatusBusy = "busy"
	StatusIdle = "idle"
)

//MIMEJSON is the key of the JSON representation in result data.
const MIMEJSON = "application/json"

//Event is a message from the kernel about a command.
type Event struct {
	Type           string         //the Jupyter msg_type
	Name           string         //stream name: "stdout" or "stderr"
	Text           string         //stream text, or the error value for errors
	Data           map[string]any //MIME bundle of results and display data
	ExecutionState string         //"busy" or "idle" for status messages
	Content        map[string]any //the whole message content
}

//Completes returns true if e means the kernel finished the command.
func (e Event) Completes() bool {
	return e.Type == MsgStatus && e.ExecutionState == StatusIdle
}

//EventStream gives the events for one command, in the order the kernel
//sent them. Next returns io.EOF when no more events will come.
type EventStream interface {
	Next(ctx context.Context) (Event, error)
}

//Transport carries commands to a kernel and its answers back. A Client
//owns its Transport: it starts it, and shuts it down when stopped.
type Transport interface {
	//Start starts the kernel (and whatever it needs) and connects to it.
	Start(ctx context.Context) error

	//Send asks the kernel to execute code and returns the events for it.
	Send(ctx context.Context, code string) (EventStream, error)

	//Shutdown stops the kernel and releases all resources.
	Shutdown(ctx context.Context) error
}

//Handler receives the events that are not part of a result.
type Handler func(Event)
