/*
 * state.go, part of goqdk.
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

import "fmt"

//State is the lifecycle state of a Client.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateStarting      State = "starting"
	StateReady         State = "ready"
	StateExecuting     State = "executing"
	StateStopped       State = "stopped"
	StateFailed        State = "failed"
)

type event string

const (
	eventStart       event = "start"
	eventStarted     event = "started"
	eventStartFailed event = "start-failed"
	eventExecute     event = "execute"
	eventDone        event = "done"
	eventStop        event = "stop"
)

//transition returns the state that follows current after ev.
//Stopping is valid from any state, and nothing but stopping is valid
//from StateStopped.
func transition(current State, ev event) (State, error) {
	if ev == eventStop {
		return StateStopped, nil
	}
	switch current {
	case StateUninitialized, StateFailed:
		switch ev {
		case eventStart:
			return StateStarting, nil
		}
	case StateStarting:
		switch ev {
		case eventStarted:
			return StateReady, nil
		case eventStartFailed:
			return StateFailed, nil
		}
	case StateReady:
		switch ev {
		case eventExecute:
			return StateExecuting, nil
		}
	case StateExecuting:
		switch ev {
		case eventDone:
			return StateReady, nil
		}
	case StateStopped:
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
	return current, invalidTransition(current, ev)
}

func invalidTransition(state State, ev event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, ev)
}
