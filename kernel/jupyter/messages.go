/*
 * messages.go, part of goqdk.
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

package jupyter

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/qchemlab/goqdk/kernel"
)

//protocolVersion is the version of the Jupyter messaging protocol spoken.
const protocolVersion = "5.3"

type header struct {
	MsgID    string `json:"msg_id"`
	Username string `json:"username"`
	Session  string `json:"session"`
	Date     string `json:"date"`
	MsgType  string `json:"msg_type"`
	Version  string `json:"version"`
}

//message is a Jupyter message as sent over the websocket of the server.
type message struct {
	Header       header         `json:"header"`
	ParentHeader header         `json:"parent_header"`
	Metadata     map[string]any `json:"metadata"`
	Content      map[string]any `json:"content"`
	Channel      string         `json:"channel"`
	Buffers      []any          `json:"buffers"`
}

//newID returns a random identifier for messages and sessions.
func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func newExecuteRequest(session, code string) message {
	return message{
		Header: header{
			MsgID:    newID(),
			Username: "goqdk",
			Session:  session,
			Date:     time.Now().UTC().Format(time.RFC3339Nano),
			MsgType:  "execute_request",
			Version:  protocolVersion,
		},
		Metadata: map[string]any{},
		Content: map[string]any{
			"code":             code,
			"silent":           false,
			"store_history":    true,
			"user_expressions": map[string]any{},
			"allow_stdin":      false,
			"stop_on_error":    true,
		},
		Channel: "shell",
		Buffers: []any{},
	}
}

//event converts a message into what the kernel client needs.
func (m message) event() kernel.Event {
	ev := kernel.Event{Type: m.Header.MsgType, Content: m.Content}
	str := func(key string) string {
		s, _ := m.Content[key].(string)
		return s
	}
	switch ev.Type {
	case kernel.MsgStatus:
		ev.ExecutionState = str("execution_state")
	case kernel.MsgStream:
		ev.Name = str("name")
		ev.Text = str("text")
	case kernel.MsgExecuteResult, kernel.MsgDisplayData:
		ev.Data, _ = m.Content["data"].(map[string]any)
	case kernel.MsgError:
		ev.Text = str("ename") + ": " + str("evalue")
	}
	return ev
}
