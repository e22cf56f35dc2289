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

package jupyter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/qchemlab/goqdk/kernel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/websocket"
)

//ErrNotConnected is returned by Send before Start.
var ErrNotConnected = kernel.ErrNotConnected

var _ kernel.Transport = (*Transport)(nil)

//Transport runs a kernel on a Jupyter server, through the REST API of
//the server and the websocket it offers for the channels of the kernel.
type Transport struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger

	mu       sync.Mutex
	wmu      sync.Mutex //serializes websocket writes
	proc     *exec.Cmd
	kernelID string
	session  string
	ws       *websocket.Conn
	streams  map[string]*stream
	done     chan struct{}
}

//TransportOption configures a Transport.
type TransportOption func(*Transport)

//WithHTTPClient sets the HTTP client for the REST API.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(T *Transport) {
		T.http = c
	}
}

//WithLogger sets the logger of the transport.
func WithLogger(l zerolog.Logger) TransportOption {
	return func(T *Transport) {
		T.log = l
	}
}

//NewTransport returns a transport for the server described by cfg.
func NewTransport(cfg Config, opts ...TransportOption) *Transport {
	T := &Transport{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log.Logger.With().Str("component", "jupyter").Logger(),
	}
	for _, o := range opts {
		o(T)
	}
	return T
}

//KernelID returns the id the server gave to the kernel, empty before Start.
func (T *Transport) KernelID() string {
	T.mu.Lock()
	defer T.mu.Unlock()
	return T.kernelID
}

//Start launches the server if so configured, asks it for a new kernel and
//connects to the channels of the kernel. The server is retried until it
//answers, for at most the start timeout of the configuration.
func (T *Transport) Start(ctx context.Context) error {
	errid := "jupyter/Start"
	if err := T.cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", errid, err)
	}
	T.mu.Lock()
	if T.ws != nil || T.kernelID != "" {
		T.mu.Unlock()
		return fmt.Errorf("%s: already started", errid)
	}
	proc := T.proc
	T.proc = nil
	T.mu.Unlock()

	if proc != nil {
		//left by a failed Start
		stopProcess(proc)
	}
	if len(T.cfg.Launch) > 0 {
		if err := T.launch(); err != nil {
			return fmt.Errorf("%s: %w", errid, err)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, T.cfg.StartTimeout)
	defer cancel()
	id, err := T.createKernel(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", errid, err)
	}
	session := newID()
	ws, err := T.dial(ctx, id, session)
	if err != nil {
		T.deleteKernel(context.WithoutCancel(ctx), id)
		return fmt.Errorf("%s: %w", errid, err)
	}
	T.mu.Lock()
	T.kernelID = id
	T.session = session
	T.ws = ws
	T.streams = make(map[string]*stream)
	done := make(chan struct{})
	T.done = done
	T.mu.Unlock()
	go T.readLoop(ws, done)
	T.log.Info().Str("kernel_id", id).Str("kernel", T.cfg.Kernel).Msg("Kernel started")
	return nil
}

func (T *Transport) launch() error {
	cmd := exec.Command(T.cfg.Launch[0], T.cfg.Launch[1:]...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", T.cfg.Launch[0], err)
	}
	T.mu.Lock()
	T.proc = cmd
	T.mu.Unlock()
	T.log.Info().Strs("command", T.cfg.Launch).Int("pid", cmd.Process.Pid).Msg("Jupyter server launched")
	return nil
}

func stopProcess(proc *exec.Cmd) error {
	err := proc.Process.Kill()
	proc.Wait()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (T *Transport) request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(T.cfg.ServerURL, "/")+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if T.cfg.Token != "" {
		req.Header.Set("Authorization", "token "+T.cfg.Token)
	}
	return T.http.Do(req)
}

//createKernel asks the server for a kernel, retrying while the server
//can't be reached.
func (T *Transport) createKernel(ctx context.Context) (string, error) {
	for {
		resp, err := T.request(ctx, http.MethodPost, "/api/kernels", map[string]string{"name": T.cfg.Kernel})
		if err == nil {
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				return "", fmt.Errorf("create kernel %s: %s: %s", T.cfg.Kernel, resp.Status, strings.TrimSpace(string(b)))
			}
			var k struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&k); err != nil {
				return "", fmt.Errorf("create kernel %s: %w", T.cfg.Kernel, err)
			}
			if k.ID == "" {
				return "", fmt.Errorf("create kernel %s: no id in answer", T.cfg.Kernel)
			}
			return k.ID, nil
		}
		T.log.Debug().Err(err).Msg("Jupyter server not answering yet")
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("create kernel %s: %w (last error: %v)", T.cfg.Kernel, ctx.Err(), err)
		case <-time.After(T.cfg.RetryInterval):
		}
	}
}

func (T *Transport) deleteKernel(ctx context.Context, id string) error {
	resp, err := T.request(ctx, http.MethodDelete, "/api/kernels/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("delete kernel %s: %w", id, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete kernel %s: %s", id, resp.Status)
	}
	return nil
}

func (T *Transport) dial(ctx context.Context, id, session string) (*websocket.Conn, error) {
	u, err := url.Parse(strings.TrimRight(T.cfg.ServerURL, "/"))
	if err != nil {
		return nil, err
	}
	origin := T.cfg.Origin
	if origin == "" {
		origin = u.Scheme + "://" + u.Host
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/api/kernels/" + url.PathEscape(id) + "/channels"
	u.RawQuery = url.Values{"session_id": {session}}.Encode()
	wcfg, err := websocket.NewConfig(u.String(), origin)
	if err != nil {
		return nil, err
	}
	if T.cfg.Token != "" {
		wcfg.Header.Set("Authorization", "token "+T.cfg.Token)
	}
	ws, err := wcfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to kernel channels: %w", err)
	}
	return ws, nil
}

//readLoop hands every message to the stream of the request that caused it.
//Messages for unknown requests are dropped.
func (T *Transport) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		var m message
		if err := websocket.JSON.Receive(ws, &m); err != nil {
			if !errors.Is(err, io.EOF) {
				T.log.Debug().Err(err).Msg("Kernel channels closed")
			}
			T.mu.Lock()
			for id, s := range T.streams {
				s.close()
				delete(T.streams, id)
			}
			if T.ws == ws {
				//the kernel is still deleted by Shutdown
				T.ws = nil
			}
			T.mu.Unlock()
			ws.Close()
			return
		}
		parent := m.ParentHeader.MsgID
		T.mu.Lock()
		s, ok := T.streams[parent]
		ev := m.event()
		if ok && ev.Completes() {
			delete(T.streams, parent)
		}
		T.mu.Unlock()
		if !ok {
			T.log.Debug().Str("msg_type", m.Header.MsgType).Str("parent", parent).Msg("Dropping message")
			continue
		}
		s.push(ev)
		if ev.Completes() {
			s.close()
		}
	}
}

//Send writes an execute request for code on the shell channel, and
//returns the stream of the messages the kernel sends about it. After the
//channels are lost, Send returns ErrNotConnected.
func (T *Transport) Send(ctx context.Context, code string) (kernel.EventStream, error) {
	T.mu.Lock()
	ws := T.ws
	if ws == nil {
		T.mu.Unlock()
		return nil, ErrNotConnected
	}
	m := newExecuteRequest(T.session, code)
	s := newStream()
	T.streams[m.Header.MsgID] = s
	T.mu.Unlock()

	T.wmu.Lock()
	if dl, ok := ctx.Deadline(); ok {
		ws.SetWriteDeadline(dl)
	} else {
		ws.SetWriteDeadline(time.Time{})
	}
	err := websocket.JSON.Send(ws, m)
	T.wmu.Unlock()
	if err != nil {
		T.mu.Lock()
		delete(T.streams, m.Header.MsgID)
		T.mu.Unlock()
		return nil, fmt.Errorf("jupyter/Send: %w", err)
	}
	return s, nil
}

//Shutdown closes the channels, deletes the kernel and stops the server if
//it was launched by Start. All the steps are tried; their errors are joined.
func (T *Transport) Shutdown(ctx context.Context) error {
	T.mu.Lock()
	ws, id, proc, done := T.ws, T.kernelID, T.proc, T.done
	T.ws, T.kernelID, T.proc = nil, "", nil
	T.mu.Unlock()

	var errs []error
	if ws != nil {
		if err := ws.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channels: %w", err))
		}
		<-done
	}
	if id != "" {
		errs = append(errs, T.deleteKernel(ctx, id))
	}
	if proc != nil {
		if err := stopProcess(proc); err != nil {
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("jupyter/Shutdown: %w", err)
	}
	return nil
}

//stream queues the events of one request. The reader never blocks on it.
type stream struct {
	mu     sync.Mutex
	queue  []kernel.Event
	closed bool
	notify chan struct{}
}

func newStream() *stream {
	return &stream{notify: make(chan struct{}, 1)}
}

func (s *stream) push(ev kernel.Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.signal()
}

func (s *stream) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

func (s *stream) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

//Next returns the next event, or io.EOF once the kernel is idle again,
//or the connection is lost.
func (s *stream) Next(ctx context.Context) (kernel.Event, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return ev, nil
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return kernel.Event{}, io.EOF
		}
		select {
		case <-ctx.Done():
			return kernel.Event{}, ctx.Err()
		case <-s.notify:
		}
	}
}
