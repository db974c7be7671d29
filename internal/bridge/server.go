// Package bridge exposes the browser's tab and tab-group APIs to the
// organizer through a companion extension connected over WebSocket.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/tabkeeper/internal/tabs"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// vanishedHints are substrings of extension errors for tabs or groups that
// no longer exist.
var vanishedHints = []string{
	"no tab with id",
	"no group with id",
	"tabs cannot be edited right now",
}

// session is one extension connection. Calls made on it fail when it closes.
type session struct {
	conn    net.Conn
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[int64]chan message
	closed    bool
}

// Server is a tabs.Platform backed by the bridge extension. It accepts a
// single extension connection at a time; a new one replaces the old.
type Server struct {
	timeout time.Duration
	seq     atomic.Int64

	mu      sync.Mutex
	current *session

	handlerMu sync.RWMutex
	onUpdated func(tabs.Notification)

	connects atomic.Int64
}

var _ tabs.Platform = (*Server)(nil)

// NewServer returns a bridge whose calls give up after timeout.
func NewServer(timeout time.Duration) *Server {
	return &Server{timeout: timeout}
}

// OnUpdated registers fn for tab update notifications. fn runs on the
// connection's read goroutine and must not block.
func (s *Server) OnUpdated(fn func(tabs.Notification)) {
	s.handlerMu.Lock()
	s.onUpdated = fn
	s.handlerMu.Unlock()
}

// Connected reports whether an extension is attached.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Connects returns how many extension connections were accepted.
func (s *Server) Connects() int64 { return s.connects.Load() }

// ServeHTTP upgrades the request and serves the extension until the
// connection drops.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Warn("bridge upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := &session{conn: conn, pending: make(map[int64]chan message)}
	s.mu.Lock()
	prev := s.current
	s.current = sess
	s.mu.Unlock()
	if prev != nil {
		slog.Info("bridge extension replaced", "remote", r.RemoteAddr)
		prev.close()
	}
	s.connects.Add(1)
	slog.Info("bridge extension connected", "remote", r.RemoteAddr)

	s.readLoop(sess)

	s.mu.Lock()
	if s.current == sess {
		s.current = nil
	}
	s.mu.Unlock()
	sess.close()
	slog.Info("bridge extension disconnected", "remote", r.RemoteAddr)
}

// Close drops the current extension connection.
func (s *Server) Close() {
	s.mu.Lock()
	sess := s.current
	s.current = nil
	s.mu.Unlock()
	if sess != nil {
		sess.close()
	}
}

func (s *Server) readLoop(sess *session) {
	for {
		data, err := wsutil.ReadClientText(sess.conn)
		if err != nil {
			slog.Debug("bridge read loop exit", "error", err)
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("bridge dropped malformed message", "error", err)
			continue
		}
		if msg.ID > 0 {
			sess.resolve(msg)
			continue
		}
		s.dispatchEvent(msg)
	}
}

func (s *Server) dispatchEvent(msg message) {
	switch msg.Method {
	case eventTabUpdated:
		var evt wireUpdated
		if err := json.Unmarshal(msg.Params, &evt); err != nil {
			slog.Debug("bridge dropped malformed tab update", "error", err)
			return
		}
		s.handlerMu.RLock()
		fn := s.onUpdated
		s.handlerMu.RUnlock()
		if fn != nil {
			fn(evt.toNotification())
		}
	case eventHello:
		slog.Info("bridge extension ready", "info", string(msg.Params))
	case eventKeepalivePing:
	default:
		slog.Debug("bridge ignored event", "method", msg.Method)
	}
}

// call sends one request and decodes the result into out (when non-nil).
func (s *Server) call(ctx context.Context, method string, params, out any) error {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()
	if sess == nil {
		return tabs.NewError(tabs.CodeHostUnavailable, "no extension connected", nil)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	id := s.seq.Add(1)
	resp, err := sess.roundTrip(ctx, request{ID: id, Method: method, Params: params})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return tabs.NewError(tabs.CodeHostTimeout, method+" timed out", err)
		}
		return tabs.NewError(tabs.CodeHostUnavailable, method+" failed", err)
	}
	if resp.Error != "" {
		return classifyError(method, resp.Error)
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return tabs.NewError(tabs.CodeHostRejected, method+" returned malformed result", err)
	}
	return nil
}

func classifyError(method, msg string) error {
	lower := strings.ToLower(msg)
	for _, hint := range vanishedHints {
		if strings.Contains(lower, hint) {
			return tabs.NewError(tabs.CodeTargetVanished, method+": "+msg, nil)
		}
	}
	return tabs.NewError(tabs.CodeHostRejected, method+": "+msg, nil)
}

func (sess *session) roundTrip(ctx context.Context, req request) (message, error) {
	ch := make(chan message, 1)
	sess.pendingMu.Lock()
	if sess.closed {
		sess.pendingMu.Unlock()
		return message{}, fmt.Errorf("bridge: connection closed")
	}
	sess.pending[req.ID] = ch
	sess.pendingMu.Unlock()

	data, err := json.Marshal(req)
	if err != nil {
		sess.deletePending(req.ID)
		return message{}, fmt.Errorf("bridge: marshal: %w", err)
	}

	sess.writeMu.Lock()
	err = wsutil.WriteServerText(sess.conn, data)
	sess.writeMu.Unlock()
	if err != nil {
		sess.deletePending(req.ID)
		return message{}, fmt.Errorf("bridge: send: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return message{}, fmt.Errorf("bridge: connection closed")
		}
		return resp, nil
	case <-ctx.Done():
		sess.deletePending(req.ID)
		return message{}, ctx.Err()
	}
}

func (sess *session) resolve(msg message) {
	sess.pendingMu.Lock()
	ch, ok := sess.pending[msg.ID]
	if ok {
		delete(sess.pending, msg.ID)
	}
	sess.pendingMu.Unlock()
	if ok {
		ch <- msg
	}
}

func (sess *session) deletePending(id int64) {
	sess.pendingMu.Lock()
	delete(sess.pending, id)
	sess.pendingMu.Unlock()
}

func (sess *session) close() {
	sess.pendingMu.Lock()
	defer sess.pendingMu.Unlock()
	if sess.closed {
		return
	}
	sess.closed = true
	_ = sess.conn.Close()
	for id, ch := range sess.pending {
		close(ch)
		delete(sess.pending, id)
	}
}
