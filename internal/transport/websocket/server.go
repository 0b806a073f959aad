// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package websocket serves browser clients. Every frame in either
// direction is one message: inbound text or {"command": ...}, outbound
// {"type": ..., "message": ...}.
package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/session"
)

// Transport is the session transport label.
const Transport = "websocket"

// Path is where clients connect.
const Path = "/ws"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Server upgrades HTTP connections on Path into sessions.
type Server struct {
	addr     string
	sessions *session.Manager
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer creates a websocket server.
func NewServer(addr string, sessions *session.Manager) *Server {
	return &Server{
		addr:     addr,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Addr returns the listen address once bound.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Listen binds the address. Run calls it if needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return oops.Code("BIND_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = l
	return nil
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.RLock()
	listener := s.listener
	s.mu.RUnlock()

	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.Handler(ctx))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	slog.Info("websocket server started", "addr", listener.Addr(), "path", Path)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()

	select {
	case err := <-errCh:
		s.wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.Code("TRANSPORT_SERVE").Wrap(err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Hijacked connections are not tracked by Shutdown; wg covers them.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Debug("websocket shutdown", "error", err)
	}
	s.wg.Wait()
	return nil
}

// Handler upgrades requests into sessions bound to ctx.
func (s *Server) Handler(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		s.wg.Add(1)
		defer s.wg.Done()
		s.serve(ctx, conn, r.RemoteAddr)
	}
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn, remote string) {
	sess := s.sessions.Connect(ctx, Transport, remote)
	log := slog.With("session_id", sess.ID.String())

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		s.sessions.Disconnect(sess, s.read(conn, sess, log))
	}()

	stopPing := make(chan struct{})
	var writeMu sync.Mutex
	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-stopPing:
				return
			case <-t.C:
				writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	err := sess.Deliver(func(msg command.Result) error {
		data, err := session.EncodeOutput(msg)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	})
	close(stopPing)
	if err != nil {
		log.Debug("write failed", "error", err)
		s.sessions.Disconnect(sess, "write failed")
	} else {
		writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, sess.Reason()),
			time.Now().Add(writeWait))
		writeMu.Unlock()
	}
	if err := conn.Close(); err != nil {
		log.Debug("error closing connection", "error", err)
	}
	<-readDone
}

func (s *Server) read(conn *websocket.Conn, sess *session.Session, log *slog.Logger) string {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, net.ErrClosed) {
				log.Debug("websocket read error", "error", err)
			}
			return "connection closed"
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if err := sess.Submit(string(data)); err != nil {
			log.Debug("input rejected", "error", err)
		}
	}
}
