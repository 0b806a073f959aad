// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package telnet serves line-oriented clients over raw TCP.
package telnet

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/session"
)

// Transport is the session transport label.
const Transport = "telnet"

const (
	maxLine      = 4096
	writeTimeout = 10 * time.Second
)

// Server is a telnet server.
type Server struct {
	addr     string
	sessions *session.Manager
	listener net.Listener
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// NewServer creates a new telnet server.
func NewServer(addr string, sessions *session.Manager) *Server {
	return &Server{addr: addr, sessions: sessions}
}

// Addr returns the server's listen address.
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

// Run accepts connections until ctx is cancelled, then waits for every
// connection to finish.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.RLock()
	listener := s.listener
	s.mu.RUnlock()

	slog.Info("telnet server started", "addr", listener.Addr())

	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			slog.Debug("error closing listener", "error", err)
		}
	}()
	defer s.wg.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Error("accept failed", "error", err)
			continue
		}
		s.wg.Add(1)
		go s.serve(ctx, conn)
	}
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	sess := s.sessions.Connect(ctx, Transport, conn.RemoteAddr().String())
	log := slog.With("session_id", sess.ID.String())

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		s.sessions.Disconnect(sess, s.read(conn, sess, log))
	}()

	err := sess.Deliver(func(msg command.Result) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return err
		}
		_, err := io.WriteString(conn, session.RenderText(msg))
		return err
	})
	if err != nil {
		log.Debug("write failed", "error", err)
		s.sessions.Disconnect(sess, "write failed")
	}
	if err := conn.Close(); err != nil {
		log.Debug("error closing connection", "error", err)
	}
	<-readDone
}

// read submits lines until the connection fails and returns the reason.
func (s *Server) read(conn net.Conn, sess *session.Session, log *slog.Logger) string {
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 512), maxLine)
	for sc.Scan() {
		line := StripControl(sc.Bytes())
		if err := sess.Submit(line); err != nil {
			log.Debug("input rejected", "error", err)
		}
	}
	switch err := sc.Err(); {
	case errors.Is(err, bufio.ErrTooLong):
		return "line too long"
	case err != nil && !errors.Is(err, net.ErrClosed):
		log.Debug("connection read error", "error", err)
	}
	return "connection closed"
}
