// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package observability serves the operator endpoints: Prometheus metrics,
// liveness and readiness probes, and a JSON station status.
package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithReadiness makes /healthz/readiness answer 503 while ready is false.
func WithReadiness(ready func() bool) ServerOption {
	return func(s *Server) { s.ready = ready }
}

// WithStatus serves the value returned by status as JSON on /status.
func WithStatus(status func() any) ServerOption {
	return func(s *Server) { s.status = status }
}

// Server is the operator HTTP endpoint. It owns a private Prometheus
// registry so tests and multiple stations never collide on the global one.
type Server struct {
	addr     string
	registry *prometheus.Registry
	metrics  *Metrics
	ready    func() bool
	status   func() any

	mu  sync.Mutex
	ln  net.Listener
	srv *http.Server
}

// NewServer prepares a server for addr ("host:port"; port 0 picks one).
// Nothing listens until Start.
func NewServer(addr string, opts ...ServerOption) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s := &Server{addr: addr, registry: reg, metrics: NewMetrics(reg)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Metrics returns the station collectors registered on this server.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Registry is where other packages register their collectors.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("GET /healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		plain(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("GET /healthz/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if s.ready != nil && !s.ready() {
			plain(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		plain(w, http.StatusOK, "ok")
	})
	if s.status != nil {
		mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(s.status()); err != nil {
				slog.Warn("status encode failed", "error", err)
			}
		})
	}
	return mux
}

func plain(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body + "\n"))
}

// Start binds the listener and serves in the background. The returned
// channel yields at most one serve error and is closed when serving stops.
func (s *Server) Start() (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil, oops.Code("ALREADY_RUNNING").With("addr", s.addr).Errorf("observability server already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, oops.Code("BIND_FAILED").With("addr", s.addr).Wrap(err)
	}
	srv := &http.Server{Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}
	s.ln, s.srv = ln, srv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	slog.Info("observability server listening", "addr", ln.Addr().String())
	return errCh, nil
}

// Stop shuts the server down gracefully. Stopping a server that is not
// running does nothing.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return oops.With("addr", s.addr).Wrapf(err, "stop observability server")
	}
	return nil
}

// Addr is the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}
