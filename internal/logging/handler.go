// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package logging builds the server's slog handler. Every record carries the
// service and version, the OpenTelemetry trace and span ids when a span is
// active, and any attributes attached to the context with With.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"

	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

// With returns ctx carrying extra log attributes, such as the session and
// character a command runs for. Attributes accumulate across calls.
func With(ctx context.Context, args ...any) context.Context {
	rec := slog.Record{}
	rec.Add(args...)
	var attrs []slog.Attr
	rec.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	prev, _ := ctx.Value(ctxKey{}).([]slog.Attr)
	return context.WithValue(ctx, ctxKey{}, append(slices.Clip(prev), attrs...))
}

// Attrs returns the attributes attached to ctx by With.
func Attrs(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(ctxKey{}).([]slog.Attr)
	return attrs
}

type stationHandler struct {
	next    slog.Handler
	service string
	version string
}

func (h *stationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(slog.String("service", h.service), slog.String("version", h.version))
	r.AddAttrs(Attrs(ctx)...)

	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		r.AddAttrs(slog.String("span_id", sc.SpanID().String()))
	}
	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.next.Handle(ctx, r)
}

func (h *stationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *stationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &stationHandler{next: h.next.WithAttrs(attrs), service: h.service, version: h.version}
}

func (h *stationHandler) WithGroup(name string) slog.Handler {
	return &stationHandler{next: h.next.WithGroup(name), service: h.service, version: h.version}
}

// Setup returns a logger writing to w (stderr when nil). format is "json"
// or "text"; anything else is text.
func Setup(service, version, format string, level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	var next slog.Handler
	if format == "json" {
		next = slog.NewJSONHandler(w, opts)
	} else {
		next = slog.NewTextHandler(w, opts)
	}
	return slog.New(&stationHandler{next: next, service: service, version: version})
}
