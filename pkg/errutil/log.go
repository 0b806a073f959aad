// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package errutil reads codes and context back out of oops errors, for
// logging and for tests.
package errutil

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/oops"
)

// Code returns the oops code of err, or "" when err carries none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok || oopsErr.Code() == nil {
		return ""
	}
	switch c := oopsErr.Code().(type) {
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}

// HasCode reports whether err carries any of codes.
func HasCode(err error, codes ...string) bool {
	c := Code(err)
	return c != "" && slices.Contains(codes, c)
}

// Field returns a value attached to err with oops.With.
func Field(err error, key string) (any, bool) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil, false
	}
	v, ok := oopsErr.Context()[key]
	return v, ok
}

// Attrs flattens err into slog attributes: the message, then the code,
// domain and context when err is an oops error.
func Attrs(err error) []any {
	out := []any{slog.String("error", err.Error())}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return out
	}
	if c := Code(err); c != "" {
		out = append(out, slog.String("code", c))
	}
	if d := oopsErr.Domain(); d != "" {
		out = append(out, slog.String("domain", d))
	}
	if fields := oopsErr.Context(); len(fields) > 0 {
		out = append(out, slog.Any("context", fields))
	}
	return out
}

// LogAt logs err at level on logger, or the default logger when nil.
func LogAt(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(ctx, level, msg, Attrs(err)...)
}

// LogError is LogAt at error level without a context.
func LogError(logger *slog.Logger, msg string, err error) {
	LogAt(context.Background(), logger, slog.LevelError, msg, err)
}
