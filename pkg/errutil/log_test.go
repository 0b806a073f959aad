// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

func capture(t *testing.T, fn func(*slog.Logger)) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	fn(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestCode(t *testing.T) {
	assert.Empty(t, errutil.Code(nil))
	assert.Empty(t, errutil.Code(errors.New("plain")))
	assert.Empty(t, errutil.Code(oops.Errorf("no code")))
	assert.Equal(t, "LOCKED", errutil.Code(oops.Code("LOCKED").Errorf("door locked")))
	assert.Equal(t, "42", errutil.Code(oops.Code(42).Errorf("numeric")))
}

func TestHasCode(t *testing.T) {
	err := oops.Code("NOT_FOUND").Errorf("no such room")
	assert.True(t, errutil.HasCode(err, "LOCKED", "NOT_FOUND"))
	assert.False(t, errutil.HasCode(err, "LOCKED"))
	assert.False(t, errutil.HasCode(errors.New("plain"), ""))
}

func TestField(t *testing.T) {
	err := oops.With("room_id", "medbay").Errorf("vent blocked")
	v, ok := errutil.Field(err, "room_id")
	require.True(t, ok)
	assert.Equal(t, "medbay", v)

	_, ok = errutil.Field(err, "grid_id")
	assert.False(t, ok)
	_, ok = errutil.Field(errors.New("plain"), "room_id")
	assert.False(t, ok)
}

func TestLogError_OopsError(t *testing.T) {
	err := oops.In("power").Code("GRID_DOWN").With("grid_id", "main").Errorf("no supply")
	entry := capture(t, func(l *slog.Logger) { errutil.LogError(l, "tick failed", err) })

	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "tick failed", entry["msg"])
	assert.Equal(t, "GRID_DOWN", entry["code"])
	assert.Equal(t, "power", entry["domain"])
	assert.Equal(t, map[string]any{"grid_id": "main"}, entry["context"])
}

func TestLogAt_PlainError(t *testing.T) {
	entry := capture(t, func(l *slog.Logger) {
		errutil.LogAt(context.Background(), l, slog.LevelWarn, "save skipped", errors.New("disk full"))
	})

	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "disk full", entry["error"])
	assert.NotContains(t, entry, "code")
	assert.NotContains(t, entry, "context")
}
