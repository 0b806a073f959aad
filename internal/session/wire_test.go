// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/session"
)

func TestDecodeInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain text", "look\r\n", "look"},
		{"json command", `{"command": " say hi "}`, "say hi"},
		{"json without command", `{"other": 1}`, ""},
		{"broken json stays text", `{say hi`, "{say hi"},
		{"blank", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.DecodeInput(tt.raw))
		})
	}
}

func TestEncodeOutput(t *testing.T) {
	data, err := session.EncodeOutput(command.Result{Type: command.TypeChat, Text: "bob says: hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"chat","message":"bob says: hi"}`, string(data))
}

func TestRenderText(t *testing.T) {
	assert.Equal(t, "line one\r\nline two\r\n", session.RenderText(command.Result{Text: "line one\nline two"}))
}
