// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"encoding/json"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
)

type inbound struct {
	Command string `json:"command"`
}

// DecodeInput extracts the command text from a client line. JSON objects
// carrying a "command" field are unwrapped; anything else is taken as typed.
func DecodeInput(raw string) string {
	line := strings.TrimSpace(raw)
	if strings.HasPrefix(line, "{") {
		var msg inbound
		if err := json.Unmarshal([]byte(line), &msg); err == nil {
			return strings.TrimSpace(msg.Command)
		}
	}
	return line
}

// EncodeOutput renders msg as a {"type", "message"} JSON object.
func EncodeOutput(msg command.Result) ([]byte, error) {
	return json.Marshal(msg)
}

// RenderText renders msg for line-oriented clients, one line per message
// line with CRLF endings.
func RenderText(msg command.Result) string {
	text := strings.ReplaceAll(msg.Text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\n", "\r\n") + "\r\n"
}
