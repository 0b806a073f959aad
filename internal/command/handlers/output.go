// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/observability"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// logOutputError logs a write failure at warn level and counts it. The
// command itself still succeeds.
func logOutputError(ctx context.Context, cmd, charID string, bytesWritten int, err error) {
	slog.WarnContext(ctx, "failed to write command output",
		"command", cmd,
		"character_id", charID,
		"bytes_written", bytesWritten,
		"error", err,
	)
	observability.RecordCommandOutputFailure(cmd)
}

// writeOutput writes one line of output for the acting player.
func writeOutput(ctx context.Context, exec *command.CommandExecution, cmd, msg string) {
	if n, err := fmt.Fprintln(exec.Output, msg); err != nil {
		logOutputError(ctx, cmd, exec.CharacterID, n, err)
	}
}

// writeOutputf writes formatted output for the acting player. The format
// supplies its own newline.
func writeOutputf(ctx context.Context, exec *command.CommandExecution, cmd, format string, args ...any) {
	if n, err := fmt.Fprintf(exec.Output, format, args...); err != nil {
		logOutputError(ctx, cmd, exec.CharacterID, n, err)
	}
}

// writeOutcome reports a component outcome. Refusals are player errors so
// the reply is typed accordingly.
func writeOutcome(ctx context.Context, exec *command.CommandExecution, cmd string, out world.Outcome) error {
	if !out.OK {
		return command.ErrPrecondition(out.Text)
	}
	writeOutput(ctx, exec, cmd, out.Text)
	return nil
}
