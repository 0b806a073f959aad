// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
)

const wallUsage = "@wall [info|warning|critical] <message>"

// wallBanners maps each level keyword, and its short form, to the banner
// shown in front of the announcement.
var wallBanners = map[string]string{
	"info":     "[ADMIN ANNOUNCEMENT]",
	"warning":  "[ADMIN WARNING]",
	"warn":     "[ADMIN WARNING]",
	"critical": "[ADMIN CRITICAL]",
	"crit":     "[ADMIN CRITICAL]",
}

// WallHandler broadcasts an admin announcement to every session. A leading
// level keyword picks the banner; without one the level is info.
func WallHandler(ctx context.Context, exec *command.CommandExecution) error {
	banner, text := wallBanners["info"], strings.TrimSpace(exec.Args)
	if level, rest, ok := strings.Cut(text, " "); ok {
		if b, known := wallBanners[strings.ToLower(level)]; known {
			banner, text = b, strings.TrimSpace(rest)
		}
	}
	if text == "" {
		//nolint:wrapcheck // ErrInvalidArgs creates a structured oops error
		return command.ErrInvalidArgs("@wall", wallUsage)
	}
	dir := exec.Services.Sessions
	if dir == nil {
		return command.ErrPrecondition("Nobody is listening.")
	}

	from := exec.CharacterID
	if e, _, err := exec.Avatar(); err == nil {
		from = e.Name
	}
	reached := len(dir.Online())
	dir.BroadcastAll(command.Result{Type: command.TypeBroadcast, Text: banner + " " + from + ": " + text})
	slog.InfoContext(ctx, "admin wall", "admin_id", exec.CharacterID, "banner", banner, "sessions", reached)

	if reached == 1 {
		writeOutput(ctx, exec, "@wall", "Announcement sent to 1 session.")
	} else {
		writeOutputf(ctx, exec, "@wall", "Announcement sent to %d sessions.\n", reached)
	}
	return nil
}
