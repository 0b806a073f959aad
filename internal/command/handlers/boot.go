// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/command"
)

// BootHandler disconnects a target player from the server.
// Self-boot: allowed for all users (like "quit with reason").
// Boot others: admin only.
// Usage: boot <player> [reason]
func BootHandler(ctx context.Context, exec *command.CommandExecution) error {
	args := strings.TrimSpace(exec.Args)
	if args == "" {
		//nolint:wrapcheck // ErrInvalidArgs creates a structured oops error
		return command.ErrInvalidArgs("boot", "boot <player> [reason]")
	}
	if exec.Services.Sessions == nil {
		return command.ErrPrecondition("Nobody is connected.")
	}

	targetName, reason, _ := strings.Cut(args, " ")
	reason = strings.TrimSpace(reason)

	target, ok := findPresence(exec.Services.Sessions, targetName)
	if !ok {
		return oops.Code(command.CodeNotFound).
			With("target", targetName).
			With("message", fmt.Sprintf("No player named '%s' is online.", targetName)).
			Errorf("player %s not online", targetName)
	}

	isSelfBoot := target.SessionID == exec.SessionID
	if !isSelfBoot && !exec.Admin {
		//nolint:wrapcheck // ErrPermissionDenied creates a structured oops error
		return command.ErrPermissionDenied("boot")
	}

	adminName := exec.CharacterID
	if e, _, err := exec.Avatar(); err == nil {
		adminName = e.Name
	}
	if !isSelfBoot {
		exec.Services.Sessions.Send(target.SessionID, command.Result{
			Type: command.TypeSystem,
			Text: bootNotice(adminName, reason),
		})
	}

	if err := exec.Services.Sessions.EndSession(target.SessionID, "booted"); err != nil {
		return oops.Code(command.CodeWorldError).
			With("message", "Unable to boot player. Session may have already ended.").
			Wrap(err)
	}

	if isSelfBoot {
		writeOutput(ctx, exec, "boot", "Disconnecting...")
		return command.ErrSessionEnded
	}

	slog.InfoContext(ctx, "admin boot",
		"admin_id", exec.CharacterID,
		"admin_name", adminName,
		"target_id", target.CharacterID,
		"target_name", target.Name,
		"reason", reason,
	)
	if reason != "" {
		writeOutputf(ctx, exec, "boot", "%s has been booted. Reason: %s\n", target.Name, reason)
	} else {
		writeOutputf(ctx, exec, "boot", "%s has been booted.\n", target.Name)
	}
	return nil
}

func bootNotice(adminName, reason string) string {
	if reason != "" {
		return fmt.Sprintf("You have been disconnected by %s. Reason: %s", adminName, reason)
	}
	return fmt.Sprintf("You have been disconnected by %s.", adminName)
}

// findPresence looks up an online player by name or character id.
func findPresence(dir command.Directory, name string) (command.Presence, bool) {
	for _, p := range dir.Online() {
		if p.CharacterID == "" {
			continue
		}
		if strings.EqualFold(p.Name, name) || strings.EqualFold(p.CharacterID, name) {
			return p, true
		}
	}
	return command.Presence{}, false
}
