// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/command"
)

// WhoHandler lists the crew currently aboard. Admins also see where each
// one is standing.
func WhoHandler(ctx context.Context, exec *command.CommandExecution) error {
	var crew []command.Presence
	if exec.Services.Sessions != nil {
		for _, p := range exec.Services.Sessions.Online() {
			if p.CharacterID != "" {
				crew = append(crew, p)
			}
		}
	}
	writeOutput(ctx, exec, "who", crewList(crew, exec.Now(), exec.Admin))
	return nil
}

func crewList(crew []command.Presence, now time.Time, showRooms bool) string {
	if len(crew) == 0 {
		return "Nobody is aboard."
	}
	slices.SortFunc(crew, func(a, b command.Presence) int { return strings.Compare(a.Name, b.Name) })

	lines := []string{fmt.Sprintf("Crew aboard (%d):", len(crew))}
	for _, p := range crew {
		line := fmt.Sprintf("  %-20s  %-10s", p.Name, idle(now.Sub(p.LastActivity)))
		if showRooms {
			line += "  " + p.Room
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return strings.Join(lines, "\n")
}

// idle renders an idle time at most two units wide.
func idle(d time.Duration) string {
	d = d.Truncate(time.Second)
	switch {
	case d < time.Second:
		return "active"
	case d < time.Minute:
		return fmt.Sprintf("idle %ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("idle %dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("idle %dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// QuitHandler says goodbye and ends the caller's session. The avatar stays
// where it stands for the next login.
func QuitHandler(ctx context.Context, exec *command.CommandExecution) error {
	writeOutput(ctx, exec, "quit", "Goodbye!")
	if dir := exec.Services.Sessions; dir != nil {
		if err := dir.EndSession(exec.SessionID, "quit"); err != nil {
			return oops.Code(command.CodeWorldError).
				With("session_id", exec.SessionID.String()).
				With("message", "Unable to end session. Please try again.").
				Wrap(err)
		}
	}
	return command.ErrSessionEnded
}

// ShutdownHandler warns every session and schedules a graceful stop.
// Usage: @shutdown [delay], where delay is seconds or a duration like 2m.
func ShutdownHandler(ctx context.Context, exec *command.CommandExecution) error {
	delay, err := shutdownDelay(exec.Args)
	if err != nil {
		return err
	}
	dir := exec.Services.Sessions
	if dir == nil {
		return command.ErrPrecondition("There is no server to shut down.")
	}

	warning, reply := "[SHUTDOWN] Server shutting down NOW.", "Initiating server shutdown..."
	if delay > 0 {
		warning = fmt.Sprintf("[SHUTDOWN] Server shutting down in %s.", delay)
		reply = fmt.Sprintf("Initiating server shutdown in %s...", delay)
	}
	dir.BroadcastAll(command.Result{Type: command.TypeSystem, Text: warning})
	writeOutput(ctx, exec, "@shutdown", reply)

	slog.InfoContext(ctx, "admin shutdown", "admin_id", exec.CharacterID, "delay", delay)
	dir.Shutdown(delay, "shutdown by "+exec.CharacterID)
	return nil
}

func shutdownDelay(arg string) (time.Duration, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, nil
	}
	d, err := parseDuration(arg)
	if err != nil || d < 0 {
		//nolint:wrapcheck // ErrInvalidArgs creates a structured oops error
		return 0, command.ErrInvalidArgs("@shutdown", "@shutdown [seconds|duration]")
	}
	return d, nil
}
