// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/systems/security"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

const (
	defaultAccessLogLines = 20
	defaultSeverity       = "minor"
)

func securitySystem(exec *command.CommandExecution) (*security.System, error) {
	if exec.Services.Security == nil {
		return nil, command.ErrPrecondition("Security systems are offline.")
	}
	return exec.Services.Security, nil
}

// ReportHandler files a crime report against a suspect.
// Usage: report <suspect> for <description>
func ReportHandler(ctx context.Context, exec *command.CommandExecution) error {
	suspect, desc, ok := command.SplitPrep(exec.Args, "for")
	if !ok {
		return command.ErrInvalidArgs("report", "report <suspect> for <description>")
	}
	e, _, err := exec.Avatar()
	if err != nil {
		return err
	}
	sys, err := securitySystem(exec)
	if err != nil {
		return err
	}
	crime := sys.ReportCrime(ctx, e.ID, world.CharacterID(suspect), desc, defaultSeverity)
	writeOutputf(ctx, exec, "report", "Crime #%d reported against %s.\n", crime.ID, suspect)
	return nil
}

// EvidenceHandler attaches evidence to a reported crime.
// Usage: evidence <crime#> <description>
func EvidenceHandler(ctx context.Context, exec *command.CommandExecution) error {
	num, desc, _ := strings.Cut(strings.TrimSpace(exec.Args), " ")
	id, err := strconv.Atoi(strings.TrimPrefix(num, "#"))
	if err != nil || strings.TrimSpace(desc) == "" {
		return command.ErrInvalidArgs("evidence", "evidence <crime#> <description>")
	}
	sys, err := securitySystem(exec)
	if err != nil {
		return err
	}
	if err := sys.AddEvidence(ctx, id, strings.TrimSpace(desc)); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "evidence", "Evidence added to crime #%d.\n", id)
	return nil
}

// CrimesHandler lists every filed report.
func CrimesHandler(ctx context.Context, exec *command.CommandExecution) error {
	sys, err := securitySystem(exec)
	if err != nil {
		return err
	}
	crimes := sys.Crimes()
	if len(crimes) == 0 {
		writeOutput(ctx, exec, "crimes", "No crimes on record.")
		return nil
	}
	for _, c := range crimes {
		writeOutputf(ctx, exec, "crimes", "#%d [%s/%s] %s: %s (%d evidence)\n",
			c.ID, c.Severity, c.Status, c.SuspectID, c.Description, len(c.Evidence))
	}
	return nil
}

// MonitorHandler views a room through its security cameras.
// Usage: monitor <room>
func MonitorHandler(ctx context.Context, exec *command.CommandExecution) error {
	room := strings.TrimSpace(exec.Args)
	if room == "" {
		return command.ErrInvalidArgs("monitor", "monitor <room>")
	}
	sys, err := securitySystem(exec)
	if err != nil {
		return err
	}
	view, err := sys.Monitor(room, exec.CharacterID)
	if err != nil {
		return err
	}
	exec.Type = command.TypeLocation
	writeOutput(ctx, exec, "monitor", "[Camera] "+view)
	for _, a := range sys.PendingAlerts() {
		if a.RoomID == room {
			writeOutputf(ctx, exec, "monitor", "Motion alert: %s at %s\n", a.PlayerID, a.At.Format(time.TimeOnly))
		}
	}
	return nil
}

// ArrestHandler jails a player. Admin only.
// Usage: @arrest <player> <duration> [cell]
func ArrestHandler(ctx context.Context, exec *command.CommandExecution) error {
	fields := strings.Fields(exec.Args)
	if len(fields) < 2 {
		return command.ErrInvalidArgs("@arrest", "@arrest <player> <duration> [cell]")
	}
	d, err := parseDuration(fields[1])
	if err != nil {
		return command.ErrInvalidArgs("@arrest", "@arrest <player> <duration> [cell]")
	}
	cell := ""
	if len(fields) > 2 {
		cell = fields[2]
	}
	sys, err := securitySystem(exec)
	if err != nil {
		return err
	}
	pr, err := sys.Arrest(ctx, world.CharacterID(fields[0]), d, cell)
	if err != nil {
		return err
	}
	writeOutputf(ctx, exec, "@arrest", "%s arrested until %s.\n", pr.PlayerID, pr.Release.Format(time.TimeOnly))
	return nil
}

// ReleaseHandler frees a prisoner early. Admin only.
func ReleaseHandler(ctx context.Context, exec *command.CommandExecution) error {
	name := strings.TrimSpace(exec.Args)
	if name == "" {
		return command.ErrInvalidArgs("@release", "@release <player>")
	}
	sys, err := securitySystem(exec)
	if err != nil {
		return err
	}
	if !sys.Release(ctx, world.CharacterID(name)) {
		return command.ErrPrecondition(name + " is not imprisoned.")
	}
	writeOutputf(ctx, exec, "@release", "%s released.\n", name)
	return nil
}

// AccessLogHandler prints recent door activity. Admin only.
// Usage: @accesslog [lines]
func AccessLogHandler(ctx context.Context, exec *command.CommandExecution) error {
	limit := defaultAccessLogLines
	if arg := strings.TrimSpace(exec.Args); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return command.ErrInvalidArgs("@accesslog", "@accesslog [lines]")
		}
		limit = n
	}
	sys, err := securitySystem(exec)
	if err != nil {
		return err
	}
	entries := sys.AccessLog(limit)
	if len(entries) == 0 {
		writeOutput(ctx, exec, "@accesslog", "No door activity recorded.")
		return nil
	}
	for _, e := range entries {
		writeOutputf(ctx, exec, "@accesslog", "%s %-8s %s by %s (%s)\n",
			e.Time.Format(time.TimeOnly), e.Action, e.DoorID, e.PlayerID, e.RoomID)
	}
	return nil
}

// parseDuration accepts Go durations ("5m") or bare seconds ("300").
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
