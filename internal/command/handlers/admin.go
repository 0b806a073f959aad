// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

const (
	defaultOutage   = 30 * time.Second
	defaultLeakRate = 1.0
	defaultLeakTime = 60 * time.Second
)

// EventHandler lists random events, or fires one by id.
// Usage: @event [id [key=value ...]]
func EventHandler(ctx context.Context, exec *command.CommandExecution) error {
	sys := exec.Services.Events
	if sys == nil {
		return command.ErrPrecondition("Random events are disabled.")
	}
	fields := strings.Fields(exec.Args)
	if len(fields) == 0 {
		evs := sys.Events()
		if len(evs) == 0 {
			writeOutput(ctx, exec, "@event", "No random events are defined.")
			return nil
		}
		for _, ev := range evs {
			writeOutputf(ctx, exec, "@event", "  %-20s weight %-3d severity %d  %s\n", ev.ID, ev.Weight, ev.Severity, ev.Description)
		}
		return nil
	}

	overrides := make(map[string]any, len(fields)-1)
	for _, kv := range fields[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return command.ErrInvalidArgs("@event", "@event [id [key=value ...]]")
		}
		overrides[k] = paramValue(v)
	}
	if err := sys.Trigger(ctx, fields[0], overrides); err != nil {
		return err
	}
	slog.InfoContext(ctx, "admin triggered event", "admin_id", exec.CharacterID, "event_id", fields[0])
	writeOutputf(ctx, exec, "@event", "Triggered %s.\n", fields[0])
	return nil
}

// paramValue reads numbers and booleans as such; anything else stays text.
func paramValue(s string) any {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// PowerFailHandler blacks out a grid.
// Usage: @powerfail <grid> [duration]
func PowerFailHandler(ctx context.Context, exec *command.CommandExecution) error {
	fields := strings.Fields(exec.Args)
	if len(fields) == 0 {
		return command.ErrInvalidArgs("@powerfail", "@powerfail <grid> [duration]")
	}
	d := defaultOutage
	if len(fields) > 1 {
		var err error
		if d, err = parseDuration(fields[1]); err != nil {
			return command.ErrInvalidArgs("@powerfail", "@powerfail <grid> [duration]")
		}
	}
	if exec.Services.Power == nil {
		return command.ErrPrecondition("The station has no power network.")
	}
	if err := exec.Services.Power.CausePowerFailure(ctx, fields[0], d, exec.Now()); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "@powerfail", "Grid %s is down for %s.\n", fields[0], d)
	return nil
}

// BreakerHandler flips a grid's main breaker.
// Usage: @breaker <grid> on|off
func BreakerHandler(ctx context.Context, exec *command.CommandExecution) error {
	fields := strings.Fields(exec.Args)
	if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
		return command.ErrInvalidArgs("@breaker", "@breaker <grid> on|off")
	}
	if exec.Services.Power == nil {
		return command.ErrPrecondition("The station has no power network.")
	}
	if err := exec.Services.Power.ToggleBreaker(ctx, fields[0], fields[1] == "on"); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "@breaker", "Breaker for %s switched %s.\n", fields[0], fields[1])
	return nil
}

// LeakHandler punches a hull leak into a room.
// Usage: @leak <room> [rate] [duration]
func LeakHandler(ctx context.Context, exec *command.CommandExecution) error {
	fields := strings.Fields(exec.Args)
	usage := "@leak <room> [rate] [duration]"
	if len(fields) == 0 {
		return command.ErrInvalidArgs("@leak", usage)
	}
	rate, d := defaultLeakRate, defaultLeakTime
	var err error
	if len(fields) > 1 {
		if rate, err = strconv.ParseFloat(fields[1], 64); err != nil || rate <= 0 {
			return command.ErrInvalidArgs("@leak", usage)
		}
	}
	if len(fields) > 2 {
		if d, err = parseDuration(fields[2]); err != nil {
			return command.ErrInvalidArgs("@leak", usage)
		}
	}
	if exec.Services.Atmos == nil {
		return command.ErrPrecondition("Atmospherics are offline.")
	}
	if err := exec.Services.Atmos.CreateLeak(ctx, fields[0], rate, d); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "@leak", "Leak opened in %s.\n", fields[0])
	return nil
}

// InfectHandler gives a player a disease.
// Usage: @infect <player> <disease>
func InfectHandler(ctx context.Context, exec *command.CommandExecution) error {
	fields := strings.Fields(exec.Args)
	if len(fields) != 2 {
		return command.ErrInvalidArgs("@infect", "@infect <player> <disease>")
	}
	if exec.Services.Disease == nil {
		return command.ErrPrecondition("No pathogens are loaded.")
	}
	if err := exec.Services.Disease.Infect(ctx, world.CharacterID(fields[0]), fields[1]); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "@infect", "%s now carries %s.\n", fields[0], fields[1])
	return nil
}

// AuditHandler checks world consistency.
func AuditHandler(ctx context.Context, exec *command.CommandExecution) error {
	errs := exec.Services.World.CheckInvariants()
	if len(errs) == 0 {
		writeOutputf(ctx, exec, "@audit", "World is consistent (%d entities).\n", exec.Services.World.Len())
		return nil
	}
	writeOutputf(ctx, exec, "@audit", "%d %s:\n", len(errs), plural(len(errs), "problem", "problems"))
	for _, err := range errs {
		writeOutput(ctx, exec, "@audit", "  "+err.Error())
	}
	return nil
}
