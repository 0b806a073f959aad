// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/script"
)

const defaultRecentEvents = 10

// EvalHandler compiles and runs script source once as the caller.
// Usage: @eval <code>
func EvalHandler(ctx context.Context, exec *command.CommandExecution) error {
	code := strings.TrimSpace(exec.Args)
	if code == "" {
		return command.ErrInvalidArgs("@eval", "@eval <code>")
	}
	if exec.Services.Runtime == nil {
		return command.ErrPrecondition("Scripting is disabled.")
	}
	prog, err := script.Compile("eval", code)
	if err != nil {
		return err
	}
	res, err := exec.Services.Runtime.Run(ctx, prog, script.Call{Player: exec.CharacterID, Object: exec.Room(), Verb: "eval"})
	if err != nil {
		return err
	}
	text := res.Text()
	if text == "" {
		text = "(no result)"
	}
	writeOutput(ctx, exec, "@eval", text)
	return nil
}

// VerbsHandler lists registered verbs with their source and flags.
// Usage: @verbs [pattern]
func VerbsHandler(ctx context.Context, exec *command.CommandExecution) error {
	reg := exec.Services.Registry
	if reg == nil {
		return command.ErrPrecondition("No verb registry.")
	}
	pattern := strings.TrimSpace(exec.Args)
	if pattern == "" {
		pattern = "*"
	}
	entries, err := reg.Match(pattern)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	for _, e := range entries {
		var flags []string
		if e.AdminOnly {
			flags = append(flags, "admin")
		}
		if e.DebugOnly {
			flags = append(flags, "debug")
		}
		writeOutputf(ctx, exec, "@verbs", "  %-14s %-6s %s\n", e.Name, e.Source, strings.Join(flags, ","))
	}
	writeOutputf(ctx, exec, "@verbs", "%d verbs.\n", len(entries))
	return nil
}

// InspectEntityHandler dumps an entity's fields and components.
// Usage: @inspect <id>
func InspectEntityHandler(ctx context.Context, exec *command.CommandExecution) error {
	id := strings.TrimSpace(exec.Args)
	if id == "" {
		return command.ErrInvalidArgs("@inspect", "@inspect <id>")
	}
	e, err := exec.Services.World.Lookup(id)
	if err != nil {
		return err
	}
	writeOutputf(ctx, exec, "@inspect", "%s %q at %q\n", e.ID, e.Name, e.Location)
	for _, c := range e.Components() {
		writeOutputf(ctx, exec, "@inspect", "  %s: %+v\n", c.Kind(), c)
	}
	if exec.Services.Scripts != nil {
		for _, rec := range exec.Services.Scripts.Records() {
			if rec.ObjectID == e.ID {
				writeOutputf(ctx, exec, "@inspect", "  verb %s (%s)\n", rec.Verb, rec.ID)
			}
		}
	}
	return nil
}

// RecentEventsHandler shows the newest events from the bus recorder.
// Usage: @events [count]
func RecentEventsHandler(ctx context.Context, exec *command.CommandExecution) error {
	if exec.Services.Recorder == nil {
		return command.ErrPrecondition("Event recording is off.")
	}
	limit := defaultRecentEvents
	if arg := strings.TrimSpace(exec.Args); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return command.ErrInvalidArgs("@events", "@events [count]")
		}
		limit = n
	}
	evs := exec.Services.Recorder.Recent(limit)
	if len(evs) == 0 {
		writeOutput(ctx, exec, "@events", "No events recorded.")
		return nil
	}
	for _, ev := range evs {
		writeOutputf(ctx, exec, "@events", "%s %-22s %s\n", ev.Timestamp.Format(time.TimeOnly), ev.Topic, formatPayload(ev.Payload))
	}
	return nil
}

func formatPayload(p map[string]any) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, p[k]))
	}
	return strings.Join(parts, " ")
}
