// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"sort"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
)

// HelpHandler lists verbs, filters them by glob, or details one verb.
// Usage: help [verb|pattern]
func HelpHandler(ctx context.Context, exec *command.CommandExecution) error {
	reg := exec.Services.Registry
	if reg == nil {
		return command.ErrPrecondition("No help is available.")
	}
	arg := strings.ToLower(strings.TrimSpace(exec.Args))

	if arg != "" && !strings.ContainsAny(arg, "*?[{") {
		entry, ok := reg.Get(arg)
		if !ok || !visible(exec, entry) {
			return command.ErrPrecondition("No help for '" + arg + "'.")
		}
		writeOutputf(ctx, exec, "help", "%s - %s\n", entry.Name, entry.Help)
		if entry.Usage != "" {
			writeOutputf(ctx, exec, "help", "Usage: %s\n", entry.Usage)
		}
		if len(entry.Aliases) > 0 {
			writeOutputf(ctx, exec, "help", "Aliases: %s\n", strings.Join(entry.Aliases, ", "))
		}
		return nil
	}

	pattern := arg
	if pattern == "" {
		pattern = "*"
	}
	entries, err := reg.Match(pattern)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	shown := 0
	for _, e := range entries {
		if !visible(exec, e) {
			continue
		}
		if shown == 0 {
			writeOutput(ctx, exec, "help", "Available commands:")
		}
		shown++
		writeOutputf(ctx, exec, "help", "  %-14s %s\n", e.Name, e.Help)
	}
	if shown == 0 {
		writeOutput(ctx, exec, "help", "No commands match '"+pattern+"'.")
		return nil
	}
	if arg == "" {
		writeOutput(ctx, exec, "help", "Type 'help <command>' for details.")
	}
	return nil
}

// visible hides admin and debug verbs from players who can't run them.
func visible(exec *command.CommandExecution, e command.CommandEntry) bool {
	if (e.AdminOnly || e.DebugOnly) && !exec.Admin {
		return false
	}
	return !e.DebugOnly || exec.Services.Debug
}
