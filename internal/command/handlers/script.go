// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/script"
)

const programUsage = "@program <object> <verb> = <code>"

func scriptRegistry(exec *command.CommandExecution) (*script.Registry, error) {
	if exec.Services.Scripts == nil {
		return nil, command.ErrPrecondition("Scripting is disabled.")
	}
	return exec.Services.Scripts, nil
}

// ProgramHandler attaches a scripted verb to an object. The script is
// compiled once here; a compile failure leaves any previous verb in place.
// Usage: @program <object> <verb> = <code>
func ProgramHandler(ctx context.Context, exec *command.CommandExecution) error {
	head, code, ok := strings.Cut(exec.Args, "=")
	fields := strings.Fields(head)
	code = strings.TrimSpace(code)
	if !ok || len(fields) != 2 || code == "" {
		return command.ErrInvalidArgs("@program", programUsage)
	}
	objectID, verb := fields[0], strings.ToLower(fields[1])
	if !exec.Services.World.Has(objectID) {
		return errNotHere(objectID)
	}
	reg, err := scriptRegistry(exec)
	if err != nil {
		return err
	}
	id := script.VerbKey(objectID, verb)
	if _, err := reg.Register(id, code, exec.CharacterID, objectID, verb); err != nil {
		return err
	}
	slog.InfoContext(ctx, "script registered", "script_id", id, "owner", exec.CharacterID)
	writeOutputf(ctx, exec, "@program", "Programmed %s. Run it with: verb %s %s\n", id, objectID, verb)
	return nil
}

// UnprogramHandler removes a scripted verb by id.
// Usage: @unprogram <id>
func UnprogramHandler(ctx context.Context, exec *command.CommandExecution) error {
	id := strings.TrimSpace(exec.Args)
	if id == "" {
		return command.ErrInvalidArgs("@unprogram", "@unprogram <id>")
	}
	reg, err := scriptRegistry(exec)
	if err != nil {
		return err
	}
	if err := reg.Remove(id); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "@unprogram", "Removed %s.\n", id)
	return nil
}

// ScriptsHandler lists scripted verbs, optionally filtered by a glob.
// Usage: @scripts [pattern]
func ScriptsHandler(ctx context.Context, exec *command.CommandExecution) error {
	reg, err := scriptRegistry(exec)
	if err != nil {
		return err
	}
	records := reg.Records()
	if pattern := strings.TrimSpace(exec.Args); pattern != "" {
		if records, err = reg.Match(pattern); err != nil {
			return err
		}
	}
	if len(records) == 0 {
		writeOutput(ctx, exec, "@scripts", "No scripts found.")
		return nil
	}
	for _, rec := range records {
		writeOutputf(ctx, exec, "@scripts", "  %-30s owner %s\n", rec.ID, rec.Owner)
	}
	return nil
}
