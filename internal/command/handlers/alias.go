// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/command"
)

const aliasUsage = "alias <shortcut> <command>"

func aliasCache(exec *command.CommandExecution) (*command.AliasCache, error) {
	if c := exec.Services.Aliases; c != nil {
		return c, nil
	}
	return nil, oops.Code(command.CodeWorldError).
		With("message", "Aliases are not available.").
		Errorf("no alias cache configured")
}

// AliasHandler lists the caller's shortcuts, or defines one. A shortcut may
// shadow a verb or a system alias; the player is warned and the shortcut
// wins for this session.
func AliasHandler(ctx context.Context, exec *command.CommandExecution) error {
	cache, err := aliasCache(exec)
	if err != nil {
		return err
	}
	if strings.TrimSpace(exec.Args) == "" {
		own := cache.ListSessionAliases(exec.SessionID)
		if len(own) == 0 {
			writeOutput(ctx, exec, "alias", "No aliases defined.")
			return nil
		}
		lines := []string{"Your aliases:"}
		for _, k := range slices.Sorted(maps.Keys(own)) {
			lines = append(lines, "  "+k+" = "+own[k])
		}
		writeOutput(ctx, exec, "alias", strings.Join(lines, "\n"))
		return nil
	}

	short, expansion, err := parseAliasDefinition(exec.Args)
	if err != nil {
		return err
	}
	if err := command.ValidateAliasName(short); err != nil {
		return err //nolint:wrapcheck // already a structured oops error
	}
	for _, warning := range shadowWarnings(exec, cache, short) {
		writeOutput(ctx, exec, "alias", warning)
	}
	cache.SetSessionAlias(exec.SessionID, short, expansion)
	writeOutputf(ctx, exec, "alias", "Alias '%s' set to '%s'.\n", strings.ToLower(short), expansion)
	return nil
}

func shadowWarnings(exec *command.CommandExecution, cache *command.AliasCache, short string) []string {
	var out []string
	if reg := exec.Services.Registry; reg != nil {
		if _, ok := reg.Get(strings.ToLower(short)); ok {
			out = append(out, "Warning: '"+short+"' is an existing command. Your alias will override it.")
		}
	}
	if sys, ok := cache.SystemAlias(short); ok {
		out = append(out, "Warning: '"+short+"' is a system alias for '"+sys+"'. Your alias will take precedence.")
	}
	return out
}

// UnaliasHandler removes one of the caller's shortcuts.
func UnaliasHandler(ctx context.Context, exec *command.CommandExecution) error {
	cache, err := aliasCache(exec)
	if err != nil {
		return err
	}
	short := strings.TrimSpace(exec.Args)
	switch {
	case short == "":
		//nolint:wrapcheck // ErrInvalidArgs creates a structured oops error
		return command.ErrInvalidArgs("unalias", "unalias <shortcut>")
	case cache.RemoveSessionAlias(exec.SessionID, short):
		writeOutputf(ctx, exec, "unalias", "Alias '%s' removed.\n", short)
	default:
		writeOutputf(ctx, exec, "unalias", "No alias named '%s'.\n", short)
	}
	return nil
}

// parseAliasDefinition reads "shortcut command..." or "shortcut=command".
func parseAliasDefinition(args string) (short, expansion string, err error) {
	args = strings.TrimSpace(args)
	if before, after, ok := strings.Cut(args, "="); ok && !strings.ContainsAny(strings.TrimSpace(before), " \t") {
		short, expansion = strings.TrimSpace(before), strings.TrimSpace(after)
	} else if before, after, ok := strings.Cut(args, " "); ok {
		short, expansion = before, strings.TrimSpace(after)
	}
	if short == "" || expansion == "" {
		//nolint:wrapcheck // ErrInvalidArgs creates a structured oops error
		return "", "", command.ErrInvalidArgs("alias", aliasUsage)
	}
	return short, expansion, nil
}
