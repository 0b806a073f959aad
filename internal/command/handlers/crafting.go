// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// ingredients splits "bread, cheese" or "bread cheese" into names.
func ingredients(args string) []string {
	return strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
}

// CookHandler prepares a meal from carried ingredients.
// Usage: cook <ingredient> [ingredient...]
func CookHandler(ctx context.Context, exec *command.CommandExecution) error {
	in := ingredients(exec.Args)
	if len(in) == 0 {
		return command.ErrInvalidArgs("cook", "cook <ingredient> [ingredient...]")
	}
	if exec.Services.Kitchen == nil {
		return command.ErrPrecondition("There is no kitchen to cook in.")
	}
	return craft(ctx, exec, "cook", func(pid string) (world.Outcome, error) {
		return exec.Services.Kitchen.Prepare(ctx, pid, in)
	})
}

// MixDrinkHandler mixes a drink at the bar.
// Usage: mixdrink <ingredient> [ingredient...]
func MixDrinkHandler(ctx context.Context, exec *command.CommandExecution) error {
	in := ingredients(exec.Args)
	if len(in) == 0 {
		return command.ErrInvalidArgs("mixdrink", "mixdrink <ingredient> [ingredient...]")
	}
	if exec.Services.Bar == nil {
		return command.ErrPrecondition("There is no bar here.")
	}
	return craft(ctx, exec, "mixdrink", func(pid string) (world.Outcome, error) {
		return exec.Services.Bar.Prepare(ctx, pid, in)
	})
}

// SynthesizeHandler combines carried chemicals by recipe.
// Usage: synthesize <chemical> [chemical...]
func SynthesizeHandler(ctx context.Context, exec *command.CommandExecution) error {
	in := ingredients(exec.Args)
	if len(in) == 0 {
		return command.ErrInvalidArgs("synthesize", "synthesize <chemical> [chemical...]")
	}
	if exec.Services.Chemistry == nil {
		return command.ErrPrecondition("You have no lab equipment.")
	}
	return craft(ctx, exec, "synthesize", func(pid string) (world.Outcome, error) {
		return exec.Services.Chemistry.Synthesize(ctx, pid, in)
	})
}

func craft(ctx context.Context, exec *command.CommandExecution, cmd string, prepare func(playerID string) (world.Outcome, error)) error {
	e, _, err := exec.Avatar()
	if err != nil {
		return err
	}
	out, err := prepare(e.ID)
	if err != nil {
		return command.WorldError("Something went wrong at the workbench.", err)
	}
	return writeOutcome(ctx, exec, cmd, out)
}
