// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/systems/botany"
)

func botanySystem(exec *command.CommandExecution) (*botany.System, error) {
	if exec.Services.Botany == nil {
		return nil, command.ErrPrecondition("Nothing grows here.")
	}
	return exec.Services.Botany, nil
}

// plantHere finds a plant in the actor's room by id or species.
func plantHere(exec *command.CommandExecution, sys *botany.System, name string) (botany.Plant, error) {
	name = strings.TrimSpace(name)
	for _, id := range sys.Plants(exec.Room()) {
		pl, ok := sys.Get(id)
		if !ok {
			continue
		}
		if strings.EqualFold(pl.ID, name) || strings.EqualFold(pl.Species, name) {
			return pl, nil
		}
	}
	return botany.Plant{}, errNotHere(name)
}

// PlantHandler sows a seed in the current room.
// Usage: plant <species>
func PlantHandler(ctx context.Context, exec *command.CommandExecution) error {
	species := strings.TrimSpace(exec.Args)
	if species == "" {
		return command.ErrInvalidArgs("plant", "plant <species>")
	}
	if _, _, err := exec.Avatar(); err != nil {
		return err
	}
	sys, err := botanySystem(exec)
	if err != nil {
		return err
	}
	id, err := sys.Plant(ctx, species, exec.Room(), nil)
	if err != nil {
		return err
	}
	writeOutputf(ctx, exec, "plant", "You plant some %s (%s).\n", species, id)
	return nil
}

// HarvestHandler collects produce from a fully grown plant.
func HarvestHandler(ctx context.Context, exec *command.CommandExecution) error {
	name := strings.TrimSpace(exec.Args)
	if name == "" {
		return command.ErrInvalidArgs("harvest", "harvest <plant>")
	}
	e, _, err := exec.Avatar()
	if err != nil {
		return err
	}
	sys, err := botanySystem(exec)
	if err != nil {
		return err
	}
	pl, err := plantHere(exec, sys, name)
	if err != nil {
		return err
	}
	if _, err := sys.Harvest(ctx, pl.ID, e.ID); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "harvest", "You harvest the %s.\n", pl.Species)
	return nil
}

// AnalyzeHandler prints a plant's genetic readout.
func AnalyzeHandler(ctx context.Context, exec *command.CommandExecution) error {
	name := strings.TrimSpace(exec.Args)
	if name == "" {
		return command.ErrInvalidArgs("analyze", "analyze <plant>")
	}
	sys, err := botanySystem(exec)
	if err != nil {
		return err
	}
	pl, err := plantHere(exec, sys, name)
	if err != nil {
		return err
	}
	report, err := sys.Analyze(pl.ID)
	if err != nil {
		return err
	}
	writeOutput(ctx, exec, "analyze", strings.TrimRight(report, "\n"))
	return nil
}

// FertilizeHandler feeds a chemical to a plant.
// Usage: fertilize <plant> with <chemical>
func FertilizeHandler(ctx context.Context, exec *command.CommandExecution) error {
	name, chem, ok := command.SplitPrep(exec.Args, "with")
	if !ok {
		return command.ErrInvalidArgs("fertilize", "fertilize <plant> with <chemical>")
	}
	sys, err := botanySystem(exec)
	if err != nil {
		return err
	}
	pl, err := plantHere(exec, sys, name)
	if err != nil {
		return err
	}
	if err := sys.Fertilize(ctx, pl.ID, chem); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "fertilize", "You treat the %s with %s.\n", pl.Species, chem)
	return nil
}

// GraftHandler splices a donor plant's traits onto another.
// Usage: graft <plant> with <donor>
func GraftHandler(ctx context.Context, exec *command.CommandExecution) error {
	target, donor, ok := command.SplitPrep(exec.Args, "with", "from")
	if !ok {
		return command.ErrInvalidArgs("graft", "graft <plant> with <donor>")
	}
	sys, err := botanySystem(exec)
	if err != nil {
		return err
	}
	tp, err := plantHere(exec, sys, target)
	if err != nil {
		return err
	}
	dp, err := plantHere(exec, sys, donor)
	if err != nil {
		return err
	}
	if err := sys.Graft(ctx, tp.ID, dp.ID); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "graft", "You graft the %s onto the %s.\n", dp.Species, tp.Species)
	return nil
}
