// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// repairAmount is the integrity one repair restores to a structure.
const repairAmount = 25

// usageGraphWidth is how many load samples the power console shows.
const usageGraphWidth = 10

// ServiceHandler services a maintainable machine in reach.
func ServiceHandler(ctx context.Context, exec *command.CommandExecution) error {
	name := strings.TrimSpace(exec.Args)
	if name == "" {
		return command.ErrInvalidArgs("service", "service <machine>")
	}
	e, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	target, ok := findNear(exec, p, name)
	if !ok {
		return errNotHere(name)
	}
	if exec.Services.Maintenance == nil {
		return command.ErrPrecondition("You have no tools for that.")
	}
	out, err := exec.Services.Maintenance.Service(ctx, e.ID, target.ID, exec.Now())
	if err != nil {
		return err
	}
	return writeOutcome(ctx, exec, "service", out)
}

// InspectHandler reports a machine's condition.
func InspectHandler(ctx context.Context, exec *command.CommandExecution) error {
	name := strings.TrimSpace(exec.Args)
	if name == "" {
		return command.ErrInvalidArgs("inspect", "inspect <machine>")
	}
	_, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	target, ok := findNear(exec, p, name)
	if !ok {
		return errNotHere(name)
	}
	if exec.Services.Maintenance == nil {
		return command.ErrPrecondition("You can't tell much about it.")
	}
	text, err := exec.Services.Maintenance.Inspect(target.ID, exec.Now())
	if err != nil {
		return err
	}
	writeOutput(ctx, exec, "inspect", text)
	return nil
}

// RepairHandler fixes damaged equipment or structures. Engineers only.
func RepairHandler(ctx context.Context, exec *command.CommandExecution) error {
	name := strings.TrimSpace(exec.Args)
	if name == "" {
		return command.ErrInvalidArgs("repair", "repair <object>")
	}
	_, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	if !p.HasAbility("repair_power") {
		return command.ErrPrecondition("You don't know how to repair things.")
	}
	target, ok := findNear(exec, p, name)
	if !ok {
		return errNotHere(name)
	}
	w := exec.Services.World
	repaired := false
	if pc, ok := world.As[*world.PowerConsumer](target); ok && pc.Damaged {
		powered := exec.Services.Power == nil || exec.Services.Power.RoomPowered(pc.Room(w))
		pc.Repair(ctx, w, powered)
		repaired = true
	}
	if s, ok := world.As[*world.Structure](target); ok && s.Integrity < 100 && s.Constructible {
		s.Repair(ctx, w, repairAmount)
		repaired = true
	}
	if !repaired {
		return command.ErrPrecondition("The " + label(target) + " doesn't need repairs.")
	}
	writeOutputf(ctx, exec, "repair", "You repair the %s.\n", label(target))
	return nil
}

// FixLeakHandler seals hull leaks in the current room.
func FixLeakHandler(ctx context.Context, exec *command.CommandExecution) error {
	_, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	if !p.HasAbility("fix_leak") {
		return command.ErrPrecondition("You don't know how to seal a hull leak.")
	}
	if exec.Services.Atmos == nil {
		return command.ErrPrecondition("There is nothing to fix.")
	}
	n := exec.Services.Atmos.FixLeak(ctx, exec.Room())
	if n == 0 {
		return command.ErrPrecondition("There are no leaks here.")
	}
	writeOutputf(ctx, exec, "fixleak", "You seal %d %s.\n", n, plural(n, "leak", "leaks"))
	return nil
}

// InstallHandler inserts a part into a circuit shell.
// Usage: install <part> in <circuit>
func InstallHandler(ctx context.Context, exec *command.CommandExecution) error {
	part, into, ok := command.SplitPrep(exec.Args, "in", "into")
	if !ok {
		return command.ErrInvalidArgs("install", "install <part> in <circuit>")
	}
	_, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	target, found := findNear(exec, p, into)
	if !found {
		return errNotHere(into)
	}
	c, isCircuit := world.As[*world.Circuit](target)
	if !isCircuit {
		return command.ErrPrecondition("The " + label(target) + " has no circuit slots.")
	}
	if err := c.Insert(ctx, exec.Services.World, part); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "install", "Inserted %s into %s.\n", part, label(target))
	return nil
}

// PowerHandler is the engineering console: grid status, or the load
// history of one grid.
// Usage: power [grid]
func PowerHandler(ctx context.Context, exec *command.CommandExecution) error {
	pw := exec.Services.Power
	if pw == nil {
		return command.ErrPrecondition("The station has no power network.")
	}
	if grid := strings.TrimSpace(exec.Args); grid != "" {
		writeOutputf(ctx, exec, "power", "Usage for %s:\n%s\n", grid, pw.UsageGraph(grid, usageGraphWidth))
		return nil
	}
	status := pw.Status()
	if len(status) == 0 {
		writeOutput(ctx, exec, "power", "No power grids are configured.")
		return nil
	}
	writeOutput(ctx, exec, "power", "Power grids:")
	for _, g := range status {
		state := "ONLINE"
		if !g.Powered {
			state = "OFFLINE"
		}
		writeOutputf(ctx, exec, "power", "  %-16s %-7s load %5.1f / supply %5.1f (capacity %.0f)\n",
			g.Name, state, g.Load, g.Supply, g.Capacity)
	}
	return nil
}

// AtmosHandler reads the air in the current room.
func AtmosHandler(ctx context.Context, exec *command.CommandExecution) error {
	if _, _, err := exec.Avatar(); err != nil {
		return err
	}
	room := exec.Room()
	re, err := exec.Services.World.Lookup(room)
	if err != nil {
		return command.WorldError("You are nowhere at all.", err)
	}
	r, ok := world.As[*world.Room](re)
	if !ok {
		return command.WorldError("You are nowhere at all.", nil)
	}
	a := r.Atmosphere
	writeOutputf(ctx, exec, "atmos", "Atmosphere in %s:\n", label(re))
	writeOutputf(ctx, exec, "atmos", "  Pressure %.1f kPa, temperature %.1f C\n", a.Pressure, a.Temperature)
	writeOutputf(ctx, exec, "atmos", "  O2 %.1f%%  N2 %.1f%%  CO2 %.1f%%\n", a.Oxygen, a.Nitrogen, a.CO2)

	hazards := r.HazardList()
	if sys := exec.Services.Atmos; sys != nil {
		if hz, err := sys.Hazards(room); err == nil {
			hazards = hz
		}
		if leaks := sys.Leaks(room); len(leaks) > 0 {
			writeOutputf(ctx, exec, "atmos", "  Warning: %d active %s.\n", len(leaks), plural(len(leaks), "leak", "leaks"))
		}
	}
	if len(hazards) > 0 {
		writeOutput(ctx, exec, "atmos", "  Hazards: "+strings.Join(hazards, ", "))
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
