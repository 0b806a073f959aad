// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// machineHere returns the first component of type T installed in the
// actor's room.
func machineHere[T world.Component](exec *command.CommandExecution, kind world.Kind) (*world.Entity, T, bool) {
	var zero T
	room := exec.Room()
	for _, e := range exec.Services.World.Having(kind) {
		if e.Location != room {
			continue
		}
		if c, ok := world.As[T](e); ok {
			return e, c, true
		}
	}
	return nil, zero, false
}

// patient resolves a player by name in the room, or by character id anywhere.
func patient(exec *command.CommandExecution, name string) (*world.Entity, bool) {
	if e, ok := findHere(exec, name); ok && e.Has(world.KindPlayer) {
		return e, true
	}
	if name == "me" || name == "self" {
		return exec.Services.World.Get(exec.CharacterID)
	}
	e, ok := exec.Services.World.Get(world.CharacterID(name))
	if !ok || !e.Has(world.KindPlayer) {
		return nil, false
	}
	return e, true
}

// ScanHandler runs the room's medical scanner over a patient.
// Usage: scan [patient]
func ScanHandler(ctx context.Context, exec *command.CommandExecution) error {
	if _, _, err := exec.Avatar(); err != nil {
		return err
	}
	_, scanner, ok := machineHere[*world.MedicalScanner](exec, world.KindMedicalScanner)
	if !ok {
		return command.ErrPrecondition("There is no medical scanner here.")
	}
	name := strings.TrimSpace(exec.Args)
	if name == "" {
		name = "me"
	}
	pe, ok := patient(exec, name)
	if !ok {
		return errNotHere(name)
	}
	report, err := scanner.Scan(ctx, exec.Services.World, pe.ID)
	if err != nil {
		return err
	}
	writeOutput(ctx, exec, "scan", strings.TrimRight(report, "\n"))
	return nil
}

// CloneHandler activates the room's replica pod for a dead crew member.
// Usage: clone <player>
func CloneHandler(ctx context.Context, exec *command.CommandExecution) error {
	name := strings.TrimSpace(exec.Args)
	if name == "" {
		return command.ErrInvalidArgs("clone", "clone <player>")
	}
	if _, _, err := exec.Avatar(); err != nil {
		return err
	}
	_, pod, ok := machineHere[*world.ReplicaPod](exec, world.KindReplicaPod)
	if !ok {
		return command.ErrPrecondition("There is no replica pod here.")
	}
	pe, ok := patient(exec, name)
	if !ok {
		return command.ErrPrecondition("Nobody to clone.")
	}
	out, err := pod.Activate(ctx, exec.Services.World, pe.ID)
	if err != nil {
		return command.WorldError("The pod sputters and fails.", err)
	}
	return writeOutcome(ctx, exec, "clone", out)
}
