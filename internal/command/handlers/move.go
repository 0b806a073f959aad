// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"strings"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// moveEnergyCost is the energy a single step costs.
const moveEnergyCost = 1

// MoveHandler walks the character through an exit.
// Usage: go <direction>
func MoveHandler(ctx context.Context, exec *command.CommandExecution) error {
	direction := strings.TrimSpace(exec.Args)
	if direction == "" {
		return command.ErrInvalidArgs("go", "go <direction>")
	}
	return move(ctx, exec, direction)
}

// DirectionHandler returns a handler that moves in a fixed direction, so
// "north" works without "go".
func DirectionHandler(dir string) command.CommandHandler {
	return func(ctx context.Context, exec *command.CommandExecution) error {
		return move(ctx, exec, dir)
	}
}

func move(ctx context.Context, exec *command.CommandExecution, direction string) error {
	e, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	w := exec.Services.World
	from := exec.Room()
	roomEnt, err := w.Lookup(from)
	if err != nil {
		return command.WorldError("You are nowhere at all.", err)
	}
	room, ok := world.As[*world.Room](roomEnt)
	if !ok {
		return command.WorldError("You are nowhere at all.", nil)
	}

	dir, valid := world.NormalizeDirection(direction)
	if _, named := room.Exit(dir); !valid && !named {
		return command.ErrPrecondition("'" + direction + "' is not a valid direction.")
	}
	if !p.Alive {
		return command.ErrPrecondition("You can't move while you are dead.")
	}

	now := exec.Now()
	if !p.CanMove(now, exec.Services.MoveCooldown) {
		return command.ErrPrecondition("wait")
	}

	dest, ok := room.Exit(dir)
	if !ok {
		return command.ErrPrecondition("You can't go " + dir + " from here.")
	}
	if doorEnt, door, ok := w.DoorBetween(from, dest); ok && !door.Passable() {
		if door.Locked {
			return oops.Code(command.CodeLocked).
				With("door_id", doorEnt.ID).
				With("message", "The "+label(doorEnt)+" is locked.").
				Errorf("door %s is locked", doorEnt.ID)
		}
		return command.ErrPrecondition("The " + label(doorEnt) + " is closed.")
	}

	if err := w.MoveTo(ctx, e.ID, dest); err != nil {
		return command.WorldError("Something prevents you from going that way.", err)
	}
	p.MarkMoved(now)
	p.AdjustStat(ctx, w, world.StatEnergy, -moveEnergyCost)
	w.Publish(ctx, core.TopicPlayerMoved, core.Payload{
		"player_id": e.ID,
		"name":      e.Name,
		"from":      from,
		"to":        dest,
		"direction": dir,
	})

	text, err := w.Describe(dest, e.ID)
	if err != nil {
		return command.WorldError("You arrive somewhere strange...", err)
	}
	exec.Type = command.TypeLocation
	// Output write errors are logged but don't fail the command; the move happened.
	writeOutput(ctx, exec, "go", strings.TrimRight(text, "\n"))
	return nil
}
