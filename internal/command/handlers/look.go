// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// LookHandler shows the current room, or examines a target when one is given.
func LookHandler(ctx context.Context, exec *command.CommandExecution) error {
	if target := strings.TrimSpace(exec.Args); target != "" {
		if after, ok := strings.CutPrefix(strings.ToLower(target), "at "); ok {
			target = after
		}
		return examine(ctx, exec, "look", target)
	}
	if _, _, err := exec.Avatar(); err != nil {
		return err
	}

	room := exec.Room()
	text, err := exec.Services.World.Describe(room, exec.CharacterID)
	if err != nil {
		return command.WorldError("You are nowhere at all.", err)
	}
	exec.Type = command.TypeLocation
	writeOutput(ctx, exec, "look", strings.TrimRight(text, "\n"))
	if pw := exec.Services.Power; pw != nil {
		if _, gridded := pw.GridOf(room); gridded {
			writeOutput(ctx, exec, "look", pw.DescribeRoomPower(room))
		}
	}
	return nil
}

// ExamineHandler describes a carried or nearby object in detail.
func ExamineHandler(ctx context.Context, exec *command.CommandExecution) error {
	target := strings.TrimSpace(exec.Args)
	if target == "" {
		return command.ErrPrecondition("Examine what? Specify an object to examine.")
	}
	return examine(ctx, exec, "examine", target)
}

func examine(ctx context.Context, exec *command.CommandExecution, cmd, target string) error {
	_, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	e, ok := findNear(exec, p, target)
	if !ok {
		return errNotHere(target)
	}

	writeOutput(ctx, exec, cmd, label(e))
	if e.Description != "" {
		writeOutput(ctx, exec, cmd, e.Description)
	}
	for _, line := range details(exec, e) {
		writeOutput(ctx, exec, cmd, "  "+line)
	}
	return nil
}

// details lists what each attached component adds to a close look.
func details(exec *command.CommandExecution, e *world.Entity) []string {
	var out []string
	if it, ok := world.As[*world.Item](e); ok {
		out = append(out, fmt.Sprintf("Type: %s, weight %.1f.", it.ItemType, it.Weight))
		if doses, ok := it.Properties[world.PropDoses]; ok {
			out = append(out, fmt.Sprintf("Doses left: %v.", doses))
		}
	}
	if d, ok := world.As[*world.Door](e); ok {
		state := "closed"
		if d.Open {
			state = "open"
		}
		if d.Locked {
			state += " and locked"
		}
		out = append(out, "It is "+state+".")
	}
	if c, ok := world.As[*world.Container](e); ok {
		switch {
		case !c.Open:
			out = append(out, "It is closed.")
		case len(c.ItemIDs()) == 0:
			out = append(out, "It is empty.")
		default:
			names := make([]string, 0, len(c.ItemIDs()))
			for _, id := range c.ItemIDs() {
				if ie, ok := exec.Services.World.Get(id); ok {
					names = append(names, label(ie))
				}
			}
			out = append(out, "It contains: "+strings.Join(names, ", ")+".")
		}
	}
	if pc, ok := world.As[*world.PowerConsumer](e); ok {
		state := "offline"
		if pc.Active {
			state = "running"
		}
		out = append(out, "It is "+state+".")
	}
	if s, ok := world.As[*world.Structure](e); ok {
		out = append(out, fmt.Sprintf("Structural integrity %.0f%%.", s.Integrity))
	}
	if p, ok := world.As[*world.Player](e); ok && !p.Alive {
		out = append(out, "They are not moving.")
	}
	return out
}
