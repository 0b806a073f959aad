// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// doorAction is one of the four door verbs.
type doorAction func(ctx context.Context, d *world.Door, w *world.World, playerID string, access int) world.Outcome

var doorActions = map[string]doorAction{
	"open": func(ctx context.Context, d *world.Door, w *world.World, pid string, access int) world.Outcome {
		return d.TryOpen(ctx, w, pid, access)
	},
	"close": func(ctx context.Context, d *world.Door, w *world.World, pid string, _ int) world.Outcome {
		return d.Close(ctx, w, pid)
	},
	"lock": func(ctx context.Context, d *world.Door, w *world.World, pid string, access int) world.Outcome {
		return d.Lock(ctx, w, pid, access)
	},
	"unlock": func(ctx context.Context, d *world.Door, w *world.World, pid string, access int) world.Outcome {
		return d.Unlock(ctx, w, pid, access)
	},
}

// DoorHandler returns the handler for verb (open, close, lock or unlock).
// The target is a direction or the name of a door or container in reach.
func DoorHandler(verb string) command.CommandHandler {
	act := doorActions[verb]
	return func(ctx context.Context, exec *command.CommandExecution) error {
		target := strings.TrimSpace(exec.Args)
		if target == "" {
			return command.ErrPrecondition(capitalize(verb) + " what?")
		}
		e, p, err := exec.Avatar()
		if err != nil {
			return err
		}
		w := exec.Services.World
		access := w.AccessLevel(e.ID)

		if _, door, ok := doorToward(exec, target); ok {
			return writeOutcome(ctx, exec, verb, act(ctx, door, w, e.ID, access))
		}
		obj, ok := findNear(exec, p, target)
		if !ok {
			return errNotHere(target)
		}
		if door, ok := world.As[*world.Door](obj); ok {
			return writeOutcome(ctx, exec, verb, act(ctx, door, w, e.ID, access))
		}
		if c, ok := world.As[*world.Container](obj); ok {
			return writeOutcome(ctx, exec, verb, containerAction(verb, obj, c, access))
		}
		return command.ErrPrecondition("You can't " + verb + " the " + label(obj) + ".")
	}
}

// doorToward finds the door on the exit in direction target.
func doorToward(exec *command.CommandExecution, target string) (*world.Entity, *world.Door, bool) {
	dir, ok := world.NormalizeDirection(target)
	if !ok {
		return nil, nil, false
	}
	w := exec.Services.World
	from := exec.Room()
	re, ok := w.Get(from)
	if !ok {
		return nil, nil, false
	}
	room, ok := world.As[*world.Room](re)
	if !ok {
		return nil, nil, false
	}
	dest, ok := room.Exit(dir)
	if !ok {
		return nil, nil, false
	}
	return w.DoorBetween(from, dest)
}

func containerAction(verb string, e *world.Entity, c *world.Container, access int) world.Outcome {
	name := label(e)
	switch verb {
	case "open":
		if c.Open {
			return world.Outcome{Text: "The " + name + " is already open."}
		}
		if c.Locked {
			return world.Outcome{Text: "The " + name + " is locked."}
		}
		c.Open = true
		return world.Outcome{OK: true, Text: "You open the " + name + "."}
	case "close":
		if !c.Open {
			return world.Outcome{Text: "The " + name + " is already closed."}
		}
		c.Open = false
		return world.Outcome{OK: true, Text: "You close the " + name + "."}
	case "lock":
		if c.Locked {
			return world.Outcome{Text: "The " + name + " is already locked."}
		}
		if access < c.AccessLevel {
			return world.Outcome{Text: "You don't have authorization to lock the " + name + "."}
		}
		c.Locked, c.Open = true, false
		return world.Outcome{OK: true, Text: "You lock the " + name + "."}
	default:
		if !c.Locked {
			return world.Outcome{Text: "The " + name + " is already unlocked."}
		}
		if access < c.AccessLevel {
			return world.Outcome{Text: "You don't have authorization to unlock the " + name + "."}
		}
		c.Locked = false
		return world.Outcome{OK: true, Text: "You unlock the " + name + "."}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
