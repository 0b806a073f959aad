// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"strings"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// matches reports whether name refers to e by id, by name, or by a word of
// its name ("wrench" finds "Heavy Wrench").
func matches(e *world.Entity, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if strings.EqualFold(e.ID, name) || strings.EqualFold(e.Name, name) {
		return true
	}
	for _, word := range strings.Fields(e.Name) {
		if strings.EqualFold(word, name) {
			return true
		}
	}
	return false
}

// pick returns the first id whose entity matches name.
func pick(w *world.World, ids []string, name string) (*world.Entity, bool) {
	// Exact ids win over name matches.
	for _, id := range ids {
		if strings.EqualFold(id, name) {
			if e, ok := w.Get(id); ok {
				return e, true
			}
		}
	}
	for _, id := range ids {
		if e, ok := w.Get(id); ok && matches(e, name) {
			return e, true
		}
	}
	return nil, false
}

// findHere finds a visible entity in the actor's room, excluding the actor.
func findHere(exec *command.CommandExecution, name string) (*world.Entity, bool) {
	here := exec.Services.World.At(exec.Room())
	ids := make([]string, 0, len(here))
	for _, e := range here {
		if e.ID != exec.CharacterID {
			ids = append(ids, e.ID)
		}
	}
	return pick(exec.Services.World, ids, name)
}

// findCarried finds an entity in the actor's inventory or equipment.
func findCarried(exec *command.CommandExecution, p *world.Player, name string) (*world.Entity, bool) {
	return pick(exec.Services.World, p.Carried(), name)
}

// findNear prefers carried things over things in the room.
func findNear(exec *command.CommandExecution, p *world.Player, name string) (*world.Entity, bool) {
	if e, ok := findCarried(exec, p, name); ok {
		return e, true
	}
	return findHere(exec, name)
}

// errNotHere is the player-facing miss for a named target.
func errNotHere(name string) error {
	return oops.Code(command.CodeNotFound).
		With("target", name).
		With("message", "You don't see '"+name+"' here.").
		Errorf("no %q in reach", name)
}

// label renders an entity name for prose.
func label(e *world.Entity) string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}
