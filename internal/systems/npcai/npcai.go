// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package npcai moves and voices non-player characters.
package npcai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Spec describes an NPC to spawn.
type Spec struct {
	ID            string   `yaml:"id" json:"id" jsonschema:"required"`
	Name          string   `yaml:"name" json:"name" jsonschema:"required"`
	Description   string   `yaml:"description,omitempty" json:"description,omitempty"`
	Room          string   `yaml:"room" json:"room" jsonschema:"required"`
	Role          string   `yaml:"role,omitempty" json:"role,omitempty"`
	Dialogue      []string `yaml:"dialogue,omitempty" json:"dialogue,omitempty"`
	Routine       []string `yaml:"routine,omitempty" json:"routine,omitempty"`
	ChatterChance *float64 `yaml:"chatter_chance,omitempty" json:"chatter_chance,omitempty"`
}

// System steps every NPC once per tick.
type System struct {
	w *world.World
}

// New creates the NPC driver for w.
func New(w *world.World) *System { return &System{w: w} }

// Spawn registers a new NPC.
func (s *System) Spawn(ctx context.Context, spec Spec) error {
	if _, err := s.w.Lookup(spec.Room); err != nil {
		return err
	}
	n := world.NewNPC()
	if spec.Role != "" {
		n.Role = spec.Role
	}
	n.Dialogue = spec.Dialogue
	n.Routine = spec.Routine
	if spec.ChatterChance != nil {
		n.ChatterChance = *spec.ChatterChance
	}
	desc := spec.Description
	if desc == "" {
		desc = fmt.Sprintf("A %s going about their duties.", n.Role)
	}
	e := world.NewEntity(spec.ID, spec.Name, desc)
	e.Location = spec.Room
	e.MustAdd(n)
	return s.w.Register(ctx, e)
}

func (s *System) npc(id string) (*world.NPC, error) {
	e, err := s.w.Lookup(id)
	if err != nil {
		return nil, err
	}
	n, ok := world.As[*world.NPC](e)
	if !ok {
		return nil, oops.Code("NOT_AN_NPC").With("object_id", id).Errorf("%s is not an npc", e.Name)
	}
	return n, nil
}

// Direct sends an NPC to room.
func (s *System) Direct(npcID, room string) error {
	n, err := s.npc(npcID)
	if err != nil {
		return err
	}
	if _, err := s.w.Lookup(room); err != nil {
		return err
	}
	n.SetGoal(room)
	return nil
}

// Say queues a line for the NPC's next step.
func (s *System) Say(npcID, line string) error {
	n, err := s.npc(npcID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(line) == "" {
		return oops.Code("INVALID_ARGS").Errorf("nothing to say")
	}
	n.QueueLine(line)
	return nil
}

// Tick steps every NPC in id order.
func (s *System) Tick(ctx context.Context, now time.Time) error {
	for _, e := range s.w.NPCs() {
		if n, ok := world.As[*world.NPC](e); ok {
			n.Tick(ctx, s.w, now)
		}
	}
	return nil
}
