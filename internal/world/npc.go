// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/yakuzadave/pymud-ss13/internal/core"
)

// NPC drives a non-player character: a goal room, a cached path and a
// circular routine of stops.
type NPC struct {
	Base          `yaml:"-"`
	Role          string   `yaml:"role"`
	Dialogue      []string `yaml:"dialogue,omitempty"`
	Goal          string   `yaml:"goal,omitempty"`
	Path          []string `yaml:"path,omitempty"`
	Routine       []string `yaml:"routine,omitempty"`
	RoutineIndex  int      `yaml:"routine_index,omitempty"`
	ChatterChance float64  `yaml:"chatter_chance,omitempty"`

	pending []string
}

// NewNPC returns an idle NPC with a 5% chatter chance.
func NewNPC() *NPC { return &NPC{Role: "crew", ChatterChance: 0.05} }

// Kind implements Component.
func (n *NPC) Kind() Kind { return KindNPC }

// SetGoal sets a new destination and drops the cached path.
func (n *NPC) SetGoal(room string) {
	n.Goal = room
	n.Path = nil
}

// QueueLine schedules a line to be said on the next step.
func (n *NPC) QueueLine(line string) {
	n.pending = append(n.pending, line)
}

// OnAdded makes the NPC answer speech in its room with a dialogue line.
func (n *NPC) OnAdded(_ context.Context, w *World) {
	w.bus.Subscribe(core.TopicPlayerSaid, SubscriberID(n), func(_ context.Context, ev core.Event) error {
		if len(n.Dialogue) == 0 {
			return nil
		}
		e, ok := w.Get(n.Owner())
		if !ok || e.Location == "" || ev.Payload.String("room_id") != e.Location {
			return nil
		}
		n.QueueLine(n.Dialogue[w.IntN(len(n.Dialogue))])
		return nil
	})
}

// Tick advances the NPC one step along its goal or routine and emits any
// queued or idle dialogue.
func (n *NPC) Tick(ctx context.Context, w *World, _ time.Time) {
	e, ok := w.Get(n.Owner())
	if !ok {
		return
	}
	if n.Goal == "" && len(n.Routine) > 0 {
		n.RoutineIndex %= len(n.Routine)
		n.Goal = n.Routine[n.RoutineIndex]
		n.RoutineIndex = (n.RoutineIndex + 1) % len(n.Routine)
	}
	if n.Goal != "" && n.Goal == e.Location {
		n.Goal, n.Path = "", nil
	}
	if n.Goal != "" && len(n.Path) == 0 {
		path, ok := w.FindPath(e.Location, n.Goal)
		if !ok {
			slog.Debug("npc goal unreachable", "npc_id", e.ID, "from", e.Location, "goal", n.Goal)
			n.Goal = ""
		}
		n.Path = path
	}
	if len(n.Path) > 0 {
		next := n.Path[0]
		n.Path = slices.Delete(n.Path, 0, 1)
		from := e.Location
		if err := w.MoveTo(ctx, e.ID, next); err != nil {
			slog.Debug("npc move failed", "npc_id", e.ID, "to", next, "error", err)
			n.Path = nil
		} else {
			w.bus.Publish(ctx, core.TopicNPCMoved, core.Payload{"npc_id": e.ID, "from": from, "to": next})
		}
		if len(n.Path) == 0 && e.Location == n.Goal {
			n.Goal = ""
		}
	}
	n.speak(ctx, w, e)
}

func (n *NPC) speak(ctx context.Context, w *World, e *Entity) {
	var line string
	switch {
	case len(n.pending) > 0:
		line = n.pending[0]
		n.pending = n.pending[1:]
	case len(n.Dialogue) > 0 && w.Float64() < n.ChatterChance:
		line = n.Dialogue[w.IntN(len(n.Dialogue))]
	default:
		return
	}
	w.bus.Publish(ctx, core.TopicNPCSaid, core.Payload{
		"npc_id": e.ID, "name": e.Name, "room_id": e.Location, "message": line,
	})
}
