// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package worldtest builds small stations for tests.
package worldtest

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Fixture bundles a world, its bus and a recorder of every event.
type Fixture struct {
	T     testing.TB
	Ctx   context.Context
	Bus   *core.Bus
	Rec   *core.Recorder
	World *world.World
}

// New returns an empty world seeded with a fixed random source.
func New(t testing.TB) *Fixture {
	t.Helper()
	rec := core.NewRecorder(1024)
	bus := core.NewBus(core.WithRecorder(rec))
	return &Fixture{
		T:     t,
		Ctx:   context.Background(),
		Bus:   bus,
		Rec:   rec,
		World: world.New(bus, world.WithRand(rand.New(rand.NewPCG(1, 2)))), //nolint:gosec // deterministic tests
	}
}

// Add registers an entity at loc with the given components.
func (f *Fixture) Add(id, loc string, cs ...world.Component) *world.Entity {
	f.T.Helper()
	e := world.NewEntity(id, id, "")
	e.Location = loc
	e.MustAdd(cs...)
	require.NoError(f.T, f.World.Register(f.Ctx, e))
	return e
}

// Room registers a room with exits given as direction, destination pairs.
func (f *Fixture) Room(id string, exits ...string) *world.Room {
	f.T.Helper()
	r := world.NewRoom()
	for i := 0; i+1 < len(exits); i += 2 {
		r.Exits[exits[i]] = exits[i+1]
	}
	f.Add(id, "", r)
	return r
}

// Player registers a crew member in room.
func (f *Fixture) Player(id, room string) *world.Player {
	f.T.Helper()
	p := world.NewPlayer("crew")
	f.Add(id, room, p)
	return p
}

// Item registers a plain item at loc.
func (f *Fixture) Item(id, loc string, props map[string]any) *world.Item {
	f.T.Helper()
	it := world.NewItem()
	it.Properties = props
	f.Add(id, loc, it)
	return it
}

// Topics returns the topics recorded so far, oldest first.
func (f *Fixture) Topics() []core.Topic {
	evs := f.Rec.Recent(0)
	out := make([]core.Topic, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Topic)
	}
	return out
}

// Count returns how many events of topic were recorded.
func (f *Fixture) Count(topic core.Topic) int { return len(f.Rec.ByTopic(topic)) }
