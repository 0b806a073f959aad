// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yakuzadave/pymud-ss13/internal/world"
)

func TestGrid_InsertMoveRemove(t *testing.T) {
	g := world.NewGrid()
	g.Insert("a", world.Position{X: 1, Y: 1})
	g.Insert("b", world.Position{X: 1, Y: 1})
	assert.ElementsMatch(t, []string{"a", "b"}, g.At(world.Position{X: 1, Y: 1}))

	g.Move("a", world.Position{X: 2, Y: 2})
	assert.Equal(t, []string{"b"}, g.At(world.Position{X: 1, Y: 1}))
	assert.Equal(t, []string{"a"}, g.At(world.Position{X: 2, Y: 2}))

	g.Remove("a")
	assert.Empty(t, g.At(world.Position{X: 2, Y: 2}))
	_, ok := g.PositionOf("a")
	assert.False(t, ok)
}

func TestGrid_RadiusOrderedByDistance(t *testing.T) {
	g := world.NewGrid()
	g.Insert("far", world.Position{X: 3, Y: 0})
	g.Insert("near", world.Position{X: 1, Y: 0})
	g.Insert("origin", world.Position{X: 0, Y: 0})
	g.Insert("out", world.Position{X: 5, Y: 5})

	assert.Equal(t, []string{"origin", "near", "far"}, g.Radius(world.Position{}, 3))
}

func TestGrid_RadiusExtremes(t *testing.T) {
	g := world.NewGrid()
	for i, id := range []string{"a", "b", "c", "d"} {
		g.Insert(id, world.Position{X: i * 1000, Y: 0})
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, g.Radius(world.Position{}, 1e12))
	assert.Equal(t, []string{"a", "b", "c", "d"}, g.Radius(world.Position{}, math.Inf(1)))
	assert.Equal(t, []string{"b"}, g.Radius(world.Position{X: 1000, Y: 0}, 0.5))
	assert.Nil(t, g.Radius(world.Position{}, -1))
	assert.Nil(t, g.Radius(world.Position{}, math.NaN()))
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, world.Distance(world.Position{}, world.Position{X: 3, Y: 4}), 1e-9)
}

func TestLine(t *testing.T) {
	got := world.Line(world.Position{X: 0, Y: 0}, world.Position{X: 3, Y: 0})
	assert.Equal(t, []world.Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}, got)
}

func TestGrid_LineOfSight(t *testing.T) {
	g := world.NewGrid()
	g.Insert("wall", world.Position{X: 2, Y: 0})
	opaque := map[string]bool{"wall": true}

	assert.False(t, g.LineOfSight(world.Position{}, world.Position{X: 4, Y: 0}, opaque))
	assert.True(t, g.LineOfSight(world.Position{}, world.Position{X: 0, Y: 4}, opaque))
	assert.True(t, g.LineOfSight(world.Position{}, world.Position{X: 2, Y: 0}, opaque))
}

func TestNeighbors4(t *testing.T) {
	assert.Len(t, world.Neighbors4(world.Position{X: 5, Y: 5}), 4)
}
