// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Grid is a 2D tile index mapping cells to entity ids and back.
type Grid struct {
	mu    sync.RWMutex
	cells map[Position][]string
	where map[string]Position
}

// NewGrid creates an empty grid.
func NewGrid() *Grid {
	return &Grid{
		cells: make(map[Position][]string),
		where: make(map[string]Position),
	}
}

// Insert places id at pos. Inserting an id that is already placed moves it.
func (g *Grid) Insert(id string, pos Position) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(id)
	g.cells[pos] = append(g.cells[pos], id)
	g.where[id] = pos
}

// Move relocates id to pos.
func (g *Grid) Move(id string, pos Position) { g.Insert(id, pos) }

// Remove takes id off the grid.
func (g *Grid) Remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(id)
}

func (g *Grid) removeLocked(id string) {
	pos, ok := g.where[id]
	if !ok {
		return
	}
	ids := g.cells[pos]
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	}
	if len(ids) == 0 {
		delete(g.cells, pos)
	} else {
		g.cells[pos] = ids
	}
	delete(g.where, id)
}

// At returns the ids in the cell at pos.
func (g *Grid) At(pos Position) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.cells[pos])
}

// PositionOf returns where id is placed.
func (g *Grid) PositionOf(id string) (Position, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	pos, ok := g.where[id]
	return pos, ok
}

// Distance returns the Euclidean distance between two cells.
func Distance(a, b Position) float64 {
	return mgl64.Vec2{float64(b.X - a.X), float64(b.Y - a.Y)}.Len()
}

// Radius returns the ids within Euclidean distance r of center, inclusive,
// ordered by distance then id. The scan walks whichever is smaller: the
// square around center or the occupied cells.
func (g *Grid) Radius(center Position, r float64) []string {
	if !(r >= 0) {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	type hit struct {
		id   string
		dist float64
	}
	var hits []hit
	visit := func(pos Position, ids []string) {
		d := Distance(center, pos)
		if d > r+1e-9 {
			return
		}
		for _, id := range ids {
			hits = append(hits, hit{id: id, dist: d})
		}
	}

	if side := 2*math.Floor(r) + 1; side*side > float64(len(g.cells)) {
		for pos, ids := range g.cells {
			visit(pos, ids)
		}
	} else {
		span := int(math.Floor(r))
		for x := center.X - span; x <= center.X+span; x++ {
			for y := center.Y - span; y <= center.Y+span; y++ {
				pos := Position{X: x, Y: y}
				if ids, ok := g.cells[pos]; ok {
					visit(pos, ids)
				}
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].id < hits[j].id
	})
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.id
	}
	return out
}

// Line returns the Bresenham cells from a to b, endpoints included.
func Line(a, b Position) []Position {
	dx := absInt(b.X - a.X)
	dy := -absInt(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	errTerm := dx + dy
	x, y := a.X, a.Y
	var out []Position
	for {
		out = append(out, Position{X: x, Y: y})
		if x == b.X && y == b.Y {
			return out
		}
		e2 := 2 * errTerm
		if e2 >= dy {
			errTerm += dy
			x += sx
		}
		if e2 <= dx {
			errTerm += dx
			y += sy
		}
	}
}

// LineOfSight reports whether no cell strictly between a and b holds an
// entity in opaque.
func (g *Grid) LineOfSight(a, b Position, opaque map[string]bool) bool {
	cells := Line(a, b)
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, pos := range cells {
		if pos == a || pos == b {
			continue
		}
		for _, id := range g.cells[pos] {
			if opaque[id] {
				return false
			}
		}
	}
	return true
}

// Neighbors4 returns the four orthogonal neighbours of pos.
func Neighbors4(pos Position) []Position {
	return []Position{
		{X: pos.X + 1, Y: pos.Y},
		{X: pos.X - 1, Y: pos.Y},
		{X: pos.X, Y: pos.Y + 1},
		{X: pos.X, Y: pos.Y - 1},
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
