// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package atmos

import (
	"context"
	"sort"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Fire defaults.
const (
	DefaultFireFuel        = 10.0
	DefaultFireTemperature = 300.0
)

const (
	oxygenPerBurn   = 5.0
	co2PerBurn      = 3.0
	smokePerBurn    = 2.0
	heatPerBurn     = 2.0
	spreadHeat      = 150.0
	spreadMinFuel   = 1.0
	spreadMinOxygen = 5.0
	sustainOxygen   = 1.0
)

// Fire burns on one tile.
type Fire struct {
	Pos         world.Position
	Fuel        float64
	Temperature float64
}

// Ignite starts a fire on (x, y). Non-positive fuel or temperature use the
// defaults.
func (s *System) Ignite(ctx context.Context, x, y int, fuel, temp float64) error {
	if fuel <= 0 {
		fuel = DefaultFireFuel
	}
	if temp <= 0 {
		temp = DefaultFireTemperature
	}
	pos := world.Position{X: x, Y: y}
	s.mu.Lock()
	if s.tiles == nil {
		s.mu.Unlock()
		return oops.Code("INVALID_ARGS").Errorf("no tile grid attached")
	}
	tile, ok := s.tiles.Tile(pos)
	if !ok {
		s.mu.Unlock()
		return oops.Code("INVALID_ARGS").With("tile", pos.String()).Errorf("tile %s is outside the grid", pos)
	}
	s.fires[pos] = &Fire{Pos: pos, Fuel: fuel, Temperature: temp}
	tile.Temperature = max(tile.Temperature, temp)
	p := s.firePayloadLocked(core.Payload{"x": x, "y": y}, pos)
	s.mu.Unlock()
	s.w.Publish(ctx, core.TopicFireStarted, p)
	return nil
}

// Fires returns the burning tiles.
func (s *System) Fires() []Fire {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firesLocked()
}

func (s *System) firesLocked() []Fire {
	out := make([]Fire, 0, len(s.fires))
	for _, f := range s.fires {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return before(out[i].Pos, out[j].Pos) })
	return out
}

func before(a, b world.Position) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Extinguish puts out the fire on (x, y).
func (s *System) Extinguish(ctx context.Context, x, y int) bool {
	pos := world.Position{X: x, Y: y}
	s.mu.Lock()
	_, ok := s.fires[pos]
	delete(s.fires, pos)
	p := s.firePayloadLocked(core.Payload{"x": x, "y": y}, pos)
	s.mu.Unlock()
	if ok {
		s.w.Publish(ctx, core.TopicFireExtinguished, p)
	}
	return ok
}

func (s *System) firePayloadLocked(p core.Payload, pos world.Position) core.Payload {
	if room, ok := s.roomAtLocked(pos); ok {
		p["room_id"] = room
	}
	return p
}

// fireStepLocked burns every fire once, spreads hot fires and removes
// starved ones. Spread targets are seeded after the pass so a fire started
// this step does not burn until the next.
func (s *System) fireStepLocked() []pending {
	var out []pending
	spread := map[world.Position]float64{}
	for _, f := range s.firesLocked() {
		fire := s.fires[f.Pos]
		tile, ok := s.tiles.Tile(fire.Pos)
		if !ok {
			delete(s.fires, fire.Pos)
			continue
		}
		burn := min(fire.Fuel, tile.Composition[GasOxygen]/oxygenPerBurn)
		tile.Remove(GasOxygen, burn*oxygenPerBurn)
		tile.Add(GasCO2, burn*co2PerBurn)
		tile.Add(GasSmoke, burn*smokePerBurn)
		fire.Temperature += burn * heatPerBurn
		tile.Temperature = max(tile.Temperature, fire.Temperature)
		fire.Fuel -= burn

		if fire.Temperature > spreadHeat && fire.Fuel > spreadMinFuel {
			for _, n := range s.tiles.neighbours(fire.Pos) {
				if _, burning := s.fires[n]; burning {
					continue
				}
				if nt, _ := s.tiles.Tile(n); nt.Composition[GasOxygen] > spreadMinOxygen {
					spread[n] = max(spread[n], fire.Fuel/2)
				}
			}
		}
		if fire.Fuel <= 0 || tile.Composition[GasOxygen] <= sustainOxygen {
			delete(s.fires, fire.Pos)
			out = append(out, pending{core.TopicFireExtinguished,
				s.firePayloadLocked(core.Payload{"x": fire.Pos.X, "y": fire.Pos.Y}, fire.Pos)})
		}
	}
	targets := make([]world.Position, 0, len(spread))
	for pos := range spread {
		targets = append(targets, pos)
	}
	sort.Slice(targets, func(i, j int) bool { return before(targets[i], targets[j]) })
	for _, pos := range targets {
		if _, burning := s.fires[pos]; burning {
			continue
		}
		fuel := spread[pos]
		s.fires[pos] = &Fire{Pos: pos, Fuel: fuel, Temperature: DefaultFireTemperature}
		tile, _ := s.tiles.Tile(pos)
		tile.Temperature = max(tile.Temperature, DefaultFireTemperature)
		out = append(out, pending{core.TopicFireStarted,
			s.firePayloadLocked(core.Payload{"x": pos.X, "y": pos.Y}, pos)})
	}
	return out
}
