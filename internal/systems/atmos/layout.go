// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package atmos

import (
	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Layout is the atmos.yaml data table.
type Layout struct {
	// VentEveryRoom installs a rate-1 vent in every room without an explicit vent.
	VentEveryRoom bool           `yaml:"vent_every_room" json:"vent_every_room"`
	Vents         []VentLayout   `yaml:"vents" json:"vents,omitempty"`
	Grid          *GridLayout    `yaml:"grid,omitempty" json:"grid,omitempty"`
	Pipes         []PipeLayout   `yaml:"pipes,omitempty" json:"pipes,omitempty"`
	Regions       []RegionLayout `yaml:"regions,omitempty" json:"regions,omitempty"`
}

// VentLayout places one vent.
type VentLayout struct {
	Room string  `yaml:"room" json:"room" jsonschema:"required"`
	Rate float64 `yaml:"rate" json:"rate,omitempty" jsonschema:"minimum=0"`
}

// GridLayout sizes the tile grid.
type GridLayout struct {
	Width  int `yaml:"width" json:"width" jsonschema:"required,minimum=1"`
	Height int `yaml:"height" json:"height" jsonschema:"required,minimum=1"`
}

// RegionLayout maps tiles onto a room.
type RegionLayout struct {
	Room  string           `yaml:"room" json:"room" jsonschema:"required"`
	Tiles []world.Position `yaml:"tiles" json:"tiles" jsonschema:"required"`
}

// PipeLayout connects two tiles.
type PipeLayout struct {
	From world.Position `yaml:"from" json:"from" jsonschema:"required"`
	To   world.Position `yaml:"to" json:"to" jsonschema:"required"`
	Rate float64        `yaml:"rate" json:"rate" jsonschema:"required,exclusiveMinimum=0"`
}

// Apply installs vents, the tile grid, regions and pipes. A grid in the
// layout replaces any grid attached at construction.
func (s *System) Apply(l Layout) error {
	for _, v := range l.Vents {
		if err := s.AddVent(v.Room, v.Rate); err != nil {
			return oops.With("section", "vents").Wrap(err)
		}
	}
	if l.VentEveryRoom {
		for _, r := range s.w.Rooms() {
			if _, ok := s.Vent(r.ID); ok {
				continue
			}
			if err := s.AddVent(r.ID, 1); err != nil {
				return err
			}
		}
	}
	if l.Grid != nil {
		if l.Grid.Width <= 0 || l.Grid.Height <= 0 {
			return oops.Code("INVALID_ARGS").With("section", "grid").Errorf("grid dimensions must be positive")
		}
		s.mu.Lock()
		s.tiles = NewTileGrid(l.Grid.Width, l.Grid.Height)
		s.regions = make(map[string][]world.Position)
		s.mu.Unlock()
	}
	for _, r := range l.Regions {
		if err := s.MapRegion(r.Room, r.Tiles); err != nil {
			return oops.With("section", "regions").Wrap(err)
		}
	}
	for _, p := range l.Pipes {
		if err := s.pipes.Connect(p.From, p.To, p.Rate); err != nil {
			return oops.With("section", "pipes").Wrap(err)
		}
	}
	return nil
}
