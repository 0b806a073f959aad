// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package power

import "github.com/samber/oops"

// Layout describes the station's grids as loaded from power_grids.yaml.
type Layout struct {
	Grids []GridLayout `yaml:"grids" json:"grids"`
}

// GridLayout is one grid and its equipment.
type GridLayout struct {
	ID         string          `yaml:"id" json:"id" jsonschema:"required,minLength=1"`
	Name       string          `yaml:"name" json:"name,omitempty"`
	Rooms      []string        `yaml:"rooms" json:"rooms"`
	Capacity   float64         `yaml:"capacity,omitempty" json:"capacity,omitempty" jsonschema:"minimum=0"`
	Generators []SourceLayout  `yaml:"generators,omitempty" json:"generators,omitempty"`
	Solars     []SourceLayout  `yaml:"solar_panels,omitempty" json:"solar_panels,omitempty"`
	SMES       []string        `yaml:"smes,omitempty" json:"smes,omitempty"`
	Batteries  []BatteryLayout `yaml:"batteries,omitempty" json:"batteries,omitempty"`
}

// SourceLayout is a generator (capacity) or solar array (efficiency).
type SourceLayout struct {
	ID         string  `yaml:"id" json:"id" jsonschema:"required,minLength=1"`
	Capacity   float64 `yaml:"capacity,omitempty" json:"capacity,omitempty" jsonschema:"minimum=0"`
	Efficiency float64 `yaml:"efficiency,omitempty" json:"efficiency,omitempty" jsonschema:"minimum=0,maximum=100"`
}

// BatteryLayout is a backup battery.
type BatteryLayout struct {
	ID       string  `yaml:"id" json:"id" jsonschema:"required,minLength=1"`
	Capacity float64 `yaml:"capacity,omitempty" json:"capacity,omitempty" jsonschema:"minimum=0"`
	Charge   float64 `yaml:"charge,omitempty" json:"charge,omitempty" jsonschema:"minimum=0,maximum=100"`
}

// Apply registers every grid and source in l.
func (s *System) Apply(l Layout) error {
	for _, gl := range l.Grids {
		if gl.ID == "" {
			return oops.Code("INVALID_ARGS").Errorf("power grid without id")
		}
		name := gl.Name
		if name == "" {
			name = gl.ID
		}
		s.AddGrid(gl.ID, name, gl.Rooms, gl.Capacity)
		for _, g := range gl.Generators {
			if err := s.AddGenerator(g.ID, gl.ID, g.Capacity); err != nil {
				return err
			}
		}
		for _, p := range gl.Solars {
			eff := p.Efficiency
			if eff == 0 {
				eff = DefaultSolarEfficiency
			}
			if err := s.AddSolar(p.ID, gl.ID, eff); err != nil {
				return err
			}
		}
		for _, id := range gl.SMES {
			if err := s.AddSMES(id, gl.ID); err != nil {
				return err
			}
		}
		for _, b := range gl.Batteries {
			charge := b.Charge
			if charge == 0 {
				charge = 100
			}
			if err := s.AddBattery(b.ID, gl.ID, b.Capacity, charge); err != nil {
				return err
			}
		}
	}
	return nil
}
