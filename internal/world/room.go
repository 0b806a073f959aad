// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"slices"
	"sort"
	"strings"
)

// Standard station atmosphere.
const (
	StandardOxygen      = 21.0
	StandardNitrogen    = 78.0
	StandardCO2         = 0.04
	StandardPressure    = 101.3
	StandardTemperature = 20.0
)

// Atmosphere is the coarse per-room gas mixture. Gas fields are percentages,
// pressure is kPa and temperature is Celsius.
type Atmosphere struct {
	Oxygen      float64 `yaml:"oxygen" json:"oxygen"`
	Nitrogen    float64 `yaml:"nitrogen" json:"nitrogen"`
	CO2         float64 `yaml:"co2" json:"co2"`
	Smoke       float64 `yaml:"smoke,omitempty" json:"smoke,omitempty"`
	Pressure    float64 `yaml:"pressure" json:"pressure"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// StandardAtmosphere returns a breathable station mixture.
func StandardAtmosphere() Atmosphere {
	return Atmosphere{
		Oxygen:      StandardOxygen,
		Nitrogen:    StandardNitrogen,
		CO2:         StandardCO2,
		Pressure:    StandardPressure,
		Temperature: StandardTemperature,
	}
}

// Directions in canonical display order.
var Directions = []string{"north", "south", "east", "west", "up", "down"}

var directionShort = map[string]string{
	"n": "north", "s": "south", "e": "east", "w": "west", "u": "up", "d": "down",
}

// NormalizeDirection expands n/s/e/w/u/d and lowercases. ok is false for
// anything that is not one of the six directions.
func NormalizeDirection(dir string) (string, bool) {
	dir = strings.ToLower(strings.TrimSpace(dir))
	if full, ok := directionShort[dir]; ok {
		dir = full
	}
	return dir, slices.Contains(Directions, dir)
}

// Room is a location in the station graph.
type Room struct {
	Base       `yaml:"-"`
	Exits      map[string]string `yaml:"exits"`
	Atmosphere Atmosphere        `yaml:"atmosphere"`
	Hazards    []string          `yaml:"hazards,omitempty"`
	Airlock    bool              `yaml:"is_airlock,omitempty"`
}

// NewRoom returns a room with standard atmosphere and no exits.
func NewRoom() *Room {
	return &Room{Exits: map[string]string{}, Atmosphere: StandardAtmosphere()}
}

// Kind implements Component.
func (r *Room) Kind() Kind { return KindRoom }

// Exit returns the neighbour in dir.
func (r *Room) Exit(dir string) (string, bool) {
	dest, ok := r.Exits[dir]
	return dest, ok
}

// ExitNames lists exit directions, canonical directions first.
func (r *Room) ExitNames() []string {
	names := make([]string, 0, len(r.Exits))
	for _, d := range Directions {
		if _, ok := r.Exits[d]; ok {
			names = append(names, d)
		}
	}
	var extra []string
	for d := range r.Exits {
		if !slices.Contains(Directions, d) {
			extra = append(extra, d)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// HasHazard reports whether hazard is active.
func (r *Room) HasHazard(hazard string) bool {
	return slices.Contains(r.Hazards, hazard)
}

// HazardList returns a copy of the active hazards.
func (r *Room) HazardList() []string {
	return slices.Clone(r.Hazards)
}

// SetHazards replaces the hazard set, storing it sorted and deduplicated.
func (r *Room) SetHazards(hazards []string) {
	hz := slices.Clone(hazards)
	sort.Strings(hz)
	r.Hazards = slices.Compact(hz)
	if len(r.Hazards) == 0 {
		r.Hazards = nil
	}
}
