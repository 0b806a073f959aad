// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package disease spreads and ticks pathogens carried by players.
package disease

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

const toxicGasMultiplier = 1.5

// Definition describes one disease. It is a row of diseases.yaml.
type Definition struct {
	ID                 string  `yaml:"id" json:"id" jsonschema:"required"`
	Name               string  `yaml:"name,omitempty" json:"name,omitempty"`
	DamagePerTick      float64 `yaml:"damage_per_tick" json:"damage_per_tick" jsonschema:"minimum=0"`
	TransmissionChance float64 `yaml:"transmission_chance" json:"transmission_chance" jsonschema:"minimum=0,maximum=1"`
}

// Defaults returns the built-in diseases.
func Defaults() []Definition {
	return []Definition{
		{ID: "flu", Name: "Flu", DamagePerTick: 1, TransmissionChance: 0.3},
		{ID: "virus_x", Name: "Virus X", DamagePerTick: 2, TransmissionChance: 0.5},
	}
}

// System applies disease damage and transmission.
type System struct {
	mu   sync.RWMutex
	w    *world.World
	defs map[string]Definition
}

// New creates a disease system knowing defs. Nil defs uses Defaults.
func New(w *world.World, defs []Definition) *System {
	if defs == nil {
		defs = Defaults()
	}
	s := &System{w: w, defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		s.defs[d.ID] = d
	}
	return s
}

// Define adds or replaces a disease.
func (s *System) Define(d Definition) error {
	if d.ID == "" {
		return oops.Code("INVALID_ARGS").Errorf("disease id is required")
	}
	if d.TransmissionChance < 0 || d.TransmissionChance > 1 {
		return oops.Code("INVALID_ARGS").With("disease", d.ID).Errorf("transmission chance must be within [0,1]")
	}
	s.mu.Lock()
	s.defs[d.ID] = d
	s.mu.Unlock()
	return nil
}

// Definition returns the disease named id.
func (s *System) Definition(id string) (Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.defs[id]
	return d, ok
}

// Known returns every disease id, sorted.
func (s *System) Known() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.defs))
	for id := range s.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *System) player(id string) (*world.Player, error) {
	e, ok := s.w.Get(id)
	if !ok {
		return nil, oops.Code("NOT_FOUND").With("player_id", id).Errorf("no such player %q", id)
	}
	p, ok := world.As[*world.Player](e)
	if !ok {
		return nil, oops.Code("NOT_A_PLAYER").With("player_id", id).Errorf("%q is not a player", id)
	}
	return p, nil
}

// Infect gives the player disease. Infecting a carrier again is a no-op.
func (s *System) Infect(ctx context.Context, playerID, disease string) error {
	if _, ok := s.Definition(disease); !ok {
		return oops.Code("UNKNOWN_DISEASE").With("disease", disease).Errorf("unknown disease %q", disease)
	}
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	s.infect(ctx, playerID, p, disease, "")
	return nil
}

func (s *System) infect(ctx context.Context, id string, p *world.Player, disease, source string) {
	if p.HasDisease(disease) {
		return
	}
	p.Diseases = append(p.Diseases, disease)
	payload := core.Payload{"player_id": id, "disease": disease}
	if source != "" {
		payload["source"] = source
	}
	s.w.Publish(ctx, core.TopicDiseaseInfected, payload)
}

// Cure removes disease from the player.
func (s *System) Cure(ctx context.Context, playerID, disease string) error {
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	i := slices.Index(p.Diseases, disease)
	if i < 0 {
		return oops.Code("NOT_FOUND").With("player_id", playerID).With("disease", disease).
			Errorf("%s does not carry %s", playerID, disease)
	}
	p.Diseases = slices.Delete(p.Diseases, i, i+1)
	s.w.Publish(ctx, core.TopicDiseaseCured, core.Payload{"player_id": playerID, "disease": disease})
	return nil
}

type carrier struct {
	id       string
	room     string
	p        *world.Player
	diseases []string
}

// Tick damages every living carrier, then tries to pass each disease to the
// other players in the carrier's room. Only players infected before the tick
// spread.
func (s *System) Tick(ctx context.Context, _ time.Time) error {
	var carriers []carrier
	for _, e := range s.w.Players() {
		p, ok := world.As[*world.Player](e)
		if !ok || !p.Alive || len(p.Diseases) == 0 {
			continue
		}
		carriers = append(carriers, carrier{id: e.ID, room: e.Location, p: p, diseases: slices.Clone(p.Diseases)})
	}
	for _, c := range carriers {
		for _, name := range c.diseases {
			def, ok := s.Definition(name)
			if !ok {
				continue
			}
			dmg := damageFor(def.DamagePerTick, c.p.Immunity)
			c.p.ApplyDamage(ctx, s.w, "torso", world.DamageToxin, dmg)
			s.w.Publish(ctx, core.TopicDiseaseTick, core.Payload{"player_id": c.id, "disease": name, "damage": dmg})
			s.spread(ctx, c, def)
		}
	}
	return nil
}

func damageFor(base float64, immunity string) float64 {
	switch immunity {
	case world.ImmunityImmune:
		return 0
	case world.ImmunityResistant:
		return base / 2
	default:
		return base
	}
}

func (s *System) spread(ctx context.Context, c carrier, def Definition) {
	chance := def.TransmissionChance
	if re, ok := s.w.Get(c.room); ok {
		if room, ok := world.As[*world.Room](re); ok && room.HasHazard("toxic_gas") {
			chance = min(1, chance*toxicGasMultiplier)
		}
	}
	if chance <= 0 {
		return
	}
	for _, e := range s.w.PlayersIn(c.room) {
		if e.ID == c.id {
			continue
		}
		target, ok := world.As[*world.Player](e)
		if !ok || !target.Alive || target.HasDisease(def.ID) || target.Immunity == world.ImmunityImmune {
			continue
		}
		if s.w.HasProtection(e.ID, world.PropBiohazardProtection) {
			continue
		}
		if s.w.Float64() < chance {
			s.infect(ctx, e.ID, target, def.ID, c.id)
		}
	}
}
