// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package botany grows hydroponic plants.
package botany

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Defaults.
const (
	DefaultGrowthRate       = 0.1
	DefaultPollinationRange = 2.0
	DefaultPollinationRate  = 0.1
	AutogrowDraw            = 1.0
)

// Plant is one tray's occupant.
type Plant struct {
	ID             string
	Species        string
	Room           string
	Position       *world.Position
	Growth         float64
	Nutrient       float64
	Health         float64
	Yield          int
	Potency        int
	Toxicity       float64
	ProductionTime float64
	Traits         []string
	Autogrow       bool
	Planted        time.Time

	mature bool
}

// Alive reports whether the plant can still grow.
func (p *Plant) Alive() bool { return p.Health > 0 }

// Fertilizer is a row of fertilizers.yaml. Deltas are added to the plant.
type Fertilizer struct {
	ID             string  `yaml:"id" json:"id" jsonschema:"required"`
	Nutrient       float64 `yaml:"nutrient,omitempty" json:"nutrient,omitempty"`
	Health         float64 `yaml:"health,omitempty" json:"health,omitempty"`
	Yield          int     `yaml:"yield,omitempty" json:"yield,omitempty"`
	Potency        int     `yaml:"potency,omitempty" json:"potency,omitempty"`
	Toxicity       float64 `yaml:"toxicity,omitempty" json:"toxicity,omitempty"`
	ProductionTime float64 `yaml:"production_time,omitempty" json:"production_time,omitempty"`
	Kills          bool    `yaml:"kills,omitempty" json:"kills,omitempty"`
}

// DefaultFertilizers returns the built-in fertilizer table.
func DefaultFertilizers() []Fertilizer {
	return []Fertilizer{
		{ID: "nutriment", Nutrient: 1, Health: 0.5},
		{ID: "ammonia", Nutrient: 1, Yield: 1},
		{ID: "diethylamine", Nutrient: 2, Health: 1, Yield: 1},
		{ID: "saltpetre", Potency: 1, ProductionTime: -1, Health: 1},
		{ID: "unstable_mutagen", Potency: 2, Toxicity: 1},
		{ID: "ash", Nutrient: 0.5, Health: 0.25},
		{ID: "multiver", Toxicity: -1},
		{ID: "plant_b_gone", Kills: true},
	}
}

// PowerDraw takes power from a room's grid.
type PowerDraw interface {
	Draw(room string, units float64) bool
}

// Option configures a System.
type Option func(*System)

// WithPower lets autogrow trays pull power.
func WithPower(p PowerDraw) Option { return func(s *System) { s.power = p } }

// WithFertilizers replaces the fertilizer table.
func WithFertilizers(fs []Fertilizer) Option {
	return func(s *System) {
		s.fertilizers = make(map[string]Fertilizer, len(fs))
		for _, f := range fs {
			s.fertilizers[f.ID] = f
		}
	}
}

// WithPollination enables cross-pollination within radius at the given
// per-tick probability.
func WithPollination(radius, chance float64) Option {
	return func(s *System) {
		s.pollinate = true
		s.pollRange = radius
		s.pollChance = chance
	}
}

// WithGrowthRate overrides the base growth rate.
func WithGrowthRate(rate float64) Option { return func(s *System) { s.rate = rate } }

// System holds every plant.
type System struct {
	mu          sync.Mutex
	w           *world.World
	power       PowerDraw
	rate        float64
	pollinate   bool
	pollRange   float64
	pollChance  float64
	fertilizers map[string]Fertilizer
	plants      map[string]*Plant
	serial      int
}

// New creates an empty botany system.
func New(w *world.World, opts ...Option) *System {
	s := &System{
		w:          w,
		rate:       DefaultGrowthRate,
		pollRange:  DefaultPollinationRange,
		pollChance: DefaultPollinationRate,
		plants:     make(map[string]*Plant),
	}
	WithFertilizers(DefaultFertilizers())(s)
	for _, o := range opts {
		o(s)
	}
	return s
}

// Plant sows species in room and returns the new plant's id.
func (s *System) Plant(ctx context.Context, species, room string, pos *world.Position, traits ...string) (string, error) {
	if strings.TrimSpace(species) == "" {
		return "", oops.Code("INVALID_ARGS").Errorf("species is required")
	}
	s.mu.Lock()
	s.serial++
	p := &Plant{
		ID:             "plant_" + strconv.Itoa(s.serial),
		Species:        species,
		Room:           room,
		Nutrient:       5,
		Health:         5,
		Yield:          1,
		Potency:        1,
		ProductionTime: 10,
		Traits:         slices.Clone(traits),
		Planted:        time.Now(),
	}
	if pos != nil {
		cp := *pos
		p.Position = &cp
	}
	s.plants[p.ID] = p
	s.mu.Unlock()
	s.w.Publish(ctx, core.TopicSeedPlanted, core.Payload{"plant_id": p.ID, "species": species, "room_id": room})
	return p.ID, nil
}

// Get returns a copy of the plant.
func (s *System) Get(id string) (Plant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plants[id]
	if !ok {
		return Plant{}, false
	}
	cp := *p
	cp.Traits = slices.Clone(p.Traits)
	return cp, true
}

// Plants returns the ids of every plant in room, or all plants when room is
// empty.
func (s *System) Plants(room string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, p := range s.plants {
		if room == "" || p.Room == room {
			ids = append(ids, id)
		}
	}
	sortPlantIDs(ids)
	return ids
}

func sortPlantIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(strings.TrimPrefix(ids[i], "plant_"))
		b, _ := strconv.Atoi(strings.TrimPrefix(ids[j], "plant_"))
		return a < b
	})
}

func (s *System) plantLocked(id string) (*Plant, error) {
	p, ok := s.plants[id]
	if !ok {
		return nil, oops.Code("NOT_FOUND").With("plant_id", id).Errorf("no such plant %q", id)
	}
	return p, nil
}

// SetAutogrow toggles the tray's grow lamps.
func (s *System) SetAutogrow(id string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.plantLocked(id)
	if err != nil {
		return err
	}
	p.Autogrow = on
	return nil
}

// Fertilize applies a fertilizer from the table.
func (s *System) Fertilize(ctx context.Context, id, chemical string) error {
	s.mu.Lock()
	p, err := s.plantLocked(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	f, ok := s.fertilizers[chemical]
	if !ok {
		s.mu.Unlock()
		return oops.Code("UNKNOWN_FERTILIZER").With("chemical", chemical).Errorf("%s is not a fertilizer", chemical)
	}
	p.Nutrient += f.Nutrient
	p.Health += f.Health
	p.Yield += f.Yield
	p.Potency += f.Potency
	p.Toxicity = max(0, p.Toxicity+f.Toxicity)
	if f.ProductionTime != 0 {
		p.ProductionTime = max(1, p.ProductionTime+f.ProductionTime)
	}
	if f.Kills {
		p.Health = 0
	}
	s.mu.Unlock()
	s.w.Publish(ctx, core.TopicPlantFertilized, core.Payload{"plant_id": id, "chemical": chemical})
	return nil
}

// Graft unions the donor's traits into target.
func (s *System) Graft(ctx context.Context, target, donor string) error {
	s.mu.Lock()
	t, err := s.plantLocked(target)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	d, err := s.plantLocked(donor)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	for _, tr := range d.Traits {
		if !slices.Contains(t.Traits, tr) {
			t.Traits = append(t.Traits, tr)
		}
	}
	sort.Strings(t.Traits)
	traits := slices.Clone(t.Traits)
	s.mu.Unlock()
	s.w.Publish(ctx, core.TopicPlantGrafted, core.Payload{"plant_id": target, "donor_id": donor, "traits": traits})
	return nil
}

// Harvest removes a mature plant and creates its produce. The produce goes to
// playerID's inventory when set, otherwise to the plant's room.
func (s *System) Harvest(ctx context.Context, id, playerID string) (string, error) {
	s.mu.Lock()
	p, err := s.plantLocked(id)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	if p.Growth < 1 {
		s.mu.Unlock()
		return "", oops.Code("PRECONDITION").With("plant_id", id).Errorf("the %s is not ready to harvest", p.Species)
	}
	delete(s.plants, id)
	s.mu.Unlock()

	produceID := s.w.NextSerial("produce")
	e := world.NewEntity(produceID, p.Species, fmt.Sprintf("Freshly harvested %s.", p.Species))
	item := world.NewItem()
	item.ItemType = "produce"
	item.Weight = 0.5
	item.Properties = map[string]any{
		"species":  p.Species,
		"yield":    p.Yield,
		"potency":  p.Potency,
		"toxicity": p.Toxicity,
		"traits":   slices.Clone(p.Traits),
	}
	item.SetProperty(world.PropNutrition, float64(5*p.Potency))
	e.MustAdd(item)
	if playerID == "" {
		e.Location = p.Room
	}
	if err := s.w.Register(ctx, e); err != nil {
		return "", err
	}
	if playerID != "" {
		if err := s.w.GiveItem(ctx, playerID, produceID); err != nil {
			_ = s.w.MoveTo(ctx, produceID, s.w.RoomOf(playerID))
		}
	}
	s.w.Publish(ctx, core.TopicPlantHarvested, core.Payload{
		"plant_id": id, "species": p.Species, "item_id": produceID, "player_id": playerID,
	})
	return produceID, nil
}

// Analyze returns a plant analyzer readout.
func (s *System) Analyze(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.plantLocked(id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", p.Species, p.ID)
	fmt.Fprintf(&b, "Growth: %.0f%%\n", min(1, p.Growth)*100)
	fmt.Fprintf(&b, "Health: %.2f  Nutrient: %.2f\n", p.Health, p.Nutrient)
	fmt.Fprintf(&b, "Yield: %d  Potency: %d  Toxicity: %.2f\n", p.Yield, p.Potency, p.Toxicity)
	if len(p.Traits) > 0 {
		fmt.Fprintf(&b, "Traits: %s\n", strings.Join(p.Traits, ", "))
	}
	if p.Autogrow {
		b.WriteString("Autogrow: on\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Tick grows every living plant. Autogrow trays grow twice as fast while
// their room's grid can supply AutogrowDraw units, and at the normal rate
// otherwise.
func (s *System) Tick(ctx context.Context, _ time.Time) error {
	var out []core.Payload
	var pollinated []core.Payload
	s.mu.Lock()
	ids := make([]string, 0, len(s.plants))
	for id := range s.plants {
		ids = append(ids, id)
	}
	sortPlantIDs(ids)
	for _, id := range ids {
		p := s.plants[id]
		if !p.Alive() {
			continue
		}
		rate := s.rate
		if p.Autogrow && s.power != nil && p.Room != "" && s.power.Draw(p.Room, AutogrowDraw) {
			rate *= 2
		}
		p.Growth = min(1, p.Growth+rate/max(1, p.ProductionTime))
		if p.Growth >= 1 && !p.mature {
			p.mature = true
			out = append(out, core.Payload{"plant_id": p.ID, "species": p.Species, "room_id": p.Room})
		}
	}
	if s.pollinate {
		pollinated = s.pollinateLocked(ids)
	}
	s.mu.Unlock()
	for _, p := range out {
		s.w.Publish(ctx, core.TopicPlantMature, p)
	}
	for _, p := range pollinated {
		s.w.Publish(ctx, core.TopicPlantPollinated, p)
	}
	return nil
}

// pollinateLocked lets each plant with traits pass one random trait to each
// positioned neighbour within range.
func (s *System) pollinateLocked(ids []string) []core.Payload {
	var out []core.Payload
	for _, id := range ids {
		src := s.plants[id]
		if src.Position == nil || len(src.Traits) == 0 || !src.Alive() {
			continue
		}
		from := mgl64.Vec2{float64(src.Position.X), float64(src.Position.Y)}
		for _, oid := range ids {
			dst := s.plants[oid]
			if oid == id || dst.Position == nil || dst.Room != src.Room || !dst.Alive() {
				continue
			}
			to := mgl64.Vec2{float64(dst.Position.X), float64(dst.Position.Y)}
			if to.Sub(from).Len() > s.pollRange {
				continue
			}
			if s.w.Float64() >= s.pollChance {
				continue
			}
			trait := src.Traits[s.w.IntN(len(src.Traits))]
			if slices.Contains(dst.Traits, trait) {
				continue
			}
			dst.Traits = append(dst.Traits, trait)
			sort.Strings(dst.Traits)
			out = append(out, core.Payload{"plant_id": oid, "source_id": id, "trait": trait})
		}
	}
	return out
}
