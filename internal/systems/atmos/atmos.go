// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package atmos simulates station air. Rooms carry a coarse mixture that
// vents pull back to standard; rooms mapped onto the tile grid take their
// mixture from the grid instead.
package atmos

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

// Hazard names derived from the mixture.
const (
	HazardLowOxygen    = "low_oxygen"
	HazardHighCO2      = "high_co2"
	HazardLowPressure  = "low_pressure"
	HazardHighPressure = "high_pressure"
	HazardSmoke        = "smoke"
	HazardExtremeHeat  = "extreme_heat"
)

// Injectable hazards.
var InjectableHazards = []string{"radiation", "electrical", "toxic_gas", HazardExtremeHeat, HazardSmoke}

const (
	lowOxygen      = 10.0
	highCO2        = 5.0
	lowPressure    = 80.0
	highPressure   = 120.0
	thickSmoke     = 10.0
	extremeHeat    = 60.0
	ventStep       = 0.1
	leakOxygen     = 0.5
	leakPressure   = 2.0
	subscriberName = "atmos"
)

// Vent pulls a room's mixture toward standard while active.
type Vent struct {
	Room   string
	Rate   float64
	Active bool
}

// Leak drains oxygen and pressure from a room until fixed or expired.
type Leak struct {
	Room    string
	Rate    float64
	Started time.Time
	// Duration zero means the leak lasts until fixed.
	Duration time.Duration
}

func (l Leak) expired(now time.Time) bool {
	return l.Duration > 0 && !now.Before(l.Started.Add(l.Duration))
}

// PowerState reports whether a room has power.
type PowerState interface {
	RoomPowered(room string) bool
}

// Notifier delivers environment messages to a player.
type Notifier func(ctx context.Context, playerID, message string)

// Option configures a System.
type Option func(*System)

// WithPower gates vents on room power.
func WithPower(p PowerState) Option { return func(s *System) { s.power = p } }

// WithNotifier sets where player environment messages go.
func WithNotifier(n Notifier) Option { return func(s *System) { s.notify = n } }

// WithTileGrid attaches a tile grid. Regions map rooms onto it.
func WithTileGrid(g *TileGrid) Option { return func(s *System) { s.tiles = g } }

// WithClock overrides the clock used for leak start times.
func WithClock(now func() time.Time) Option { return func(s *System) { s.now = now } }

type pending struct {
	topic   core.Topic
	payload core.Payload
}

type roomUpdate struct {
	room    string
	atmos   world.Atmosphere
	hazards []string
}

// System owns vents, leaks, injected hazards, the tile grid and fires.
type System struct {
	mu       sync.RWMutex
	w        *world.World
	power    PowerState
	notify   Notifier
	now      func() time.Time
	vents    map[string]*Vent
	leaks    map[string][]Leak
	injected map[string]map[string]struct{}
	tiles    *TileGrid
	regions  map[string][]world.Position
	pipes    *PipeNetwork
	fires    map[world.Position]*Fire
	rate     float64
}

// New creates the atmosphere system and subscribes it to power and breach
// events.
func New(w *world.World, opts ...Option) *System {
	s := &System{
		w:        w,
		now:      time.Now,
		vents:    make(map[string]*Vent),
		leaks:    make(map[string][]Leak),
		injected: make(map[string]map[string]struct{}),
		regions:  make(map[string][]world.Position),
		pipes:    NewPipeNetwork(),
		fires:    make(map[world.Position]*Fire),
		rate:     DefaultDiffusionRate,
	}
	for _, o := range opts {
		o(s)
	}
	bus := w.Bus()
	bus.Subscribe(core.TopicPowerLoss, subscriberName, func(_ context.Context, ev core.Event) error {
		s.setVents(ev.Payload.Strings("affected_rooms"), false)
		return nil
	})
	bus.Subscribe(core.TopicPowerRestored, subscriberName, func(_ context.Context, ev core.Event) error {
		s.setVents(ev.Payload.Strings("affected_rooms"), true)
		return nil
	})
	bus.Subscribe(core.TopicBreach, subscriberName, func(ctx context.Context, ev core.Event) error {
		room := ev.Payload.String("room_id")
		sev := ev.Payload.Float("severity")
		if sev <= 0 {
			sev = 1
		}
		return s.CreateLeak(ctx, room, sev, 0)
	})
	return s
}

// Close removes the bus subscriptions.
func (s *System) Close() { s.w.Bus().UnsubscribeAll(subscriberName) }

// setVents toggles vents in rooms; nil rooms means every vent.
func (s *System) setVents(rooms []string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.vents {
		if rooms == nil || slices.Contains(rooms, id) {
			v.Active = active
		}
	}
}

func (s *System) room(id string) (*world.Room, error) {
	e, ok := s.w.Get(id)
	if !ok {
		return nil, oops.Code("NOT_FOUND").With("room_id", id).Errorf("no such room %q", id)
	}
	r, ok := world.As[*world.Room](e)
	if !ok {
		return nil, oops.Code("NOT_A_ROOM").With("room_id", id).Errorf("%q is not a room", id)
	}
	return r, nil
}

// AddVent installs an active vent in room. rate <= 0 uses 1.
func (s *System) AddVent(room string, rate float64) error {
	if _, err := s.room(room); err != nil {
		return err
	}
	if rate <= 0 {
		rate = 1
	}
	s.mu.Lock()
	s.vents[room] = &Vent{Room: room, Rate: rate, Active: true}
	s.mu.Unlock()
	return nil
}

// Vent returns a copy of the vent in room.
func (s *System) Vent(room string) (Vent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vents[room]
	if !ok {
		return Vent{}, false
	}
	return *v, true
}

// CreateLeak starts a leak in room. duration zero lasts until FixLeak.
func (s *System) CreateLeak(ctx context.Context, room string, rate float64, duration time.Duration) error {
	if _, err := s.room(room); err != nil {
		return err
	}
	if rate <= 0 {
		return oops.Code("INVALID_ARGS").With("rate", rate).Errorf("leak rate must be positive")
	}
	s.mu.Lock()
	s.leaks[room] = append(s.leaks[room], Leak{Room: room, Rate: rate, Started: s.now(), Duration: duration})
	s.mu.Unlock()
	s.w.Publish(ctx, core.TopicLeakStarted, core.Payload{"room_id": room, "rate": rate})
	return nil
}

// FixLeak seals every leak in room and reports how many were fixed.
func (s *System) FixLeak(ctx context.Context, room string) int {
	s.mu.Lock()
	leaks := s.leaks[room]
	delete(s.leaks, room)
	s.mu.Unlock()
	for _, l := range leaks {
		s.w.Publish(ctx, core.TopicLeakFixed, core.Payload{"room_id": room, "rate": l.Rate})
	}
	return len(leaks)
}

// Leaks returns the open leaks in room.
func (s *System) Leaks(room string) []Leak {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.leaks[room])
}

// InjectHazard adds an external hazard to room until cleared.
func (s *System) InjectHazard(room, hazard string) error {
	r, err := s.room(room)
	if err != nil {
		return err
	}
	if !slices.Contains(InjectableHazards, hazard) {
		return oops.Code("INVALID_ARGS").With("hazard", hazard).Errorf("unknown hazard %q", hazard)
	}
	s.mu.Lock()
	if s.injected[room] == nil {
		s.injected[room] = map[string]struct{}{}
	}
	s.injected[room][hazard] = struct{}{}
	hz := s.hazardsLocked(room, r.Atmosphere)
	s.mu.Unlock()
	r.SetHazards(hz)
	return nil
}

// ClearHazard removes an injected hazard.
func (s *System) ClearHazard(room, hazard string) error {
	r, err := s.room(room)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.injected[room], hazard)
	hz := s.hazardsLocked(room, r.Atmosphere)
	s.mu.Unlock()
	r.SetHazards(hz)
	return nil
}

// Hazards derives the hazard set for a room from its mixture and injected
// hazards.
func (s *System) Hazards(room string) ([]string, error) {
	r, err := s.room(room)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hazardsLocked(room, r.Atmosphere), nil
}

func (s *System) hazardsLocked(room string, a world.Atmosphere) []string {
	hz := Derive(a)
	for h := range s.injected[room] {
		hz = append(hz, h)
	}
	sort.Strings(hz)
	return slices.Compact(hz)
}

// Derive returns the hazards implied by a mixture alone.
func Derive(a world.Atmosphere) []string {
	var hz []string
	if a.Oxygen < lowOxygen {
		hz = append(hz, HazardLowOxygen)
	}
	if a.CO2 > highCO2 {
		hz = append(hz, HazardHighCO2)
	}
	if a.Pressure < lowPressure {
		hz = append(hz, HazardLowPressure)
	}
	if a.Pressure > highPressure {
		hz = append(hz, HazardHighPressure)
	}
	if a.Smoke > thickSmoke {
		hz = append(hz, HazardSmoke)
	}
	if a.Temperature > extremeHeat {
		hz = append(hz, HazardExtremeHeat)
	}
	return hz
}

// MapRegion assigns tiles to room. The room's mixture becomes the average of
// these tiles after every tick.
func (s *System) MapRegion(room string, tiles []world.Position) error {
	if _, err := s.room(room); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tiles == nil {
		return oops.Code("INVALID_ARGS").With("room_id", room).Errorf("no tile grid attached")
	}
	for _, p := range tiles {
		if _, ok := s.tiles.Tile(p); !ok {
			return oops.Code("INVALID_ARGS").With("room_id", room).With("tile", p.String()).
				Errorf("tile %s is outside the grid", p)
		}
	}
	s.regions[room] = slices.Clone(tiles)
	return nil
}

// RoomAt returns the room whose region contains pos.
func (s *System) RoomAt(pos world.Position) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomAtLocked(pos)
}

func (s *System) roomAtLocked(pos world.Position) (string, bool) {
	for _, room := range sortedKeys(s.regions) {
		if slices.Contains(s.regions[room], pos) {
			return room, true
		}
	}
	return "", false
}

// Tiles returns the attached tile grid, or nil.
func (s *System) Tiles() *TileGrid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tiles
}

// Pipes returns the pipe network moving gas between tiles.
func (s *System) Pipes() *PipeNetwork { return s.pipes }

// Decompress equalises two tiles and reports the pressure wave.
func (s *System) Decompress(a, b world.Position) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tiles == nil {
		return 0
	}
	return s.tiles.ExplosiveDecompress(a, b)
}

// HullBreach vents interior into exterior and publishes hull_breach when a
// pressure wave results.
func (s *System) HullBreach(ctx context.Context, interior, exterior world.Position) float64 {
	wave := s.Decompress(interior, exterior)
	if wave == 0 {
		return 0
	}
	p := core.Payload{
		"interior":      []int{interior.X, interior.Y},
		"exterior":      []int{exterior.X, exterior.Y},
		"pressure_wave": wave,
	}
	if room, ok := s.RoomAt(interior); ok {
		p["room_id"] = room
	}
	s.w.Publish(ctx, core.TopicHullBreach, p)
	return wave
}

// Tick advances vents, leaks, the tile grid, pipes and fires, then projects
// regions onto rooms, refreshes hazards and applies environmental effects to
// players.
func (s *System) Tick(ctx context.Context, now time.Time) error {
	rooms := s.w.Rooms()
	s.mu.Lock()
	var out []pending
	for _, r := range rooms {
		out = append(out, s.roomStepLocked(r, now)...)
	}
	if s.tiles != nil {
		s.tiles.Step(s.rate)
		s.pipes.Step(s.tiles)
		out = append(out, s.fireStepLocked()...)
	}
	updates := make([]roomUpdate, 0, len(rooms))
	for _, r := range rooms {
		room, _ := world.As[*world.Room](r)
		if tiles, ok := s.regions[r.ID]; ok {
			if avg, ok := s.tiles.Average(tiles); ok {
				room.Atmosphere = avg.Atmosphere()
			}
		}
		hz := s.hazardsLocked(r.ID, room.Atmosphere)
		room.SetHazards(hz)
		updates = append(updates, roomUpdate{room: r.ID, atmos: room.Atmosphere, hazards: room.HazardList()})
	}
	s.mu.Unlock()

	for _, p := range out {
		s.w.Publish(ctx, p.topic, p.payload)
	}
	for _, u := range updates {
		s.w.Publish(ctx, core.TopicAtmosUpdated, core.Payload{
			"room_id":    u.room,
			"atmosphere": atmosPayload(u.atmos),
			"hazards":    u.hazards,
		})
		s.affectPlayers(ctx, u)
	}
	return nil
}

// roomStepLocked runs the vent and leaks of one room on its mixture, or on
// every tile of its region when mapped.
func (s *System) roomStepLocked(e *world.Entity, now time.Time) []pending {
	room, ok := world.As[*world.Room](e)
	if !ok {
		return nil
	}
	var out []pending
	live := s.leaks[e.ID][:0]
	for _, l := range s.leaks[e.ID] {
		if l.expired(now) {
			out = append(out, pending{core.TopicLeakFixed, core.Payload{"room_id": e.ID, "rate": l.Rate}})
			continue
		}
		live = append(live, l)
	}
	if len(live) == 0 {
		delete(s.leaks, e.ID)
	} else {
		s.leaks[e.ID] = live
	}

	vent := s.vents[e.ID]
	venting := vent != nil && vent.Active && (s.power == nil || s.power.RoomPowered(e.ID))
	mutate := func(a *world.Atmosphere) {
		if venting {
			normalize(a, vent.Rate)
		}
		for _, l := range live {
			a.Oxygen = max(0, a.Oxygen-l.Rate*leakOxygen)
			a.Pressure = max(0, a.Pressure-l.Rate*leakPressure)
		}
	}
	if tiles, mapped := s.regions[e.ID]; mapped && s.tiles != nil {
		for _, p := range tiles {
			t, _ := s.tiles.Tile(p)
			a := t.Atmosphere()
			mutate(&a)
			t.SetAtmosphere(a)
		}
		return out
	}
	mutate(&room.Atmosphere)
	return out
}

func normalize(a *world.Atmosphere, rate float64) {
	step := rate * ventStep
	a.Oxygen += (world.StandardOxygen - a.Oxygen) * step
	a.Nitrogen += (world.StandardNitrogen - a.Nitrogen) * step
	a.CO2 += (world.StandardCO2 - a.CO2) * step
	a.Pressure += (world.StandardPressure - a.Pressure) * step
}

func (s *System) affectPlayers(ctx context.Context, u roomUpdate) {
	for _, p := range s.w.PlayersIn(u.room) {
		pl, ok := world.As[*world.Player](p)
		if !ok {
			continue
		}
		for _, msg := range pl.EnvironmentalEffects(ctx, s.w, u.atmos, u.hazards) {
			if s.notify != nil {
				s.notify(ctx, p.ID, msg)
			}
		}
	}
}

func atmosPayload(a world.Atmosphere) map[string]any {
	return map[string]any{
		"oxygen":      a.Oxygen,
		"nitrogen":    a.Nitrogen,
		"co2":         a.CO2,
		"smoke":       a.Smoke,
		"pressure":    a.Pressure,
		"temperature": a.Temperature,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
