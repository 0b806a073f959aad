// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package power simulates station power grids: sources, storage, load and
// the power_loss/power_restored transitions consumers react to.
package power

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Defaults for grid equipment.
const (
	DefaultGridCapacity    = 100.0
	DefaultGeneratorOutput = 100.0
	DefaultSolarEfficiency = 80.0
	DefaultSMESCapacity    = 100.0
	DefaultSMESRate        = 20.0
	DefaultBatteryCapacity = 50.0
)

const (
	historyLength            = 20
	solarOutputPerEfficiency = 0.5
)

// Grid is a set of rooms sharing power.
type Grid struct {
	ID       string
	Name     string
	Rooms    []string
	Capacity float64
	Powered  bool
	Load     float64
	Supply   float64
	History  []float64

	breakerOpen  bool
	failing      bool
	failureUntil time.Time
}

func (g *Grid) hasRoom(room string) bool { return slices.Contains(g.Rooms, room) }

// Generator burns fuel to supply Capacity units.
type Generator struct {
	ID       string
	GridID   string
	Capacity float64
	Active   bool
	Fuel     float64
}

// Solar supplies Efficiency*0.5 units while active.
type Solar struct {
	ID         string
	GridID     string
	Efficiency float64
	Active     bool
}

// SMES stores surplus and discharges into deficits.
type SMES struct {
	ID         string
	GridID     string
	Capacity   float64
	Charge     float64
	InputRate  float64
	OutputRate float64
}

// Battery is backup storage engaged only when supply falls short.
type Battery struct {
	ID       string
	GridID   string
	Capacity float64
	Charge   float64
	Engaged  bool
}

// GridStatus is a read-only view of one grid.
type GridStatus struct {
	ID       string
	Name     string
	Powered  bool
	Load     float64
	Supply   float64
	Capacity float64
	Rooms    []string
}

type pending struct {
	topic   core.Topic
	payload core.Payload
}

// System owns every grid and source.
type System struct {
	mu         sync.RWMutex
	w          *world.World
	grids      map[string]*Grid
	generators map[string]*Generator
	solars     map[string]*Solar
	smes       map[string]*SMES
	batteries  map[string]*Battery
	roomPower  map[string]bool
}

// New creates an empty power system for w.
func New(w *world.World) *System {
	return &System{
		w:          w,
		grids:      make(map[string]*Grid),
		generators: make(map[string]*Generator),
		solars:     make(map[string]*Solar),
		smes:       make(map[string]*SMES),
		batteries:  make(map[string]*Battery),
		roomPower:  make(map[string]bool),
	}
}

// AddGrid registers a powered grid over rooms. capacity <= 0 uses the default.
func (s *System) AddGrid(id, name string, rooms []string, capacity float64) *Grid {
	if capacity <= 0 {
		capacity = DefaultGridCapacity
	}
	g := &Grid{ID: id, Name: name, Rooms: slices.Clone(rooms), Capacity: capacity, Powered: true}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grids[id] = g
	for _, r := range rooms {
		s.roomPower[r] = true
	}
	return g
}

func (s *System) gridLocked(id string) (*Grid, error) {
	g, ok := s.grids[id]
	if !ok {
		return nil, oops.Code("NOT_FOUND").With("grid_id", id).Errorf("no power grid %s", id)
	}
	return g, nil
}

// AddGenerator attaches a fuelled generator to a grid.
func (s *System) AddGenerator(id, gridID string, capacity float64) error {
	if capacity <= 0 {
		capacity = DefaultGeneratorOutput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.gridLocked(gridID); err != nil {
		return err
	}
	s.generators[id] = &Generator{ID: id, GridID: gridID, Capacity: capacity, Active: true, Fuel: 100}
	return nil
}

// AddSolar attaches a solar array to a grid.
func (s *System) AddSolar(id, gridID string, efficiency float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.gridLocked(gridID); err != nil {
		return err
	}
	s.solars[id] = &Solar{ID: id, GridID: gridID, Efficiency: clamp(efficiency, 0, 100), Active: true}
	return nil
}

// AddSMES attaches an empty storage unit to a grid.
func (s *System) AddSMES(id, gridID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.gridLocked(gridID); err != nil {
		return err
	}
	s.smes[id] = &SMES{ID: id, GridID: gridID, Capacity: DefaultSMESCapacity, InputRate: DefaultSMESRate, OutputRate: DefaultSMESRate}
	return nil
}

// AddBattery attaches a backup battery with charge percent to a grid.
func (s *System) AddBattery(id, gridID string, capacity, charge float64) error {
	if capacity <= 0 {
		capacity = DefaultBatteryCapacity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.gridLocked(gridID); err != nil {
		return err
	}
	s.batteries[id] = &Battery{ID: id, GridID: gridID, Capacity: capacity, Charge: clamp(charge, 0, 100)}
	return nil
}

// Generator returns a copy of the generator state.
func (s *System) Generator(id string) (Generator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.generators[id]
	if !ok {
		return Generator{}, false
	}
	return *g, true
}

// Battery returns a copy of the battery state.
func (s *System) Battery(id string) (Battery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batteries[id]
	if !ok {
		return Battery{}, false
	}
	return *b, true
}

func (s *System) generatorLocked(id string) (*Generator, error) {
	g, ok := s.generators[id]
	if !ok {
		return nil, oops.Code("NOT_FOUND").With("generator_id", id).Errorf("no generator %s", id)
	}
	return g, nil
}

// SetFuel sets a generator's fuel level, clamped to 0..100.
func (s *System) SetFuel(id string, fuel float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.generatorLocked(id)
	if err != nil {
		return err
	}
	g.Fuel = clamp(fuel, 0, 100)
	return nil
}

// Refuel adds fuel and restarts a generator that ran dry.
func (s *System) Refuel(id string, amount float64) error {
	if amount <= 0 {
		return oops.Code("INVALID_ARGS").With("amount", amount).Errorf("amount must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.generatorLocked(id)
	if err != nil {
		return err
	}
	g.Fuel = clamp(g.Fuel+amount, 0, 100)
	if g.Fuel > 0 {
		g.Active = true
	}
	return nil
}

// ToggleGenerator switches a generator on or off.
func (s *System) ToggleGenerator(id string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.generatorLocked(id)
	if err != nil {
		return err
	}
	g.Active = on
	return nil
}

// SetSolarEfficiency sets an array's efficiency, clamped to 0..100.
func (s *System) SetSolarEfficiency(id string, efficiency float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.solars[id]
	if !ok {
		return oops.Code("NOT_FOUND").With("solar_id", id).Errorf("no solar array %s", id)
	}
	p.Efficiency = clamp(efficiency, 0, 100)
	return nil
}

// ChargeBattery adds charge percent to a battery.
func (s *System) ChargeBattery(id string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batteries[id]
	if !ok {
		return oops.Code("NOT_FOUND").With("battery_id", id).Errorf("no battery %s", id)
	}
	b.Charge = clamp(b.Charge+amount, 0, 100)
	return nil
}

// CausePowerFailure cuts a grid and stops its generators. With a positive
// duration the grid restarts on the first tick after now+duration.
func (s *System) CausePowerFailure(ctx context.Context, gridID string, duration time.Duration, now time.Time) error {
	s.mu.Lock()
	g, err := s.gridLocked(gridID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	g.failing = true
	g.failureUntil = time.Time{}
	if duration > 0 {
		g.failureUntil = now.Add(duration)
	}
	for _, gen := range s.generators {
		if gen.GridID == gridID {
			gen.Active = false
		}
	}
	out := s.settleLocked(g, false)
	out = append(out, pending{core.TopicManualPowerFailure, core.Payload{"grid_id": gridID, "duration": duration.Seconds()}})
	s.mu.Unlock()

	slog.Info("power failure", "grid_id", gridID, "duration", duration)
	s.flush(ctx, out)
	return nil
}

// ToggleBreaker opens or closes a grid's main breaker.
func (s *System) ToggleBreaker(ctx context.Context, gridID string, on bool) error {
	s.mu.Lock()
	g, err := s.gridLocked(gridID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	g.breakerOpen = !on
	var out []pending
	if on {
		g.failing = false
		out = s.settleLocked(g, s.sufficientLocked(g))
	} else {
		out = s.settleLocked(g, false)
	}
	s.mu.Unlock()
	s.flush(ctx, out)
	return nil
}

// RoomPowered reports whether room has power. Rooms outside any grid are powered.
func (s *System) RoomPowered(room string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.roomPower[room]; ok {
		return v
	}
	return true
}

// AllPowered reports whether every grid has power.
func (s *System) AllPowered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.grids {
		if !g.Powered {
			return false
		}
	}
	return true
}

// GridOf returns the grid a room belongs to.
func (s *System) GridOf(room string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.gridIDsLocked() {
		if s.grids[id].hasRoom(room) {
			return id, true
		}
	}
	return "", false
}

// DescribeRoomPower renders a one-line power report for room.
func (s *System) DescribeRoomPower(room string) string {
	if s.RoomPowered(room) {
		return fmt.Sprintf("Power is flowing normally in %s.", room)
	}
	return fmt.Sprintf("%s is without power.", room)
}

// UsageGraph renders the last width load samples of a grid.
func (s *System) UsageGraph(gridID string, width int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grids[gridID]
	if !ok || len(g.History) == 0 {
		return "No data"
	}
	pts := g.History
	if width > 0 && len(pts) > width {
		pts = pts[len(pts)-width:]
	}
	parts := make([]string, len(pts))
	for i, v := range pts {
		parts[i] = fmt.Sprintf("%3d", int(v))
	}
	return strings.Join(parts, " ")
}

// Status returns every grid, sorted by id.
func (s *System) Status() []GridStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GridStatus, 0, len(s.grids))
	for _, id := range s.gridIDsLocked() {
		g := s.grids[id]
		out = append(out, GridStatus{
			ID: g.ID, Name: g.Name, Powered: g.Powered, Load: g.Load,
			Supply: g.Supply, Capacity: g.Capacity, Rooms: slices.Clone(g.Rooms),
		})
	}
	return out
}

// Draw consumes units from the grid of room for autogrow and similar
// equipment. It fails when the room is unpowered.
func (s *System) Draw(room string, units float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.gridIDsLocked() {
		g := s.grids[id]
		if !g.hasRoom(room) {
			continue
		}
		if !g.Powered {
			return false
		}
		g.Load += units
		return true
	}
	return true
}

// Tick advances every grid once: sources, load, then status.
func (s *System) Tick(ctx context.Context, now time.Time) error {
	consumers := s.consumers()
	s.mu.Lock()
	var out []pending
	for _, id := range s.gridIDsLocked() {
		out = append(out, s.updateGridLocked(s.grids[id], consumers, now)...)
	}
	s.mu.Unlock()
	s.flush(ctx, out)
	s.syncConsumers(ctx, consumers)
	return nil
}

type consumerRef struct {
	pc   *world.PowerConsumer
	room string
}

func (s *System) consumers() []consumerRef {
	var out []consumerRef
	for _, e := range s.w.All() {
		if pc, ok := world.As[*world.PowerConsumer](e); ok {
			out = append(out, consumerRef{pc: pc, room: pc.Room(s.w)})
		}
	}
	return out
}

func (s *System) demandLocked(g *Grid, consumers []consumerRef) float64 {
	var demand float64
	for _, c := range consumers {
		if c.pc.GridID == "" && g.hasRoom(c.room) {
			c.pc.GridID = g.ID
		}
		if c.pc.GridID != g.ID || !g.hasRoom(c.room) || c.pc.Damaged {
			continue
		}
		demand += c.pc.Load
	}
	return demand
}

func (s *System) updateGridLocked(g *Grid, consumers []consumerRef, now time.Time) []pending {
	var out []pending
	if g.failing && !g.failureUntil.IsZero() && !now.Before(g.failureUntil) {
		g.failing = false
		g.failureUntil = time.Time{}
		for _, gen := range s.sortedGenerators(g.ID) {
			if gen.Fuel > 0 {
				gen.Active = true
			}
		}
		slog.Info("power failure over", "grid_id", g.ID)
	}

	var supply float64
	for _, gen := range s.sortedGenerators(g.ID) {
		if !gen.Active {
			continue
		}
		if gen.Fuel > 0 {
			gen.Fuel = max(0, gen.Fuel-(0.5+s.w.Float64()))
		}
		if gen.Fuel <= 0 {
			gen.Active = false
			out = append(out, pending{core.TopicGeneratorOutOfFuel, core.Payload{"generator_id": gen.ID, "grid_id": g.ID}})
			continue
		}
		supply += gen.Capacity
	}
	for _, id := range sortedKeys(s.solars) {
		if p := s.solars[id]; p.GridID == g.ID && p.Active {
			supply += p.Efficiency * solarOutputPerEfficiency
		}
	}

	demand := s.demandLocked(g, consumers)

	for _, id := range sortedKeys(s.smes) {
		u := s.smes[id]
		if u.GridID != g.ID || supply >= demand || u.Charge <= 0 {
			continue
		}
		d := min(demand-supply, u.OutputRate, u.Charge)
		u.Charge -= d
		supply += d
	}

	for _, id := range sortedKeys(s.batteries) {
		b := s.batteries[id]
		if b.GridID != g.ID {
			continue
		}
		needed := supply <= 0 || supply < demand
		if !needed || b.Charge <= 0 {
			b.Engaged = false
			continue
		}
		if !b.Engaged {
			b.Engaged = true
			out = append(out, pending{core.TopicBatteryActivated, core.Payload{"battery_id": b.ID, "grid_id": g.ID}})
		}
		b.Charge = max(0, b.Charge-(2+3*s.w.Float64()))
		if b.Charge <= 0 {
			b.Engaged = false
			out = append(out, pending{core.TopicBatteryDepleted, core.Payload{"battery_id": b.ID, "grid_id": g.ID}})
			continue
		}
		supply += b.Capacity * b.Charge / 100
	}

	g.Supply = supply
	g.Load = demand
	g.History = append(g.History, demand)
	if len(g.History) > historyLength {
		g.History = g.History[len(g.History)-historyLength:]
	}

	if demand > g.Capacity {
		slog.Warn("power grid overloaded", "grid_id", g.ID, "load", demand, "capacity", g.Capacity)
		out = append(out,
			pending{core.TopicGridOverload, core.Payload{"grid_id": g.ID, "load": demand, "capacity": g.Capacity}},
			pending{core.TopicElectricalHazard, core.Payload{"grid_id": g.ID, "affected_rooms": slices.Clone(g.Rooms)}},
		)
	}

	powered := s.sufficientLocked(g)
	if powered && supply > demand {
		surplus := supply - demand
		for _, id := range sortedKeys(s.smes) {
			u := s.smes[id]
			if u.GridID != g.ID || surplus <= 0 {
				continue
			}
			in := min(surplus, u.InputRate, u.Capacity-u.Charge)
			if in > 0 {
				u.Charge += in
				surplus -= in
			}
		}
	}
	out = append(out, s.settleLocked(g, powered)...)
	out = append(out, pending{core.TopicPowerStatusUpdate, core.Payload{
		"grid_id": g.ID, "is_powered": g.Powered, "load": g.Load, "capacity": g.Capacity, "supply": g.Supply,
	}})
	return out
}

func (s *System) sufficientLocked(g *Grid) bool {
	if g.breakerOpen || g.failing {
		return false
	}
	return g.Supply > 0 && g.Supply >= g.Load && g.Load <= g.Capacity
}

// settleLocked applies the powered state, returning the transition and room
// events to publish.
func (s *System) settleLocked(g *Grid, powered bool) []pending {
	var out []pending
	if powered != g.Powered {
		g.Powered = powered
		topic := core.TopicPowerRestored
		if !powered {
			topic = core.TopicPowerLoss
		}
		slog.Info("power grid state changed", "grid_id", g.ID, "powered", powered)
		out = append(out, pending{topic, core.Payload{"grid_id": g.ID, "affected_rooms": slices.Clone(g.Rooms)}})
	}
	for _, room := range g.Rooms {
		if prev, ok := s.roomPower[room]; !ok || prev != powered {
			s.roomPower[room] = powered
			out = append(out, pending{core.TopicRoomPowerChanged, core.Payload{"room_id": room, "powered": powered}})
		}
	}
	return out
}

// syncConsumers makes every consumer's active flag match its grid.
func (s *System) syncConsumers(ctx context.Context, consumers []consumerRef) {
	for _, c := range consumers {
		s.mu.RLock()
		g, ok := s.grids[c.pc.GridID]
		powered := ok && g.Powered && g.hasRoom(c.room)
		s.mu.RUnlock()
		if !ok {
			continue
		}
		c.pc.SetActive(ctx, s.w, powered)
	}
}

func (s *System) flush(ctx context.Context, out []pending) {
	for _, p := range out {
		s.w.Publish(ctx, p.topic, p.payload)
	}
}

func (s *System) gridIDsLocked() []string { return sortedKeys(s.grids) }

func (s *System) sortedGenerators(gridID string) []*Generator {
	var out []*Generator
	for _, id := range sortedKeys(s.generators) {
		if g := s.generators[id]; g.GridID == gridID {
			out = append(out, g)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp(v, lo, hi float64) float64 { return min(hi, max(lo, v)) }
