// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package cargo runs supply orders, department budgets and a small market.
package cargo

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Market defaults.
const (
	InitialStock        = 10
	DemandSwing         = 0.2
	MinDemand           = 0.1
	DefaultShortageOdds = 0.1
	EmergencyDelivery   = 5 * time.Second
	StandardDelivery    = 20 * time.Second
	shortageMinTicks    = 2
	shortageMaxTicks    = 5
	restockMin          = 5
	restockMax          = 15
)

// Vendor sells items from a price catalog with limited stock.
type Vendor struct {
	Name    string
	Catalog map[string]int
	Stock   map[string]int
}

// Order is a placed supply order.
type Order struct {
	ID         uuid.UUID
	Department string
	Vendor     string
	Item       string
	Quantity   int
	Cost       int
	ETA        time.Time
	Emergency  bool
}

// VendorDef is the table form of a vendor.
type VendorDef struct {
	Name    string         `yaml:"name" json:"name" jsonschema:"required"`
	Catalog map[string]int `yaml:"catalog" json:"catalog" jsonschema:"required"`
}

// Table seeds vendors and department budgets.
type Table struct {
	Vendors []VendorDef    `yaml:"vendors" json:"vendors"`
	Credits map[string]int `yaml:"credits,omitempty" json:"credits,omitempty"`
}

// Option configures a System.
type Option func(*System)

// WithClock overrides the clock used to schedule deliveries.
func WithClock(now func() time.Time) Option { return func(s *System) { s.now = now } }

// WithShortageOdds sets the per-tick chance of a new shortage.
func WithShortageOdds(p float64) Option { return func(s *System) { s.odds = p } }

type pending struct {
	topic   core.Topic
	payload core.Payload
}

// System is the cargo bay.
type System struct {
	mu        sync.Mutex
	w         *world.World
	now       func() time.Time
	odds      float64
	vendors   map[string]*Vendor
	orders    []Order
	inventory map[string]map[string]int
	demand    map[string]float64
	credits   map[string]int
	shortages map[string]int
}

// New creates an empty cargo system.
func New(w *world.World, opts ...Option) *System {
	s := &System{
		w:         w,
		now:       time.Now,
		odds:      DefaultShortageOdds,
		vendors:   make(map[string]*Vendor),
		inventory: make(map[string]map[string]int),
		demand:    make(map[string]float64),
		credits:   make(map[string]int),
		shortages: make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Apply registers every vendor and budget in t.
func (s *System) Apply(t Table) error {
	for _, v := range t.Vendors {
		if err := s.RegisterVendor(v.Name, v.Catalog); err != nil {
			return err
		}
	}
	for dept, amount := range t.Credits {
		s.SetCredits(dept, amount)
	}
	return nil
}

// RegisterVendor adds a vendor stocking InitialStock of each catalog item.
// Catalog items enter the market at demand 1.
func (s *System) RegisterVendor(name string, catalog map[string]int) error {
	if name == "" || len(catalog) == 0 {
		return oops.Code("INVALID_ARGS").With("vendor", name).Errorf("vendor needs a name and a catalog")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &Vendor{Name: name, Catalog: maps.Clone(catalog), Stock: make(map[string]int, len(catalog))}
	for item := range catalog {
		v.Stock[item] = InitialStock
		if _, ok := s.demand[item]; !ok {
			s.demand[item] = 1
		}
	}
	s.vendors[name] = v
	return nil
}

// Vendors returns a copy of every vendor, sorted by name.
func (s *System) Vendors() []Vendor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Vendor, 0, len(s.vendors))
	for _, name := range slices.Sorted(maps.Keys(s.vendors)) {
		v := s.vendors[name]
		out = append(out, Vendor{Name: v.Name, Catalog: maps.Clone(v.Catalog), Stock: maps.Clone(v.Stock)})
	}
	return out
}

// SetCredits sets a department budget, floored at zero.
func (s *System) SetCredits(dept string, amount int) {
	s.mu.Lock()
	s.credits[dept] = max(amount, 0)
	s.mu.Unlock()
}

// AddCredits adjusts a department budget by delta.
func (s *System) AddCredits(dept string, delta int) {
	s.mu.Lock()
	s.credits[dept] += delta
	s.mu.Unlock()
}

// Credits returns a department budget.
func (s *System) Credits(dept string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits[dept]
}

// SetDemand sets an item's demand multiplier, floored at MinDemand.
func (s *System) SetDemand(item string, demand float64) {
	s.mu.Lock()
	s.demand[item] = max(demand, MinDemand)
	s.mu.Unlock()
}

// Demand returns an item's demand multiplier.
func (s *System) Demand(item string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.demandLocked(item)
}

func (s *System) demandLocked(item string) float64 {
	if d, ok := s.demand[item]; ok {
		return d
	}
	return 1
}

// Shortage returns the remaining shortage ticks for item.
func (s *System) Shortage(item string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shortages[item]
}

// Price quotes the unit price of item at vendor: base times demand, doubled
// during a shortage, never below 1.
func (s *System) Price(vendor, item string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.vendorLocked(vendor)
	if err != nil {
		return 0, err
	}
	base, ok := v.Catalog[item]
	if !ok {
		return 0, oops.Code("NOT_FOUND").With("vendor", vendor).With("item", item).Errorf("%s does not sell %s", vendor, item)
	}
	return s.priceLocked(base, item), nil
}

func (s *System) priceLocked(base int, item string) int {
	p := int(float64(base) * s.demandLocked(item))
	if s.shortages[item] > 0 {
		p *= 2
	}
	return max(p, 1)
}

func (s *System) vendorLocked(name string) (*Vendor, error) {
	v, ok := s.vendors[name]
	if !ok {
		return nil, oops.Code("UNKNOWN_VENDOR").With("vendor", name).Errorf("no vendor named %q", name)
	}
	return v, nil
}

// OrderSupply buys quantity of item from vendor for dept. The cost is taken
// from the department budget immediately; the goods arrive after the
// delivery delay.
func (s *System) OrderSupply(ctx context.Context, dept, vendor, item string, quantity int, emergency bool) (Order, error) {
	if quantity <= 0 {
		return Order{}, oops.Code("INVALID_ARGS").With("quantity", quantity).Errorf("quantity must be positive")
	}
	s.mu.Lock()
	v, err := s.vendorLocked(vendor)
	if err != nil {
		s.mu.Unlock()
		return Order{}, err
	}
	base, ok := v.Catalog[item]
	switch {
	case !ok:
		err = oops.Code("NOT_FOUND").With("vendor", vendor).With("item", item).Errorf("%s does not sell %s", vendor, item)
	case s.shortages[item] > 0:
		err = oops.Code("SUPPLY_SHORTAGE").With("item", item).Errorf("%s is in short supply", item)
	case v.Stock[item] < quantity:
		err = oops.Code("OUT_OF_STOCK").With("vendor", vendor).With("item", item).Errorf("%s lacks stock for %d %s", vendor, quantity, item)
	}
	if err != nil {
		s.mu.Unlock()
		return Order{}, err
	}
	cost := s.priceLocked(base, item) * quantity
	if s.credits[dept] < cost {
		s.mu.Unlock()
		return Order{}, oops.Code("INSUFFICIENT_CREDITS").With("department", dept).With("cost", cost).
			Errorf("%s cannot afford %d credits", dept, cost)
	}
	delay := StandardDelivery
	if emergency {
		delay = EmergencyDelivery
	}
	o := Order{
		ID: uuid.New(), Department: dept, Vendor: vendor, Item: item,
		Quantity: quantity, Cost: cost, ETA: s.now().Add(delay), Emergency: emergency,
	}
	s.credits[dept] -= cost
	v.Stock[item] -= quantity
	s.orders = append(s.orders, o)
	s.mu.Unlock()

	slog.Info("supply ordered", "order_id", o.ID, "department", dept, "item", item, "quantity", quantity)
	s.w.Publish(ctx, core.TopicSupplyOrdered, core.Payload{
		"order_id": o.ID.String(), "department": dept, "vendor": vendor, "item": item,
		"quantity": quantity, "cost": cost, "emergency": emergency,
	})
	return o, nil
}

// Orders returns the undelivered orders in placement order.
func (s *System) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

// Inventory returns a copy of a department's delivered goods.
func (s *System) Inventory(dept string) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.inventory[dept])
}

// TransferSupply moves goods between departments, paying price per unit
// from the receiver to the sender.
func (s *System) TransferSupply(ctx context.Context, from, to, item string, quantity, price int) error {
	if quantity <= 0 || price < 0 {
		return oops.Code("INVALID_ARGS").With("quantity", quantity).With("price", price).Errorf("invalid transfer")
	}
	s.mu.Lock()
	src := s.inventory[from]
	if src[item] < quantity {
		s.mu.Unlock()
		return oops.Code("OUT_OF_STOCK").With("department", from).With("item", item).Errorf("%s lacks %d %s", from, quantity, item)
	}
	total := price * quantity
	if s.credits[to] < total {
		s.mu.Unlock()
		return oops.Code("INSUFFICIENT_CREDITS").With("department", to).With("cost", total).
			Errorf("%s cannot afford %d credits", to, total)
	}
	src[item] -= quantity
	if src[item] == 0 {
		delete(src, item)
	}
	s.stockLocked(to)[item] += quantity
	s.credits[from] += total
	s.credits[to] -= total
	s.mu.Unlock()

	s.w.Publish(ctx, core.TopicSupplyTransferred, core.Payload{
		"from": from, "to": to, "item": item, "quantity": quantity, "cost": total,
	})
	return nil
}

func (s *System) stockLocked(dept string) map[string]int {
	inv, ok := s.inventory[dept]
	if !ok {
		inv = make(map[string]int)
		s.inventory[dept] = inv
	}
	return inv
}

// ApplyMarketEvent shifts an item's demand and, with shortage > 0, starts a
// shortage of that many ticks that empties every vendor's stock.
func (s *System) ApplyMarketEvent(ctx context.Context, item string, demandDelta float64, shortage int) {
	if item == "" {
		return
	}
	s.mu.Lock()
	s.demand[item] = max(MinDemand, s.demandLocked(item)+demandDelta)
	if shortage > 0 {
		s.startShortageLocked(item, shortage)
	}
	demand := s.demand[item]
	s.mu.Unlock()

	s.w.Publish(ctx, core.TopicMarketEvent, core.Payload{"item": item, "demand": demand, "shortage": shortage})
}

func (s *System) startShortageLocked(item string, ticks int) {
	s.shortages[item] = ticks
	for _, v := range s.vendors {
		if _, ok := v.Stock[item]; ok {
			v.Stock[item] = 0
		}
	}
}

// Tick delivers due orders and moves the market.
func (s *System) Tick(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	var out []pending
	keep := s.orders[:0]
	for _, o := range s.orders {
		if o.ETA.After(now) {
			keep = append(keep, o)
			continue
		}
		s.stockLocked(o.Department)[o.Item] += o.Quantity
		out = append(out, pending{core.TopicSupplyDelivered, core.Payload{
			"order_id": o.ID.String(), "department": o.Department, "item": o.Item, "quantity": o.Quantity,
		}})
	}
	s.orders = keep
	out = append(out, s.economyLocked()...)
	s.mu.Unlock()

	for _, p := range out {
		s.w.Publish(ctx, p.topic, p.payload)
	}
	return nil
}

func (s *System) economyLocked() []pending {
	items := slices.Sorted(maps.Keys(s.demand))
	for _, item := range items {
		delta := s.w.Float64()*2*DemandSwing - DemandSwing
		s.demand[item] = max(MinDemand, s.demand[item]+delta)
	}
	ended := slices.Sorted(maps.Keys(s.shortages))
	for _, item := range ended {
		s.shortages[item]--
		if s.shortages[item] > 0 {
			continue
		}
		delete(s.shortages, item)
		for _, name := range slices.Sorted(maps.Keys(s.vendors)) {
			v := s.vendors[name]
			if _, ok := v.Catalog[item]; ok {
				v.Stock[item] += restockMin + s.w.IntN(restockMax-restockMin+1)
			}
		}
	}
	if len(items) == 0 || s.w.Float64() >= s.odds {
		return nil
	}
	item := items[s.w.IntN(len(items))]
	ticks := shortageMinTicks + s.w.IntN(shortageMaxTicks-shortageMinTicks+1)
	s.startShortageLocked(item, ticks)
	slog.Info("supply shortage", "item", item, "ticks", ticks)
	return []pending{{core.TopicMarketEvent, core.Payload{"item": item, "demand": s.demand[item], "shortage": ticks}}}
}

// Shortages returns the items currently in shortage, sorted.
func (s *System) Shortages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Collect(maps.Keys(s.shortages))
	sort.Strings(out)
	return out
}
