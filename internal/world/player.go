// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
)

// Player stat names.
const (
	StatHealth    = "health"
	StatEnergy    = "energy"
	StatOxygen    = "oxygen"
	StatRadiation = "radiation"
	StatNutrition = "nutrition"
)

// Damage types on a body part.
const (
	DamageBrute  = "brute"
	DamageBurn   = "burn"
	DamageToxin  = "toxin"
	DamageOxygen = "oxygen"
)

// Immunity levels against disease.
const (
	ImmunityNone      = ""
	ImmunityResistant = "resistant"
	ImmunityImmune    = "immune"
)

// DefaultMaxInventory is the default inventory capacity.
const DefaultMaxInventory = 10

// Vitals are a player's bounded stats. Radiation has no upper bound.
type Vitals struct {
	Health    float64 `yaml:"health"`
	Energy    float64 `yaml:"energy"`
	Oxygen    float64 `yaml:"oxygen"`
	Radiation float64 `yaml:"radiation"`
	Nutrition float64 `yaml:"nutrition"`
}

// BodyDamage accumulates damage on one body part.
type BodyDamage struct {
	Brute  float64 `yaml:"brute"`
	Burn   float64 `yaml:"burn"`
	Toxin  float64 `yaml:"toxin"`
	Oxygen float64 `yaml:"oxygen"`
}

// Total returns the sum of all damage types.
func (d BodyDamage) Total() float64 { return d.Brute + d.Burn + d.Toxin + d.Oxygen }

// Player is an avatar controlled by a session.
type Player struct {
	Base         `yaml:"-"`
	Inventory    []string              `yaml:"inventory"`
	MaxInventory int                   `yaml:"max_inventory_size"`
	Equipment    map[string]string     `yaml:"equipment,omitempty"`
	Stats        Vitals                `yaml:"stats"`
	AccessLevel  int                   `yaml:"access_level"`
	Role         string                `yaml:"role"`
	Abilities    []string              `yaml:"abilities,omitempty"`
	Skills       map[string]int        `yaml:"skills,omitempty"`
	Damage       map[string]BodyDamage `yaml:"damage,omitempty"`
	Diseases     []string              `yaml:"diseases,omitempty"`
	Immunity     string                `yaml:"immune_mutation,omitempty"`
	Alive        bool                  `yaml:"alive"`
	Credits      int                   `yaml:"credits,omitempty"`

	lastMove time.Time
}

var roleAbilities = map[string][]string{
	"engineer": {"repair_power", "fix_leak"},
	"doctor":   {"heal"},
	"security": {"restrain"},
	"chemist":  {"mix"},
}

// NewPlayer returns a healthy crew member.
func NewPlayer(role string) *Player {
	if role == "" {
		role = "crew"
	}
	return &Player{
		Inventory:    []string{},
		MaxInventory: DefaultMaxInventory,
		Stats:        Vitals{Health: 100, Energy: 100, Oxygen: 100, Nutrition: 100},
		Role:         role,
		Abilities:    slices.Clone(roleAbilities[role]),
		Alive:        true,
	}
}

// Kind implements Component.
func (p *Player) Kind() Kind { return KindPlayer }

// HasAbility reports whether the role grants ability.
func (p *Player) HasAbility(ability string) bool { return slices.Contains(p.Abilities, ability) }

// Skill returns the player's level in skill.
func (p *Player) Skill(skill string) int { return p.Skills[skill] }

// HasItem reports whether id is in the inventory.
func (p *Player) HasItem(id string) bool { return slices.Contains(p.Inventory, id) }

// Carried returns inventory ids followed by equipped ids (sorted by slot).
func (p *Player) Carried() []string {
	out := slices.Clone(p.Inventory)
	slots := make([]string, 0, len(p.Equipment))
	for slot := range p.Equipment {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		out = append(out, p.Equipment[slot])
	}
	return out
}

// AddToInventory appends id if there is room and it is not already carried.
func (p *Player) AddToInventory(id string) bool {
	if len(p.Inventory) >= p.MaxInventory || slices.Contains(p.Carried(), id) {
		return false
	}
	p.Inventory = append(p.Inventory, id)
	return true
}

// RemoveFromInventory drops id from the inventory list.
func (p *Player) RemoveFromInventory(id string) bool {
	i := slices.Index(p.Inventory, id)
	if i < 0 {
		return false
	}
	p.Inventory = slices.Delete(p.Inventory, i, i+1)
	return true
}

// Equip moves id from the inventory into slot.
func (p *Player) Equip(slot, id string) error {
	if !p.HasItem(id) {
		return oops.Code("NOT_FOUND").With("item_id", id).Errorf("you are not carrying that")
	}
	if cur, taken := p.Equipment[slot]; taken {
		return oops.Code("PRECONDITION").With("slot", slot).With("item_id", cur).Errorf("your %s slot is occupied", slot)
	}
	p.RemoveFromInventory(id)
	if p.Equipment == nil {
		p.Equipment = map[string]string{}
	}
	p.Equipment[slot] = id
	return nil
}

// Unequip moves the item in slot back to the inventory.
func (p *Player) Unequip(slot string) (string, error) {
	id, ok := p.Equipment[slot]
	if !ok {
		return "", oops.Code("NOT_FOUND").With("slot", slot).Errorf("nothing is equipped there")
	}
	if len(p.Inventory) >= p.MaxInventory {
		return "", oops.Code("INVENTORY_FULL").Errorf("your inventory is full")
	}
	delete(p.Equipment, slot)
	p.Inventory = append(p.Inventory, id)
	return id, nil
}

// CanMove reports whether the move cooldown has elapsed at now.
func (p *Player) CanMove(now time.Time, cooldown time.Duration) bool {
	return p.lastMove.IsZero() || now.Sub(p.lastMove) >= cooldown
}

// MarkMoved records a move at now.
func (p *Player) MarkMoved(now time.Time) { p.lastMove = now }

// HasDisease reports whether the player carries disease.
func (p *Player) HasDisease(name string) bool { return slices.Contains(p.Diseases, name) }

func (p *Player) stat(name string) (*float64, bool) {
	switch name {
	case StatHealth:
		return &p.Stats.Health, true
	case StatEnergy:
		return &p.Stats.Energy, true
	case StatOxygen:
		return &p.Stats.Oxygen, true
	case StatRadiation:
		return &p.Stats.Radiation, true
	case StatNutrition:
		return &p.Stats.Nutrition, true
	default:
		return nil, false
	}
}

// Stat returns a stat value by name.
func (p *Player) Stat(name string) float64 {
	if v, ok := p.stat(name); ok {
		return *v
	}
	return 0
}

// AdjustStat changes a stat by delta, clamps it and publishes stat_changed.
// The first time health reaches zero the player dies and player_dead is
// published exactly once.
func (p *Player) AdjustStat(ctx context.Context, w *World, name string, delta float64) {
	v, ok := p.stat(name)
	if !ok || delta == 0 {
		return
	}
	old := *v
	next := old + delta
	if name == StatRadiation {
		next = max(0, next)
	} else {
		next = min(100, max(0, next))
	}
	*v = next
	if next != old {
		w.bus.Publish(ctx, core.TopicStatChanged, core.Payload{
			"player_id": p.Owner(), "stat": name, "old_value": old, "new_value": next,
		})
	}
	if name == StatHealth && p.Alive && next <= 0 {
		p.Alive = false
		w.bus.Publish(ctx, core.TopicPlayerDead, core.Payload{"player_id": p.Owner()})
	}
}

// ApplyDamage records damage on a body part and removes the same amount of health.
func (p *Player) ApplyDamage(ctx context.Context, w *World, part, kind string, amount float64) {
	if amount <= 0 {
		return
	}
	if p.Damage == nil {
		p.Damage = map[string]BodyDamage{}
	}
	d := p.Damage[part]
	switch kind {
	case DamageBrute:
		d.Brute += amount
	case DamageBurn:
		d.Burn += amount
	case DamageToxin:
		d.Toxin += amount
	case DamageOxygen:
		d.Oxygen += amount
	default:
		return
	}
	p.Damage[part] = d
	p.AdjustStat(ctx, w, StatHealth, -amount)
}

// Heal removes up to amount of damage across body parts and restores health.
func (p *Player) Heal(ctx context.Context, w *World, amount float64) {
	if amount <= 0 {
		return
	}
	remaining := amount
	parts := make([]string, 0, len(p.Damage))
	for part := range p.Damage {
		parts = append(parts, part)
	}
	sort.Strings(parts)
	for _, part := range parts {
		d := p.Damage[part]
		for _, f := range []*float64{&d.Brute, &d.Burn, &d.Toxin, &d.Oxygen} {
			take := min(*f, remaining)
			*f -= take
			remaining -= take
		}
		if d.Total() == 0 {
			delete(p.Damage, part)
		} else {
			p.Damage[part] = d
		}
	}
	p.AdjustStat(ctx, w, StatHealth, amount)
}

// EnvironmentalEffects applies room conditions to the player and returns
// messages describing what they feel.
func (p *Player) EnvironmentalEffects(ctx context.Context, w *World, atmos Atmosphere, hazards []string) []string {
	if !p.Alive {
		return nil
	}
	var msgs []string
	if atmos.Oxygen < 10 {
		p.AdjustStat(ctx, w, StatOxygen, -2)
		if p.Stats.Oxygen < 50 {
			msgs = append(msgs, "You're having trouble breathing in the low-oxygen environment.")
		}
	}
	if slices.Contains(hazards, "radiation") {
		dose := 1.0
		if w.HasProtection(p.Owner(), PropRadiationProtection) {
			dose = 0.2
			msgs = append(msgs, "Your radiation suit provides some protection.")
		}
		p.AdjustStat(ctx, w, StatRadiation, dose)
		if p.Stats.Radiation > 50 {
			msgs = append(msgs, "Warning: High radiation levels detected.")
			p.AdjustStat(ctx, w, StatHealth, -1)
		}
	}
	if atmos.Pressure > 150 {
		p.ApplyDamage(ctx, w, "torso", DamageBrute, 1)
		msgs = append(msgs, "The high pressure is causing discomfort.")
	}
	if slices.Contains(hazards, "extreme_heat") {
		p.ApplyDamage(ctx, w, "torso", DamageBurn, 1.5)
		msgs = append(msgs, "The extreme heat is damaging.")
	}
	if slices.Contains(hazards, "electrical") {
		p.ApplyDamage(ctx, w, "torso", DamageBurn, 5)
		msgs = append(msgs, "Sparks arc across your body, shocking you.")
	}
	if slices.Contains(hazards, "toxic_gas") && !w.HasProtection(p.Owner(), PropBiohazardProtection) {
		p.ApplyDamage(ctx, w, "torso", DamageToxin, 2)
		msgs = append(msgs, "You cough as the toxic gas irritates your lungs.")
	}
	return msgs
}

// GiveItem moves itemID into the inventory of playerID.
func (w *World) GiveItem(ctx context.Context, playerID, itemID string) error {
	pe, err := w.Lookup(playerID)
	if err != nil {
		return err
	}
	p, ok := As[*Player](pe)
	if !ok {
		return oops.Code("NOT_A_PLAYER").With("object_id", playerID).Errorf("%s is not a player", playerID)
	}
	item, err := w.Lookup(itemID)
	if err != nil {
		return err
	}
	if len(p.Inventory) >= p.MaxInventory {
		return oops.Code("INVENTORY_FULL").With("player_id", playerID).Errorf("your inventory is full")
	}
	if !p.AddToInventory(itemID) {
		return oops.Code("ALREADY_PRESENT").With("item_id", itemID).Errorf("you already have the %s", item.Name)
	}
	if item.Location != "" {
		if err := w.MoveTo(ctx, itemID, ""); err != nil {
			p.RemoveFromInventory(itemID)
			return err
		}
	}
	w.grid.Remove(itemID)
	w.bus.Publish(ctx, core.TopicInventoryChanged, core.Payload{"player_id": playerID, "item_id": itemID, "action": "add"})
	return nil
}

// DropItem removes itemID from the inventory of playerID and places it in
// the player's room. Set dest to "" to destroy or reassign it instead.
func (w *World) DropItem(ctx context.Context, playerID, itemID, dest string) error {
	pe, err := w.Lookup(playerID)
	if err != nil {
		return err
	}
	p, ok := As[*Player](pe)
	if !ok {
		return oops.Code("NOT_A_PLAYER").With("object_id", playerID).Errorf("%s is not a player", playerID)
	}
	if !p.RemoveFromInventory(itemID) {
		return oops.Code("NOT_FOUND").With("item_id", itemID).Errorf("you are not carrying that")
	}
	if dest != "" {
		if err := w.MoveTo(ctx, itemID, dest); err != nil {
			p.Inventory = append(p.Inventory, itemID)
			return err
		}
	}
	w.bus.Publish(ctx, core.TopicInventoryChanged, core.Payload{"player_id": playerID, "item_id": itemID, "action": "remove"})
	return nil
}
