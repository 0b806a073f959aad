// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"context"
	"slices"

	"github.com/yakuzadave/pymud-ss13/internal/core"
)

// PowerConsumer draws Load from a grid. Active follows the grid state
// filtered by the consumer's room.
type PowerConsumer struct {
	Base    `yaml:"-"`
	GridID  string  `yaml:"grid_id"`
	Load    float64 `yaml:"power_usage"`
	Active  bool    `yaml:"active"`
	Damaged bool    `yaml:"damaged"`
}

// NewPowerConsumer returns an active consumer drawing 5 units.
func NewPowerConsumer() *PowerConsumer { return &PowerConsumer{Load: 5, Active: true} }

// Kind implements Component.
func (p *PowerConsumer) Kind() Kind { return KindPowerConsumer }

// Room returns the room the consumer draws power in: the owner's room, or
// the owner itself when it is a room.
func (p *PowerConsumer) Room(w *World) string {
	if e, ok := w.Get(p.Owner()); ok && e.Has(KindRoom) {
		return e.ID
	}
	return w.RoomOf(p.Owner())
}

func (p *PowerConsumer) affected(w *World, ev core.Event) bool {
	if ev.Payload.String("grid_id") != p.GridID {
		return false
	}
	rooms := ev.Payload.Strings("affected_rooms")
	return rooms == nil || slices.Contains(rooms, p.Room(w)) || slices.Contains(rooms, p.Owner())
}

// OnAdded subscribes to grid state changes.
func (p *PowerConsumer) OnAdded(_ context.Context, w *World) {
	id := SubscriberID(p)
	w.bus.Subscribe(core.TopicPowerLoss, id, func(ctx context.Context, ev core.Event) error {
		if p.affected(w, ev) {
			p.SetActive(ctx, w, false)
		}
		return nil
	})
	w.bus.Subscribe(core.TopicPowerRestored, id, func(ctx context.Context, ev core.Event) error {
		if p.affected(w, ev) {
			p.SetActive(ctx, w, !p.Damaged)
		}
		return nil
	})
	w.bus.Subscribe(core.TopicElectricalHazard, id, func(ctx context.Context, ev core.Event) error {
		if p.affected(w, ev) {
			p.MarkDamaged(ctx, w)
		}
		return nil
	})
}

// SetActive flips the active flag, publishing equipment_power_on/off on change.
func (p *PowerConsumer) SetActive(ctx context.Context, w *World, active bool) {
	if active && p.Damaged {
		active = false
	}
	if p.Active == active {
		return
	}
	p.Active = active
	topic := core.TopicEquipmentPowerOff
	if active {
		topic = core.TopicEquipmentPowerOn
	}
	w.bus.Publish(ctx, topic, core.Payload{"object_id": p.Owner(), "grid_id": p.GridID})
}

// MarkDamaged damages the consumer and cuts its power.
func (p *PowerConsumer) MarkDamaged(ctx context.Context, w *World) {
	if p.Damaged {
		return
	}
	p.Damaged = true
	p.SetActive(ctx, w, false)
	w.bus.Publish(ctx, core.TopicEquipmentDamaged, core.Payload{"object_id": p.Owner(), "grid_id": p.GridID})
}

// Repair clears the damaged flag. Power resumes on the next grid restore or
// immediately when powered is true.
func (p *PowerConsumer) Repair(ctx context.Context, w *World, powered bool) {
	p.Damaged = false
	if powered {
		p.SetActive(ctx, w, true)
	}
}
