// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"context"
	"fmt"
	"slices"

	"github.com/yakuzadave/pymud-ss13/internal/core"
)

// Outcome is the result of a player-facing action on a component. Text is
// always meant for the acting player; OK reports whether state changed.
type Outcome struct {
	OK   bool
	Text string
}

func done(format string, args ...any) Outcome {
	return Outcome{OK: true, Text: fmt.Sprintf(format, args...)}
}

func refused(format string, args ...any) Outcome {
	return Outcome{Text: fmt.Sprintf(format, args...)}
}

// Door joins the room it is located in to Destination. Access is only
// checked when the door is locked.
type Door struct {
	Base          `yaml:"-"`
	Open          bool   `yaml:"is_open"`
	Locked        bool   `yaml:"is_locked"`
	Destination   string `yaml:"destination,omitempty"`
	RequiresPower bool   `yaml:"requires_power"`
	AccessLevel   int    `yaml:"access_level"`
}

// NewDoor returns a closed, unlocked, powered door.
func NewDoor() *Door { return &Door{RequiresPower: true} }

// Kind implements Component.
func (d *Door) Kind() Kind { return KindDoor }

// Passable reports whether something can walk through the door.
func (d *Door) Passable() bool { return d.Open && !d.Locked }

// OnAdded subscribes powered doors to power loss in their rooms.
func (d *Door) OnAdded(_ context.Context, w *World) {
	w.bus.Subscribe(core.TopicPowerLoss, SubscriberID(d), func(ctx context.Context, ev core.Event) error {
		rooms := ev.Payload.Strings("affected_rooms")
		e, ok := w.Get(d.Owner())
		if !ok {
			return nil
		}
		if rooms != nil && !slices.Contains(rooms, e.Location) && !slices.Contains(rooms, d.Destination) {
			return nil
		}
		d.EmergencyLockdown(ctx, w)
		return nil
	})
}

// TryOpen opens the door for playerID holding access level access.
func (d *Door) TryOpen(ctx context.Context, w *World, playerID string, access int) Outcome {
	if d.Open {
		return refused("The door is already open.")
	}
	if d.Locked {
		if access < d.AccessLevel {
			w.bus.Publish(ctx, core.TopicAccessDenied, core.Payload{
				"object_id": d.Owner(), "player_id": playerID, "required": d.AccessLevel, "level": access,
			})
			return refused("The door is locked. You need proper authorization to unlock it.")
		}
		d.Locked = false
		w.bus.Publish(ctx, core.TopicDoorUnlocked, core.Payload{"door_id": d.Owner(), "player_id": playerID})
	}
	d.Open = true
	w.bus.Publish(ctx, core.TopicDoorOpened, core.Payload{"door_id": d.Owner(), "player_id": playerID})
	return done("You open the %s.", d.name(w))
}

// Close shuts the door.
func (d *Door) Close(ctx context.Context, w *World, playerID string) Outcome {
	if !d.Open {
		return refused("The door is already closed.")
	}
	d.Open = false
	w.bus.Publish(ctx, core.TopicDoorClosed, core.Payload{"door_id": d.Owner(), "player_id": playerID})
	return done("You close the %s.", d.name(w))
}

// Lock locks the door if access is sufficient.
func (d *Door) Lock(ctx context.Context, w *World, playerID string, access int) Outcome {
	if d.Locked {
		return refused("The door is already locked.")
	}
	if access < d.AccessLevel {
		return refused("You don't have authorization to lock this door.")
	}
	d.Locked = true
	w.bus.Publish(ctx, core.TopicDoorLocked, core.Payload{"door_id": d.Owner(), "player_id": playerID})
	return done("You lock the %s.", d.name(w))
}

// Unlock unlocks the door if access is sufficient.
func (d *Door) Unlock(ctx context.Context, w *World, playerID string, access int) Outcome {
	if !d.Locked {
		return refused("The door is already unlocked.")
	}
	if access < d.AccessLevel {
		return refused("You don't have authorization to unlock this door.")
	}
	d.Locked = false
	w.bus.Publish(ctx, core.TopicDoorUnlocked, core.Payload{"door_id": d.Owner(), "player_id": playerID})
	return done("You unlock the %s.", d.name(w))
}

// EmergencyLockdown closes and locks a powered door.
func (d *Door) EmergencyLockdown(ctx context.Context, w *World) {
	if !d.RequiresPower {
		return
	}
	d.Open = false
	d.Locked = true
	w.bus.Publish(ctx, core.TopicDoorEmergencyLockdown, core.Payload{"door_id": d.Owner()})
}

func (d *Door) name(w *World) string {
	if e, ok := w.Get(d.Owner()); ok {
		return e.Name
	}
	return "door"
}

// DoorBetween returns the door located in from that leads to to.
func (w *World) DoorBetween(from, to string) (*Entity, *Door, bool) {
	for _, e := range w.At(from) {
		if d, ok := As[*Door](e); ok && d.Destination == to {
			return e, d, true
		}
	}
	return nil, nil, false
}
