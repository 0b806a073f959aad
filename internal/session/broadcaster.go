// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/core"
)

const broadcasterID = "session.broadcaster"

// Subscribe attaches the manager to the bus so world events reach the
// sessions that can see them. Handlers only enqueue.
func (m *Manager) Subscribe(bus *core.Bus) {
	room := func(topic core.Topic, typ command.MessageType, render func(core.Payload) string) {
		bus.Subscribe(topic, broadcasterID, func(_ context.Context, ev core.Event) error {
			text := render(ev.Payload)
			if text == "" {
				return nil
			}
			m.BroadcastRoom(ev.Payload.String("room_id"), command.Result{Type: typ, Text: text}, m.actor(ev.Payload)...)
			return nil
		})
	}

	room(core.TopicPlayerSaid, command.TypeChat, func(p core.Payload) string {
		return fmt.Sprintf("%s says: %s", m.speaker(p), p.String("message"))
	})
	room(core.TopicPlayerEmoted, command.TypeChat, func(p core.Payload) string {
		return fmt.Sprintf("%s %s", m.speaker(p), p.String("message"))
	})
	room(core.TopicNPCSaid, command.TypeChat, func(p core.Payload) string {
		return fmt.Sprintf("%s says: %s", p.String("name"), p.String("message"))
	})
	room(core.TopicAvatarArrived, command.TypeSystem, func(p core.Payload) string {
		return p.String("name") + " has arrived."
	})
	room(core.TopicAvatarDeparted, command.TypeSystem, func(p core.Payload) string {
		return p.String("name") + " has left the station."
	})
	room(core.TopicLeakStarted, command.TypeBroadcast, func(core.Payload) string {
		return "Alarms blare: a hull leak has been detected in this area!"
	})
	room(core.TopicHullBreach, command.TypeBroadcast, func(core.Payload) string {
		return "The hull tears open and air screams out into space!"
	})
	room(core.TopicFireStarted, command.TypeBroadcast, func(core.Payload) string {
		return "Flames erupt nearby!"
	})
	room(core.TopicSecurityDispatch, command.TypeBroadcast, func(core.Payload) string {
		return "Security officers have been dispatched to this area."
	})

	bus.Subscribe(core.TopicPlayerWhispered, broadcasterID, func(_ context.Context, ev core.Event) error {
		if s, ok := m.byCharacterID(ev.Payload.String("target_id")); ok {
			s.enqueue(command.Result{
				Type: command.TypeChat,
				Text: fmt.Sprintf("%s whispers to you: %s", m.speaker(ev.Payload), ev.Payload.String("message")),
			})
		}
		return nil
	})

	bus.Subscribe(core.TopicPlayerMoved, broadcasterID, func(_ context.Context, ev core.Event) error {
		p := ev.Payload
		except := m.actor(p)
		name := m.speaker(p)
		leave := name + " leaves."
		if dir := p.String("direction"); dir != "" {
			leave = fmt.Sprintf("%s leaves %s.", name, dir)
		}
		m.BroadcastRoom(p.String("from"), command.Result{Type: command.TypeSystem, Text: leave}, except...)
		m.BroadcastRoom(p.String("to"), command.Result{Type: command.TypeSystem, Text: name + " arrives."}, except...)
		return nil
	})

	for topic, verb := range map[core.Topic]string{
		core.TopicDoorOpened:   "opens",
		core.TopicDoorClosed:   "closes",
		core.TopicDoorLocked:   "locks with a heavy clunk",
		core.TopicDoorUnlocked: "unlocks with a click",
	} {
		bus.Subscribe(topic, broadcasterID, func(_ context.Context, ev core.Event) error {
			m.doorNotice(ev.Payload, verb)
			return nil
		})
	}
	bus.Subscribe(core.TopicDoorEmergencyLockdown, broadcasterID, func(_ context.Context, ev core.Event) error {
		m.doorNotice(ev.Payload, "slams shut and seals for emergency lockdown")
		return nil
	})

	bus.Subscribe(core.TopicPowerLoss, broadcasterID, func(_ context.Context, ev core.Event) error {
		for _, r := range ev.Payload.Strings("affected_rooms") {
			m.BroadcastRoom(r, command.Result{Type: command.TypeBroadcast, Text: "The lights flicker and die."})
		}
		return nil
	})
	bus.Subscribe(core.TopicPowerRestored, broadcasterID, func(_ context.Context, ev core.Event) error {
		for _, r := range ev.Payload.Strings("affected_rooms") {
			m.BroadcastRoom(r, command.Result{Type: command.TypeBroadcast, Text: "The lights hum back to life."})
		}
		return nil
	})

	bus.Subscribe(core.TopicRandomEvent, broadcasterID, func(_ context.Context, ev core.Event) error {
		detail, _ := ev.Payload["event"].(core.Payload)
		text := detail.String("description")
		if text == "" {
			text = detail.String("name")
		}
		if text != "" {
			m.BroadcastAll(command.Result{Type: command.TypeBroadcast, Text: "[STATION ALERT] " + text})
		}
		return nil
	})
}

// Unsubscribe detaches the manager from the bus.
func (m *Manager) Unsubscribe(bus *core.Bus) { bus.UnsubscribeAll(broadcasterID) }

func (m *Manager) doorNotice(p core.Payload, verb string) {
	id := p.String("door_id")
	w := m.services.World
	e, ok := w.Get(id)
	if !ok {
		return
	}
	msg := command.Result{Type: command.TypeSystem, Text: fmt.Sprintf("The %s %s.", e.Name, verb)}
	m.BroadcastRoom(w.RoomOf(id), msg, m.actor(p)...)
}

// actor is the session that caused an event; it already saw its own output.
// Script output is attributed to an object and reaches everyone.
func (m *Manager) actor(p core.Payload) []ulid.ULID {
	if p.Has("object_id") {
		return nil
	}
	if s, ok := m.byCharacterID(p.String("player_id")); ok {
		return []ulid.ULID{s.ID}
	}
	return nil
}

func (m *Manager) speaker(p core.Payload) string {
	if name := p.String("name"); name != "" {
		return name
	}
	if e, ok := m.services.World.Get(p.String("player_id")); ok {
		return e.Name
	}
	return "Someone"
}
