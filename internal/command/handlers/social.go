// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// SayHandler speaks to everyone in the room. Delivery to the listeners is
// done by the broadcaster, which follows player_said.
func SayHandler(ctx context.Context, exec *command.CommandExecution) error {
	msg := strings.TrimSpace(exec.Args)
	if msg == "" {
		return command.ErrPrecondition("Say what?")
	}
	e, _, err := exec.Avatar()
	if err != nil {
		return err
	}
	room := exec.Room()
	if room == "" {
		return command.ErrPrecondition("You are nowhere. Your words echo into the void.")
	}
	exec.Services.World.Publish(ctx, core.TopicPlayerSaid, core.Payload{
		"player_id": e.ID, "name": e.Name, "room_id": room, "message": msg,
	})
	exec.Type = command.TypeChat
	writeOutputf(ctx, exec, "say", "You say: %s\n", msg)
	return nil
}

// EmoteHandler poses an action: "emote waves" shows "Alice waves".
func EmoteHandler(ctx context.Context, exec *command.CommandExecution) error {
	action := strings.TrimSpace(exec.Args)
	if action == "" {
		return command.ErrPrecondition("Emote what?")
	}
	e, _, err := exec.Avatar()
	if err != nil {
		return err
	}
	room := exec.Room()
	exec.Services.World.Publish(ctx, core.TopicPlayerEmoted, core.Payload{
		"player_id": e.ID, "name": e.Name, "room_id": room, "message": action,
	})
	exec.Type = command.TypeChat
	writeOutputf(ctx, exec, "emote", "%s %s\n", e.Name, action)
	return nil
}

// WhisperHandler sends a private line to someone in the same room.
// Usage: whisper <player> <message>
func WhisperHandler(ctx context.Context, exec *command.CommandExecution) error {
	name, msg, ok := strings.Cut(strings.TrimSpace(exec.Args), " ")
	msg = strings.TrimSpace(msg)
	if !ok || msg == "" {
		return command.ErrInvalidArgs("whisper", "whisper <player> <message>")
	}
	e, _, err := exec.Avatar()
	if err != nil {
		return err
	}
	target, found := findHere(exec, name)
	if !found || !target.Has(world.KindPlayer) {
		return command.ErrPrecondition("There is nobody called '" + name + "' here.")
	}
	exec.Services.World.Publish(ctx, core.TopicPlayerWhispered, core.Payload{
		"player_id": e.ID, "name": e.Name, "target_id": target.ID, "room_id": exec.Room(), "message": msg,
	})
	exec.Type = command.TypeChat
	writeOutputf(ctx, exec, "whisper", "You whisper to %s: %s\n", label(target), msg)
	return nil
}

// StatusHandler shows the character's own vitals.
func StatusHandler(ctx context.Context, exec *command.CommandExecution) error {
	e, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	writeOutputf(ctx, exec, "status", "Status of %s (%s):\n", e.Name, p.Role)
	writeOutputf(ctx, exec, "status", "  Health: %.0f\n  Energy: %.0f\n  Oxygen: %.0f\n  Nutrition: %.0f\n  Radiation: %.1f\n",
		p.Stats.Health, p.Stats.Energy, p.Stats.Oxygen, p.Stats.Nutrition, p.Stats.Radiation)
	writeOutputf(ctx, exec, "status", "  Access level: %d\n", exec.Services.World.AccessLevel(e.ID))
	if len(p.Diseases) > 0 {
		writeOutput(ctx, exec, "status", "  You feel unwell: "+strings.Join(p.Diseases, ", "))
	}
	if !p.Alive {
		writeOutput(ctx, exec, "status", "  You are dead.")
	}
	if p.Credits > 0 {
		writeOutput(ctx, exec, "status", fmt.Sprintf("  Credits: %d", p.Credits))
	}
	return nil
}
