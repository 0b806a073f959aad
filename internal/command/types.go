// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package command provides the verb registry, parser, and dispatch system.
package command

import (
	"context"
	"io"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/script"
	"github.com/yakuzadave/pymud-ss13/internal/systems/atmos"
	"github.com/yakuzadave/pymud-ss13/internal/systems/botany"
	"github.com/yakuzadave/pymud-ss13/internal/systems/cargo"
	"github.com/yakuzadave/pymud-ss13/internal/systems/chemistry"
	"github.com/yakuzadave/pymud-ss13/internal/systems/disease"
	"github.com/yakuzadave/pymud-ss13/internal/systems/events"
	"github.com/yakuzadave/pymud-ss13/internal/systems/kitchen"
	"github.com/yakuzadave/pymud-ss13/internal/systems/maintenance"
	"github.com/yakuzadave/pymud-ss13/internal/systems/npcai"
	"github.com/yakuzadave/pymud-ss13/internal/systems/plumbing"
	"github.com/yakuzadave/pymud-ss13/internal/systems/power"
	"github.com/yakuzadave/pymud-ss13/internal/systems/security"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// MessageType is the "type" field of an outbound wire message.
type MessageType string

// Outbound message types.
const (
	TypeSystem    MessageType = "system"
	TypeResponse  MessageType = "response"
	TypeError     MessageType = "error"
	TypeLocation  MessageType = "location"
	TypeChat      MessageType = "chat"
	TypeBroadcast MessageType = "broadcast"
)

// Result is the reply to one dispatched line.
type Result struct {
	Type MessageType `json:"type"`
	Text string      `json:"message"`
}

// Empty reports whether there is nothing to send.
func (r Result) Empty() bool { return r.Text == "" }

// CommandHandler is the function signature for verb handlers.
//
//nolint:revive // stutter kept for readability at call sites
type CommandHandler func(ctx context.Context, exec *CommandExecution) error

// CommandEntry represents a registered verb.
//
//nolint:revive // stutter kept for readability at call sites
type CommandEntry struct {
	Name      string         // canonical lowercase name (e.g., "say")
	Handler   CommandHandler // Go handler
	Help      string         // short description (one line)
	Usage     string         // usage pattern (e.g., "say <message>")
	AdminOnly bool
	DebugOnly bool     // additionally requires the debug flag
	Aliases   []string // extra names registered for the same handler
	Source    string   // "core" unless registered by a content pack
}

// CommandExecution provides context for one handler call.
//
//nolint:revive // stutter kept for readability at call sites
type CommandExecution struct {
	SessionID   ulid.ULID
	CharacterID string
	Admin       bool
	Args        string
	InvokedAs   string
	Output      io.Writer
	// Type overrides the reply type; zero means TypeResponse.
	Type     MessageType
	Services *Services
}

// Avatar returns the acting player's entity and component.
func (e *CommandExecution) Avatar() (*world.Entity, *world.Player, error) {
	ent, err := e.Services.World.Lookup(e.CharacterID)
	if err != nil {
		return nil, nil, err
	}
	p, ok := world.As[*world.Player](ent)
	if !ok {
		return nil, nil, ErrNoCharacter()
	}
	return ent, p, nil
}

// Room returns the room the acting player stands in.
func (e *CommandExecution) Room() string { return e.Services.World.RoomOf(e.CharacterID) }

// Now returns the service clock.
func (e *CommandExecution) Now() time.Time { return e.Services.Now() }

// Presence describes one connected, authenticated session.
type Presence struct {
	SessionID    ulid.ULID
	CharacterID  string
	Name         string
	Room         string
	Admin        bool
	LastActivity time.Time
}

// Directory is the session side of the services: who is online and how to
// reach them. Sends never block.
type Directory interface {
	Online() []Presence
	Send(sessionID ulid.ULID, msg Result)
	BroadcastAll(msg Result, except ...ulid.ULID)
	BroadcastRoom(roomID string, msg Result, except ...ulid.ULID)
	// EndSession closes a session after its pending output is flushed.
	EndSession(sessionID ulid.ULID, reason string) error
	// Shutdown stops the server after delay.
	Shutdown(delay time.Duration, reason string)
}

// Services is the registry of everything handlers may touch. Handlers MUST
// NOT keep references to services beyond the call.
type Services struct {
	World    *world.World
	Recorder *core.Recorder

	Power       *power.System
	Atmos       *atmos.System
	Disease     *disease.System
	Botany      *botany.System
	Plumbing    *plumbing.System
	Kitchen     *kitchen.Station
	Bar         *kitchen.Station
	Chemistry   *chemistry.System
	Maintenance *maintenance.System
	Security    *security.System
	NPCs        *npcai.System
	Events      *events.System
	Cargo       *cargo.System

	Scripts *script.Registry
	Runtime *script.Runtime

	Sessions Directory
	Registry *Registry
	Aliases  *AliasCache

	MoveCooldown time.Duration
	Debug        bool
	Clock        func() time.Time
}

// Now returns the configured clock, or wall time.
func (s *Services) Now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}
