// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package testutil provides a small station, fake session directory and
// execution builder for handler tests.
package testutil

import (
	"bytes"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
)

// Env is a world with services wired for handler calls. The clock only
// moves when Advance is called.
type Env struct {
	*worldtest.Fixture
	Services *command.Services
	Dir      *Directory
	now      time.Time
}

// NewEnv returns an env with an empty world, a registry, an alias cache and
// a one second move cooldown.
func NewEnv(t testing.TB) *Env {
	t.Helper()
	env := &Env{
		Fixture: worldtest.New(t),
		Dir:     NewDirectory(),
		now:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	env.Services = &command.Services{
		World:        env.World,
		Recorder:     env.Rec,
		Sessions:     env.Dir,
		Registry:     command.NewRegistry(),
		Aliases:      command.NewAliasCache(),
		MoveCooldown: time.Second,
		Clock:        func() time.Time { return env.now },
	}
	return env
}

// Advance moves the clock forward.
func (e *Env) Advance(d time.Duration) { e.now = e.now.Add(d) }

// Now returns the env clock.
func (e *Env) Now() time.Time { return e.now }

// ExecutionBuilder builds CommandExecution instances with an attached output buffer.
type ExecutionBuilder struct {
	exec   command.CommandExecution
	output *bytes.Buffer
}

// Exec starts an execution for characterID.
func (e *Env) Exec(characterID string) *ExecutionBuilder {
	return &ExecutionBuilder{exec: command.CommandExecution{
		SessionID:   ulid.Make(),
		CharacterID: characterID,
		Services:    e.Services,
	}}
}

// WithArgs sets the command arguments.
func (b *ExecutionBuilder) WithArgs(args string) *ExecutionBuilder {
	b.exec.Args = args
	return b
}

// WithSession sets the session id.
func (b *ExecutionBuilder) WithSession(id ulid.ULID) *ExecutionBuilder {
	b.exec.SessionID = id
	return b
}

// AsAdmin marks the session as admin.
func (b *ExecutionBuilder) AsAdmin() *ExecutionBuilder {
	b.exec.Admin = true
	return b
}

// Build creates the configured CommandExecution and output buffer.
func (b *ExecutionBuilder) Build() (*command.CommandExecution, *bytes.Buffer) {
	b.output = &bytes.Buffer{}
	exec := b.exec
	exec.Output = b.output
	return &exec, b.output
}
