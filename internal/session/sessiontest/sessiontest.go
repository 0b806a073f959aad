// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package sessiontest runs a session manager over a two-room station for
// transport tests.
package sessiontest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/auth"
	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/command/handlers"
	"github.com/yakuzadave/pymud-ss13/internal/scheduler"
	"github.com/yakuzadave/pymud-ss13/internal/session"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
)

// Station is a running manager with bridge and hall rooms.
type Station struct {
	*worldtest.Fixture
	Manager  *session.Manager
	Accounts *auth.Store
}

// New builds the station. The manager is closed when the test ends.
func New(t testing.TB) *Station {
	t.Helper()
	st := &Station{Fixture: worldtest.New(t)}
	st.Room("bridge", "south", "hall")
	st.Room("hall", "north", "bridge")

	accounts, err := auth.Open(filepath.Join(t.TempDir(), "accounts.yaml"))
	require.NoError(t, err)
	st.Accounts = accounts

	reg := command.NewRegistry()
	handlers.RegisterAll(reg)
	aliases := command.NewAliasCache()
	aliases.LoadSystemAliases(command.SystemAliases)
	fence := &scheduler.Fence{}
	d, err := command.NewDispatcher(reg, command.WithAliasCache(aliases), command.WithFence(fence))
	require.NoError(t, err)

	services := &command.Services{World: st.World, Recorder: st.Rec, Registry: reg, Aliases: aliases}
	st.Manager = session.NewManager(session.Config{StartRoom: "bridge"}, services, d, accounts, session.WithFence(fence))
	st.Manager.Subscribe(st.Bus)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, st.Manager.Close(ctx, ""))
	})
	return st
}

// Account creates a login.
func (st *Station) Account(t testing.TB, username, password string) {
	t.Helper()
	require.NoError(t, st.Accounts.Create(username, password, false))
}
