// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/command/handlers"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

func TestRegisterAll_RegistersCoreCommands(t *testing.T) {
	reg := command.NewRegistry()
	handlers.RegisterAll(reg)

	for _, name := range []string{"look", "go", "say", "get", "drop", "use", "open", "repair", "order", "who", "quit", "@wall", "@eval"} {
		_, ok := reg.Get(name)
		assert.True(t, ok, "missing %s", name)
	}
	for _, dir := range world.Directions {
		_, ok := reg.Get(dir)
		assert.True(t, ok, "missing direction verb %s", dir)
	}
	take, ok := reg.Get("take")
	require.True(t, ok)
	assert.Equal(t, "get", take.Name)
}

func TestRegisterAll_CommandsHaveHandlers(t *testing.T) {
	reg := command.NewRegistry()
	handlers.RegisterAll(reg)

	for _, e := range reg.All() {
		assert.NotNil(t, e.Handler, "%s has no handler", e.Name)
		assert.NotEmpty(t, e.Help, "%s has no help", e.Name)
		assert.NotEmpty(t, e.Usage, "%s has no usage", e.Name)
		assert.Equal(t, "core", e.Source)
	}
}

func TestRegisterAll_StaffCommandsAreFlagged(t *testing.T) {
	reg := command.NewRegistry()
	handlers.RegisterAll(reg)

	for _, e := range reg.All() {
		if e.Name[0] != '@' {
			assert.False(t, e.AdminOnly || e.DebugOnly, "%s should be open to players", e.Name)
			continue
		}
		assert.True(t, e.AdminOnly || e.DebugOnly, "%s should be restricted", e.Name)
	}
}
