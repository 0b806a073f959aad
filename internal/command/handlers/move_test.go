// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/command/handlers"
	"github.com/yakuzadave/pymud-ss13/internal/command/handlers/testutil"
	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

func stationEnv(t *testing.T) (*testutil.Env, *world.Player) {
	t.Helper()
	env := testutil.NewEnv(t)
	env.Room("bridge", "north", "hall")
	env.Room("hall", "south", "bridge")
	return env, env.Player("alice", "bridge")
}

func TestMoveHandler_WalksThroughExit(t *testing.T) {
	env, p := stationEnv(t)

	exec, out := env.Exec("alice").WithArgs("north").Build()
	require.NoError(t, handlers.MoveHandler(context.Background(), exec))

	assert.Equal(t, "hall", env.World.RoomOf("alice"))
	assert.Equal(t, command.TypeLocation, exec.Type)
	assert.Contains(t, out.String(), "hall\n")
	assert.Contains(t, out.String(), "Exits: south")
	assert.InDelta(t, 99.0, p.Stats.Energy, 0.001)
	assert.Equal(t, 1, env.Count(core.TopicPlayerMoved))
}

func TestMoveHandler_CooldownSaysWait(t *testing.T) {
	env, _ := stationEnv(t)

	exec, _ := env.Exec("alice").WithArgs("north").Build()
	require.NoError(t, handlers.MoveHandler(context.Background(), exec))

	exec, out := env.Exec("alice").WithArgs("south").Build()
	err := handlers.MoveHandler(context.Background(), exec)
	require.Error(t, err)
	assert.Equal(t, "wait", command.PlayerMessage(err))
	assert.Empty(t, out.String())
	assert.Equal(t, "hall", env.World.RoomOf("alice"), "a refused move must not mutate the world")

	env.Advance(time.Second)
	exec, _ = env.Exec("alice").WithArgs("south").Build()
	require.NoError(t, handlers.MoveHandler(context.Background(), exec))
	assert.Equal(t, "bridge", env.World.RoomOf("alice"))
}

func TestMoveHandler_Refusals(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{"no exit that way", "west", "You can't go west from here."},
		{"not a direction", "sideways", "'sideways' is not a valid direction."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _ := stationEnv(t)
			exec, _ := env.Exec("alice").WithArgs(tt.args).Build()
			err := handlers.MoveHandler(context.Background(), exec)
			require.Error(t, err)
			assert.Equal(t, tt.want, command.PlayerMessage(err))
			assert.Equal(t, "bridge", env.World.RoomOf("alice"))
		})
	}
}

func TestMoveHandler_NoArgsShowsUsage(t *testing.T) {
	env, _ := stationEnv(t)
	exec, _ := env.Exec("alice").Build()
	err := handlers.MoveHandler(context.Background(), exec)
	errutil.AssertErrorCode(t, err, command.CodeInvalidArgs)
	assert.Equal(t, "Usage: go <direction>", command.PlayerMessage(err))
}

func TestMoveHandler_DoorBlocksExit(t *testing.T) {
	env, _ := stationEnv(t)
	door := world.NewDoor()
	door.Destination = "hall"
	env.Add("airlock", "bridge", door)

	exec, _ := env.Exec("alice").WithArgs("n").Build()
	err := handlers.MoveHandler(context.Background(), exec)
	require.Error(t, err)
	assert.Equal(t, "The airlock is closed.", command.PlayerMessage(err))

	door.Locked = true
	err = handlers.MoveHandler(context.Background(), exec)
	errutil.AssertErrorCode(t, err, command.CodeLocked)
	assert.Equal(t, "The airlock is locked.", command.PlayerMessage(err))
	assert.Equal(t, "bridge", env.World.RoomOf("alice"))
}

func TestDirectionHandler_MovesWithoutGo(t *testing.T) {
	env, _ := stationEnv(t)
	exec, _ := env.Exec("alice").Build()
	require.NoError(t, handlers.DirectionHandler("north")(context.Background(), exec))
	assert.Equal(t, "hall", env.World.RoomOf("alice"))
}

func TestLookHandler_ShowsRoomAndExits(t *testing.T) {
	env, _ := stationEnv(t)
	env.Item("wrench", "bridge", nil)
	env.Player("bob", "bridge")

	exec, out := env.Exec("alice").Build()
	require.NoError(t, handlers.LookHandler(context.Background(), exec))

	assert.Equal(t, command.TypeLocation, exec.Type)
	assert.Contains(t, out.String(), "Exits: north")
	assert.Contains(t, out.String(), "- wrench")
	assert.Contains(t, out.String(), "Also here: bob")
	assert.NotContains(t, out.String(), "alice")
}

func TestLookHandler_AtTargetExamines(t *testing.T) {
	env, _ := stationEnv(t)
	env.Item("wrench", "bridge", nil)

	exec, out := env.Exec("alice").WithArgs("at wrench").Build()
	require.NoError(t, handlers.LookHandler(context.Background(), exec))
	assert.Contains(t, out.String(), "wrench")

	exec, _ = env.Exec("alice").WithArgs("crowbar").Build()
	err := handlers.LookHandler(context.Background(), exec)
	errutil.AssertErrorCode(t, err, command.CodeNotFound)
	assert.Equal(t, "You don't see 'crowbar' here.", command.PlayerMessage(err))
}
