// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package npcai_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/systems/npcai"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

var (
	t0     = time.Unix(1_700_000_000, 0)
	silent = 0.0
)

func corridor(t *testing.T) (*worldtest.Fixture, *npcai.System) {
	t.Helper()
	f := worldtest.New(t)
	f.Room("a", "east", "b")
	f.Room("b", "west", "a", "east", "c")
	f.Room("c", "west", "b")
	return f, npcai.New(f.World)
}

func location(f *worldtest.Fixture, id string) string {
	e, _ := f.World.Get(id)
	return e.Location
}

func TestNPC_WalksToGoal(t *testing.T) {
	f, s := corridor(t)
	require.NoError(t, s.Spawn(f.Ctx, npcai.Spec{ID: "bot", Name: "Medibot", Room: "a", ChatterChance: &silent}))
	require.NoError(t, s.Direct("bot", "c"))

	require.NoError(t, s.Tick(f.Ctx, t0))
	assert.Equal(t, "b", location(f, "bot"))
	require.NoError(t, s.Tick(f.Ctx, t0))
	assert.Equal(t, "c", location(f, "bot"))
	require.NoError(t, s.Tick(f.Ctx, t0))
	assert.Equal(t, "c", location(f, "bot"))
	assert.Equal(t, 2, f.Count(core.TopicNPCMoved))
}

func TestNPC_FollowsRoutine(t *testing.T) {
	f, s := corridor(t)
	require.NoError(t, s.Spawn(f.Ctx, npcai.Spec{ID: "jan", Name: "Janitor", Room: "a", Routine: []string{"b", "a"}, ChatterChance: &silent}))

	var seen []string
	for range 4 {
		require.NoError(t, s.Tick(f.Ctx, t0))
		seen = append(seen, location(f, "jan"))
	}

	assert.Equal(t, []string{"b", "a", "b", "a"}, seen)
}

func TestNPC_ClosedDoorBlocksPath(t *testing.T) {
	f, s := corridor(t)
	door := world.NewDoor()
	door.Destination = "b"
	f.Add("door_ab", "a", door)
	require.NoError(t, s.Spawn(f.Ctx, npcai.Spec{ID: "bot", Name: "Medibot", Room: "a", ChatterChance: &silent}))
	require.NoError(t, s.Direct("bot", "c"))

	require.NoError(t, s.Tick(f.Ctx, t0))

	assert.Equal(t, "a", location(f, "bot"))
	assert.Zero(t, f.Count(core.TopicNPCMoved))
}

func TestNPC_RepliesToSpeech(t *testing.T) {
	f, s := corridor(t)
	require.NoError(t, s.Spawn(f.Ctx, npcai.Spec{ID: "bar", Name: "Bartender", Room: "a", Dialogue: []string{"What'll it be?"}, ChatterChance: &silent}))

	f.World.Publish(f.Ctx, core.TopicPlayerSaid, core.Payload{"player_id": "alice", "room_id": "a", "message": "hi"})
	f.World.Publish(f.Ctx, core.TopicPlayerSaid, core.Payload{"player_id": "bob", "room_id": "c", "message": "hi"})
	require.NoError(t, s.Tick(f.Ctx, t0))

	said := f.Rec.ByTopic(core.TopicNPCSaid)
	require.Len(t, said, 1)
	assert.Equal(t, "What'll it be?", said[0].Payload.String("message"))
	assert.Equal(t, "a", said[0].Payload.String("room_id"))
}

func TestNPC_SayAndValidation(t *testing.T) {
	f, s := corridor(t)
	require.NoError(t, s.Spawn(f.Ctx, npcai.Spec{ID: "bot", Name: "Medibot", Room: "a", ChatterChance: &silent}))
	f.Item("mop", "a", nil)

	require.NoError(t, s.Say("bot", "Please stay still."))
	require.NoError(t, s.Tick(f.Ctx, t0))
	assert.Equal(t, 1, f.Count(core.TopicNPCSaid))

	errutil.AssertErrorCode(t, s.Say("mop", "hello"), "NOT_AN_NPC")
	errutil.AssertErrorCode(t, s.Direct("bot", "nowhere"), "NOT_FOUND")
	errutil.AssertErrorCode(t, s.Spawn(f.Ctx, npcai.Spec{ID: "bot", Name: "Dup", Room: "a"}), "DUPLICATE_ID")
}
