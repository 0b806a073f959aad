// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

func TestWorld_RegisterPublishesObjectCreated(t *testing.T) {
	f := worldtest.New(t)
	f.Room("bridge")

	evs := f.Rec.ByTopic(core.TopicObjectCreated)
	require.Len(t, evs, 1)
	assert.Equal(t, "bridge", evs[0].Payload.String("object_id"))
	assert.Equal(t, 1, f.World.Len())
	assert.Len(t, f.World.Rooms(), 1)
}

func TestWorld_RegisterRejectsDuplicateAndInvalidIDs(t *testing.T) {
	f := worldtest.New(t)
	f.Room("bridge")

	err := f.World.Register(f.Ctx, world.NewEntity("bridge", "Bridge", ""))
	errutil.AssertErrorCode(t, err, "DUPLICATE_ID")

	err = f.World.Register(f.Ctx, world.NewEntity("Bad ID", "x", ""))
	errutil.AssertErrorCode(t, err, "INVALID_ENTITY")
}

func TestWorld_RemoveDropsSubscriptionsAndViews(t *testing.T) {
	f := worldtest.New(t)
	f.Room("hall")
	f.Add("door1", "hall", world.NewDoor())
	require.Equal(t, 1, f.Bus.Subscribers(core.TopicPowerLoss))

	require.NoError(t, f.World.Remove(f.Ctx, "door1"))

	assert.Equal(t, 0, f.Bus.Subscribers(core.TopicPowerLoss))
	assert.False(t, f.World.Has("door1"))
	assert.Equal(t, 1, f.Count(core.TopicObjectDestroyed))
	errutil.AssertErrorCode(t, f.World.Remove(f.Ctx, "door1"), "NOT_FOUND")
}

func TestWorld_MoveToRequiresRoom(t *testing.T) {
	f := worldtest.New(t)
	f.Room("a")
	f.Room("b")
	f.Item("wrench", "a", nil)
	f.Item("crate", "a", nil)

	require.NoError(t, f.World.MoveTo(f.Ctx, "wrench", "b"))
	e, _ := f.World.Get("wrench")
	assert.Equal(t, "b", e.Location)

	errutil.AssertErrorCode(t, f.World.MoveTo(f.Ctx, "wrench", "crate"), "INVALID_MOVE")
	errutil.AssertErrorCode(t, f.World.MoveTo(f.Ctx, "wrench", "nowhere"), "NOT_FOUND")

	moved := f.Rec.ByTopic(core.TopicObjectMoved)
	require.Len(t, moved, 1)
	assert.Equal(t, "a", moved[0].Payload.String("from"))
	assert.Equal(t, "b", moved[0].Payload.String("to"))
}

func TestWorld_MovePositionUpdatesGrid(t *testing.T) {
	f := worldtest.New(t)
	f.Room("a")
	f.Item("wrench", "a", nil)

	require.NoError(t, f.World.MovePosition(f.Ctx, "wrench", 3, 4))

	assert.Equal(t, []string{"wrench"}, f.World.Grid().At(world.Position{X: 3, Y: 4}))
	pos, ok := f.World.Grid().PositionOf("wrench")
	require.True(t, ok)
	assert.Equal(t, world.Position{X: 3, Y: 4}, pos)
	assert.Equal(t, 1, f.Count(core.TopicObjectMovedXY))
}

func TestWorld_Describe(t *testing.T) {
	f := worldtest.New(t)
	r := f.Room("bridge", "south", "hall", "north", "observatory")
	r.SetHazards([]string{"radiation"})
	f.Room("hall")
	f.Room("observatory")
	f.Item("chair", "bridge", nil)
	f.Player("alice", "bridge")
	f.Player("bob", "bridge")

	text, err := f.World.Describe("bridge", "alice")
	require.NoError(t, err)

	assert.Contains(t, text, "Exits: north, south\n")
	assert.Contains(t, text, "Hazards: radiation")
	assert.Contains(t, text, "You see:\n- chair\n")
	assert.Contains(t, text, "Also here: bob")
	assert.NotContains(t, text, "alice")
}

func TestWorld_NextSerialSkipsTakenIDs(t *testing.T) {
	f := worldtest.New(t)
	f.Room("a")
	f.Item("clone_1", "a", nil)

	assert.Equal(t, "clone_2", f.World.NextSerial("clone"))
	assert.Equal(t, "clone_3", f.World.NextSerial("clone"))
}

func TestWorld_RoomOfFollowsContainers(t *testing.T) {
	f := worldtest.New(t)
	f.Room("a")
	f.Add("locker", "a", world.NewContainer())
	f.Item("badge", "", nil)
	require.NoError(t, f.World.PutInto(f.Ctx, "locker", "badge", 0))

	assert.Equal(t, "a", f.World.RoomOf("locker"))
	assert.Equal(t, "a", f.World.RoomOf("a"))
	assert.Equal(t, "", f.World.RoomOf("badge"))
}

func TestWorld_ComponentAddAfterRegisterReindexes(t *testing.T) {
	f := worldtest.New(t)
	f.Room("a")
	e := f.Add("thing", "a")
	assert.Empty(t, f.World.Items())

	require.NoError(t, e.Add(world.NewItem()))
	assert.Len(t, f.World.Items(), 1)

	errutil.AssertErrorCode(t, e.Add(world.NewItem()), "COMPONENT_EXISTS")
	assert.True(t, e.Remove(world.KindItem))
	assert.Empty(t, f.World.Items())
}

func TestWorld_CheckInvariantsOnHealthyWorld(t *testing.T) {
	f := worldtest.New(t)
	f.Room("a")
	f.Add("locker", "a", world.NewContainer())
	f.Item("badge", "a", nil)
	f.Player("alice", "a")
	require.NoError(t, f.World.PutInto(f.Ctx, "locker", "badge", 0))

	assert.Empty(t, f.World.CheckInvariants())
}
