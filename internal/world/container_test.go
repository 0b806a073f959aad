// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

func TestContainer_CapacityTwo(t *testing.T) {
	box := world.NewContainer()
	box.Capacity = 2

	assert.True(t, box.AddItem("a"))
	assert.True(t, box.AddItem("b"))
	assert.False(t, box.AddItem("c"))
	assert.True(t, box.RemoveItem("a"))
	assert.True(t, box.AddItem("c"))
	assert.Equal(t, []string{"b", "c"}, box.ItemIDs())
}

func TestContainer_RejectsDuplicates(t *testing.T) {
	box := world.NewContainer()
	assert.True(t, box.AddItem("a"))
	assert.False(t, box.AddItem("a"))
	assert.False(t, box.RemoveItem("missing"))
}

func TestContainer_ConcurrentAddsRespectCapacity(t *testing.T) {
	box := world.NewContainer()
	box.Capacity = 5

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			box.AddItem(string(rune('a' + i%26)))
		}()
	}
	wg.Wait()

	assert.Len(t, box.ItemIDs(), 5)
}

func TestWorld_PutIntoAndTakeOut(t *testing.T) {
	f := worldtest.New(t)
	f.Room("storage")
	c := world.NewContainer()
	c.Capacity = 1
	f.Add("box1", "storage", c)
	f.Item("wrench", "storage", nil)
	f.Item("crowbar", "storage", nil)

	require.NoError(t, f.World.PutInto(f.Ctx, "box1", "wrench", 0))
	e, _ := f.World.Get("wrench")
	assert.Empty(t, e.Location)
	assert.Equal(t, 1, f.Count(core.TopicContainerItemAdded))

	errutil.AssertErrorCode(t, f.World.PutInto(f.Ctx, "box1", "wrench", 0), "ALREADY_PRESENT")
	errutil.AssertErrorCode(t, f.World.PutInto(f.Ctx, "box1", "crowbar", 0), "CONTAINER_FULL")
	errutil.AssertErrorCode(t, f.World.PutInto(f.Ctx, "storage", "crowbar", 0), "NOT_A_CONTAINER")

	require.NoError(t, f.World.TakeOut(f.Ctx, "box1", "wrench", "storage", 0))
	assert.Equal(t, "storage", e.Location)
	assert.False(t, c.Contains("wrench"))
	errutil.AssertErrorCode(t, f.World.TakeOut(f.Ctx, "box1", "wrench", "storage", 0), "NOT_FOUND")
}

func TestWorld_LockedContainerNeedsAccess(t *testing.T) {
	f := worldtest.New(t)
	f.Room("armory")
	c := world.NewContainer()
	c.Locked = true
	c.AccessLevel = 40
	f.Add("rack", "armory", c)
	f.Item("baton", "armory", nil)

	errutil.AssertErrorCode(t, f.World.PutInto(f.Ctx, "rack", "baton", 10), "LOCKED")
	require.NoError(t, f.World.PutInto(f.Ctx, "rack", "baton", 40))

	c.Open = false
	errutil.AssertErrorCode(t, f.World.TakeOut(f.Ctx, "rack", "baton", "armory", 40), "PRECONDITION")
}
