// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package botany_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/systems/botany"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

var t0 = time.Unix(1_700_000_000, 0)

type grid struct {
	powered bool
	drawn   float64
}

func (g *grid) Draw(_ string, units float64) bool {
	if !g.powered {
		return false
	}
	g.drawn += units
	return true
}

func hydroponics(t *testing.T, opts ...botany.Option) (*worldtest.Fixture, *botany.System) {
	t.Helper()
	f := worldtest.New(t)
	f.Room("hydroponics")
	return f, botany.New(f.World, opts...)
}

func tickN(t *testing.T, f *worldtest.Fixture, s *botany.System, n int) {
	t.Helper()
	for i := range n {
		require.NoError(t, s.Tick(f.Ctx, t0.Add(time.Duration(i)*10*time.Second)))
	}
}

func TestBotany_GrowsAndMaturesOnce(t *testing.T) {
	f, s := hydroponics(t)
	id, err := s.Plant(f.Ctx, "tomato", "hydroponics", nil)
	require.NoError(t, err)
	assert.Equal(t, "plant_1", id)

	tickN(t, f, s, 1)
	p, _ := s.Get(id)
	assert.InDelta(t, 0.01, p.Growth, 1e-9)

	tickN(t, f, s, 120)
	p, _ = s.Get(id)
	assert.InDelta(t, 1.0, p.Growth, 1e-9)
	assert.Equal(t, 1, f.Count(core.TopicPlantMature))
}

func TestBotany_AutogrowUsesPower(t *testing.T) {
	g := &grid{powered: true}
	f, s := hydroponics(t, botany.WithPower(g))
	id, _ := s.Plant(f.Ctx, "tomato", "hydroponics", nil)
	require.NoError(t, s.SetAutogrow(id, true))

	tickN(t, f, s, 1)
	p, _ := s.Get(id)
	assert.InDelta(t, 0.02, p.Growth, 1e-9)
	assert.InDelta(t, botany.AutogrowDraw, g.drawn, 1e-9)

	g.powered = false
	tickN(t, f, s, 1)
	p, _ = s.Get(id)
	assert.InDelta(t, 0.03, p.Growth, 1e-9)
}

func TestBotany_HarvestRequiresMaturity(t *testing.T) {
	f, s := hydroponics(t)
	alice := f.Player("alice", "hydroponics")
	id, _ := s.Plant(f.Ctx, "tomato", "hydroponics", nil)

	_, err := s.Harvest(f.Ctx, id, "alice")
	errutil.AssertErrorCode(t, err, "PRECONDITION")

	tickN(t, f, s, 110)
	item, err := s.Harvest(f.Ctx, id, "alice")
	require.NoError(t, err)
	assert.True(t, alice.HasItem(item))
	e, ok := f.World.Get(item)
	require.True(t, ok)
	assert.Equal(t, "tomato", e.Name)
	assert.Equal(t, 1, f.Count(core.TopicPlantHarvested))
	_, ok = s.Get(id)
	assert.False(t, ok)
}

func TestBotany_HarvestToRoom(t *testing.T) {
	f, s := hydroponics(t)
	id, _ := s.Plant(f.Ctx, "wheat", "hydroponics", nil)
	tickN(t, f, s, 110)

	item, err := s.Harvest(f.Ctx, id, "")

	require.NoError(t, err)
	e, _ := f.World.Get(item)
	assert.Equal(t, "hydroponics", e.Location)
}

func TestBotany_Fertilizers(t *testing.T) {
	f, s := hydroponics(t)
	id, _ := s.Plant(f.Ctx, "tomato", "hydroponics", nil)

	require.NoError(t, s.Fertilize(f.Ctx, id, "diethylamine"))
	require.NoError(t, s.Fertilize(f.Ctx, id, "saltpetre"))
	require.NoError(t, s.Fertilize(f.Ctx, id, "multiver"))
	p, _ := s.Get(id)
	assert.InDelta(t, 7.0, p.Nutrient, 1e-9)
	assert.InDelta(t, 7.0, p.Health, 1e-9)
	assert.Equal(t, 2, p.Yield)
	assert.Equal(t, 2, p.Potency)
	assert.InDelta(t, 9.0, p.ProductionTime, 1e-9)
	assert.Zero(t, p.Toxicity)

	require.NoError(t, s.Fertilize(f.Ctx, id, "plant_b_gone"))
	p, _ = s.Get(id)
	assert.False(t, p.Alive())
	tickN(t, f, s, 1)
	p, _ = s.Get(id)
	assert.Zero(t, p.Growth)

	errutil.AssertErrorCode(t, s.Fertilize(f.Ctx, id, "coffee"), "UNKNOWN_FERTILIZER")
	errutil.AssertErrorCode(t, s.Fertilize(f.Ctx, "plant_99", "ash"), "NOT_FOUND")
}

func TestBotany_Graft(t *testing.T) {
	f, s := hydroponics(t)
	a, _ := s.Plant(f.Ctx, "apple", "hydroponics", nil, "sweet")
	b, _ := s.Plant(f.Ctx, "lemon", "hydroponics", nil, "sour", "sweet")

	require.NoError(t, s.Graft(f.Ctx, a, b))

	p, _ := s.Get(a)
	assert.Equal(t, []string{"sour", "sweet"}, p.Traits)
	assert.Equal(t, 1, f.Count(core.TopicPlantGrafted))
}

func TestBotany_CrossPollination(t *testing.T) {
	f, s := hydroponics(t, botany.WithPollination(2, 1))
	src, _ := s.Plant(f.Ctx, "apple", "hydroponics", &world.Position{X: 0, Y: 0}, "glowing")
	near, _ := s.Plant(f.Ctx, "pear", "hydroponics", &world.Position{X: 1, Y: 1})
	far, _ := s.Plant(f.Ctx, "plum", "hydroponics", &world.Position{X: 5, Y: 5})

	tickN(t, f, s, 1)

	p, _ := s.Get(near)
	assert.Equal(t, []string{"glowing"}, p.Traits)
	p, _ = s.Get(far)
	assert.Empty(t, p.Traits)
	ev := f.Rec.ByTopic(core.TopicPlantPollinated)
	require.Len(t, ev, 1)
	assert.Equal(t, src, ev[0].Payload.String("source_id"))
}

func TestBotany_Analyze(t *testing.T) {
	f, s := hydroponics(t)
	id, _ := s.Plant(f.Ctx, "tomato", "hydroponics", nil, "juicy")

	out, err := s.Analyze(id)

	require.NoError(t, err)
	assert.Contains(t, out, "tomato (plant_1)")
	assert.Contains(t, out, "Growth: 0%")
	assert.Contains(t, out, "Traits: juicy")
}
