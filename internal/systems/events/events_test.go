// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/systems/atmos"
	"github.com/yakuzadave/pymud-ss13/internal/systems/cargo"
	"github.com/yakuzadave/pymud-ss13/internal/systems/disease"
	"github.com/yakuzadave/pymud-ss13/internal/systems/events"
	"github.com/yakuzadave/pymud-ss13/internal/systems/power"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func weight(n int) *int { return &n }

func TestLoad_Defaults(t *testing.T) {
	f := worldtest.New(t)
	s := events.New(f.World)

	require.NoError(t, s.Load([]events.Definition{{ID: "Gravity_Anomaly"}}))

	evs := s.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "gravity_anomaly", evs[0].ID)
	assert.Equal(t, "gravity_anomaly", evs[0].Name)
	assert.Equal(t, 1, evs[0].Weight)
	assert.True(t, evs[0].Topic.Known())
}

func TestLoad_RejectsBadTables(t *testing.T) {
	f := worldtest.New(t)
	s := events.New(f.World)
	require.NoError(t, s.Load([]events.Definition{{ID: "ion_storm"}}))

	errutil.AssertErrorCode(t, s.Load([]events.Definition{{ID: "a", Guard: "crew > 1"}}), "GUARD_INVALID")
	errutil.AssertErrorCode(t, s.Load([]events.Definition{{ID: "a"}, {ID: "a"}}), "DUPLICATE_ID")
	errutil.AssertErrorCode(t, s.Load([]events.Definition{{ID: "a", Weight: weight(-1)}}), "INVALID_ARGS")
	errutil.AssertErrorCode(t, s.Load([]events.Definition{{}}), "INVALID_ARGS")

	require.Len(t, s.Events(), 1)
	assert.Equal(t, "ion_storm", s.Events()[0].ID)
}

func TestTick_PublishesUnderIDAndRandomEvent(t *testing.T) {
	f := worldtest.New(t)
	s := events.New(f.World)
	require.NoError(t, s.Load([]events.Definition{
		{ID: "ion_storm", Severity: 2, Params: map[string]any{"strength": 3}},
	}))

	require.NoError(t, s.Tick(f.Ctx, t0))

	own := f.Rec.ByTopic(core.Topic("ion_storm"))
	require.Len(t, own, 1)
	assert.Equal(t, 3, own[0].Payload.Int("strength"))
	assert.Equal(t, "ion_storm", own[0].Payload.String("event_id"))
	all := f.Rec.ByTopic(core.TopicRandomEvent)
	require.Len(t, all, 1)
	assert.Equal(t, "ion_storm", all[0].Payload.String("event_id"))
	ev, ok := all[0].Payload["event"].(core.Payload)
	require.True(t, ok)
	assert.Equal(t, 2, ev.Int("severity"))
}

func TestTick_SkipsFalseGuardsAndZeroWeights(t *testing.T) {
	f := worldtest.New(t)
	f.Room("bridge")
	f.Player("alice", "bridge")
	s := events.New(f.World)
	require.NoError(t, s.Load([]events.Definition{
		{ID: "crowd_panic", Guard: "players > 5"},
		{ID: "never", Weight: weight(0)},
		{ID: "night_shift", Guard: "hour >= 22 or hour < 6"},
		{ID: "lonely_hum", Guard: "players == 1 and powered"},
	}))

	for range 20 {
		require.NoError(t, s.Tick(f.Ctx, t0))
	}

	assert.Equal(t, 20, f.Count(core.Topic("lonely_hum")))
	assert.Equal(t, 20, f.Count(core.TopicRandomEvent))
}

func TestTick_NothingEligible(t *testing.T) {
	f := worldtest.New(t)
	s := events.New(f.World)
	require.NoError(t, s.Load([]events.Definition{{ID: "busy_day", Guard: "players > 0"}}))

	require.NoError(t, s.Tick(f.Ctx, t0))

	assert.Zero(t, f.Count(core.TopicRandomEvent))
}

func TestTick_GuardSeesTickCounter(t *testing.T) {
	f := worldtest.New(t)
	s := events.New(f.World)
	require.NoError(t, s.Load([]events.Definition{{ID: "late_start", Guard: "tick >= 2"}}))

	for range 4 {
		require.NoError(t, s.Tick(f.Ctx, t0))
	}

	assert.Equal(t, 2, f.Count(core.Topic("late_start")))
}

func TestTick_WeightedChoice(t *testing.T) {
	f := worldtest.New(t)
	s := events.New(f.World)
	require.NoError(t, s.Load([]events.Definition{
		{ID: "common", Weight: weight(9)},
		{ID: "rare", Weight: weight(1)},
	}))

	for range 200 {
		require.NoError(t, s.Tick(f.Ctx, t0))
	}

	common, rare := f.Count(core.Topic("common")), f.Count(core.Topic("rare"))
	assert.Equal(t, 200, common+rare)
	assert.Greater(t, common, rare*3)
}

func TestTrigger_MergesOverrides(t *testing.T) {
	f := worldtest.New(t)
	s := events.New(f.World)
	require.NoError(t, s.Load([]events.Definition{
		{ID: "crowd_panic", Guard: "players > 5", Params: map[string]any{"room_id": "bridge", "level": 1}},
	}))

	require.NoError(t, s.Trigger(f.Ctx, "crowd_panic", map[string]any{"level": 4}))

	got := f.Rec.ByTopic(core.Topic("crowd_panic"))
	require.Len(t, got, 1)
	assert.Equal(t, "bridge", got[0].Payload.String("room_id"))
	assert.Equal(t, 4, got[0].Payload.Int("level"))
	errutil.AssertErrorCode(t, s.Trigger(f.Ctx, "unknown", nil), "UNKNOWN_EVENT")
}

func TestGuard_PoweredFollowsGrids(t *testing.T) {
	f := worldtest.New(t)
	f.Room("bridge")
	grid := power.New(f.World)
	grid.AddGrid("main", "Main", []string{"bridge"}, 0)
	s := events.New(f.World, events.WithPower(grid))
	require.NoError(t, s.Load([]events.Definition{{ID: "blackout_drill", Guard: "not powered"}}))

	require.NoError(t, s.Tick(f.Ctx, t0))
	assert.Zero(t, f.Count(core.Topic("blackout_drill")))

	require.NoError(t, grid.CausePowerFailure(f.Ctx, "main", 0, t0))
	require.NoError(t, s.Tick(f.Ctx, t0))
	assert.Equal(t, 1, f.Count(core.Topic("blackout_drill")))
}

func TestEffects_PowerFailure(t *testing.T) {
	f := worldtest.New(t)
	f.Room("bridge")
	grid := power.New(f.World)
	grid.AddGrid("main", "Main", []string{"bridge"}, 0)
	unwire, err := events.Effects{Power: grid, Clock: func() time.Time { return t0 }}.Wire(f.World)
	require.NoError(t, err)
	defer unwire()
	s := events.New(f.World)
	require.NoError(t, s.Load([]events.Definition{{ID: events.PowerFailure, Params: map[string]any{"duration": 10}}}))

	require.NoError(t, s.Tick(f.Ctx, t0))

	assert.False(t, grid.RoomPowered("bridge"))
	assert.Equal(t, 1, f.Count(core.TopicManualPowerFailure))
}

func TestEffects_MeteorStrikeOpensLeak(t *testing.T) {
	f := worldtest.New(t)
	f.Room("cargo_bay")
	air := atmos.New(f.World)
	defer air.Close()
	unwire, err := events.Effects{}.Wire(f.World)
	require.NoError(t, err)
	defer unwire()
	s := events.New(f.World)
	require.NoError(t, s.Load([]events.Definition{{ID: events.MeteorStrike, Params: map[string]any{"severity": 2.5}}}))

	require.NoError(t, s.Tick(f.Ctx, t0))

	leaks := air.Leaks("cargo_bay")
	require.Len(t, leaks, 1)
	assert.InDelta(t, 2.5, leaks[0].Rate, 1e-9)
	assert.Equal(t, 1, f.Count(core.TopicBreach))
}

func TestEffects_DiseaseOutbreak(t *testing.T) {
	f := worldtest.New(t)
	f.Room("medbay")
	alice := f.Player("alice", "medbay")
	bob := f.Player("bob", "medbay")
	sick := disease.New(f.World, nil)
	unwire, err := events.Effects{Disease: sick}.Wire(f.World)
	require.NoError(t, err)
	defer unwire()
	s := events.New(f.World)
	require.NoError(t, s.Load([]events.Definition{{ID: events.DiseaseOutbreak, Params: map[string]any{"disease": "flu", "victims": 2}}}))

	require.NoError(t, s.Tick(f.Ctx, t0))

	assert.True(t, alice.HasDisease("flu"))
	assert.True(t, bob.HasDisease("flu"))
	assert.Equal(t, 2, f.Count(core.TopicDiseaseInfected))
}

func TestEffects_SupplyShortage(t *testing.T) {
	f := worldtest.New(t)
	bay := cargo.New(f.World, cargo.WithShortageOdds(0))
	require.NoError(t, bay.RegisterVendor("nanotrasen", map[string]int{"plasma": 40}))
	unwire, err := events.Effects{Market: bay}.Wire(f.World)
	require.NoError(t, err)
	defer unwire()
	s := events.New(f.World)
	require.NoError(t, s.Load([]events.Definition{{ID: events.SupplyShortage, Params: map[string]any{"item": "plasma", "duration": 4}}}))

	require.NoError(t, s.Tick(f.Ctx, t0))

	assert.Equal(t, 4, bay.Shortage("plasma"))
	assert.Equal(t, 1, f.Count(core.TopicMarketEvent))
}
