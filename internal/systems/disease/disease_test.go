// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package disease_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/systems/disease"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

var t0 = time.Unix(1_700_000_000, 0)

func ward(t *testing.T) (*worldtest.Fixture, *disease.System) {
	t.Helper()
	f := worldtest.New(t)
	f.Room("medbay")
	s := disease.New(f.World, []disease.Definition{
		{ID: "plague", DamagePerTick: 2, TransmissionChance: 1},
		{ID: "sniffles", DamagePerTick: 1, TransmissionChance: 0},
	})
	return f, s
}

func TestDisease_SpreadsAtCertainTransmission(t *testing.T) {
	f, s := ward(t)
	alice := f.Player("alice", "medbay")
	bob := f.Player("bob", "medbay")
	require.NoError(t, s.Infect(f.Ctx, "alice", "plague"))

	require.NoError(t, s.Tick(f.Ctx, t0))

	assert.True(t, bob.HasDisease("plague"))
	assert.InDelta(t, 98.0, alice.Stats.Health, 1e-9)
	assert.InDelta(t, 100.0, bob.Stats.Health, 1e-9, "newly infected players take damage from the next tick")
	infected := f.Rec.ByTopic(core.TopicDiseaseInfected)
	require.Len(t, infected, 2)
	assert.Equal(t, "alice", infected[1].Payload.String("source"))
}

func TestDisease_BiohazardProtectionBlocksSpread(t *testing.T) {
	f, s := ward(t)
	f.Player("alice", "medbay")
	bob := f.Player("bob", "medbay")
	f.Item("hazmat_suit", "", map[string]any{world.PropBiohazardProtection: true})
	require.True(t, bob.AddToInventory("hazmat_suit"))
	require.NoError(t, bob.Equip("body", "hazmat_suit"))
	require.NoError(t, s.Infect(f.Ctx, "alice", "plague"))

	for i := range 5 {
		require.NoError(t, s.Tick(f.Ctx, t0.Add(time.Duration(i)*time.Second)))
	}

	assert.False(t, bob.HasDisease("plague"))
	assert.Equal(t, 1, f.Count(core.TopicDiseaseInfected))
}

func TestDisease_NoSpreadAcrossRooms(t *testing.T) {
	f, s := ward(t)
	f.Room("bar")
	f.Player("alice", "medbay")
	bob := f.Player("bob", "bar")
	require.NoError(t, s.Infect(f.Ctx, "alice", "plague"))

	require.NoError(t, s.Tick(f.Ctx, t0))

	assert.False(t, bob.HasDisease("plague"))
}

func TestDisease_ImmunityScalesDamage(t *testing.T) {
	f, s := ward(t)
	resistant := f.Player("alice", "medbay")
	resistant.Immunity = world.ImmunityResistant
	immune := f.Player("bob", "medbay")
	immune.Immunity = world.ImmunityImmune
	require.NoError(t, s.Infect(f.Ctx, "alice", "sniffles"))
	require.NoError(t, s.Infect(f.Ctx, "bob", "sniffles"))

	require.NoError(t, s.Tick(f.Ctx, t0))

	assert.InDelta(t, 99.5, resistant.Stats.Health, 1e-9)
	assert.InDelta(t, 100.0, immune.Stats.Health, 1e-9)
	ticks := f.Rec.ByTopic(core.TopicDiseaseTick)
	require.Len(t, ticks, 2)
	assert.InDelta(t, 0.5, ticks[0].Payload.Float("damage"), 1e-9)
}

func TestDisease_ImmunePlayersAreNotInfectedBySpread(t *testing.T) {
	f, s := ward(t)
	f.Player("alice", "medbay")
	bob := f.Player("bob", "medbay")
	bob.Immunity = world.ImmunityImmune
	require.NoError(t, s.Infect(f.Ctx, "alice", "plague"))

	require.NoError(t, s.Tick(f.Ctx, t0))

	assert.False(t, bob.HasDisease("plague"))
}

func TestDisease_Cure(t *testing.T) {
	f, s := ward(t)
	alice := f.Player("alice", "medbay")
	require.NoError(t, s.Infect(f.Ctx, "alice", "plague"))
	require.NoError(t, s.Infect(f.Ctx, "alice", "plague"))
	assert.Equal(t, []string{"plague"}, alice.Diseases)

	require.NoError(t, s.Cure(f.Ctx, "alice", "plague"))
	assert.Empty(t, alice.Diseases)
	assert.Equal(t, 1, f.Count(core.TopicDiseaseCured))
	errutil.AssertErrorCode(t, s.Cure(f.Ctx, "alice", "plague"), "NOT_FOUND")
}

func TestDisease_InfectValidation(t *testing.T) {
	f, s := ward(t)
	f.Item("wrench", "medbay", nil)
	errutil.AssertErrorCode(t, s.Infect(f.Ctx, "alice", "plague"), "NOT_FOUND")
	errutil.AssertErrorCode(t, s.Infect(f.Ctx, "wrench", "plague"), "NOT_A_PLAYER")
	errutil.AssertErrorCode(t, s.Infect(f.Ctx, "wrench", "gout"), "UNKNOWN_DISEASE")
}

func TestDisease_DefaultsAndDefine(t *testing.T) {
	f := worldtest.New(t)
	s := disease.New(f.World, nil)
	assert.Equal(t, []string{"flu", "virus_x"}, s.Known())
	flu, ok := s.Definition("flu")
	require.True(t, ok)
	assert.InDelta(t, 0.3, flu.TransmissionChance, 1e-9)

	require.NoError(t, s.Define(disease.Definition{ID: "gout", DamagePerTick: 1}))
	assert.Contains(t, s.Known(), "gout")
	errutil.AssertErrorCode(t, s.Define(disease.Definition{ID: "bad", TransmissionChance: 2}), "INVALID_ARGS")
}
