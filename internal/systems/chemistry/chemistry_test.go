// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package chemistry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/systems/chemistry"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

func lab(t *testing.T, tables chemistry.Tables) (*worldtest.Fixture, *chemistry.System, *world.ChemicalContainer) {
	t.Helper()
	f := worldtest.New(t)
	f.Room("chemlab")
	beaker := world.NewChemicalContainer()
	f.Add("beaker", "chemlab", beaker)
	return f, chemistry.New(f.World, tables), beaker
}

func TestChemistry_Synthesize(t *testing.T) {
	f, s, _ := lab(t, chemistry.Tables{Recipes: []chemistry.Recipe{{Output: "bicaridine", Inputs: []string{"carbon", "inaprovaline"}}}})
	p := f.Player("chemist", "chemlab")
	for _, id := range []string{"carbon", "inaprovaline"} {
		f.Item(id, "", nil)
		require.True(t, p.AddToInventory(id))
	}

	out, err := s.Synthesize(f.Ctx, "chemist", []string{"inaprovaline", "carbon"})

	require.NoError(t, err)
	assert.Equal(t, "You synthesize bicaridine.", out.Text)
	assert.Equal(t, []string{"bicaridine_1"}, p.Inventory)
	assert.Equal(t, 1, f.Count(core.TopicChemicalSynthesized))
}

func TestChemistry_SynthesizeMessages(t *testing.T) {
	f, s, _ := lab(t, chemistry.Tables{Recipes: []chemistry.Recipe{{Output: "bicaridine", Inputs: []string{"carbon", "inaprovaline"}}}})
	f.Player("chemist", "chemlab")

	out, err := s.Synthesize(f.Ctx, "chemist", []string{"carbon", "inaprovaline"})
	require.NoError(t, err)
	assert.Equal(t, "You lack some of the required chemicals.", out.Text)

	out, err = s.Synthesize(f.Ctx, "chemist", []string{"water"})
	require.NoError(t, err)
	assert.Equal(t, "No known recipe for that combination.", out.Text)
}

func TestChemistry_ReactionChainsWithinOneTick(t *testing.T) {
	f, s, beaker := lab(t, chemistry.Tables{Reactions: []chemistry.Reaction{
		{Reactants: []string{"hydrogen", "oxygen"}, Products: []string{"water"}},
		{Reactants: []string{"water", "sodium"}, Products: []string{"lye"}, Byproducts: []string{"heat"}},
	}})
	require.NoError(t, beaker.Add("hydrogen", 1))
	require.NoError(t, beaker.Add("oxygen", 1))
	require.NoError(t, beaker.Add("sodium", 1))

	require.NoError(t, s.Tick(f.Ctx, time.Now()))

	assert.InDelta(t, 1.0, beaker.Amount("lye"), 1e-9)
	assert.InDelta(t, 1.0, beaker.Amount("heat"), 1e-9)
	assert.Zero(t, beaker.Amount("water"))
	assert.Equal(t, 2, f.Count(core.TopicReactionOccurred))
}

func TestChemistry_TemperatureAndCatalyst(t *testing.T) {
	hot := 100.0
	f, s, beaker := lab(t, chemistry.Tables{Reactions: []chemistry.Reaction{
		{Reactants: []string{"sugar"}, Products: []string{"caramel"}, MinTemp: &hot},
		{Reactants: []string{"iron"}, Products: []string{"rust"}, Catalyst: "water"},
	}})
	require.NoError(t, beaker.Add("sugar", 1))
	require.NoError(t, beaker.Add("iron", 1))

	got, err := s.Process(f.Ctx, "beaker")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Heat("beaker", 150))
	require.NoError(t, beaker.Add("water", 1))
	got, err = s.Process(f.Ctx, "beaker")
	require.NoError(t, err)
	assert.Equal(t, []string{"caramel", "rust"}, got)
	assert.InDelta(t, 1.0, beaker.Amount("water"), 1e-9)
}

func TestChemistry_PassesAreBounded(t *testing.T) {
	f, s, beaker := lab(t, chemistry.Tables{Reactions: []chemistry.Reaction{
		{Reactants: []string{"a"}, Products: []string{"b"}},
		{Reactants: []string{"b"}, Products: []string{"a"}},
	}})
	require.NoError(t, beaker.Add("a", 1))

	got, err := s.Process(f.Ctx, "beaker")

	require.NoError(t, err)
	assert.Len(t, got, 2*chemistry.MaxPasses)
}

func TestChemistry_ContainerValidation(t *testing.T) {
	f, s, _ := lab(t, chemistry.Tables{})
	f.Item("spoon", "chemlab", nil)
	errutil.AssertErrorCode(t, s.Heat("spoon", 10), "NOT_A_CONTAINER")
	_, err := s.Process(f.Ctx, "nothing")
	errutil.AssertErrorCode(t, err, "NOT_FOUND")
}
