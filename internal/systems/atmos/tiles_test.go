// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package atmos_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/systems/atmos"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

var (
	left  = world.Position{X: 0, Y: 0}
	right = world.Position{X: 1, Y: 0}
)

func tile(t *testing.T, g *atmos.TileGrid, p world.Position) *atmos.GasMixture {
	t.Helper()
	m, ok := g.Tile(p)
	require.True(t, ok)
	return m
}

func TestTileGrid_ExplosiveDecompress(t *testing.T) {
	g := atmos.NewTileGrid(2, 1)
	tile(t, g, left).Pressure = 150
	tile(t, g, right).Pressure = 50

	assert.InDelta(t, 100.0, g.ExplosiveDecompress(left, right), 1e-9)
	assert.InDelta(t, 100.0, tile(t, g, left).Pressure, 1e-9)
	assert.InDelta(t, 100.0, tile(t, g, right).Pressure, 1e-9)
}

func TestTileGrid_DecompressBelowThreshold(t *testing.T) {
	g := atmos.NewTileGrid(2, 1)
	tile(t, g, left).Pressure = 110
	tile(t, g, right).Pressure = 100

	assert.Zero(t, g.ExplosiveDecompress(left, right))
	assert.InDelta(t, 110.0, tile(t, g, left).Pressure, 1e-9)
	assert.Zero(t, g.ExplosiveDecompress(left, world.Position{X: 9, Y: 9}))
}

func TestTileGrid_StepConservesGas(t *testing.T) {
	g := atmos.NewTileGrid(3, 3)
	hot := tile(t, g, world.Position{X: 1, Y: 1})
	hot.Pressure = 300
	hot.Temperature = 100
	hot.Add(atmos.GasOxygen, 40)
	oxygen := g.TotalGas(atmos.GasOxygen)
	nitrogen := g.TotalGas(atmos.GasNitrogen)

	for range 10 {
		g.Step(atmos.DefaultDiffusionRate)
	}

	assert.InDelta(t, oxygen, g.TotalGas(atmos.GasOxygen), 1e-6)
	assert.InDelta(t, nitrogen, g.TotalGas(atmos.GasNitrogen), 1e-6)
	assert.Less(t, hot.Pressure, 300.0)
	corner := tile(t, g, world.Position{X: 0, Y: 0})
	assert.Greater(t, corner.Pressure, world.StandardPressure)
	assert.Greater(t, corner.Temperature, world.StandardTemperature)
}

func TestGasMixture_FractionIsNormalised(t *testing.T) {
	g := atmos.NewTileGrid(2, 1)
	src := tile(t, g, left)
	src.Pressure = 200
	src.Add(atmos.GasOxygen, 30)

	g.Step(0)

	for _, p := range []world.Position{left, right} {
		m := tile(t, g, p)
		var sum, fractions float64
		for gas, v := range m.Composition {
			sum += v
			fractions += m.Fraction(gas)
		}
		assert.InDelta(t, 1.0, fractions, 1e-9)
		assert.InDelta(t, m.Composition[atmos.GasOxygen]/sum, m.Fraction(atmos.GasOxygen), 1e-12)
	}
	assert.Greater(t, sumOf(tile(t, g, left).Composition), 100.0, "amounts are not percentages mid-transient")
	assert.Zero(t, atmos.GasMixture{}.Fraction(atmos.GasOxygen))
}

func sumOf(c map[string]float64) float64 {
	var s float64
	for _, v := range c {
		s += v
	}
	return s
}

func TestTileGrid_StepFlowsDownhill(t *testing.T) {
	g := atmos.NewTileGrid(2, 1)
	tile(t, g, left).Pressure = 200
	tile(t, g, right).Pressure = 100

	g.Step(0)

	assert.InDelta(t, 175.0, tile(t, g, left).Pressure, 1e-9)
	assert.InDelta(t, 125.0, tile(t, g, right).Pressure, 1e-9)
}

func TestPipeNetwork_MovesBoundedAmount(t *testing.T) {
	g := atmos.NewTileGrid(2, 1)
	tile(t, g, left).Pressure = 3
	n := atmos.NewPipeNetwork()
	require.NoError(t, n.Connect(left, right, 10))

	n.Step(g)

	assert.Zero(t, tile(t, g, left).Pressure)
	assert.InDelta(t, world.StandardPressure+3, tile(t, g, right).Pressure, 1e-9)

	assert.True(t, n.SetActive(left, right, false))
	tile(t, g, left).Pressure = 50
	n.Step(g)
	assert.InDelta(t, 50.0, tile(t, g, left).Pressure, 1e-9)

	require.Error(t, n.Connect(left, left, 1))
	require.Error(t, n.Connect(left, right, 0))
}

func TestFire_BurnsSpreadsAndStarves(t *testing.T) {
	f, s, _ := setup(t, atmos.WithTileGrid(atmos.NewTileGrid(3, 3)))
	require.NoError(t, s.MapRegion("medbay", []world.Position{{X: 1, Y: 1}}))
	require.NoError(t, s.Ignite(f.Ctx, 1, 1, 0, 0))
	started := f.Rec.ByTopic(core.TopicFireStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "medbay", started[0].Payload.String("room_id"))

	require.NoError(t, s.Tick(f.Ctx, t0))

	centre := tile(t, s.Tiles(), world.Position{X: 1, Y: 1})
	assert.InDelta(t, 0.0, centre.Composition[atmos.GasOxygen], 1e-9)
	assert.InDelta(t, world.StandardCO2+4.2*3, centre.Composition[atmos.GasCO2], 1e-9)
	assert.InDelta(t, 4.2*2, centre.Composition[atmos.GasSmoke], 1e-9)
	assert.Equal(t, 1, f.Count(core.TopicFireExtinguished))
	assert.Equal(t, 5, f.Count(core.TopicFireStarted))
	fires := s.Fires()
	require.Len(t, fires, 4)
	for _, fire := range fires {
		assert.InDelta(t, 2.9, fire.Fuel, 1e-9)
	}
}

func TestFire_IgniteValidation(t *testing.T) {
	f, s, _ := setup(t)
	require.Error(t, s.Ignite(f.Ctx, 0, 0, 1, 1))

	f, s, _ = setup(t, atmos.WithTileGrid(atmos.NewTileGrid(1, 1)))
	require.Error(t, s.Ignite(f.Ctx, 4, 4, 1, 1))
	require.NoError(t, s.Ignite(f.Ctx, 0, 0, 1, 1))
	assert.True(t, s.Extinguish(f.Ctx, 0, 0))
	assert.False(t, s.Extinguish(f.Ctx, 0, 0))
}
