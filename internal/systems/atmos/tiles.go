// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package atmos

import (
	"maps"
	"math"

	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Gas names used in tile compositions.
const (
	GasOxygen   = "oxygen"
	GasNitrogen = "nitrogen"
	GasCO2      = "co2"
	GasSmoke    = "smoke"
)

// DefaultDiffusionRate is the fraction of a pressure difference that flows
// per step.
const DefaultDiffusionRate = 0.25

// DecompressionThreshold is the minimum pressure difference for explosive
// decompression.
const DecompressionThreshold = 20.0

// GasMixture is the gas on one tile. Composition holds amounts, not
// percentages: mixing moves amounts in proportion to the pressure that
// flows, so while tiles settle the values need not sum to 100. Use
// Fraction for a normalised share.
type GasMixture struct {
	Pressure    float64            `yaml:"pressure" json:"pressure"`
	Temperature float64            `yaml:"temperature" json:"temperature"`
	Composition map[string]float64 `yaml:"composition" json:"composition"`
}

// StandardMixture returns station-standard air.
func StandardMixture() GasMixture {
	return GasMixture{
		Pressure:    world.StandardPressure,
		Temperature: world.StandardTemperature,
		Composition: map[string]float64{
			GasOxygen:   world.StandardOxygen,
			GasNitrogen: world.StandardNitrogen,
			GasCO2:      world.StandardCO2,
			GasSmoke:    0,
		},
	}
}

// Clone returns a deep copy.
func (m GasMixture) Clone() GasMixture {
	m.Composition = maps.Clone(m.Composition)
	return m
}

// Fraction returns gas's share of the total amount, between 0 and 1.
func (m GasMixture) Fraction(gas string) float64 {
	var total float64
	for _, v := range m.Composition {
		total += v
	}
	if total <= 0 {
		return 0
	}
	return m.Composition[gas] / total
}

// Add adds amount of gas.
func (m *GasMixture) Add(gas string, amount float64) {
	if m.Composition == nil {
		m.Composition = map[string]float64{}
	}
	m.Composition[gas] += amount
}

// Remove takes up to amount of gas and returns what was removed.
func (m *GasMixture) Remove(gas string, amount float64) float64 {
	cur := m.Composition[gas]
	took := min(cur, amount)
	if took > 0 {
		m.Composition[gas] = cur - took
	}
	return took
}

// Atmosphere projects the mixture onto the room model.
func (m GasMixture) Atmosphere() world.Atmosphere {
	return world.Atmosphere{
		Oxygen:      m.Composition[GasOxygen],
		Nitrogen:    m.Composition[GasNitrogen],
		CO2:         m.Composition[GasCO2],
		Smoke:       m.Composition[GasSmoke],
		Pressure:    m.Pressure,
		Temperature: m.Temperature,
	}
}

// SetAtmosphere overwrites the mixture from the room model.
func (m *GasMixture) SetAtmosphere(a world.Atmosphere) {
	m.Pressure, m.Temperature = a.Pressure, a.Temperature
	if m.Composition == nil {
		m.Composition = map[string]float64{}
	}
	m.Composition[GasOxygen] = a.Oxygen
	m.Composition[GasNitrogen] = a.Nitrogen
	m.Composition[GasCO2] = a.CO2
	m.Composition[GasSmoke] = a.Smoke
}

// TileGrid is a fixed-size grid of gas tiles. It owns the composition of
// every room mapped onto it.
type TileGrid struct {
	width, height int
	tiles         map[world.Position]*GasMixture
}

// NewTileGrid returns a width×height grid of standard air.
func NewTileGrid(width, height int) *TileGrid {
	g := &TileGrid{width: width, height: height, tiles: make(map[world.Position]*GasMixture, width*height)}
	for x := range width {
		for y := range height {
			m := StandardMixture()
			g.tiles[world.Position{X: x, Y: y}] = &m
		}
	}
	return g
}

// Size returns the grid dimensions.
func (g *TileGrid) Size() (int, int) { return g.width, g.height }

// Tile returns the mixture at pos.
func (g *TileGrid) Tile(pos world.Position) (*GasMixture, bool) {
	m, ok := g.tiles[pos]
	return m, ok
}

func (g *TileGrid) neighbours(pos world.Position) []world.Position {
	var out []world.Position
	for _, n := range world.Neighbors4(pos) {
		if _, ok := g.tiles[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

type inflow struct {
	amount float64
	heat   float64
	gas    map[string]float64
}

// Step diffuses gas between orthogonal neighbours. Flows are computed from
// the state at the start of the step, so the result does not depend on
// iteration order and every substance is conserved.
func (g *TileGrid) Step(rate float64) {
	if rate <= 0 {
		rate = DefaultDiffusionRate
	}
	out := map[world.Position]map[string]float64{}
	outAmt := map[world.Position]float64{}
	in := map[world.Position]*inflow{}
	for pos, src := range g.tiles {
		if src.Pressure <= 0 {
			continue
		}
		for _, n := range g.neighbours(pos) {
			dst := g.tiles[n]
			if src.Pressure <= dst.Pressure {
				continue
			}
			amt := (src.Pressure - dst.Pressure) * rate
			ratio := amt / src.Pressure
			acc, ok := in[n]
			if !ok {
				acc = &inflow{gas: map[string]float64{}}
				in[n] = acc
			}
			if out[pos] == nil {
				out[pos] = map[string]float64{}
			}
			for k, v := range src.Composition {
				acc.gas[k] += v * ratio
				out[pos][k] += v * ratio
			}
			acc.amount += amt
			acc.heat += amt * src.Temperature
			outAmt[pos] += amt
		}
	}
	for pos, gas := range out {
		t := g.tiles[pos]
		t.Pressure = max(0, t.Pressure-outAmt[pos])
		for k, v := range gas {
			t.Composition[k] = max(0, t.Composition[k]-v)
		}
	}
	for pos, acc := range in {
		t := g.tiles[pos]
		total := t.Pressure + acc.amount
		if total > 0 {
			t.Temperature = (t.Temperature*t.Pressure + acc.heat) / total
		}
		t.Pressure = total
		for k, v := range acc.gas {
			t.Add(k, v)
		}
	}
}

// ExplosiveDecompress equalises two tiles instantly. It returns the absolute
// pressure difference, or 0 when the tiles are missing or the difference is
// below DecompressionThreshold.
func (g *TileGrid) ExplosiveDecompress(a, b world.Position) float64 {
	ta, okA := g.tiles[a]
	tb, okB := g.tiles[b]
	if !okA || !okB {
		return 0
	}
	diff := math.Abs(ta.Pressure - tb.Pressure)
	if diff < DecompressionThreshold {
		return 0
	}
	avg := (ta.Pressure + tb.Pressure) / 2
	ta.Pressure, tb.Pressure = avg, avg
	return diff
}

// Average returns the mean mixture over positions that exist on the grid.
func (g *TileGrid) Average(positions []world.Position) (GasMixture, bool) {
	var sum GasMixture
	sum.Composition = map[string]float64{}
	n := 0
	for _, p := range positions {
		t, ok := g.tiles[p]
		if !ok {
			continue
		}
		n++
		sum.Pressure += t.Pressure
		sum.Temperature += t.Temperature
		for k, v := range t.Composition {
			sum.Composition[k] += v
		}
	}
	if n == 0 {
		return GasMixture{}, false
	}
	f := float64(n)
	sum.Pressure /= f
	sum.Temperature /= f
	for k := range sum.Composition {
		sum.Composition[k] /= f
	}
	return sum, true
}

// TotalGas returns the summed amount of gas across the grid.
func (g *TileGrid) TotalGas(gas string) float64 {
	var t float64
	for _, m := range g.tiles {
		t += m.Composition[gas]
	}
	return t
}
