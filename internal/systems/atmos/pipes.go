// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package atmos

import (
	"sync"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Pipe moves up to Rate pressure units from Src to Dst each step.
type Pipe struct {
	Src    world.Position
	Dst    world.Position
	Rate   float64
	Active bool
}

// PipeNetwork is the set of gas pipes between tiles.
type PipeNetwork struct {
	mu    sync.Mutex
	pipes []*Pipe
}

// NewPipeNetwork returns an empty network.
func NewPipeNetwork() *PipeNetwork { return &PipeNetwork{} }

// Connect adds an active pipe. rate must be positive.
func (n *PipeNetwork) Connect(src, dst world.Position, rate float64) error {
	if rate <= 0 {
		return oops.Code("INVALID_ARGS").With("rate", rate).Errorf("pipe rate must be positive")
	}
	if src == dst {
		return oops.Code("INVALID_ARGS").With("tile", src.String()).Errorf("pipe endpoints must differ")
	}
	n.mu.Lock()
	n.pipes = append(n.pipes, &Pipe{Src: src, Dst: dst, Rate: rate, Active: true})
	n.mu.Unlock()
	return nil
}

// SetActive opens or closes every pipe between src and dst and reports
// whether one exists.
func (n *PipeNetwork) SetActive(src, dst world.Position, active bool) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	found := false
	for _, p := range n.pipes {
		if p.Src == src && p.Dst == dst {
			p.Active = active
			found = true
		}
	}
	return found
}

// Pipes returns copies of every pipe in connection order.
func (n *PipeNetwork) Pipes() []Pipe {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Pipe, len(n.pipes))
	for i, p := range n.pipes {
		out[i] = *p
	}
	return out
}

// Step pushes gas through every active pipe in connection order. Each pipe
// moves min(rate, source pressure), carrying source composition with it.
func (n *PipeNetwork) Step(g *TileGrid) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, p := range n.pipes {
		if !p.Active {
			continue
		}
		src, okS := g.Tile(p.Src)
		dst, okD := g.Tile(p.Dst)
		if !okS || !okD || src.Pressure <= 0 {
			continue
		}
		amt := min(p.Rate, src.Pressure)
		ratio := amt / src.Pressure
		total := dst.Pressure + amt
		dst.Temperature = (dst.Temperature*dst.Pressure + src.Temperature*amt) / total
		for k, v := range src.Composition {
			moved := v * ratio
			src.Composition[k] = v - moved
			dst.Add(k, moved)
		}
		src.Pressure -= amt
		dst.Pressure = total
	}
}
