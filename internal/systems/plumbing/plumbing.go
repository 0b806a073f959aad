// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package plumbing moves fluids along ducts between tanks.
package plumbing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Connection is one duct.
type Connection struct {
	From string `yaml:"from" json:"from" jsonschema:"required"`
	To   string `yaml:"to" json:"to" jsonschema:"required"`
}

// System holds the duct map. Each tank feeds at most one other tank.
type System struct {
	mu    sync.Mutex
	w     *world.World
	ducts map[string]string
}

// New creates a system with no ducts.
func New(w *world.World) *System {
	return &System{w: w, ducts: make(map[string]string)}
}

func (s *System) tank(id string) (*world.FluidContainer, error) {
	e, err := s.w.Lookup(id)
	if err != nil {
		return nil, err
	}
	fc, ok := world.As[*world.FluidContainer](e)
	if !ok {
		return nil, oops.Code("NOT_A_CONTAINER").With("object_id", id).Errorf("%s holds no fluids", e.Name)
	}
	return fc, nil
}

// Connect ducts src into dst, replacing any existing duct out of src.
func (s *System) Connect(src, dst string) error {
	if src == dst {
		return oops.Code("INVALID_ARGS").With("object_id", src).Errorf("cannot connect a tank to itself")
	}
	for _, id := range []string{src, dst} {
		if _, err := s.tank(id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.ducts[src] = dst
	s.mu.Unlock()
	return nil
}

// Disconnect removes the duct out of src.
func (s *System) Disconnect(src string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ducts[src]
	delete(s.ducts, src)
	return ok
}

// Forget drops every duct touching id, for tanks that were destroyed.
func (s *System) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ducts, id)
	for src, dst := range s.ducts {
		if dst == id {
			delete(s.ducts, src)
		}
	}
}

// Connections returns every duct ordered by source.
func (s *System) Connections() []Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Connection, 0, len(s.ducts))
	for src, dst := range s.ducts {
		out = append(out, Connection{From: src, To: dst})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// Tick pushes as much of each substance as fits through every duct, in
// source order.
func (s *System) Tick(ctx context.Context, _ time.Time) error {
	for _, c := range s.Connections() {
		src, err := s.tank(c.From)
		if err != nil {
			s.Forget(c.From)
			continue
		}
		dst, err := s.tank(c.To)
		if err != nil {
			s.Forget(c.To)
			continue
		}
		for _, substance := range src.Substances() {
			move := min(src.Amount(substance), dst.Headroom())
			if move <= 0 {
				continue
			}
			if err := src.Remove(substance, move); err != nil {
				return oops.With("from", c.From).Wrap(err)
			}
			if err := dst.Add(substance, move); err != nil {
				return oops.With("to", c.To).Wrap(err)
			}
			s.w.Publish(ctx, core.TopicFluidTransferred, core.Payload{
				"from": c.From, "to": c.To, "substance": substance, "amount": move,
			})
		}
	}
	return nil
}
