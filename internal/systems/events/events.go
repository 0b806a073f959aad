// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package events fires weighted random station events whose guards hold.
package events

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Definition is the table form of a random event.
type Definition struct {
	ID          string         `yaml:"id" json:"id" jsonschema:"required"`
	Name        string         `yaml:"name,omitempty" json:"name,omitempty"`
	Weight      *int           `yaml:"weight,omitempty" json:"weight,omitempty" jsonschema:"minimum=0"`
	Params      map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Severity    int            `yaml:"severity,omitempty" json:"severity,omitempty"`
	Guard       string         `yaml:"guard,omitempty" json:"guard,omitempty"`
}

// Event is a loaded definition with its topic and compiled guard.
type Event struct {
	ID          string
	Name        string
	Weight      int
	Params      map[string]any
	Description string
	Severity    int
	Guard       Guard
	Topic       core.Topic
}

func (e *Event) payload() core.Payload {
	return core.Payload{
		"id": e.ID, "name": e.Name, "description": e.Description,
		"severity": e.Severity, "weight": e.Weight, "params": maps.Clone(e.Params),
	}
}

// PowerState reports whether every grid is up.
type PowerState interface {
	AllPowered() bool
}

// Option configures a System.
type Option func(*System)

// WithPower feeds the powered guard field.
func WithPower(p PowerState) Option { return func(s *System) { s.power = p } }

// System owns the event table.
type System struct {
	mu     sync.Mutex
	w      *world.World
	power  PowerState
	events []*Event
	ticks  int
}

// New creates an event system with no events.
func New(w *world.World, opts ...Option) *System {
	s := &System{w: w}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load compiles defs and replaces the table. On error the table is unchanged.
func (s *System) Load(defs []Definition) error {
	out := make([]*Event, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		ev, err := compile(d)
		if err != nil {
			return err
		}
		if seen[ev.ID] {
			return oops.Code("DUPLICATE_ID").With("event_id", ev.ID).Errorf("random event %s defined twice", ev.ID)
		}
		seen[ev.ID] = true
		out = append(out, ev)
	}
	s.mu.Lock()
	s.events = out
	s.mu.Unlock()
	slog.Info("random events loaded", "count", len(out))
	return nil
}

func compile(d Definition) (*Event, error) {
	if d.ID == "" {
		return nil, oops.Code("INVALID_ARGS").Errorf("random event needs an id")
	}
	topic, err := core.DefineTopic(d.ID)
	if err != nil {
		return nil, err
	}
	g, err := CompileGuard(d.Guard)
	if err != nil {
		return nil, oops.With("event_id", d.ID).Wrap(err)
	}
	weight := 1
	if d.Weight != nil {
		weight = *d.Weight
	}
	if weight < 0 {
		return nil, oops.Code("INVALID_ARGS").With("event_id", d.ID).Errorf("weight must not be negative")
	}
	name := d.Name
	if name == "" {
		name = d.ID
	}
	return &Event{
		ID: string(topic), Name: name, Weight: weight, Params: maps.Clone(d.Params),
		Description: d.Description, Severity: d.Severity, Guard: g, Topic: topic,
	}, nil
}

// Events returns the loaded events in table order.
func (s *System) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, *e)
	}
	return out
}

// Env samples the station state for guard evaluation.
func (s *System) Env(now time.Time) Env {
	env := Env{Powered: true, Hour: now.UTC().Hour()}
	if s.power != nil {
		env.Powered = s.power.AllPowered()
	}
	for _, e := range s.w.Players() {
		if p, ok := world.As[*world.Player](e); ok && p.Alive {
			env.Players++
		}
	}
	s.mu.Lock()
	env.Tick = s.ticks
	s.mu.Unlock()
	return env
}

// Eligible returns the events whose guards hold in env. A guard that fails
// to evaluate is logged and treated as false.
func (s *System) Eligible(env Env) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eligibleLocked(env)
}

func (s *System) eligibleLocked(env Env) []Event {
	var out []Event
	for _, e := range s.events {
		if e.Weight == 0 {
			continue
		}
		env.Severity = e.Severity
		ok, err := e.Guard.Eval(env)
		if err != nil {
			slog.Warn("random event guard failed", "event_id", e.ID, "guard", e.Guard.String(), "error", err)
			continue
		}
		if ok {
			out = append(out, *e)
		}
	}
	return out
}

// Tick fires one weighted random event among those eligible.
func (s *System) Tick(ctx context.Context, now time.Time) error {
	env := s.Env(now)
	s.mu.Lock()
	s.ticks++
	candidates := s.eligibleLocked(env)
	s.mu.Unlock()
	if len(candidates) == 0 {
		return nil
	}
	total := 0
	for _, e := range candidates {
		total += e.Weight
	}
	pick := s.w.IntN(total)
	for i := range candidates {
		if pick < candidates[i].Weight {
			s.fire(ctx, &candidates[i], nil)
			return nil
		}
		pick -= candidates[i].Weight
	}
	return nil
}

// Trigger fires id immediately, ignoring its guard. overrides replace
// matching params.
func (s *System) Trigger(ctx context.Context, id string, overrides map[string]any) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.events, func(e *Event) bool { return e.ID == id })
	var ev Event
	if idx >= 0 {
		ev = *s.events[idx]
	}
	s.mu.Unlock()
	if idx < 0 {
		return oops.Code("UNKNOWN_EVENT").With("event_id", id).Errorf("no random event named %q", id)
	}
	s.fire(ctx, &ev, overrides)
	return nil
}

func (s *System) fire(ctx context.Context, ev *Event, overrides map[string]any) {
	params := maps.Clone(ev.Params)
	if params == nil {
		params = map[string]any{}
	}
	maps.Copy(params, overrides)
	ev.Params = params
	slog.Info("random event", "event_id", ev.ID, "severity", ev.Severity)

	p := core.Payload(maps.Clone(params))
	p["event_id"] = ev.ID
	s.w.Publish(ctx, ev.Topic, p)
	s.w.Publish(ctx, core.TopicRandomEvent, core.Payload{"event_id": ev.ID, "event": ev.payload()})
}
