// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package scheduler drives the station subsystems on a fixed base tick.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yakuzadave/pymud-ss13/internal/logging"
)

var tracer = otel.Tracer("mudss13/scheduler")

// DefaultBase is the base loop period.
const DefaultBase = 250 * time.Millisecond

// Stage fixes where a subsystem runs within a cycle.
type Stage int

// Stages in execution order.
const (
	StagePower Stage = iota
	StageAtmos
	StageMaintenance
	StageDisease
	StageBotany
	StagePlumbing
	StageNPC
	StageEvents
	StageSecurity
	StageCargo
	StageChemistry
)

var stageNames = [...]string{
	"power", "atmos", "maintenance", "disease", "botany", "plumbing",
	"npc", "events", "security", "cargo", "chemistry",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// System is a subsystem advanced by the scheduler.
type System interface {
	Tick(ctx context.Context, now time.Time) error
}

// SystemFunc adapts a function to System.
type SystemFunc func(ctx context.Context, now time.Time) error

// Tick implements System.
func (f SystemFunc) Tick(ctx context.Context, now time.Time) error { return f(ctx, now) }

type entry struct {
	stage   Stage
	name    string
	sys     System
	cadence Cadence
}

// Scheduler runs registered systems in stage order under the fence.
type Scheduler struct {
	base  time.Duration
	fence *Fence
	clock func() time.Time

	mu      sync.Mutex
	entries []*entry
	ticks   atomic.Uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBase sets the base loop period.
func WithBase(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.base = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.clock = now }
}

// New creates a scheduler guarding the world with fence.
func New(fence *Fence, opts ...Option) *Scheduler {
	s := &Scheduler{base: DefaultBase, fence: fence, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds sys at stage with its own interval. Systems sharing a stage
// run in registration order.
func (s *Scheduler) Register(stage Stage, name string, interval time.Duration, sys System) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &entry{stage: stage, name: name, sys: sys, cadence: NewCadence(interval)})
	slices.SortStableFunc(s.entries, func(a, b *entry) int { return int(a.stage) - int(b.stage) })
}

// Systems returns the registered system names in execution order.
func (s *Scheduler) Systems() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.name
	}
	return out
}

// Ticks returns the number of completed cycles.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

// Run loops until ctx is cancelled. A cycle in progress always completes.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.base)
	defer ticker.Stop()
	slog.Info("scheduler started", "base", s.base, "systems", s.Systems())
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped", "ticks", s.Ticks())
			return nil
		case <-ticker.C:
			s.Step(context.WithoutCancel(ctx), s.clock())
		}
	}
}

// Step runs one cycle at now: each due system in stage order.
func (s *Scheduler) Step(ctx context.Context, now time.Time) {
	s.mu.Lock()
	entries := slices.Clone(s.entries)
	s.mu.Unlock()

	s.fence.Exclusive(func() {
		for _, e := range entries {
			if !e.cadence.Due(now) {
				continue
			}
			s.runSystem(ctx, e, now)
		}
	})
	s.ticks.Add(1)
	Ticks.Inc()
}

// RunNow runs the named system immediately regardless of its cadence.
func (s *Scheduler) RunNow(ctx context.Context, name string, now time.Time) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.entries, func(e *entry) bool { return e.name == name })
	var e *entry
	if idx >= 0 {
		e = s.entries[idx]
	}
	s.mu.Unlock()
	if e == nil {
		return oops.Code("NOT_FOUND").With("system", name).Errorf("no subsystem named %s", name)
	}
	s.fence.Exclusive(func() { s.runSystem(ctx, e, now) })
	return nil
}

func (s *Scheduler) runSystem(ctx context.Context, e *entry, now time.Time) {
	ctx, span := tracer.Start(logging.With(ctx, "system", e.name), "scheduler.tick")
	span.SetAttributes(attribute.String("tick.system", e.name), attribute.String("tick.stage", e.stage.String()))
	start := time.Now()
	err := safeTick(ctx, e.sys, now)
	recordSystem(e.name, time.Since(start), err != nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "subsystem tick failed", "error", err)
	}
	span.End()
}

func safeTick(ctx context.Context, sys System, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code("TICK_PANIC").Errorf("panic: %v", r)
		}
	}()
	return sys.Tick(ctx, now)
}
