// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persistence

import (
	"context"
	"log/slog"
	"time"

	"github.com/yakuzadave/pymud-ss13/internal/observability"
	"github.com/yakuzadave/pymud-ss13/internal/scheduler"
	"github.com/yakuzadave/pymud-ss13/internal/script"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

// Autosaver periodically snapshots the world.
type Autosaver struct {
	store    *Store
	world    *world.World
	scripts  *script.Registry
	fence    *scheduler.Fence
	interval time.Duration
	metrics  *observability.Metrics
}

// AutosaveOption configures an Autosaver.
type AutosaveOption func(*Autosaver)

// WithScripts includes scripted verbs in every snapshot.
func WithScripts(r *script.Registry) AutosaveOption { return func(a *Autosaver) { a.scripts = r } }

// WithSnapshotMetrics counts snapshot results.
func WithSnapshotMetrics(m *observability.Metrics) AutosaveOption {
	return func(a *Autosaver) { a.metrics = m }
}

// NewAutosaver returns an autosaver. fence may be nil when nothing else
// mutates the world.
func NewAutosaver(store *Store, w *world.World, fence *scheduler.Fence, interval time.Duration, opts ...AutosaveOption) *Autosaver {
	a := &Autosaver{store: store, world: w, fence: fence, interval: interval}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run saves every interval until ctx ends. Failures are logged and the
// next cycle tries again.
func (a *Autosaver) Run(ctx context.Context) {
	if a.interval <= 0 {
		return
	}
	t := time.NewTicker(a.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := a.SaveNow(ctx); err != nil {
				errutil.LogError(slog.Default(), "autosave failed", err)
			}
		}
	}
}

// SaveNow copies the world under the fence and writes it outside. It
// returns the snapshot path.
func (a *Autosaver) SaveNow(ctx context.Context) (string, error) {
	var (
		records []world.EntityRecord
		scripts []script.Record
		err     error
	)
	capture := func() {
		records, err = a.world.Snapshot()
		if a.scripts != nil {
			scripts = a.scripts.Records()
		}
	}
	if a.fence != nil {
		a.fence.Exclusive(capture)
	} else {
		capture()
	}
	if err != nil {
		a.count("error")
		return "", err
	}

	path, err := a.store.WriteSnapshot(ctx, NewSnapshot(records, scripts, a.store.now()))
	if err != nil {
		a.count("error")
		return "", err
	}
	a.count("ok")
	return path, nil
}

func (a *Autosaver) count(result string) {
	if a.metrics != nil {
		a.metrics.Snapshots.WithLabelValues(result).Inc()
	}
}
