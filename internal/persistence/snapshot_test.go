// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persistence_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/observability"
	"github.com/yakuzadave/pymud-ss13/internal/persistence"
	"github.com/yakuzadave/pymud-ss13/internal/scheduler"
	"github.com/yakuzadave/pymud-ss13/internal/script"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

func ticking(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Minute)
	}
}

func station(t *testing.T) *worldtest.Fixture {
	t.Helper()
	f := worldtest.New(t)
	f.Room("bridge", "south", "hall")
	f.Room("hall", "north", "bridge")
	p := f.Player("alice", "hall")
	p.Stats.Health = 42
	f.Item("wrench", "hall", map[string]any{"tool": "wrench"})
	return f
}

func TestAutosaver_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "zstd"}[compress], func(t *testing.T) {
			f := station(t)
			scripts := script.NewRegistry()
			_, err := scripts.Register("wrench:twist", `result = "click"`, "alice", "wrench", "twist")
			require.NoError(t, err)

			reg := prometheus.NewRegistry()
			metrics := observability.NewMetrics(reg)
			store := persistence.New(t.TempDir(), persistence.WithCompression(compress))
			saver := persistence.NewAutosaver(store, f.World, &scheduler.Fence{}, time.Minute,
				persistence.WithScripts(scripts), persistence.WithSnapshotMetrics(metrics))

			path, err := saver.SaveNow(context.Background())
			require.NoError(t, err)
			assert.Equal(t, compress, strings.HasSuffix(path, ".yaml.zst"))
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Snapshots.WithLabelValues("ok")))

			latest, ok, err := store.LatestSnapshot()
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, path, latest)

			snap, err := store.ReadSnapshot(path)
			require.NoError(t, err)
			assert.Equal(t, persistence.SnapshotFormat, snap.Header.Format)
			assert.Equal(t, 4, snap.Header.Entities)
			require.Len(t, snap.Scripts, 1)
			assert.Equal(t, "wrench:twist", snap.Scripts[0].ID)

			fresh := worldtest.New(t)
			stats := store.Restore(fresh.Ctx, fresh.World, snap)
			assert.Equal(t, 4, stats.Loaded)
			alice, ok := fresh.World.Get("alice")
			require.True(t, ok)
			assert.Equal(t, "hall", alice.Location)
			p, ok := world.As[*world.Player](alice)
			require.True(t, ok)
			assert.InDelta(t, 42.0, p.Stats.Health, 0.001)
		})
	}
}

func TestWriteSnapshot_PrunesOldest(t *testing.T) {
	f := station(t)
	store := persistence.New(t.TempDir(),
		persistence.WithRetention(2),
		persistence.WithClock(ticking(time.Unix(1_700_000_000, 0))))
	saver := persistence.NewAutosaver(store, f.World, nil, time.Minute)

	var paths []string
	for range 4 {
		p, err := saver.SaveNow(context.Background())
		require.NoError(t, err)
		paths = append(paths, p)
	}
	kept, err := store.Snapshots()
	require.NoError(t, err)
	assert.Equal(t, paths[2:], kept)
	assert.Equal(t, "autosave_1700000240.yaml", filepath.Base(kept[1]))
}

func TestCheckHeader(t *testing.T) {
	ok := persistence.Header{Format: persistence.SnapshotFormat, Version: "1.3.0"}
	require.NoError(t, persistence.CheckHeader(ok))

	tests := []struct {
		name   string
		header persistence.Header
		code   string
	}{
		{"other format", persistence.Header{Format: "voxels", Version: "1.0.0"}, persistence.CodeVersion},
		{"newer major", persistence.Header{Format: persistence.SnapshotFormat, Version: "2.0.0"}, persistence.CodeVersion},
		{"unparseable", persistence.Header{Format: persistence.SnapshotFormat, Version: "soon"}, persistence.CodeDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errutil.AssertErrorCode(t, persistence.CheckHeader(tt.header), tt.code)
		})
	}
}

func TestReadSnapshot_RejectsForeignHeader(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "world/autosave_1.yaml", "header:\n  format: mudss13-world\n  version: 9.0.0\nentities: []\n")
	_, err := persistence.New(dir).ReadSnapshot(filepath.Join(dir, "world", "autosave_1.yaml"))
	errutil.AssertErrorCode(t, err, persistence.CodeVersion)
}

func TestAutosaver_RunStopsWithContext(t *testing.T) {
	f := station(t)
	store := persistence.New(t.TempDir())
	saver := persistence.NewAutosaver(store, f.World, nil, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		saver.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		_, ok, _ := store.LatestSnapshot()
		return ok
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("autosaver did not stop")
	}
}
