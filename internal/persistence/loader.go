// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persistence

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

// WorldFiles are the entity data files, in load order. Rooms come first so
// everything else has somewhere to be.
var WorldFiles = []string{"rooms.yaml", "objects.yaml", "items.yaml", "npcs.yaml"}

// LoadStats counts what a load registered and what it skipped.
type LoadStats struct {
	Loaded  int
	Skipped int
}

func (a *LoadStats) add(b LoadStats) {
	a.Loaded += b.Loaded
	a.Skipped += b.Skipped
}

// LoadWorld registers every entity in the world data files. A bad record or
// a corrupt file is logged and skipped; the rest still load.
func (s *Store) LoadWorld(ctx context.Context, w *world.World) (LoadStats, error) {
	var total LoadStats
	for _, name := range WorldFiles {
		path := s.Path(name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("data file not present", "path", path)
			continue
		}
		if err != nil {
			return total, oops.Code(CodeIO).With("path", path).Wrap(err)
		}
		records, skipped, err := decodeRecords(data)
		if err != nil {
			errutil.LogError(slog.Default(), "skipping corrupt data file", oops.With("path", path).Wrap(err))
			continue
		}
		stats := s.register(ctx, w, records)
		stats.Skipped += skipped
		slog.Info("loaded data file", "path", path, "loaded", stats.Loaded, "skipped", stats.Skipped)
		total.add(stats)
	}
	return total, nil
}

// decodeRecords decodes a YAML list of entity records one element at a time
// so a malformed record does not hide its neighbours.
func decodeRecords(data []byte) ([]world.EntityRecord, int, error) {
	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, 0, oops.Code(CodeDecode).Wrap(err)
	}
	out := make([]world.EntityRecord, 0, len(nodes))
	skipped := 0
	for i := range nodes {
		var rec world.EntityRecord
		if err := nodes[i].Decode(&rec); err != nil {
			slog.Error("skipping malformed entity record", "line", nodes[i].Line, "error", err)
			skipped++
			continue
		}
		out = append(out, rec)
	}
	return out, skipped, nil
}

func (s *Store) register(ctx context.Context, w *world.World, records []world.EntityRecord) LoadStats {
	var stats LoadStats
	for _, rec := range records {
		e, err := s.reg.DecodeEntity(rec)
		if err == nil {
			err = w.Register(ctx, e)
		}
		if err != nil {
			errutil.LogError(slog.Default(), "skipping entity", oops.Code(CodeDecode).With("entity_id", rec.ID).Wrap(err))
			stats.Skipped++
			continue
		}
		stats.Loaded++
	}
	return stats
}
