// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persistence

import (
	"cmp"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/klauspost/compress/zstd"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/yakuzadave/pymud-ss13/internal/script"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Snapshot identification written into every header.
const (
	SnapshotFormat  = "mudss13-world"
	SnapshotVersion = "1.0.0"
)

const (
	snapshotDir    = "world"
	snapshotPrefix = "autosave_"
	snapshotExt    = ".yaml"
	zstdExt        = ".zst"
)

// readableSnapshots is the range of header versions this build can load.
var readableSnapshots = mustConstraint("^1.0")

func mustConstraint(c string) *semver.Constraints {
	cs, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cs
}

// Header leads every snapshot.
type Header struct {
	Format   string    `yaml:"format"`
	Version  string    `yaml:"version"`
	SavedAt  time.Time `yaml:"saved_at"`
	Entities int       `yaml:"entities"`
}

// Snapshot is a full copy of the world and its scripts.
type Snapshot struct {
	Header   Header               `yaml:"header"`
	Entities []world.EntityRecord `yaml:"entities"`
	Scripts  []script.Record      `yaml:"scripts,omitempty"`
}

// NewSnapshot stamps records with a current header.
func NewSnapshot(entities []world.EntityRecord, scripts []script.Record, at time.Time) Snapshot {
	return Snapshot{
		Header: Header{
			Format:   SnapshotFormat,
			Version:  SnapshotVersion,
			SavedAt:  at.UTC(),
			Entities: len(entities),
		},
		Entities: entities,
		Scripts:  scripts,
	}
}

// CheckHeader rejects snapshots from another program or an unreadable
// version.
func CheckHeader(h Header) error {
	if h.Format != SnapshotFormat {
		return oops.Code(CodeVersion).With("format", h.Format).Errorf("not a world snapshot")
	}
	v, err := semver.NewVersion(h.Version)
	if err != nil {
		return oops.Code(CodeDecode).With("version", h.Version).Wrapf(err, "snapshot version")
	}
	if !readableSnapshots.Check(v) {
		return oops.Code(CodeVersion).
			With("version", h.Version).
			With("supported", readableSnapshots.String()).
			Errorf("unsupported snapshot version %s", h.Version)
	}
	return nil
}

// WriteSnapshot saves snap under world/ and prunes old snapshots. It
// returns the path written.
func (s *Store) WriteSnapshot(ctx context.Context, snap Snapshot) (string, error) {
	name := snapshotPrefix + strconv.FormatInt(snap.Header.SavedAt.Unix(), 10) + snapshotExt
	if s.compress {
		name += zstdExt
	}
	path := s.Path(snapshotDir, name)
	err := s.writeFile(ctx, path, func(w io.Writer) error {
		if !s.compress {
			return encodeYAML(w, snap)
		}
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		if err := encodeYAML(zw, snap); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	})
	if err != nil {
		return "", err
	}
	slog.Info("snapshot written", "path", path, "entities", snap.Header.Entities, "scripts", len(snap.Scripts))
	s.prune()
	return path, nil
}

// ReadSnapshot loads and checks the snapshot at path.
func (s *Store) ReadSnapshot(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, oops.Code(CodeIO).With("path", path).Wrap(err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, zstdExt) {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return Snapshot{}, oops.Code(CodeDecode).With("path", path).Wrap(err)
		}
		defer zr.Close()
		r = zr
	}

	var snap Snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, oops.Code(CodeDecode).With("path", path).Wrap(err)
	}
	if err := CheckHeader(snap.Header); err != nil {
		return Snapshot{}, oops.With("path", path).Wrap(err)
	}
	return snap, nil
}

// Snapshots lists snapshot paths, oldest first.
func (s *Store) Snapshots() ([]string, error) {
	dir := s.Path(snapshotDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code(CodeIO).With("path", dir).Wrap(err)
	}
	type stamped struct {
		path string
		at   int64
	}
	var found []stamped
	for _, e := range entries {
		if at, ok := snapshotTime(e.Name()); ok && !e.IsDir() {
			found = append(found, stamped{filepath.Join(dir, e.Name()), at})
		}
	}
	slices.SortStableFunc(found, func(a, b stamped) int {
		if c := cmp.Compare(a.at, b.at); c != 0 {
			return c
		}
		return strings.Compare(a.path, b.path)
	})
	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.path
	}
	return out, nil
}

// LatestSnapshot returns the newest snapshot path.
func (s *Store) LatestSnapshot() (string, bool, error) {
	all, err := s.Snapshots()
	if err != nil || len(all) == 0 {
		return "", false, err
	}
	return all[len(all)-1], true, nil
}

func snapshotTime(name string) (int64, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) {
		return 0, false
	}
	stem := strings.TrimPrefix(name, snapshotPrefix)
	stem = strings.TrimSuffix(stem, zstdExt)
	if !strings.HasSuffix(stem, snapshotExt) {
		return 0, false
	}
	at, err := strconv.ParseInt(strings.TrimSuffix(stem, snapshotExt), 10, 64)
	return at, err == nil
}

func (s *Store) prune() {
	all, err := s.Snapshots()
	if err != nil || len(all) <= s.keep {
		return
	}
	for _, path := range all[:len(all)-s.keep] {
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to prune snapshot", "path", path, "error", err)
			continue
		}
		slog.Debug("pruned snapshot", "path", path)
	}
}

// Restore registers a snapshot's entities into w, skipping any that fail.
func (s *Store) Restore(ctx context.Context, w *world.World, snap Snapshot) LoadStats {
	stats := s.register(ctx, w, snap.Entities)
	slog.Info("restored snapshot",
		"saved_at", snap.Header.SavedAt, "loaded", stats.Loaded, "skipped", stats.Skipped)
	return stats
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
