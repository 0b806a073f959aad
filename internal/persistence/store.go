// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package persistence reads and writes the data directory: world data
// files, snapshots, player saves, data tables, scripts and the door access
// log.
package persistence

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Error codes returned by this package.
const (
	CodeIO      = "PERSIST_IO"
	CodeDecode  = "PERSIST_DECODE"
	CodeVersion = "PERSIST_VERSION"
)

// DefaultKeep is how many autosave snapshots are retained.
const DefaultKeep = 5

// Store is the data directory.
type Store struct {
	root     string
	reg      *world.ComponentRegistry
	compress bool
	keep     int
	backoff  func() retry.Backoff
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithCompression writes snapshots as zstd-compressed YAML.
func WithCompression(on bool) Option { return func(s *Store) { s.compress = on } }

// WithRetention keeps the newest n snapshots.
func WithRetention(n int) Option { return func(s *Store) { s.keep = n } }

// WithComponents decodes entities through reg.
func WithComponents(reg *world.ComponentRegistry) Option { return func(s *Store) { s.reg = reg } }

// WithBackoff replaces the retry policy for writes.
func WithBackoff(b func() retry.Backoff) Option { return func(s *Store) { s.backoff = b } }

// WithClock replaces time.Now for snapshot names.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New returns a store rooted at dir.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		root: dir,
		reg:  world.DefaultComponents(),
		keep: DefaultKeep,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
		},
		now: time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Root returns the data directory.
func (s *Store) Root() string { return s.root }

// Path joins parts onto the data directory.
func (s *Store) Path(parts ...string) string {
	return filepath.Join(append([]string{s.root}, parts...)...)
}

// writeFile replaces path atomically, retrying transient failures.
func (s *Store) writeFile(ctx context.Context, path string, write func(io.Writer) error) error {
	attempt := 0
	err := retry.Do(ctx, s.backoff(), func(context.Context) error {
		attempt++
		if err := writeAtomic(path, write); err != nil {
			slog.Warn("write failed", "path", path, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code(CodeIO).With("path", path).With("attempts", attempt).Wrap(err)
	}
	return nil
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
