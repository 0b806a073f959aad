// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persistence

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/oops"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/yakuzadave/pymud-ss13/internal/systems/security"
)

// AccessLogFile is the sqlite database under the data directory.
const AccessLogFile = "access_log.db"

const accessQueue = 1024

type accessReq struct {
	entry   security.AccessEntry
	flushed chan struct{}
}

// AccessLog appends door events to an sqlite table from a single writer
// goroutine. Record never blocks the caller; entries are dropped if the
// writer falls too far behind.
type AccessLog struct {
	db *sql.DB

	mu     sync.RWMutex
	closed bool
	ch     chan accessReq
	wg     sync.WaitGroup
	once   sync.Once
}

// OpenAccessLog opens or creates the database at path.
func OpenAccessLog(path string) (*AccessLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, oops.Code(CodeIO).With("path", path).Wrap(err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Code(CodeIO).With("path", path).Wrap(err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS access_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			door_id TEXT NOT NULL,
			player_id TEXT NOT NULL,
			action TEXT NOT NULL,
			room_id TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS access_log_door ON access_log(door_id);`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, oops.Code(CodeIO).With("path", path).Wrap(err)
		}
	}

	l := &AccessLog{db: db, ch: make(chan accessReq, accessQueue)}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.loop()
	}()
	return l, nil
}

// Record queues e for writing.
func (l *AccessLog) Record(_ context.Context, e security.AccessEntry) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return oops.Code(CodeIO).Errorf("access log closed")
	}
	select {
	case l.ch <- accessReq{entry: e}:
	default:
		slog.Warn("access log queue full, dropping entry", "door_id", e.DoorID)
	}
	return nil
}

// Recent returns up to limit entries, oldest first, after everything
// queued so far has been written.
func (l *AccessLog) Recent(ctx context.Context, limit int) ([]security.AccessEntry, error) {
	if err := l.flush(ctx); err != nil {
		return nil, err
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT at, door_id, player_id, action, room_id FROM
			(SELECT * FROM access_log ORDER BY id DESC LIMIT ?)
		ORDER BY id ASC`, limit)
	if err != nil {
		return nil, oops.Code(CodeIO).Wrap(err)
	}
	defer func() { _ = rows.Close() }()

	var out []security.AccessEntry
	for rows.Next() {
		var (
			e  security.AccessEntry
			at string
		)
		if err := rows.Scan(&at, &e.DoorID, &e.PlayerID, &e.Action, &e.RoomID); err != nil {
			return nil, oops.Code(CodeDecode).Wrap(err)
		}
		if e.Time, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, oops.Code(CodeDecode).With("at", at).Wrap(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code(CodeIO).Wrap(err)
	}
	return out, nil
}

func (l *AccessLog) flush(ctx context.Context) error {
	done := make(chan struct{})
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return oops.Code(CodeIO).Errorf("access log closed")
	}
	select {
	case l.ch <- accessReq{flushed: done}:
	case <-ctx.Done():
		l.mu.RUnlock()
		return ctx.Err()
	}
	l.mu.RUnlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and closes the database.
func (l *AccessLog) Close() error {
	var err error
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.ch)
		l.mu.Unlock()
		l.wg.Wait()
		err = l.db.Close()
	})
	return err
}

func (l *AccessLog) loop() {
	insert, err := l.db.Prepare(`INSERT INTO access_log(at, door_id, player_id, action, room_id) VALUES(?,?,?,?,?)`)
	if err != nil {
		slog.Error("access log disabled", "error", err)
	} else {
		defer func() { _ = insert.Close() }()
	}
	for req := range l.ch {
		if req.flushed != nil {
			close(req.flushed)
			continue
		}
		if insert == nil {
			continue
		}
		e := req.entry
		if _, err := insert.Exec(e.Time.UTC().Format(time.RFC3339Nano), e.DoorID, e.PlayerID, e.Action, e.RoomID); err != nil {
			slog.Error("access log insert failed", "door_id", e.DoorID, "error", err)
		}
	}
}
