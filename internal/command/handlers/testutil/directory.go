// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package testutil

import (
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yakuzadave/pymud-ss13/internal/command"
)

// Sent is one message delivered through the fake directory.
type Sent struct {
	SessionID ulid.ULID
	Msg       command.Result
}

// Directory is an in-memory command.Directory that records every call.
type Directory struct {
	mu        sync.Mutex
	online    []command.Presence
	sent      []Sent
	ended     map[ulid.ULID]string
	shutdown  *time.Duration
	EndErr    error
	shutdownR string
}

var _ command.Directory = (*Directory)(nil)

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{ended: make(map[ulid.ULID]string)}
}

// Connect adds an online presence and returns its session id.
func (d *Directory) Connect(p command.Presence) ulid.ULID {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p.SessionID.IsZero() {
		p.SessionID = ulid.Make()
	}
	d.online = append(d.online, p)
	return p.SessionID
}

// Online implements command.Directory.
func (d *Directory) Online() []command.Presence {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.online)
}

// Send implements command.Directory.
func (d *Directory) Send(id ulid.ULID, msg command.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, Sent{SessionID: id, Msg: msg})
}

// BroadcastAll implements command.Directory.
func (d *Directory) BroadcastAll(msg command.Result, except ...ulid.ULID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.online {
		if !slices.Contains(except, p.SessionID) {
			d.sent = append(d.sent, Sent{SessionID: p.SessionID, Msg: msg})
		}
	}
}

// BroadcastRoom implements command.Directory.
func (d *Directory) BroadcastRoom(room string, msg command.Result, except ...ulid.ULID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.online {
		if p.Room == room && !slices.Contains(except, p.SessionID) {
			d.sent = append(d.sent, Sent{SessionID: p.SessionID, Msg: msg})
		}
	}
}

// EndSession implements command.Directory.
func (d *Directory) EndSession(id ulid.ULID, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.EndErr != nil {
		return d.EndErr
	}
	d.ended[id] = reason
	d.online = slices.DeleteFunc(d.online, func(p command.Presence) bool { return p.SessionID == id })
	return nil
}

// Shutdown implements command.Directory.
func (d *Directory) Shutdown(delay time.Duration, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shutdown = &delay
	d.shutdownR = reason
}

// SentTo returns the messages delivered to id.
func (d *Directory) SentTo(id ulid.ULID) []command.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []command.Result
	for _, s := range d.sent {
		if s.SessionID == id {
			out = append(out, s.Msg)
		}
	}
	return out
}

// Sent returns every delivery in order.
func (d *Directory) Sent() []Sent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.sent)
}

// Ended reports whether id was closed and why.
func (d *Directory) Ended(id ulid.ULID) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	reason, ok := d.ended[id]
	return reason, ok
}

// ShutdownRequested returns the delay of the last Shutdown call.
func (d *Directory) ShutdownRequested() (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown == nil {
		return 0, false
	}
	return *d.shutdown, true
}
