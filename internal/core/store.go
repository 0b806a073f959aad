// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import "sync"

// DefaultRecorderSize is the number of events a Recorder keeps by default.
const DefaultRecorderSize = 256

// Recorder keeps the most recent events in a fixed-size ring. It backs the
// @events admin verb and lets tests assert on what was published.
type Recorder struct {
	mu    sync.RWMutex
	buf   []Event
	next  int
	count int
}

// NewRecorder creates a recorder holding up to size events.
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = DefaultRecorderSize
	}
	return &Recorder{buf: make([]Event, size)}
}

// Append stores ev, overwriting the oldest event when full.
func (r *Recorder) Append(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = ev
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Recent returns up to limit events, oldest first. limit <= 0 returns all.
func (r *Recorder) Recent(limit int) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > r.count {
		limit = r.count
	}
	out := make([]Event, 0, limit)
	start := (r.next - limit + len(r.buf)) % len(r.buf)
	for i := 0; i < limit; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// ByTopic returns retained events published under topic, oldest first.
func (r *Recorder) ByTopic(topic Topic) []Event {
	var out []Event
	for _, ev := range r.Recent(0) {
		if ev.Topic == topic {
			out = append(out, ev)
		}
	}
	return out
}

// Len returns the number of retained events.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Reset drops every retained event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next, r.count = 0, 0
	clear(r.buf)
}
