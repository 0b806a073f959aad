// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import "time"

// Cadence decides when a periodic job is due. The zero value is due on every
// call.
type Cadence struct {
	interval time.Duration
	next     time.Time
	last     time.Time
}

// NewCadence returns a cadence firing every interval.
func NewCadence(interval time.Duration) Cadence {
	return Cadence{interval: interval}
}

// Interval returns the configured period.
func (c *Cadence) Interval() time.Duration { return c.interval }

// Last returns when the cadence last fired.
func (c *Cadence) Last() time.Time { return c.last }

// Due reports whether the job should run at now and, if so, schedules the
// next run. The first call only arms the cadence. Scheduling is drift-free:
// next advances by whole intervals, resetting relative to now when far behind.
func (c *Cadence) Due(now time.Time) bool {
	if c.interval <= 0 {
		c.last = now
		return true
	}
	if c.next.IsZero() {
		c.next = now.Add(c.interval)
		return false
	}
	if now.Before(c.next) {
		return false
	}
	c.last = now
	c.next = c.next.Add(c.interval)
	if c.next.Before(now) {
		c.next = now.Add(c.interval)
	}
	return true
}

// Reset re-arms the cadence so the next run is one interval after now.
func (c *Cadence) Reset(now time.Time) {
	c.next = now.Add(c.interval)
}
