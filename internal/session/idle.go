// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yakuzadave/pymud-ss13/internal/command"
)

// DefaultIdleCheck is how often Watch scans for idle sessions.
const DefaultIdleCheck = 30 * time.Second

// Watch runs the idle watchdog until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = DefaultIdleCheck
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.CheckIdle(m.now())
		}
	}
}

// CheckIdle warns sessions idle past IdleWarn once and disconnects those
// idle past IdleTimeout.
func (m *Manager) CheckIdle(now time.Time) {
	for _, s := range m.snapshot() {
		idle := now.Sub(s.idleSince())
		switch {
		case m.cfg.IdleTimeout > 0 && idle >= m.cfg.IdleTimeout:
			slog.Info("disconnecting idle session", "session_id", s.ID.String(), "idle", idle)
			s.enqueue(command.Result{Type: command.TypeSystem, Text: "You have been disconnected for inactivity."})
			s.end("idle")
		case m.cfg.IdleWarn > 0 && idle >= m.cfg.IdleWarn && s.markWarned():
			left := m.cfg.IdleTimeout - idle
			text := fmt.Sprintf("You have been idle for %s.", idle.Round(time.Minute))
			if m.cfg.IdleTimeout > 0 {
				text += fmt.Sprintf(" You will be disconnected in %s.", left.Round(time.Minute))
			}
			s.enqueue(command.Result{Type: command.TypeSystem, Text: text})
		}
	}
}
