// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import "sync"

// Fence orders access to the world between the tick worker, command
// handlers and persistence. Ticks and snapshots are exclusive; commands run
// one at a time and may overlap with read-only observers.
type Fence struct {
	rw  sync.RWMutex
	cmd sync.Mutex
}

// Command runs fn as a world-mutating command.
func (f *Fence) Command(fn func()) {
	f.cmd.Lock()
	defer f.cmd.Unlock()
	f.rw.RLock()
	defer f.rw.RUnlock()
	fn()
}

// Read runs fn alongside commands without excluding them. fn must not mutate.
func (f *Fence) Read(fn func()) {
	f.rw.RLock()
	defer f.rw.RUnlock()
	fn()
}

// Exclusive runs fn with the world to itself.
func (f *Fence) Exclusive(fn func()) {
	f.rw.Lock()
	defer f.rw.Unlock()
	fn()
}
