// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package session tracks connected clients: their login state, bounded
// input and output queues, the avatar they control, and fan-out of world
// events as text.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/command"
)

// State is a session's place in its lifecycle.
type State int32

// Session states. A session only moves forward.
const (
	StateConnecting State = iota
	StateAuthenticating
	StateActive
	StateDisconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateDisconnecting:
		return "disconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CodeInputFull is returned by Submit when the input queue is full.
const CodeInputFull = "SESSION_INPUT_FULL"

// Session is one connected client.
type Session struct {
	ID         ulid.ULID
	Transport  string
	RemoteAddr string

	state    atomic.Int32
	in       chan string
	out      chan command.Result
	done     chan struct{}
	cancel   context.CancelFunc
	onDrop   func(*Session)
	endOnce  sync.Once
	mu       sync.Mutex
	reason   string
	username string
	charID   string
	name     string
	admin    bool
	lastSeen time.Time
	warned   bool
}

func newSession(transport, remote string, inSize, outSize int, now time.Time) *Session {
	return &Session{
		ID:         ulid.Make(),
		Transport:  transport,
		RemoteAddr: remote,
		in:         make(chan string, inSize),
		out:        make(chan command.Result, outSize),
		done:       make(chan struct{}),
		lastSeen:   now,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

// Outbox is drained by the transport writer.
func (s *Session) Outbox() <-chan command.Result { return s.out }

// Done is closed once the session is torn down. Messages queued before that
// stay readable from Outbox.
func (s *Session) Done() <-chan struct{} { return s.done }

// Deliver hands queued output to write until the session closes, then
// flushes whatever is still queued. It stops at the first write error.
func (s *Session) Deliver(write func(command.Result) error) error {
	for {
		select {
		case msg := <-s.out:
			if err := write(msg); err != nil {
				return err
			}
		case <-s.done:
			for {
				select {
				case msg := <-s.out:
					if err := write(msg); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		}
	}
}

// Reason returns why the session ended, or "".
func (s *Session) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// CharacterID returns the bound avatar id, or "" before login.
func (s *Session) CharacterID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.charID
}

// Username returns the account name, or "" before login.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Submit queues one line of client input. Raw text and {"command": "..."}
// are both accepted. A full queue rejects the line with an error message.
func (s *Session) Submit(line string) error {
	switch s.State() {
	case StateDisconnecting, StateClosed:
		return nil
	}
	select {
	case s.in <- DecodeInput(line):
		return nil
	default:
		s.enqueue(command.Result{Type: command.TypeError, Text: "Too many commands queued. Please wait."})
		return oops.Code(CodeInputFull).With("session_id", s.ID.String()).Errorf("input queue full")
	}
}

// enqueue never blocks. An overflowing output queue ends the session.
func (s *Session) enqueue(msg command.Result) {
	if msg.Empty() || s.State() == StateClosed {
		return
	}
	select {
	case s.out <- msg:
	default:
		if s.onDrop != nil {
			s.onDrop(s)
		}
		s.end("output overflow")
	}
}

// end requests teardown. Only the first reason sticks.
func (s *Session) end(reason string) {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.reason = reason
		s.mu.Unlock()
		s.setState(StateDisconnecting)
		if s.cancel != nil {
			s.cancel()
		}
	})
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.warned = false
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// markWarned reports whether this is the first warning since last activity.
func (s *Session) markWarned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.warned {
		return false
	}
	s.warned = true
	return true
}

func (s *Session) bind(username, charID, name string, admin bool) {
	s.mu.Lock()
	s.username, s.charID, s.name, s.admin = username, charID, name, admin
	s.mu.Unlock()
	s.setState(StateActive)
}

func (s *Session) presence(room string) command.Presence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return command.Presence{
		SessionID:    s.ID,
		CharacterID:  s.charID,
		Name:         s.name,
		Room:         room,
		Admin:        s.admin,
		LastActivity: s.lastSeen,
	}
}

func (s *Session) isAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admin
}
