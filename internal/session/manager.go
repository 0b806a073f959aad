// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/auth"
	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/logging"
	"github.com/yakuzadave/pymud-ss13/internal/observability"
	"github.com/yakuzadave/pymud-ss13/internal/scheduler"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

// Queue sizes used when Config leaves them zero.
const (
	DefaultInputQueue  = 64
	DefaultOutputQueue = 256
)

// Accounts verifies and creates logins.
type Accounts interface {
	Authenticate(username, password string) (auth.Account, error)
	Create(username, password string, admin bool) error
	Character(username string) (auth.Character, bool)
}

// PlayerStore loads and saves avatars between logins.
type PlayerStore interface {
	LoadPlayer(id string) (*world.Entity, bool, error)
	SavePlayer(e *world.Entity) error
}

// Config tunes the manager.
type Config struct {
	StartRoom   string
	IdleWarn    time.Duration
	IdleTimeout time.Duration
	InputQueue  int
	OutputQueue int
	// Admins reports whether a username is promoted by configuration.
	Admins func(username string) bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithPlayerStore loads and saves avatars through ps.
func WithPlayerStore(ps PlayerStore) Option { return func(m *Manager) { m.players = ps } }

// WithFence serializes avatar creation and removal with ticks and commands.
func WithFence(f *scheduler.Fence) Option { return func(m *Manager) { m.fence = f } }

// WithMetrics records connection and login counters.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithRateLimiter lets the manager forget buckets of closed sessions.
func WithRateLimiter(rl *command.RateLimiter) Option { return func(m *Manager) { m.limiter = rl } }

// WithShutdown sets the function Shutdown calls once its delay passes.
func WithShutdown(fn func(reason string)) Option { return func(m *Manager) { m.onShutdown = fn } }

// WithClock replaces time.Now for activity tracking.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// Manager owns every session and implements command.Directory.
type Manager struct {
	cfg        Config
	services   *command.Services
	dispatcher *command.Dispatcher
	accounts   Accounts
	players    PlayerStore
	fence      *scheduler.Fence
	metrics    *observability.Metrics
	limiter    *command.RateLimiter
	onShutdown func(reason string)
	now        func() time.Time

	mu          sync.RWMutex
	sessions    map[ulid.ULID]*Session
	byCharacter map[string]*Session
	shutdownT   *time.Timer
	wg          sync.WaitGroup
}

var _ command.Directory = (*Manager)(nil)

// NewManager creates a manager and makes it the services' directory.
func NewManager(cfg Config, services *command.Services, dispatcher *command.Dispatcher, accounts Accounts, opts ...Option) *Manager {
	if cfg.InputQueue <= 0 {
		cfg.InputQueue = DefaultInputQueue
	}
	if cfg.OutputQueue <= 0 {
		cfg.OutputQueue = DefaultOutputQueue
	}
	if cfg.Admins == nil {
		cfg.Admins = func(string) bool { return false }
	}
	m := &Manager{
		cfg:         cfg,
		services:    services,
		dispatcher:  dispatcher,
		accounts:    accounts,
		now:         time.Now,
		sessions:    make(map[ulid.ULID]*Session),
		byCharacter: make(map[string]*Session),
	}
	for _, o := range opts {
		o(m)
	}
	services.Sessions = m
	return m
}

// Connect registers a new client, queues the welcome banner and starts its
// worker. The worker stops when ctx is cancelled or the session ends.
func (m *Manager) Connect(ctx context.Context, transport, remote string) *Session {
	s := newSession(transport, remote, m.cfg.InputQueue, m.cfg.OutputQueue, m.now())
	s.onDrop = m.recordDrop
	sctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.ConnectionsTotal.WithLabelValues(transport).Inc()
	}
	slog.Info("session connected", "session_id", s.ID.String(), "transport", transport, "remote", remote)

	s.enqueue(command.Result{Type: command.TypeSystem, Text: welcomeBanner})
	s.setState(StateAuthenticating)

	m.wg.Add(1)
	go m.work(sctx, s)
	return s
}

// Disconnect ends s, for example when its connection drops, and waits for
// teardown: on return s is gone from the table and its avatar is saved.
// Never call it from the session's own worker; commands use EndSession.
func (m *Manager) Disconnect(s *Session, reason string) {
	s.end(reason)
	<-s.Done()
}

// Get returns the session with id.
func (m *Manager) Get(id ulid.ULID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns how many sessions are connected, logged in or not.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Session) int { return a.ID.Compare(b.ID) })
	return out
}

func (m *Manager) byCharacterID(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byCharacter[id]
	return s, ok
}

func (m *Manager) work(ctx context.Context, s *Session) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			m.teardown(s)
			return
		case line := <-s.in:
			m.handle(ctx, s, line)
		}
	}
}

func (m *Manager) handle(ctx context.Context, s *Session, line string) {
	s.touch(m.now())
	switch s.State() {
	case StateAuthenticating:
		m.login(ctx, s, line)
	case StateActive:
		m.dispatch(ctx, s, line)
	}
}

func (m *Manager) dispatch(ctx context.Context, s *Session, line string) {
	s.mu.Lock()
	exec := &command.CommandExecution{
		SessionID:   s.ID,
		CharacterID: s.charID,
		Admin:       s.admin,
		Services:    m.services,
	}
	s.mu.Unlock()

	ctx = logging.With(ctx, "session_id", s.ID.String(), "character_id", exec.CharacterID, "transport", s.Transport)
	res, err := m.dispatcher.Dispatch(ctx, exec, line)
	s.enqueue(res)
	if err != nil && !errors.Is(err, command.ErrSessionEnded) {
		slog.DebugContext(ctx, "command failed", "code", errutil.Code(err))
	}
}

// withFence runs fn as a command under the world fence, if one is set.
func (m *Manager) withFence(fn func()) {
	if m.fence != nil {
		m.fence.Command(fn)
		return
	}
	fn()
}

// teardown runs once on the session worker. The avatar is saved and removed
// only while this session still owns the character; a newer login for the
// same character keeps it.
func (m *Manager) teardown(s *Session) {
	ctx := context.Background()
	s.end("server shutdown")
	charID := s.CharacterID()

	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	if charID != "" {
		m.withFence(func() {
			m.mu.Lock()
			owner := m.byCharacter[charID] == s
			if owner {
				delete(m.byCharacter, charID)
			}
			m.mu.Unlock()
			if owner {
				m.removeAvatar(ctx, charID)
			}
		})
	}

	if m.services.Aliases != nil {
		m.services.Aliases.ClearSession(s.ID)
	}
	if m.limiter != nil {
		m.limiter.Forget(s.ID)
	}
	if charID != "" && m.metrics != nil {
		m.metrics.SessionsActive.Dec()
	}
	s.setState(StateClosed)
	close(s.done)
	slog.Info("session closed", "session_id", s.ID.String(), "character_id", charID, "reason", s.Reason())
}

func (m *Manager) removeAvatar(ctx context.Context, charID string) {
	w := m.services.World
	e, ok := w.Get(charID)
	if !ok {
		return
	}
	room := w.RoomOf(charID)
	if m.players != nil {
		if err := m.players.SavePlayer(e); err != nil {
			errutil.LogError(slog.Default(), "failed to save player", err)
		}
	}
	w.Publish(ctx, core.TopicAvatarDeparted, core.Payload{"player_id": charID, "name": e.Name, "room_id": room})
	if err := w.Remove(ctx, charID); err != nil {
		errutil.LogError(slog.Default(), "failed to remove avatar", err)
	}
}

func (m *Manager) recordDrop(s *Session) {
	slog.Warn("session output queue overflowed", "session_id", s.ID.String(), "transport", s.Transport)
	if m.metrics != nil {
		m.metrics.OutputDropped.WithLabelValues(s.Transport).Inc()
	}
}

// Online implements command.Directory.
func (m *Manager) Online() []command.Presence {
	w := m.services.World
	var out []command.Presence
	for _, s := range m.snapshot() {
		if s.State() != StateActive {
			continue
		}
		out = append(out, s.presence(w.RoomOf(s.CharacterID())))
	}
	return out
}

// Send implements command.Directory.
func (m *Manager) Send(id ulid.ULID, msg command.Result) {
	if s, ok := m.Get(id); ok {
		s.enqueue(msg)
	}
}

// Notify sends text to the session controlling the avatar charID, if any.
func (m *Manager) Notify(_ context.Context, charID, text string) {
	if s, ok := m.byCharacterID(charID); ok {
		s.enqueue(command.Result{Type: command.TypeSystem, Text: text})
	}
}

// BroadcastAll implements command.Directory.
func (m *Manager) BroadcastAll(msg command.Result, except ...ulid.ULID) {
	for _, s := range m.snapshot() {
		if s.State() == StateActive && !slices.Contains(except, s.ID) {
			s.enqueue(msg)
		}
	}
}

// BroadcastRoom implements command.Directory.
func (m *Manager) BroadcastRoom(roomID string, msg command.Result, except ...ulid.ULID) {
	if roomID == "" {
		return
	}
	w := m.services.World
	for _, s := range m.snapshot() {
		if s.State() != StateActive || slices.Contains(except, s.ID) {
			continue
		}
		if w.RoomOf(s.CharacterID()) == roomID {
			s.enqueue(msg)
		}
	}
}

// EndSession implements command.Directory. The session's pending output is
// still delivered; teardown happens on its own worker.
func (m *Manager) EndSession(id ulid.ULID, reason string) error {
	s, ok := m.Get(id)
	if !ok {
		return oops.Code(command.CodeNotFound).With("session_id", id.String()).Errorf("session not found")
	}
	s.end(reason)
	return nil
}

// Shutdown implements command.Directory.
func (m *Manager) Shutdown(delay time.Duration, reason string) {
	if m.onShutdown == nil {
		slog.Warn("shutdown requested but no handler is set", "reason", reason)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shutdownT != nil {
		m.shutdownT.Stop()
	}
	slog.Info("shutdown scheduled", "delay", delay, "reason", reason)
	m.shutdownT = time.AfterFunc(delay, func() { m.onShutdown(reason) })
}

// Close sends notice to every session, ends them all and waits for their
// workers, or for ctx.
func (m *Manager) Close(ctx context.Context, notice string) error {
	m.mu.Lock()
	if m.shutdownT != nil {
		m.shutdownT.Stop()
	}
	m.mu.Unlock()

	for _, s := range m.snapshot() {
		if notice != "" {
			s.enqueue(command.Result{Type: command.TypeSystem, Text: notice})
		}
		s.end("server shutdown")
	}
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return oops.Code("SESSION_DRAIN_TIMEOUT").Wrap(ctx.Err())
	}
}
