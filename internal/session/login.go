// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

const welcomeBanner = "Welcome aboard the station.\n" +
	"Log in with: connect <username> <password>\n" +
	"New crew sign up with: create <username> <password>"

const loginHelp = "You must log in first. Use: connect <username> <password> or create <username> <password>"

const evictedNotice = "You have been disconnected: your character logged in from another connection."

func (m *Manager) login(ctx context.Context, s *Session, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	verb := strings.ToLower(fields[0])
	switch verb {
	case "quit", "exit":
		s.enqueue(command.Result{Type: command.TypeSystem, Text: "Goodbye!"})
		s.end("quit")
		return
	case "connect", "create":
	default:
		s.enqueue(command.Result{Type: command.TypeError, Text: loginHelp})
		return
	}
	if len(fields) != 3 {
		s.enqueue(command.Result{Type: command.TypeError, Text: "Usage: " + verb + " <username> <password>"})
		return
	}
	username, password := fields[1], fields[2]

	var admin bool
	if verb == "create" {
		admin = m.cfg.Admins(username)
		if err := m.accounts.Create(username, password, admin); err != nil {
			m.loginFailed(s, username, err)
			return
		}
	} else {
		acct, err := m.accounts.Authenticate(username, password)
		if err != nil {
			m.loginFailed(s, username, err)
			return
		}
		admin = acct.Administrator || m.cfg.Admins(username)
	}
	m.enter(ctx, s, username, admin)
}

func (m *Manager) loginFailed(s *Session, username string, err error) {
	slog.Info("login failed", "session_id", s.ID.String(), "username", username, "code", errutil.Code(err))
	if m.metrics != nil {
		m.metrics.LoginsTotal.WithLabelValues("failure").Inc()
	}
	s.enqueue(command.Result{Type: command.TypeError, Text: command.PlayerMessage(err)})
}

// enter binds s to the account's avatar, evicting any session that held it,
// announces the arrival and shows the room.
func (m *Manager) enter(ctx context.Context, s *Session, username string, admin bool) {
	charID := strings.ToLower(username)

	m.mu.Lock()
	prev := m.byCharacter[charID]
	m.byCharacter[charID] = s
	m.mu.Unlock()
	if prev != nil && prev != s {
		prev.enqueue(command.Result{Type: command.TypeSystem, Text: evictedNotice})
		prev.end("replaced")
		slog.Info("session replaced", "character_id", charID, "old_session_id", prev.ID.String(), "session_id", s.ID.String())
	}

	var (
		ent *world.Entity
		err error
	)
	m.withFence(func() {
		ent, err = m.avatar(ctx, charID, username)
		if err != nil {
			return
		}
		s.bind(username, charID, ent.Name, admin)
		m.services.World.Publish(ctx, core.TopicAvatarArrived, core.Payload{
			"player_id": charID, "name": ent.Name, "room_id": m.services.World.RoomOf(charID),
		})
	})
	if err != nil {
		m.mu.Lock()
		if m.byCharacter[charID] == s {
			delete(m.byCharacter, charID)
		}
		m.mu.Unlock()
		m.loginFailed(s, username, err)
		return
	}

	if m.metrics != nil {
		m.metrics.LoginsTotal.WithLabelValues("success").Inc()
		m.metrics.SessionsActive.Inc()
	}
	slog.Info("session authenticated", "session_id", s.ID.String(), "character_id", charID, "admin", admin)
	s.enqueue(command.Result{Type: command.TypeSystem, Text: fmt.Sprintf("Welcome, %s!", ent.Name)})
	m.dispatch(ctx, s, "look")
}

// avatar returns the character's entity: the one already in the world, a
// saved one, or a fresh crew member in the start room.
func (m *Manager) avatar(ctx context.Context, charID, username string) (*world.Entity, error) {
	w := m.services.World
	if e, ok := w.Get(charID); ok {
		if e.Has(world.KindPlayer) {
			return e, nil
		}
		return nil, command.WorldError("That name belongs to something else aboard.", nil)
	}

	if m.players != nil {
		e, ok, err := m.players.LoadPlayer(charID)
		switch {
		case err != nil:
			errutil.LogError(slog.Default(), "failed to load player, starting fresh", err)
		case ok:
			if !w.Has(e.Location) {
				e.Location = m.cfg.StartRoom
			}
			if err := w.Register(ctx, e); err != nil {
				return nil, command.WorldError("Unable to create your character. Please try again.", err)
			}
			return e, nil
		}
	}

	name, role := username, ""
	if c, ok := m.accounts.Character(username); ok {
		if c.Name != "" {
			name = c.Name
		}
		role = c.Job
	}
	e := world.NewEntity(charID, name, "A member of the station crew.")
	e.Location = m.cfg.StartRoom
	e.MustAdd(world.NewPlayer(role))
	if err := w.Register(ctx, e); err != nil {
		return nil, command.WorldError("Unable to create your character. Please try again.", err)
	}
	return e, nil
}
