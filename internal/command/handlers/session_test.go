// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/command/handlers"
	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

func TestSayHandler_PublishesChat(t *testing.T) {
	env, _ := stationEnv(t)

	exec, out := env.Exec("alice").WithArgs("  hello crew ").Build()
	require.NoError(t, run(t, handlers.SayHandler, exec))

	assert.Equal(t, "You say: hello crew\n", out.String())
	assert.Equal(t, command.TypeChat, exec.Type)
	said := env.Rec.ByTopic(core.TopicPlayerSaid)
	require.Len(t, said, 1)
	assert.Equal(t, "bridge", said[0].Payload["room_id"])
	assert.Equal(t, "hello crew", said[0].Payload["message"])

	exec, _ = env.Exec("alice").Build()
	assert.Equal(t, "Say what?", command.PlayerMessage(run(t, handlers.SayHandler, exec)))
}

func TestWhisperHandler_NeedsSomeoneHere(t *testing.T) {
	env, _ := stationEnv(t)
	env.Player("bob", "bridge")
	env.Player("carol", "hall")

	exec, out := env.Exec("alice").WithArgs("bob psst").Build()
	require.NoError(t, run(t, handlers.WhisperHandler, exec))
	assert.Equal(t, "You whisper to bob: psst\n", out.String())

	exec, _ = env.Exec("alice").WithArgs("carol psst").Build()
	assert.Equal(t, "There is nobody called 'carol' here.", command.PlayerMessage(run(t, handlers.WhisperHandler, exec)))
}

func TestWhoHandler_ListsLoggedInPlayers(t *testing.T) {
	env, _ := stationEnv(t)
	env.Dir.Connect(command.Presence{CharacterID: "alice", Name: "Alice", Room: "bridge", LastActivity: env.Now().Add(-90 * time.Second)})
	env.Dir.Connect(command.Presence{CharacterID: "bob", Name: "Bob", Room: "hall", LastActivity: env.Now()})
	env.Dir.Connect(command.Presence{})

	exec, out := env.Exec("alice").Build()
	require.NoError(t, run(t, handlers.WhoHandler, exec))
	assert.Equal(t, "Crew aboard (2):\n"+
		"  Alice                 idle 1m30s\n"+
		"  Bob                   active\n", out.String())

	exec, out = env.Exec("alice").AsAdmin().Build()
	require.NoError(t, run(t, handlers.WhoHandler, exec))
	assert.Contains(t, out.String(), "idle 1m30s  bridge")
	assert.Contains(t, out.String(), "active      hall")
}

func TestWhoHandler_Empty(t *testing.T) {
	env, _ := stationEnv(t)
	exec, out := env.Exec("alice").Build()
	require.NoError(t, run(t, handlers.WhoHandler, exec))
	assert.Equal(t, "Nobody is aboard.\n", out.String())
}

func TestQuitHandler_EndsSession(t *testing.T) {
	env, _ := stationEnv(t)
	sid := env.Dir.Connect(command.Presence{CharacterID: "alice", Name: "alice"})

	exec, out := env.Exec("alice").WithSession(sid).Build()
	err := run(t, handlers.QuitHandler, exec)
	require.ErrorIs(t, err, command.ErrSessionEnded)
	assert.Equal(t, "Goodbye!\n", out.String())

	reason, ended := env.Dir.Ended(sid)
	assert.True(t, ended)
	assert.Equal(t, "quit", reason)
}

func TestQuitHandler_EndFailure(t *testing.T) {
	env, _ := stationEnv(t)
	env.Dir.EndErr = errors.New("already closed")

	exec, _ := env.Exec("alice").Build()
	err := run(t, handlers.QuitHandler, exec)
	errutil.AssertErrorCode(t, err, command.CodeWorldError)
	assert.Equal(t, "Unable to end session. Please try again.", command.PlayerMessage(err))
}

func TestBootHandler(t *testing.T) {
	t.Run("self boot is allowed", func(t *testing.T) {
		env, _ := stationEnv(t)
		sid := env.Dir.Connect(command.Presence{CharacterID: "alice", Name: "alice"})

		exec, out := env.Exec("alice").WithSession(sid).WithArgs("alice").Build()
		require.ErrorIs(t, run(t, handlers.BootHandler, exec), command.ErrSessionEnded)
		assert.Equal(t, "Disconnecting...\n", out.String())
		_, ended := env.Dir.Ended(sid)
		assert.True(t, ended)
	})

	t.Run("players cannot boot others", func(t *testing.T) {
		env, _ := stationEnv(t)
		env.Dir.Connect(command.Presence{CharacterID: "bob", Name: "Bob"})

		exec, _ := env.Exec("alice").WithArgs("bob").Build()
		errutil.AssertErrorCode(t, run(t, handlers.BootHandler, exec), command.CodePermissionDenied)
	})

	t.Run("admin boots with reason", func(t *testing.T) {
		env, _ := stationEnv(t)
		bob := env.Dir.Connect(command.Presence{CharacterID: "bob", Name: "Bob"})

		exec, out := env.Exec("alice").AsAdmin().WithArgs("Bob spamming").Build()
		require.NoError(t, run(t, handlers.BootHandler, exec))
		assert.Equal(t, "Bob has been booted. Reason: spamming\n", out.String())

		notices := env.Dir.SentTo(bob)
		require.Len(t, notices, 1)
		assert.Equal(t, "You have been disconnected by alice. Reason: spamming", notices[0].Text)
		reason, ended := env.Dir.Ended(bob)
		assert.True(t, ended)
		assert.Equal(t, "booted", reason)
	})

	t.Run("unknown player", func(t *testing.T) {
		env, _ := stationEnv(t)
		exec, _ := env.Exec("alice").AsAdmin().WithArgs("ghost").Build()
		err := run(t, handlers.BootHandler, exec)
		errutil.AssertErrorCode(t, err, command.CodeNotFound)
		assert.Equal(t, "No player named 'ghost' is online.", command.PlayerMessage(err))
	})
}

func TestWallHandler_BroadcastsToEverySession(t *testing.T) {
	env, _ := stationEnv(t)
	a := env.Dir.Connect(command.Presence{CharacterID: "alice", Name: "alice"})
	env.Dir.Connect(command.Presence{CharacterID: "bob", Name: "Bob"})

	exec, out := env.Exec("alice").AsAdmin().WithSession(a).WithArgs("critical hull breach").Build()
	require.NoError(t, run(t, handlers.WallHandler, exec))
	assert.Equal(t, "Announcement sent to 2 sessions.\n", out.String())

	sent := env.Dir.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, command.TypeBroadcast, sent[0].Msg.Type)
	assert.Equal(t, "[ADMIN CRITICAL] alice: hull breach", sent[0].Msg.Text)

	exec, _ = env.Exec("alice").AsAdmin().WithArgs("   ").Build()
	errutil.AssertErrorCode(t, run(t, handlers.WallHandler, exec), command.CodeInvalidArgs)
}

func TestShutdownHandler(t *testing.T) {
	env, _ := stationEnv(t)
	env.Dir.Connect(command.Presence{CharacterID: "bob", Name: "Bob"})

	exec, out := env.Exec("alice").AsAdmin().WithArgs("30").Build()
	require.NoError(t, run(t, handlers.ShutdownHandler, exec))
	assert.Equal(t, "Initiating server shutdown in 30s...\n", out.String())

	delay, requested := env.Dir.ShutdownRequested()
	assert.True(t, requested)
	assert.Equal(t, 30*time.Second, delay)
	sent := env.Dir.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "[SHUTDOWN] Server shutting down in 30s.", sent[0].Msg.Text)

	exec, _ = env.Exec("alice").AsAdmin().WithArgs("2m").Build()
	require.NoError(t, run(t, handlers.ShutdownHandler, exec))
	delay, _ = env.Dir.ShutdownRequested()
	assert.Equal(t, 2*time.Minute, delay)

	for _, bad := range []string{"-5", "-1m", "soon"} {
		exec, _ = env.Exec("alice").AsAdmin().WithArgs(bad).Build()
		errutil.AssertErrorCode(t, run(t, handlers.ShutdownHandler, exec), command.CodeInvalidArgs)
	}
}

func TestAliasLifecycle(t *testing.T) {
	env, _ := stationEnv(t)
	handlers.RegisterAll(env.Services.Registry)
	sid := env.Dir.Connect(command.Presence{CharacterID: "alice", Name: "alice"})
	exec := func(args string) (*command.CommandExecution, *bytes.Buffer) {
		return env.Exec("alice").WithSession(sid).WithArgs(args).Build()
	}

	e, out := exec("")
	require.NoError(t, run(t, handlers.AliasHandler, e))
	assert.Equal(t, "No aliases defined.\n", out.String())

	e, out = exec("gn go north")
	require.NoError(t, run(t, handlers.AliasHandler, e))
	assert.Equal(t, "Alias 'gn' set to 'go north'.\n", out.String())

	e, out = exec("look examine")
	require.NoError(t, run(t, handlers.AliasHandler, e))
	assert.Contains(t, out.String(), "Warning: 'look' is an existing command.")

	e, out = exec("")
	require.NoError(t, run(t, handlers.AliasHandler, e))
	assert.Equal(t, "Your aliases:\n  gn = go north\n  look = examine\n", out.String())

	e, out = exec("gn")
	require.NoError(t, run(t, handlers.UnaliasHandler, e))
	assert.Equal(t, "Alias 'gn' removed.\n", out.String())

	e, out = exec("gn")
	require.NoError(t, run(t, handlers.UnaliasHandler, e))
	assert.Equal(t, "No alias named 'gn'.\n", out.String())
}
