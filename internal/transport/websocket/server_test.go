// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package websocket_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yakuzadave/pymud-ss13/internal/session/sessiontest"
	"github.com/yakuzadave/pymud-ss13/internal/transport/websocket"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type frame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func start(t *testing.T) (*sessiontest.Station, string) {
	t.Helper()
	st := sessiontest.New(t)
	srv := websocket.NewServer("127.0.0.1:0", st.Manager)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return st, "ws://" + srv.Addr() + websocket.Path
}

func dial(t *testing.T, url string) *gorilla.Conn {
	t.Helper()
	conn, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func expect(t *testing.T, conn *gorilla.Conn, want string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", want)
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		if strings.Contains(f.Message, want) {
			return f
		}
	}
}

func TestServer_JSONFrames(t *testing.T) {
	st, url := start(t)
	st.Account(t, "bob", "swordfish")

	conn := dial(t, url)
	welcome := expect(t, conn, "Welcome")
	assert.Equal(t, "system", welcome.Type)

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"command": "connect bob swordfish"}`)))
	expect(t, conn, "Welcome, ")
	look := expect(t, conn, "bridge")
	assert.Equal(t, "location", look.Type)

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte("frobnicate")))
	unknown := expect(t, conn, "frobnicate")
	assert.Equal(t, "error", unknown.Type)
}

func TestServer_QuitSendsClose(t *testing.T) {
	_, url := start(t)
	conn := dial(t, url)
	expect(t, conn, "Welcome")
	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte("quit")))
	expect(t, conn, "Goodbye!")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, gorilla.IsCloseError(err, gorilla.CloseNormalClosure), "got %v", err)
}

func TestServer_ClientDropEndsSession(t *testing.T) {
	st, url := start(t)
	conn := dial(t, url)
	expect(t, conn, "Welcome")
	require.Eventually(t, func() bool { return st.Manager.Count() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return st.Manager.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
