// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package station_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yakuzadave/pymud-ss13/internal/config"
	"github.com/yakuzadave/pymud-ss13/internal/persistence"
	"github.com/yakuzadave/pymud-ss13/internal/script"
	"github.com/yakuzadave/pymud-ss13/internal/station"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const roomsYAML = `
- id: bridge
  name: Bridge
  description: The command deck.
  components:
    room:
      exits: {south: hall}
- id: hall
  name: Main Hall
  components:
    room:
      exits: {north: bridge}
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tick := 20 * time.Millisecond
	return &config.Config{
		Host:      "127.0.0.1",
		Port:      0,
		DataDir:   t.TempDir(),
		StartRoom: "bridge",
		Ticks: config.Ticks{
			Base: 10 * time.Millisecond, Power: tick, Atmos: tick, Maintenance: tick,
			Disease: tick, Botany: tick, Plumbing: tick, NPC: tick, Events: time.Hour,
			Security: tick, Cargo: tick, Chemistry: tick,
		},
		Idle:          config.Idle{Warn: time.Minute, Timeout: 2 * time.Minute},
		Persistence:   config.Persistence{Interval: time.Hour, Keep: 3},
		Queues:        config.Queues{Input: 64, Output: 256},
		ScriptTimeout: 50 * time.Millisecond,
		Log:           config.Log{Format: "text"},
	}
}

func writeRooms(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rooms.yaml"), []byte(roomsYAML), 0o600))
}

func closeStation(t *testing.T, st *station.Station) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, st.Close(ctx))
}

func TestNew_FreshDataDir(t *testing.T) {
	cfg := testConfig(t)
	st, err := station.New(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, st.World.Has("bridge"), "start room is created")
	assert.Equal(t, []string{
		"power", "atmos", "maintenance", "disease", "botany", "plumbing",
		"npc", "events", "security", "cargo", "chemistry",
	}, st.Scheduler.Systems())
	assert.NotNil(t, st.Services.Power)
	assert.NotNil(t, st.Services.Cargo)
	assert.NotNil(t, st.Services.Registry)
	assert.Same(t, st.Sessions, st.Services.Sessions)
	assert.Nil(t, st.WebSocket, "ws_port 0 disables websocket")

	status := st.Status()
	assert.Zero(t, status.Crew)
	assert.Zero(t, status.Ticks, "New does not start the scheduler")
	assert.Len(t, status.Systems, 11)
	assert.False(t, status.Stopping)

	closeStation(t, st)
	snaps, err := st.Store.Snapshots()
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
	assert.FileExists(t, filepath.Join(cfg.DataDir, persistence.ScriptsFile))
	assert.FileExists(t, filepath.Join(cfg.DataDir, persistence.AccessLogFile))

	require.NoError(t, st.Close(context.Background()), "second close is a no-op")
}

func TestNew_ResumeFromSnapshot(t *testing.T) {
	cfg := testConfig(t)
	writeRooms(t, cfg.DataDir)

	first, err := station.New(context.Background(), cfg)
	require.NoError(t, err)
	hall, ok := first.World.Get("hall")
	require.True(t, ok)
	assert.Equal(t, "Main Hall", hall.Name)

	crate := world.NewEntity("crate", "Crate", "A supply crate.")
	crate.Location = "hall"
	crate.MustAdd(world.NewItem())
	require.NoError(t, first.World.Register(context.Background(), crate))
	_, err = first.Services.Scripts.Register(script.VerbKey("crate", "kick"), `return "thud"`, "admin", "crate", "kick")
	require.NoError(t, err)
	closeStation(t, first)

	t.Run("data files ignore runtime changes", func(t *testing.T) {
		fresh, err := station.New(context.Background(), cfg)
		require.NoError(t, err)
		defer closeStation(t, fresh)
		assert.False(t, fresh.World.Has("crate"))
		_, _, ok := fresh.Services.Scripts.Get(script.VerbKey("crate", "kick"))
		assert.True(t, ok, "scripts file is loaded")
	})

	t.Run("resume restores the snapshot", func(t *testing.T) {
		resumed := *cfg
		resumed.Persistence.Resume = true
		st, err := station.New(context.Background(), &resumed)
		require.NoError(t, err)
		defer closeStation(t, st)
		got, ok := st.World.Get("crate")
		require.True(t, ok)
		assert.Equal(t, "hall", got.Location)
		_, _, ok = st.Services.Scripts.Get(script.VerbKey("crate", "kick"))
		assert.True(t, ok)
	})
}

func TestNew_PromotesConfiguredAdmins(t *testing.T) {
	cfg := testConfig(t)
	st, err := station.New(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, st.Accounts.Create("root", "hunter22", false))
	closeStation(t, st)

	cfg.Admins = []string{"root"}
	st, err = station.New(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStation(t, st)
	assert.True(t, st.Accounts.IsAdmin("root"))
}

func runStation(t *testing.T, cfg *config.Config) (*station.Station, <-chan error) {
	t.Helper()
	st, err := station.New(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, st.Listen())
	done := make(chan error, 1)
	go func() { done <- st.Run(context.Background()) }()
	return st, done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("station did not stop")
	}
}

func TestRun_ShutdownNotifiesSessions(t *testing.T) {
	cfg := testConfig(t)
	writeRooms(t, cfg.DataDir)
	st, done := runStation(t, cfg)

	conn, err := net.Dial("tcp", st.Telnet.Addr())
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)
	expect := func(want string) {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		for {
			line, err := r.ReadString('\n')
			require.NoError(t, err, "waiting for %q", want)
			if strings.Contains(line, want) {
				return
			}
		}
	}
	expect("Welcome")
	_, err = conn.Write([]byte("create alice hunter22\r\n"))
	require.NoError(t, err)
	expect("Bridge")

	require.Eventually(t, func() bool { return st.Scheduler.Ticks() > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, st.Status().Crew)

	st.Shutdown("test over")
	assert.True(t, st.Status().Stopping)
	expect(station.ShutdownNotice)
	waitDone(t, done)

	snaps, err := st.Store.Snapshots()
	require.NoError(t, err)
	assert.NotEmpty(t, snaps)
	_, ok, err := st.Store.LoadPlayer("alice")
	require.NoError(t, err)
	assert.True(t, ok, "avatar saved on logout")
}

func TestRun_ContextCancelStops(t *testing.T) {
	cfg := testConfig(t)
	st, err := station.New(context.Background(), cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- st.Run(ctx) }()
	require.Eventually(t, func() bool { return st.Telnet.Addr() != "" }, time.Second, 10*time.Millisecond)
	cancel()
	waitDone(t, done)
}

func TestRun_BindFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := testConfig(t)
	cfg.Port = l.Addr().(*net.TCPAddr).Port
	st, err := station.New(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStation(t, st)

	err = st.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
}

// syncBuffer collects console output across goroutines.
type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

func TestConsole_QuitShutsDown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Admins = []string{"captain"}
	writeRooms(t, cfg.DataDir)
	st, done := runStation(t, cfg)

	in, feed := io.Pipe()
	out := &syncBuffer{}
	consoleDone := make(chan error, 1)
	go func() { consoleDone <- st.Console(context.Background(), in, out) }()

	_, err := io.WriteString(feed, "create captain hunter22\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Bridge") }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, st.Accounts.IsAdmin("captain"))

	_, err = io.WriteString(feed, "quit\n")
	require.NoError(t, err)
	select {
	case err := <-consoleDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("console did not end")
	}
	require.NoError(t, feed.Close())

	select {
	case <-st.Stopping():
	default:
		t.Fatal("console quit should stop the station")
	}
	waitDone(t, done)
	assert.Contains(t, out.String(), "Goodbye")
}
