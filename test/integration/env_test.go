// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/yakuzadave/pymud-ss13/internal/config"
	"github.com/yakuzadave/pymud-ss13/internal/station"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// sampleData is the repository's data directory, relative to this package.
const sampleData = "../../data"

// copyData copies the sample data files into a fresh directory so a spec
// can edit tables and write snapshots without touching the originals.
func copyData() string {
	dir := GinkgoT().TempDir()
	entries, err := os.ReadDir(sampleData)
	Expect(err).NotTo(HaveOccurred())
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(sampleData, e.Name()))
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(filepath.Join(dir, e.Name()), data, 0o600)).To(Succeed())
	}
	return dir
}

// writeTable replaces one data file in dir.
func writeTable(dir, name, body string) {
	Expect(os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600)).To(Succeed())
}

func testConfig(dataDir string) *config.Config {
	tick := 50 * time.Millisecond
	return &config.Config{
		Host:      "127.0.0.1",
		Port:      0,
		DataDir:   dataDir,
		StartRoom: "bridge",
		Ticks: config.Ticks{
			Base: 10 * time.Millisecond, Power: tick, Atmos: tick, Maintenance: tick,
			Disease: time.Hour, Botany: tick, Plumbing: tick, NPC: time.Hour, Events: time.Hour,
			Security: tick, Cargo: tick, Chemistry: tick,
		},
		Idle:          config.Idle{Warn: time.Minute, Timeout: 2 * time.Minute},
		Persistence:   config.Persistence{Interval: time.Hour, Keep: 3},
		Queues:        config.Queues{Input: 64, Output: 256},
		MoveCooldown:  5 * time.Second,
		ScriptTimeout: 100 * time.Millisecond,
		Log:           config.Log{Format: "text"},
	}
}

// newStation builds a station without starting its scheduler, so specs
// can tick subsystems by hand.
func newStation(cfg *config.Config) *station.Station {
	st, err := station.New(context.Background(), cfg)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(st.Close(ctx)).To(Succeed())
	})
	return st
}

// runStation starts a station with its listeners and scheduler and stops
// it when the spec ends.
func runStation(cfg *config.Config) *station.Station {
	st, err := station.New(context.Background(), cfg)
	Expect(err).NotTo(HaveOccurred())
	Expect(st.Listen()).To(Succeed())
	done := make(chan error, 1)
	go func() { done <- st.Run(context.Background()) }()
	DeferCleanup(func() {
		st.Shutdown("spec finished")
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})
	return st
}

// addPlayer registers an avatar in room.
func addPlayer(st *station.Station, id, room string) *world.Player {
	p := world.NewPlayer("crew")
	e := world.NewEntity(id, id, "A crew member.")
	e.Location = room
	e.MustAdd(p)
	Expect(st.World.Register(context.Background(), e)).To(Succeed())
	return p
}

// addRoom registers an empty room.
func addRoom(st *station.Station, id string) {
	e := world.NewEntity(id, id, "")
	e.MustAdd(world.NewRoom())
	Expect(st.World.Register(context.Background(), e)).To(Succeed())
}

// telnetClient is a line-oriented player connection.
type telnetClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func dial(st *station.Station) *telnetClient {
	conn, err := net.Dial("tcp", st.Telnet.Addr())
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(conn.Close)
	return &telnetClient{conn: conn, r: bufio.NewReader(conn)}
}

func (c *telnetClient) send(line string) {
	_, err := c.conn.Write([]byte(line + "\r\n"))
	Expect(err).NotTo(HaveOccurred())
}

// expect reads lines until one contains want and returns everything read.
func (c *telnetClient) expect(want string) string {
	GinkgoHelper()
	Expect(c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))).To(Succeed())
	var seen strings.Builder
	for {
		line, err := c.r.ReadString('\n')
		seen.WriteString(line)
		Expect(err).NotTo(HaveOccurred(), "waiting for %q, got:\n%s", want, seen.String())
		if strings.Contains(line, want) {
			return seen.String()
		}
	}
}

// location returns where id is, or "" when it is not registered.
func location(st *station.Station, id string) string {
	e, ok := st.World.Get(id)
	if !ok {
		return ""
	}
	return e.Location
}
