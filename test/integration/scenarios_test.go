// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/yakuzadave/pymud-ss13/internal/config"
	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/persistence"
	"github.com/yakuzadave/pymud-ss13/internal/station"
	"github.com/yakuzadave/pymud-ss13/internal/systems/atmos"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

var t0 = time.Unix(1_700_000_000, 0)

var _ = Describe("Station boot", func() {
	It("loads every sample data file", func() {
		st := newStation(testConfig(copyData()))

		for _, id := range []string{"bridge", "hallway", "engineering", "engineering_door", "captain_id", "npc_chef"} {
			Expect(st.World.Has(id)).To(BeTrue(), "missing %s", id)
		}
		Expect(st.Services.Power.RoomPowered("bridge")).To(BeTrue())
		Expect(st.Services.Atmos.Tiles()).NotTo(BeNil())
		Expect(st.Services.Disease.Known()).To(ContainElements("flu", "virus_x"))
		Expect(st.Services.Cargo.Credits("cargo")).To(Equal(1000))
	})
})

var _ = Describe("Basic movement", func() {
	var (
		st     *station.Station
		client *telnetClient
	)

	BeforeEach(func() {
		cfg := testConfig(copyData())
		cfg.StartRoom = "cargo_bay"
		st = runStation(cfg)
		client = dial(st)
		client.expect("Welcome aboard")
		client.send("create alice hunter22")
		client.expect("Cargo Bay")
	})

	It("lists exits on look", func() {
		client.send("look")
		Expect(client.expect("Exits:")).To(MatchRegexp(`Exits: .*north`))
	})

	It("moves north and then enforces the move cooldown", func() {
		client.send("go north")
		client.expect("Central Hallway")
		Expect(location(st, "alice")).To(Equal("hallway"))

		client.send("go north")
		client.expect("wait")
		Expect(location(st, "alice")).To(Equal("hallway"))
	})

	It("persists the avatar when the player quits", func() {
		client.send("go north")
		client.expect("Central Hallway")
		client.send("quit")
		client.expect("Goodbye")

		Eventually(func() string {
			e, ok, err := st.Store.LoadPlayer("alice")
			if err != nil || !ok {
				return ""
			}
			return e.Location
		}, 3*time.Second, 20*time.Millisecond).Should(Equal("hallway"))
	})
})

var _ = Describe("Container round-trip", func() {
	It("respects capacity and membership", func() {
		st := newStation(testConfig(copyData()))
		box := world.NewContainer()
		box.Capacity = 2
		e := world.NewEntity("box1", "box", "A small box.")
		e.Location = "cargo_bay"
		e.MustAdd(box)
		Expect(st.World.Register(context.Background(), e)).To(Succeed())

		Expect(box.AddItem("wrench")).To(BeTrue())
		Expect(box.AddItem("wrench")).To(BeFalse())
		Expect(box.RemoveItem("wrench")).To(BeTrue())
		Expect(box.AddItem("wrench")).To(BeTrue())
		Expect(box.ItemIDs()).To(Equal([]string{"wrench"}))
	})
})

var _ = Describe("Door with ID card", func() {
	var (
		st  *station.Station
		ctx context.Context
	)

	door := func(id string, level int) *world.Door {
		d := world.NewDoor()
		d.Locked = true
		d.AccessLevel = level
		d.Destination = "kitchen"
		e := world.NewEntity(id, id, "")
		e.Location = "cargo_bay"
		e.MustAdd(d)
		Expect(st.World.Register(ctx, e)).To(Succeed())
		return d
	}

	BeforeEach(func() {
		ctx = context.Background()
		st = newStation(testConfig(copyData()))
		addPlayer(st, "bob", "cargo_bay")
		Expect(st.World.GiveItem(ctx, "bob", "engineer_id")).To(Succeed())
		Expect(st.World.AccessLevel("bob")).To(Equal(30))
	})

	It("opens a door below the card's level", func() {
		d := door("pantry_door", 20)
		out := d.TryOpen(ctx, st.World, "bob", st.World.AccessLevel("bob"))
		Expect(out.OK).To(BeTrue())
		Expect(out.Text).To(Equal("You open the pantry_door."))
		Expect(d.Open).To(BeTrue())
	})

	It("refuses a door above the card's level", func() {
		d := door("vault_door", 50)
		out := d.TryOpen(ctx, st.World, "bob", st.World.AccessLevel("bob"))
		Expect(out.OK).To(BeFalse())
		Expect(out.Text).To(ContainSubstring("locked"))
		Expect(d.Open).To(BeFalse())
		Expect(d.Locked).To(BeTrue())
		Expect(st.Recorder.ByTopic(core.TopicAccessDenied)).To(HaveLen(1))
	})
})

var _ = Describe("Power failure cascade", func() {
	It("drops consumers when fuel runs out and restores them from a battery", func() {
		ctx := context.Background()
		st := newStation(testConfig(copyData()))
		pw := st.Services.Power
		addRoom(st, "substation")
		lamp := world.NewPowerConsumer()
		lamp.GridID = "substation"
		lamp.Load = 10
		e := world.NewEntity("lamp", "lamp", "")
		e.Location = "substation"
		e.MustAdd(lamp)
		Expect(st.World.Register(ctx, e)).To(Succeed())

		pw.AddGrid("substation", "Substation", []string{"substation"}, 100)
		Expect(pw.AddGenerator("sub_gen", "substation", 50)).To(Succeed())
		Expect(pw.Tick(ctx, t0)).To(Succeed())
		Expect(pw.RoomPowered("substation")).To(BeTrue())
		Expect(lamp.Active).To(BeTrue())

		Expect(pw.SetFuel("sub_gen", 0)).To(Succeed())
		Expect(pw.Tick(ctx, t0.Add(time.Second))).To(Succeed())
		gen, ok := pw.Generator("sub_gen")
		Expect(ok).To(BeTrue())
		Expect(gen.Active).To(BeFalse())
		Expect(lamp.Active).To(BeFalse())
		Expect(gridEvents(st, core.TopicPowerLoss, "substation")).To(Equal(1))

		Expect(pw.AddBattery("sub_bat", "substation", 50, 100)).To(Succeed())
		Expect(pw.Tick(ctx, t0.Add(30*time.Second))).To(Succeed())
		Expect(pw.RoomPowered("substation")).To(BeTrue())
		Expect(lamp.Active).To(BeTrue())
		Expect(gridEvents(st, core.TopicPowerRestored, "substation")).To(Equal(1))
	})
})

func gridEvents(st *station.Station, topic core.Topic, grid string) int {
	n := 0
	for _, ev := range st.Recorder.ByTopic(topic) {
		if ev.Payload.String("grid_id") == grid {
			n++
		}
	}
	return n
}

var _ = Describe("Disease spread", func() {
	var (
		st  *station.Station
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir := copyData()
		writeTable(dir, persistence.DiseasesFile, `
- id: flu
  name: Space Flu
  damage_per_tick: 0.3
  transmission_chance: 1.0
`)
		st = newStation(testConfig(dir))
	})

	It("infects a roommate after one tick", func() {
		addPlayer(st, "alice", "medbay")
		bob := addPlayer(st, "bob", "medbay")
		Expect(st.Services.Disease.Infect(ctx, "alice", "flu")).To(Succeed())

		Expect(st.Services.Disease.Tick(ctx, t0)).To(Succeed())
		Expect(bob.HasDisease("flu")).To(BeTrue())
	})

	It("is blocked by a hazmat suit", func() {
		addPlayer(st, "alice", "medbay")
		bob := addPlayer(st, "bob", "medbay")
		Expect(st.World.GiveItem(ctx, "bob", "hazmat_suit")).To(Succeed())
		Expect(st.Services.Disease.Infect(ctx, "alice", "flu")).To(Succeed())

		Expect(st.Services.Disease.Tick(ctx, t0)).To(Succeed())
		Expect(bob.HasDisease("flu")).To(BeFalse())
	})
})

var _ = Describe("Explosive decompression", func() {
	It("equalises two adjacent tiles", func() {
		st := newStation(testConfig(copyData()))
		grid := st.Services.Atmos.Tiles()
		Expect(grid).NotTo(BeNil())

		a, b := world.Position{X: 6, Y: 3}, world.Position{X: 7, Y: 3}
		ta, ok := grid.Tile(a)
		Expect(ok).To(BeTrue())
		tb, ok := grid.Tile(b)
		Expect(ok).To(BeTrue())
		ta.Pressure, tb.Pressure = 150, 50

		Expect(grid.ExplosiveDecompress(a, b)).To(BeNumerically("~", 100, 1e-9))
		Expect(ta.Pressure).To(BeNumerically("~", 100, 1e-9))
		Expect(tb.Pressure).To(BeNumerically("~", 100, 1e-9))
	})

	It("ignores gentle differences", func() {
		g := atmos.NewTileGrid(2, 1)
		a, b := world.Position{X: 0, Y: 0}, world.Position{X: 1, Y: 0}
		ta, _ := g.Tile(a)
		ta.Pressure += atmos.DecompressionThreshold / 2
		Expect(g.ExplosiveDecompress(a, b)).To(BeZero())
	})
})

var _ = Describe("Persistence across restarts", func() {
	It("resumes from the snapshot written at shutdown", func() {
		dir := copyData()
		cfg := testConfig(dir)
		st, err := station.New(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(st.World.MoveTo(context.Background(), "toolbox", "bridge")).To(Succeed())
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(st.Close(closeCtx)).To(Succeed())

		resumed := *cfg
		resumed.Persistence = config.Persistence{Interval: time.Hour, Keep: 3, Resume: true}
		again := newStation(&resumed)
		Expect(location(again, "toolbox")).To(Equal("bridge"))
	})
})
