// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
)

// Structure is a wall, floor or window with integrity 0..100.
type Structure struct {
	Base          `yaml:"-"`
	StructureType string  `yaml:"kind"`
	Integrity     float64 `yaml:"integrity"`
	Material      string  `yaml:"material,omitempty"`
	Destructible  bool    `yaml:"is_destructible"`
	Constructible bool    `yaml:"is_constructible"`
}

// NewStructure returns an intact steel wall.
func NewStructure() *Structure {
	return &Structure{StructureType: "wall", Integrity: 100, Material: "steel", Destructible: true, Constructible: true}
}

// Kind implements Component.
func (s *Structure) Kind() Kind { return KindStructure }

// Damage reduces integrity and reports whether the structure was destroyed by this hit.
func (s *Structure) Damage(ctx context.Context, w *World, amount float64) bool {
	if !s.Destructible || amount <= 0 || s.Integrity == 0 {
		return false
	}
	s.Integrity = max(0, s.Integrity-amount)
	w.bus.Publish(ctx, core.TopicStructureDamaged, core.Payload{"structure_id": s.Owner(), "integrity": s.Integrity})
	if s.Integrity == 0 {
		w.bus.Publish(ctx, core.TopicStructureDestroyed, core.Payload{"structure_id": s.Owner()})
		return true
	}
	return false
}

// Repair raises integrity; rebuilding from zero publishes structure_rebuilt.
func (s *Structure) Repair(ctx context.Context, w *World, amount float64) {
	if !s.Constructible || amount <= 0 {
		return
	}
	old := s.Integrity
	s.Integrity = min(100, s.Integrity+amount)
	if old == 0 && s.Integrity > 0 {
		w.bus.Publish(ctx, core.TopicStructureRebuilt, core.Payload{"structure_id": s.Owner()})
	}
}

// Camera watches a room for the security network.
type Camera struct {
	Base     `yaml:"-"`
	Location string `yaml:"location,omitempty"`
	Active   bool   `yaml:"active"`
}

// NewCamera returns an active camera.
func NewCamera() *Camera { return &Camera{Active: true} }

// Kind implements Component.
func (c *Camera) Kind() Kind { return KindCamera }

// Watching returns the watched room, defaulting to the camera's own room.
func (c *Camera) Watching(w *World) string {
	if c.Location != "" {
		return c.Location
	}
	return w.RoomOf(c.Owner())
}

// Toggle switches the camera on or off.
func (c *Camera) Toggle(ctx context.Context, w *World, on bool) {
	c.Active = on
	w.bus.Publish(ctx, core.TopicCameraToggled, core.Payload{"camera_id": c.Owner(), "state": on})
}

// MotionSensor raises alerts when players enter its room.
type MotionSensor struct {
	Base        `yaml:"-"`
	Location    string  `yaml:"location,omitempty"`
	Sensitivity float64 `yaml:"sensitivity"`
	Active      bool    `yaml:"active"`
}

// NewMotionSensor returns an active sensor with sensitivity 1.
func NewMotionSensor() *MotionSensor { return &MotionSensor{Sensitivity: 1, Active: true} }

// Kind implements Component.
func (m *MotionSensor) Kind() Kind { return KindMotionSensor }

// Watching returns the monitored room.
func (m *MotionSensor) Watching(w *World) string {
	if m.Location != "" {
		return m.Location
	}
	return w.RoomOf(m.Owner())
}

// ShellCapacity maps circuit shell types to their component slots.
var ShellCapacity = map[string]int{
	"compact_remote":    25,
	"remote":            25,
	"drone_shell":       25,
	"wall_mounted_case": 50,
	"bot_shell":         100,
	"bci_shell":         500,
}

// Circuit is a player-built electronic assembly.
type Circuit struct {
	Base       `yaml:"-"`
	Shell      string   `yaml:"shell_type"`
	Components []string `yaml:"components"`
	Power      int      `yaml:"power"`
	Active     bool     `yaml:"active"`
}

// NewCircuit returns an empty compact remote.
func NewCircuit() *Circuit { return &Circuit{Shell: "compact_remote", Components: []string{}} }

// Kind implements Component.
func (c *Circuit) Kind() Kind { return KindCircuit }

// MaxComponents returns the slot count of the shell.
func (c *Circuit) MaxComponents() int {
	if n, ok := ShellCapacity[c.Shell]; ok {
		return n
	}
	return 25
}

// Insert installs a part if the shell has room.
func (c *Circuit) Insert(ctx context.Context, w *World, part string) error {
	if len(c.Components) >= c.MaxComponents() {
		return oops.Code("CONTAINER_FULL").With("circuit_id", c.Owner()).With("capacity", c.MaxComponents()).
			Errorf("the %s shell has no free slots", strings.ReplaceAll(c.Shell, "_", " "))
	}
	c.Components = append(c.Components, part)
	w.bus.Publish(ctx, core.TopicCircuitInstalled, core.Payload{"circuit_id": c.Owner(), "component": part})
	return nil
}

// Maintainable wears down with use and fails below its threshold.
type Maintainable struct {
	Base             `yaml:"-"`
	WearRate         float64   `yaml:"wear_rate"`
	EnvFactor        float64   `yaml:"environment_factor"`
	FailureThreshold float64   `yaml:"failure_threshold"`
	Condition        float64   `yaml:"condition"`
	NextService      time.Time `yaml:"next_service"`
	ServiceInterval  Duration  `yaml:"service_interval"`
	Operational      bool      `yaml:"operational"`

	dueNotified bool
}

// NewMaintainable returns equipment in perfect condition due in 10 minutes.
func NewMaintainable(now time.Time) *Maintainable {
	return &Maintainable{
		WearRate:         1,
		EnvFactor:        1,
		FailureThreshold: 20,
		Condition:        100,
		ServiceInterval:  Duration(10 * time.Minute),
		NextService:      now.Add(10 * time.Minute).UTC().Truncate(time.Second),
		Operational:      true,
	}
}

// Kind implements Component.
func (m *Maintainable) Kind() Kind { return KindMaintainable }

// Use wears the equipment by intensity. Crossing the failure threshold marks
// it non-operational and publishes equipment_failed once.
func (m *Maintainable) Use(ctx context.Context, w *World, intensity float64) {
	if !m.Operational || intensity <= 0 {
		return
	}
	m.Condition = max(0, m.Condition-intensity*m.WearRate*m.EnvFactor)
	if m.Condition <= m.FailureThreshold {
		m.Operational = false
		w.bus.Publish(ctx, core.TopicEquipmentFailed, core.Payload{"object_id": m.Owner(), "condition": m.Condition})
	}
}

// Due reports whether service is overdue at now. It returns true only once
// per due period.
func (m *Maintainable) Due(now time.Time) bool {
	if m.dueNotified || now.Before(m.NextService) {
		return false
	}
	m.dueNotified = true
	return true
}

// Service restores the equipment when skill is at least 1.
func (m *Maintainable) Service(ctx context.Context, w *World, playerID string, skill int, now time.Time) Outcome {
	if skill < 1 {
		return refused("You don't know how to service that.")
	}
	m.Condition = 100
	m.Operational = true
	m.dueNotified = false
	m.NextService = now.Add(time.Duration(m.ServiceInterval)).UTC().Truncate(time.Second)
	w.bus.Publish(ctx, core.TopicEquipmentRepaired, core.Payload{"object_id": m.Owner(), "player_id": playerID})
	name := "equipment"
	if e, ok := w.Get(m.Owner()); ok {
		name = e.Name
	}
	return done("You service the %s. It is in perfect condition.", name)
}

// ReplicaPod grows podperson clones of dead players from biomass.
type ReplicaPod struct {
	Base      `yaml:"-"`
	Biomass   float64 `yaml:"biomass"`
	CloneCost float64 `yaml:"clone_cost"`
}

// NewReplicaPod returns a pod with enough biomass for two clones.
func NewReplicaPod() *ReplicaPod { return &ReplicaPod{Biomass: 100, CloneCost: 50} }

// Kind implements Component.
func (r *ReplicaPod) Kind() Kind { return KindReplicaPod }

// Activate clones a dead player into a podperson standing next to the pod.
func (r *ReplicaPod) Activate(ctx context.Context, w *World, playerID string) (Outcome, error) {
	pe, ok := w.Get(playerID)
	if !ok {
		return refused("Nobody to clone."), nil
	}
	p, ok := As[*Player](pe)
	if !ok {
		return refused("Invalid target."), nil
	}
	if p.Alive {
		return refused("The pod is dormant to the living."), nil
	}
	cloneID := playerID + "_podclone"
	if w.Has(cloneID) {
		return refused("A clone already exists."), nil
	}
	if r.Biomass < r.CloneCost {
		return refused("The pod lacks the biomass to grow a clone."), nil
	}
	clone := NewEntity(cloneID, "Podperson "+pe.Name, "A freshly grown plant-based clone.")
	clone.Location = w.RoomOf(r.Owner())
	np := NewPlayer("podperson")
	np.Skills = p.Skills
	np.AccessLevel = p.AccessLevel
	clone.MustAdd(np)
	if err := w.Register(ctx, clone); err != nil {
		return Outcome{}, err
	}
	r.Biomass -= r.CloneCost
	w.bus.Publish(ctx, core.TopicPlayerCloned, core.Payload{"pod_id": r.Owner(), "player_id": playerID, "clone_id": cloneID})
	return done("A podperson clone emerges from the pod."), nil
}

// MedicalScanner records patient vitals and injuries.
type MedicalScanner struct {
	Base    `yaml:"-"`
	Records map[string]ScanRecord `yaml:"records,omitempty"`
}

// ScanRecord is one stored scan.
type ScanRecord struct {
	Stats    Vitals                `yaml:"stats"`
	Damage   map[string]BodyDamage `yaml:"damage,omitempty"`
	Diseases []string              `yaml:"diseases,omitempty"`
}

// Kind implements Component.
func (m *MedicalScanner) Kind() Kind { return KindMedicalScanner }

// Scan records the patient and returns a readable report.
func (m *MedicalScanner) Scan(ctx context.Context, w *World, patientID string) (string, error) {
	pe, err := w.Lookup(patientID)
	if err != nil {
		return "", err
	}
	p, ok := As[*Player](pe)
	if !ok {
		return "", oops.Code("NOT_A_PLAYER").With("object_id", patientID).Errorf("%s has no vital signs", pe.Name)
	}
	rec := ScanRecord{Stats: p.Stats, Damage: map[string]BodyDamage{}, Diseases: append([]string(nil), p.Diseases...)}
	for part, d := range p.Damage {
		rec.Damage[part] = d
	}
	if m.Records == nil {
		m.Records = map[string]ScanRecord{}
	}
	m.Records[patientID] = rec
	w.bus.Publish(ctx, core.TopicMedicalScan, core.Payload{"scanner_id": m.Owner(), "patient_id": patientID})

	var b strings.Builder
	fmt.Fprintf(&b, "Scan of %s:\n", pe.Name)
	fmt.Fprintf(&b, "  Health %.0f  Oxygen %.0f  Energy %.0f  Radiation %.1f\n",
		p.Stats.Health, p.Stats.Oxygen, p.Stats.Energy, p.Stats.Radiation)
	parts := make([]string, 0, len(rec.Damage))
	for part := range rec.Damage {
		parts = append(parts, part)
	}
	sort.Strings(parts)
	for _, part := range parts {
		d := rec.Damage[part]
		fmt.Fprintf(&b, "  %s: brute %.1f burn %.1f toxin %.1f oxygen %.1f\n", part, d.Brute, d.Burn, d.Toxin, d.Oxygen)
	}
	if len(rec.Diseases) > 0 {
		fmt.Fprintf(&b, "  Pathogens: %s\n", strings.Join(rec.Diseases, ", "))
	}
	if !p.Alive {
		b.WriteString("  No signs of life.\n")
	}
	return b.String(), nil
}

// Duration is a time.Duration that reads and writes as a Go duration string.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return oops.Code("INVALID_DURATION").With("value", s).Wrap(err)
	}
	*d = Duration(v)
	return nil
}
