// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package security watches rooms with cameras and motion sensors, keeps the
// door access log, and tracks crimes and prisoners.
package security

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

// AccessRingSize is how many access entries are kept in memory.
const AccessRingSize = 100

const subscriberName = "security"

// AccessEntry is one door event.
type AccessEntry struct {
	Time     time.Time
	DoorID   string
	PlayerID string
	Action   string
	RoomID   string
}

// AccessLog durably records access entries.
type AccessLog interface {
	Record(ctx context.Context, e AccessEntry) error
}

// Alert is a queued motion detection awaiting dispatch.
type Alert struct {
	SensorID string
	RoomID   string
	PlayerID string
	At       time.Time
}

// Crime is a reported offence.
type Crime struct {
	ID          int
	ReporterID  string
	SuspectID   string
	Description string
	Severity    string
	Evidence    []string
	Status      string
}

// Prisoner is a player serving a sentence.
type Prisoner struct {
	PlayerID string
	CellID   string
	Release  time.Time
}

// Option configures a System.
type Option func(*System)

// WithAccessLog persists access entries in addition to the in-memory ring.
func WithAccessLog(l AccessLog) Option { return func(s *System) { s.log = l } }

// WithClock overrides the clock used to stamp entries.
func WithClock(now func() time.Time) Option { return func(s *System) { s.now = now } }

// System is the station security office.
type System struct {
	mu        sync.Mutex
	w         *world.World
	log       AccessLog
	now       func() time.Time
	ring      []AccessEntry
	alerts    []Alert
	crimes    map[int]*Crime
	nextCrime int
	prisoners map[string]*Prisoner
}

// New creates the security system and subscribes it to movement and door
// events.
func New(w *world.World, opts ...Option) *System {
	s := &System{
		w:         w,
		now:       time.Now,
		crimes:    make(map[int]*Crime),
		nextCrime: 1,
		prisoners: make(map[string]*Prisoner),
	}
	for _, o := range opts {
		o(s)
	}
	bus := w.Bus()
	bus.Subscribe(core.TopicObjectMoved, subscriberName, s.onMoved)
	for topic, action := range map[core.Topic]string{
		core.TopicDoorOpened:   "opened",
		core.TopicDoorClosed:   "closed",
		core.TopicDoorLocked:   "locked",
		core.TopicDoorUnlocked: "unlocked",
	} {
		bus.Subscribe(topic, subscriberName, func(ctx context.Context, ev core.Event) error {
			return s.logAccess(ctx, ev, action)
		})
	}
	return s
}

// Close removes the bus subscriptions.
func (s *System) Close() { s.w.Bus().UnsubscribeAll(subscriberName) }

func (s *System) onMoved(ctx context.Context, ev core.Event) error {
	id, room := ev.Payload.String("object_id"), ev.Payload.String("to")
	if room == "" {
		return nil
	}
	if e, ok := s.w.Get(id); !ok || !e.Has(world.KindPlayer) {
		return nil
	}
	for _, se := range s.w.Having(world.KindMotionSensor) {
		sensor, _ := world.As[*world.MotionSensor](se)
		if !sensor.Active || sensor.Watching(s.w) != room {
			continue
		}
		if s.w.Float64() >= sensor.Sensitivity {
			continue
		}
		a := Alert{SensorID: se.ID, RoomID: room, PlayerID: id, At: s.now()}
		s.mu.Lock()
		s.alerts = append(s.alerts, a)
		s.mu.Unlock()
		s.w.Publish(ctx, core.TopicMotionDetected, core.Payload{"sensor_id": se.ID, "room_id": room, "player_id": id})
	}
	return nil
}

func (s *System) logAccess(ctx context.Context, ev core.Event, action string) error {
	door := ev.Payload.String("door_id")
	entry := AccessEntry{
		Time:     s.now(),
		DoorID:   door,
		PlayerID: ev.Payload.String("player_id"),
		Action:   action,
		RoomID:   s.w.RoomOf(door),
	}
	s.mu.Lock()
	s.ring = append(s.ring, entry)
	if len(s.ring) > AccessRingSize {
		s.ring = slices.Delete(s.ring, 0, len(s.ring)-AccessRingSize)
	}
	s.mu.Unlock()
	if s.log == nil {
		return nil
	}
	if err := s.log.Record(ctx, entry); err != nil {
		errutil.LogError(slog.Default(), "access log write failed", err)
	}
	return nil
}

// AccessLog returns the most recent entries, oldest first. limit <= 0
// returns the whole ring.
func (s *System) AccessLog(limit int) []AccessEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.ring) {
		limit = len(s.ring)
	}
	return slices.Clone(s.ring[len(s.ring)-limit:])
}

// CamerasIn returns active cameras watching room.
func (s *System) CamerasIn(room string) []string {
	var out []string
	for _, e := range s.w.Having(world.KindCamera) {
		c, _ := world.As[*world.Camera](e)
		if c.Active && c.Watching(s.w) == room {
			out = append(out, e.ID)
		}
	}
	return out
}

// Monitor describes what the cameras watching room can see.
func (s *System) Monitor(room, viewer string) (string, error) {
	if len(s.CamerasIn(room)) == 0 {
		return "", oops.Code("NO_CAMERA").With("room_id", room).Errorf("no camera covers that area")
	}
	return s.w.Describe(room, viewer)
}

// PendingAlerts returns queued alerts without draining them.
func (s *System) PendingAlerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.alerts)
}

// Tick dispatches queued alerts and releases prisoners whose sentences ended.
func (s *System) Tick(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	alerts := s.alerts
	s.alerts = nil
	s.mu.Unlock()
	for _, a := range alerts {
		s.w.Publish(ctx, core.TopicSecurityDispatch, core.Payload{
			"room_id": a.RoomID, "player_id": a.PlayerID, "sensor_id": a.SensorID,
		})
	}
	s.CheckSentences(ctx, now)
	return nil
}

// ReportCrime files a crime report. Severity defaults to "minor".
func (s *System) ReportCrime(ctx context.Context, reporter, suspect, description, severity string) Crime {
	if severity == "" {
		severity = "minor"
	}
	s.mu.Lock()
	c := &Crime{
		ID: s.nextCrime, ReporterID: reporter, SuspectID: suspect,
		Description: strings.TrimSpace(description), Severity: severity, Status: "open",
	}
	s.crimes[c.ID] = c
	s.nextCrime++
	out := *c
	s.mu.Unlock()
	s.w.Publish(ctx, core.TopicCrimeReported, core.Payload{
		"crime_id": out.ID, "reporter_id": reporter, "suspect_id": suspect, "severity": severity,
	})
	return out
}

// AddEvidence attaches evidence to a crime.
func (s *System) AddEvidence(ctx context.Context, crimeID int, description string) error {
	s.mu.Lock()
	c, ok := s.crimes[crimeID]
	if ok {
		c.Evidence = append(c.Evidence, description)
	}
	s.mu.Unlock()
	if !ok {
		return oops.Code("NOT_FOUND").With("crime_id", crimeID).Errorf("no crime #%d", crimeID)
	}
	s.w.Publish(ctx, core.TopicEvidenceCollected, core.Payload{"crime_id": crimeID, "description": description})
	return nil
}

// Crimes returns every crime ordered by id.
func (s *System) Crimes() []Crime {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Crime, 0, len(s.crimes))
	for _, c := range s.crimes {
		cp := *c
		cp.Evidence = slices.Clone(c.Evidence)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Arrest imprisons a player for duration. A non-empty cellID moves them there.
func (s *System) Arrest(ctx context.Context, playerID string, duration time.Duration, cellID string) (Prisoner, error) {
	e, err := s.w.Lookup(playerID)
	if err != nil {
		return Prisoner{}, err
	}
	if !e.Has(world.KindPlayer) {
		return Prisoner{}, oops.Code("NOT_A_PLAYER").With("object_id", playerID).Errorf("%s is not a player", playerID)
	}
	if duration <= 0 {
		return Prisoner{}, oops.Code("INVALID_ARGS").With("duration", duration).Errorf("sentence must be positive")
	}
	if cellID != "" {
		if err := s.w.MoveTo(ctx, playerID, cellID); err != nil {
			return Prisoner{}, err
		}
	}
	p := &Prisoner{PlayerID: playerID, CellID: cellID, Release: s.now().Add(duration)}
	s.mu.Lock()
	s.prisoners[playerID] = p
	s.mu.Unlock()
	s.w.Publish(ctx, core.TopicPlayerArrested, core.Payload{
		"player_id": playerID, "cell_id": cellID, "duration": duration.Seconds(),
	})
	return *p, nil
}

// Release frees a prisoner early.
func (s *System) Release(ctx context.Context, playerID string) bool {
	s.mu.Lock()
	_, ok := s.prisoners[playerID]
	delete(s.prisoners, playerID)
	s.mu.Unlock()
	if ok {
		s.w.Publish(ctx, core.TopicPlayerReleased, core.Payload{"player_id": playerID})
	}
	return ok
}

// Prisoner returns the sentence of playerID.
func (s *System) Prisoner(playerID string) (Prisoner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prisoners[playerID]
	if !ok {
		return Prisoner{}, false
	}
	return *p, true
}

// CheckSentences releases everyone whose sentence ended by now and returns
// their ids.
func (s *System) CheckSentences(ctx context.Context, now time.Time) []string {
	s.mu.Lock()
	var done []string
	for id, p := range s.prisoners {
		if !now.Before(p.Release) {
			done = append(done, id)
		}
	}
	s.mu.Unlock()
	sort.Strings(done)
	for _, id := range done {
		s.Release(ctx, id)
	}
	return done
}
