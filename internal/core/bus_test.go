// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.Subscribe(TopicDoorOpened, "a", func(_ context.Context, _ Event) error {
		order = append(order, "a")
		return nil
	})
	bus.Subscribe(TopicDoorOpened, "b", func(_ context.Context, _ Event) error {
		order = append(order, "b")
		return nil
	})

	bus.Publish(context.Background(), TopicDoorOpened, Payload{"door_id": "d1"})

	assert.Equal(t, []string{"a", "b"}, order)
}

func TestBus_SubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()
	calls := 0
	fn := func(_ context.Context, _ Event) error {
		calls++
		return nil
	}
	bus.Subscribe(TopicLeakFixed, "sub", fn)
	bus.Subscribe(TopicLeakFixed, "sub", fn)

	bus.Publish(context.Background(), TopicLeakFixed, nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, bus.Subscribers(TopicLeakFixed))
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(TopicLeakFixed, "sub", func(_ context.Context, _ Event) error { return nil })

	bus.Unsubscribe(TopicLeakFixed, "sub")
	bus.Unsubscribe(TopicLeakFixed, "sub")
	bus.Unsubscribe(TopicLeakFixed, "never")

	assert.Zero(t, bus.Subscribers(TopicLeakFixed))
}

func TestBus_FailingSubscriberDoesNotStopOthers(t *testing.T) {
	tests := []struct {
		name    string
		failing Handler
	}{
		{
			name:    "error",
			failing: func(_ context.Context, _ Event) error { return errors.New("boom") },
		},
		{
			name:    "panic",
			failing: func(_ context.Context, _ Event) error { panic("boom") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewBus()
			reached := false
			bus.Subscribe(TopicPowerLoss, "bad", tt.failing)
			bus.Subscribe(TopicPowerLoss, "good", func(_ context.Context, _ Event) error {
				reached = true
				return nil
			})

			assert.NotPanics(t, func() {
				bus.Publish(context.Background(), TopicPowerLoss, Payload{"grid_id": "main"})
			})
			assert.True(t, reached)
		})
	}
}

func TestBus_PublishUndefinedTopicIsDropped(t *testing.T) {
	rec := NewRecorder(4)
	bus := NewBus(WithRecorder(rec))

	ev := bus.Publish(context.Background(), Topic("no_such_topic"), nil)

	assert.Empty(t, ev.Topic)
	assert.Zero(t, rec.Len())
}

func TestBus_SubscriberMayPublishReentrantly(t *testing.T) {
	rec := NewRecorder(8)
	bus := NewBus(WithRecorder(rec))
	bus.Subscribe(TopicPowerLoss, "cascade", func(ctx context.Context, ev Event) error {
		bus.Publish(ctx, TopicRoomPowerChanged, Payload{"room_id": "r1", "powered": false})
		return nil
	})

	bus.Publish(context.Background(), TopicPowerLoss, nil)

	events := rec.Recent(0)
	require.Len(t, events, 2)
	assert.Equal(t, TopicPowerLoss, events[0].Topic)
	assert.Equal(t, TopicRoomPowerChanged, events[1].Topic)
}

func TestBus_UsesClock(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	bus := NewBus(WithClock(func() time.Time { return fixed }))

	first := bus.Publish(context.Background(), TopicBreach, Payload{"room_id": "r"})
	second := bus.Publish(context.Background(), TopicBreach, Payload{"room_id": "r"})

	assert.Equal(t, fixed, first.Timestamp)
	assert.Equal(t, ulid.Timestamp(fixed), first.ID.Time(), "ids carry the bus clock")
	assert.Negative(t, first.ID.Compare(second.ID), "ids increase within one millisecond")
}

func TestBus_UnsubscribeAll(t *testing.T) {
	bus := NewBus()
	noop := func(_ context.Context, _ Event) error { return nil }
	bus.Subscribe(TopicPowerLoss, "door1", noop)
	bus.Subscribe(TopicPowerRestored, "door1", noop)
	bus.Subscribe(TopicPowerLoss, "door2", noop)

	bus.UnsubscribeAll("door1")

	assert.Equal(t, 1, bus.Subscribers(TopicPowerLoss))
	assert.Zero(t, bus.Subscribers(TopicPowerRestored))
}

func TestPayloadAccessors(t *testing.T) {
	p := Payload{
		"s":   "text",
		"f":   1.5,
		"i":   3,
		"b":   true,
		"ss":  []string{"a", "b"},
		"any": []any{"x", 2},
		"nil": nil,
	}

	assert.Equal(t, "text", p.String("s"))
	assert.Equal(t, "", p.String("missing"))
	assert.InDelta(t, 1.5, p.Float("f"), 1e-9)
	assert.InDelta(t, 3.0, p.Float("i"), 1e-9)
	assert.Equal(t, 3, p.Int("i"))
	assert.True(t, p.Bool("b"))
	assert.Equal(t, []string{"a", "b"}, p.Strings("ss"))
	assert.Equal(t, []string{"x", "2"}, p.Strings("any"))
	assert.Nil(t, p.Strings("nil"))
	assert.True(t, p.Has("nil"))
}
