// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Handler reacts to an event. Returned errors are logged by the bus and never
// reach the publisher.
type Handler func(ctx context.Context, ev Event) error

type subscription struct {
	id string
	fn Handler
}

// Bus is the process-wide synchronous publish/subscribe hub.
type Bus struct {
	mu       sync.RWMutex
	subs     map[Topic][]subscription
	recorder *Recorder
	now      func() time.Time
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithRecorder keeps a copy of every published event in r.
func WithRecorder(r *Recorder) BusOption {
	return func(b *Bus) { b.recorder = r }
}

// WithClock overrides the timestamp source for events.
func WithClock(now func() time.Time) BusOption {
	return func(b *Bus) { b.now = now }
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs: make(map[Topic][]subscription),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn under subscriberID for topic. Subscribing the same id
// again replaces the handler in place without changing delivery order.
func (b *Bus) Subscribe(topic Topic, subscriberID string, fn Handler) {
	if !topic.Known() {
		slog.Error("subscribe to undefined topic", "topic", topic, "subscriber", subscriberID)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i := range subs {
		if subs[i].id == subscriberID {
			subs[i].fn = fn
			return
		}
	}
	b.subs[topic] = append(subs, subscription{id: subscriberID, fn: fn})
}

// Unsubscribe removes subscriberID from topic. Unknown ids are ignored.
func (b *Bus) Unsubscribe(topic Topic, subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i := range subs {
		if subs[i].id == subscriberID {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// UnsubscribeAll removes subscriberID from every topic.
func (b *Bus) UnsubscribeAll(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.subs {
		for i := range subs {
			if subs[i].id == subscriberID {
				b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Subscribers returns the number of handlers registered for topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Publish delivers an event to every subscriber of topic in registration
// order, on the calling goroutine. A failing or panicking subscriber is
// logged and the remaining subscribers still run.
func (b *Bus) Publish(ctx context.Context, topic Topic, payload Payload) Event {
	if !topic.Known() {
		slog.Error("publish on undefined topic", "topic", topic)
		return Event{}
	}
	if payload == nil {
		payload = Payload{}
	}
	now := b.now()
	ev := Event{
		ID:        newEventID(now),
		Topic:     topic,
		Timestamp: now,
		Payload:   payload,
	}
	if b.recorder != nil {
		b.recorder.Append(ev)
	}
	recordPublish(topic)

	b.mu.RLock()
	subs := make([]subscription, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(ctx, sub, ev)
	}
	return ev
}

func (b *Bus) deliver(ctx context.Context, sub subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			recordSubscriberFailure(ev.Topic)
			slog.Warn("event subscriber panicked",
				"topic", ev.Topic,
				"subscriber", sub.id,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	if err := sub.fn(ctx, ev); err != nil {
		recordSubscriberFailure(ev.Topic)
		slog.Warn("event subscriber failed",
			"topic", ev.Topic,
			"subscriber", sub.id,
			"error", err,
		)
	}
}
