// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import "github.com/prometheus/client_golang/prometheus"

// EventsPublished counts bus publications by topic.
var EventsPublished = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mudss13_events_published_total",
		Help: "Total number of events published on the bus",
	},
	[]string{"topic"},
)

// SubscriberFailures counts subscriber errors and panics by topic.
var SubscriberFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mudss13_event_subscriber_failures_total",
		Help: "Total number of event subscriber errors and panics",
	},
	[]string{"topic"},
)

// RegisterMetrics registers core metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(EventsPublished)
	reg.MustRegister(SubscriberFailures)
}

func recordPublish(topic Topic) {
	EventsPublished.WithLabelValues(string(topic)).Inc()
}

func recordSubscriberFailure(topic Topic) {
	SubscriberFailures.WithLabelValues(string(topic)).Inc()
}
