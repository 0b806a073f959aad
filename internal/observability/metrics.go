// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import "github.com/prometheus/client_golang/prometheus"

var outputFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "mudss13_command_output_failures_total",
	Help: "Replies that could not be written back to the player",
}, []string{"command"})

// RecordCommandOutputFailure counts a reply that failed to reach the player.
// Handlers call it without holding a Server.
func RecordCommandOutputFailure(command string) {
	outputFailures.WithLabelValues(command).Inc()
}

// Metrics are the connection and persistence collectors the station
// updates directly.
type Metrics struct {
	ConnectionsTotal *prometheus.CounterVec // by transport
	LoginsTotal      *prometheus.CounterVec // by result
	SessionsActive   prometheus.Gauge
	OutputDropped    *prometheus.CounterVec // by transport
	Snapshots        *prometheus.CounterVec // by result
}

func counter(name, help, label string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, []string{label})
}

// NewMetrics creates the station collectors and registers them, together
// with the output failure counter, on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: counter("mudss13_connections_total", "Accepted connections", "transport"),
		LoginsTotal:      counter("mudss13_logins_total", "Login attempts", "result"),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mudss13_sessions_active",
			Help: "Sessions currently connected",
		}),
		OutputDropped: counter("mudss13_session_output_dropped_total",
			"Sessions torn down because their output queue overflowed", "transport"),
		Snapshots: counter("mudss13_snapshots_total", "World snapshots written", "result"),
	}
	reg.MustRegister(m.ConnectionsTotal, m.LoginsTotal, m.SessionsActive, m.OutputDropped, m.Snapshots, outputFailures)
	return m
}
