// Package metrics exposes Prometheus instruments for the chat room.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Room metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_connections_active",
			Help: "Participants currently in the room",
		},
	)

	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_connections_total",
			Help: "Connection attempts by outcome",
		},
		[]string{"outcome"}, // "accepted" or "rejected"
	)

	MessagesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_messages_posted_total",
			Help: "Chat messages stored and broadcast",
		},
	)

	ReactionsToggled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_reactions_toggled_total",
			Help: "Reaction toggles applied",
		},
	)

	CommandsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_commands_total",
			Help: "Text commands handled",
		},
		[]string{"command"},
	)

	InputsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_inputs_dropped_total",
			Help: "Inbound events declined without a state change",
		},
		[]string{"reason"},
	)

	// Transport metrics
	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_frames_dropped_total",
			Help: "Outbound frames dropped because a client buffer was full",
		},
		[]string{"event"},
	)

	DispatchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "huddle_dispatch_latency_seconds",
			Help:    "Time to hand one outbound event to the transport",
			Buckets: []float64{.00005, .0001, .0005, .001, .005, .01, .05},
		},
	)
)
