// Package metrics holds the prometheus instruments for the sync channel and
// the command pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics.
type Metrics struct {
	FramesReceived   prometheus.Counter
	SnapshotsApplied prometheus.Counter
	Reconnects       prometheus.Counter
	CommandsSent     prometheus.Counter
	CommandErrors    *prometheus.CounterVec
}

// New registers the metrics on a fresh registry and returns both. A
// dedicated registry keeps parallel instances (tests) from colliding on
// duplicate registration.
func New(namespace string) (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_frames_received_total",
			Help:      "The total number of data frames received on the sync channel",
		}),
		SnapshotsApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_applied_total",
			Help:      "The total number of full snapshots applied to the local store",
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_reconnects_total",
			Help:      "The total number of sync channel reconnect attempts",
		}),
		CommandsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_sent_total",
			Help:      "The total number of entry commands sent to the backend",
		}),
		CommandErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "The total number of failed entry commands",
		}, []string{"command"}),
	}, reg
}
