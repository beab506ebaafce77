package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Label state metrics
	LabelsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aeon_labels_active",
			Help: "Current number of subjects carrying each label",
		},
		[]string{"label"},
	)

	// Reconciliation metrics
	EventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeon_events_processed_total",
			Help: "Total number of reconciled events by outcome",
		},
		[]string{"outcome"},
	)

	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeon_events_dropped_total",
			Help: "Total number of events dropped by reason",
		},
		[]string{"reason"},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aeon_reconcile_duration_seconds",
			Help:    "Time taken for one reconcile call in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Feed connection metrics
	FirehoseConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aeon_firehose_connected",
			Help: "Whether the upstream feed connection is established (1 = connected)",
		},
	)

	FirehoseReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aeon_firehose_reconnects_total",
			Help: "Total number of feed reconnection attempts",
		},
	)

	CursorPosition = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aeon_cursor_position_microseconds",
			Help: "Current resumable feed position in microseconds since epoch",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(LabelsActive)
	prometheus.MustRegister(EventsProcessed)
	prometheus.MustRegister(EventsDropped)
	prometheus.MustRegister(ReconcileDuration)
	prometheus.MustRegister(FirehoseConnected)
	prometheus.MustRegister(FirehoseReconnects)
	prometheus.MustRegister(CursorPosition)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
