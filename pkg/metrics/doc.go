/*
Package metrics provides Prometheus instrumentation and the durable
per-label subject counters.

# Prometheus Metrics

All collectors are registered at init and exported under the aeon_
prefix:

	aeon_labels_active                 gauge, per label
	aeon_events_processed_total        counter, per outcome
	aeon_events_dropped_total          counter, per drop reason
	aeon_reconcile_duration_seconds    histogram
	aeon_firehose_connected            gauge (0/1)
	aeon_firehose_reconnects_total     counter
	aeon_cursor_position_microseconds  gauge

Handler returns the scrape endpoint handler.

# Durable Counters

CounterStore persists per-label subject counts in BoltDB so they
survive restarts, and mirrors every change into the labels_active
gauge. Counts floor at zero: a decrement that would go negative clamps
instead, since redelivered removal events must not drive counts below
reality.

The counters are advisory. The label store's assertion rows are the
source of truth; a drifted counter is a reporting blemish, not a
correctness problem, and Reset clears the slate.

# Usage

	counters, err := metrics.NewCounterStore(dataDir)
	...
	counters.Inc("fklr")
	counters.Dec("fklr")

	timer := metrics.NewTimer()
	doWork()
	timer.ObserveDuration(metrics.ReconcileDuration)
*/
package metrics
