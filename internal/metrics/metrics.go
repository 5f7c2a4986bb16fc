// Package metrics exposes Prometheus counters for the data paths worth
// watching: tick intake, candle churn, poll outcomes and broadcasts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_ticks_accepted_total",
		Help: "Ticks that passed normalization and reached the aggregator.",
	})

	TicksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_ticks_dropped_total",
		Help: "Malformed ticks discarded by the normalizer.",
	})

	TicksShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_ticks_shed_total",
		Help: "Ticks discarded because the dispatch buffer was full.",
	})

	LateTicksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_late_ticks_dropped_total",
		Help: "Out-of-order ticks dropped to keep closed candles immutable.",
	})

	CandlesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_candles_appended_total",
		Help: "New candles appended to the active series.",
	})

	PollsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_overview_polls_succeeded_total",
		Help: "Overview polls applied to the store.",
	})

	PollsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_overview_polls_failed_total",
		Help: "Overview polls that failed and retained the prior snapshot.",
	})

	SnapshotsBroadcast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_snapshots_broadcast_total",
		Help: "Dashboard snapshots broadcast to websocket clients.",
	})
)
