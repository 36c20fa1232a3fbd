// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

// LedgerCalls counts course contract calls by method and outcome
var LedgerCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "coursechain_ledger_calls_total",
		Help: "Total number of course contract calls by method and outcome",
	},
	[]string{"method", "outcome"},
)

// CacheLookups counts single-course cache lookups by hit/miss
var CacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "coursechain_cache_lookups_total",
		Help: "Total number of course cache lookups by result",
	},
	[]string{"result"},
)

// Full sync metrics
var (
	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coursechain_sync_duration_seconds",
			Help:    "Duration of full course syncs from the contract",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	SyncedCourses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursechain_synced_courses_total",
			Help: "Courses processed by full syncs by outcome",
		},
		[]string{"outcome"},
	)
)

// LedgerAvailable is 1 when a contract client was built at startup
var LedgerAvailable = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "coursechain_ledger_available",
		Help: "Whether the course contract client is configured (1) or absent (0)",
	},
)

func init() {
	prometheus.MustRegister(LedgerCalls, CacheLookups)
	prometheus.MustRegister(SyncDuration, SyncedCourses, LedgerAvailable)
}
