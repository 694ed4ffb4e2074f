package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharekindness_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sharekindness_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RequestEvents counts committed request lifecycle events.
	RequestEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharekindness_requests_total",
		Help: "Total request lifecycle events by type",
	}, []string{"event"})

	// DonationTransitions counts donation status changes.
	DonationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharekindness_donation_transitions_total",
		Help: "Total donation status transitions",
	}, []string{"from", "to"})

	// AllocationFailures counts engine operations that returned an error.
	AllocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharekindness_allocation_failures_total",
		Help: "Total failed allocation operations by operation and error code",
	}, []string{"operation", "code"})

	// CascadeRejections counts sibling requests rejected by an approval or withdrawal.
	CascadeRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharekindness_cascade_rejections_total",
		Help: "Total pending requests rejected by cascade",
	})
)

// DatabaseMetrics records query latency for a named table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}
