// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "npri"

// Query outcomes recorded by ObserveDBQuery.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeRejected = "rejected"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	dbQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Duration of database queries in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"kind", "outcome"},
	)

	dbRowsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_rows_returned",
			Help:      "Rows returned per query.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"kind"},
	)

	queriesBuiltTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_built_total",
			Help:      "View queries built, by view and result.",
		},
		[]string{"view", "result"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_results_total",
			Help:      "Result cache lookups by outcome.",
		},
		[]string{"driver", "outcome"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	breakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_transitions_total",
			Help:      "Circuit breaker state transitions.",
		},
		[]string{"name", "from", "to"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information for the binary.",
		},
		[]string{"version", "commit"},
	)
)

// ObserveHTTP records one served request. route is the chi route pattern,
// never the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveDBQuery records a query duration. kind is "view", "sql" or "health".
func ObserveDBQuery(kind, outcome string, durationSeconds float64) {
	dbQueryDurationSeconds.WithLabelValues(kind, outcome).Observe(durationSeconds)
}

// ObserveRows records the size of a result set.
func ObserveRows(kind string, rows int) {
	dbRowsReturned.WithLabelValues(kind).Observe(float64(rows))
}

// IncQueryBuilt counts a build attempt for a view. result is "ok" or an error code.
func IncQueryBuilt(view, result string) {
	queriesBuiltTotal.WithLabelValues(view, result).Inc()
}

func IncCacheHit(driver string) {
	cacheResults.WithLabelValues(driver, "hit").Inc()
}

func IncCacheMiss(driver string) {
	cacheResults.WithLabelValues(driver, "miss").Inc()
}

func IncCacheError(driver string) {
	cacheResults.WithLabelValues(driver, "error").Inc()
}

// SetBreakerState publishes the current breaker state.
func SetBreakerState(name string, state float64) {
	breakerState.WithLabelValues(name).Set(state)
}

// ObserveBreakerTransition counts a state change.
func ObserveBreakerTransition(name, from, to string) {
	breakerTransitions.WithLabelValues(name, from, to).Inc()
}

// ExposeBuildInfo publishes the running version.
func ExposeBuildInfo(version, commit string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version, commit).Set(1)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
