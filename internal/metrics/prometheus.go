// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the campaign dashboard.
var (
	// HTTP.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Statistics aggregation.
	StatsFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_fetches_total",
			Help: "Total statistics fetches by kind and outcome",
		},
		[]string{"fetch", "status"},
	)

	StatsFetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stats_fetch_duration_seconds",
			Help:    "Duration of a single statistics fetch",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 11), // 10ms to ~10s
		},
		[]string{"fetch"},
	)

	// Contributions and badges.
	ContributionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contributions_total",
			Help: "Total contribution submissions by project and outcome",
		},
		[]string{"project", "type", "status"},
	)

	BadgesEarnedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_earned_total",
			Help: "Total number of badges earned or upgraded",
		},
		[]string{"project", "badge"},
	)

	// Circuit breaker, one series per protected upstream.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		},
		[]string{"name", "result"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Import job.
	ImportJobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_job_runs_total",
			Help: "Total import pipeline executions",
		},
		[]string{"mode", "status"},
	)

	ImportJobLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "import_job_last_run_timestamp",
			Help: "Unix timestamp of the last import pipeline run",
		},
	)

	ImportJobDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "import_job_duration_seconds",
			Help:    "Time taken by the import pipeline",
			Buckets: prometheus.ExponentialBuckets(1, 2, 13), // 1s to ~68min
		},
	)
)

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDurationSeconds.WithLabelValues(method, route).Observe(seconds)
}

// RecordStatsFetch records the outcome of one statistics fetch.
func RecordStatsFetch(fetch, status string, seconds float64) {
	StatsFetchesTotal.WithLabelValues(fetch, status).Inc()
	StatsFetchDurationSeconds.WithLabelValues(fetch).Observe(seconds)
}

// RecordContribution records a contribution submission.
func RecordContribution(project, contributionType, status string) {
	ContributionsTotal.WithLabelValues(project, contributionType, status).Inc()
}

// RecordBadgeEarned records a badge acquisition or tier upgrade.
func RecordBadgeEarned(project, badge string) {
	BadgesEarnedTotal.WithLabelValues(project, badge).Inc()
}

// SetCircuitBreakerState sets the breaker state gauge.
func SetCircuitBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordCircuitBreakerRequest records a request result ("success", "failure" or "rejected").
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordImportJobRun records an import pipeline execution.
func RecordImportJobRun(mode, status string) {
	ImportJobRunsTotal.WithLabelValues(mode, status).Inc()
}

// SetImportJobLastRun sets the timestamp of the last import run.
func SetImportJobLastRun() {
	ImportJobLastRunTimestamp.SetToCurrentTime()
}

// ObserveImportJobDuration observes the duration of an import run.
func ObserveImportJobDuration(seconds float64) {
	ImportJobDurationSeconds.Observe(seconds)
}
