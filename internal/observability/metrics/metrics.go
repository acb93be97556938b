package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "internhub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "internhub_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	guardDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "internhub_guard_decisions_total",
		Help: "Navigation decisions by action and reason",
	}, []string{"action", "reason"})

	docstoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "internhub_docstore_operations_total",
		Help: "Document store operations by entity, operation and result",
	}, []string{"entity", "op", "result"})

	docstoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "internhub_docstore_operation_duration_seconds",
		Help:    "Duration of document store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"entity", "op"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "internhub_active_sessions",
		Help: "Number of open sessions held by the session manager",
	})

	idleLogouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "internhub_idle_logouts_total",
		Help: "Sessions logged out by the idle timer",
	})

	sweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "internhub_sweep_runs_total",
		Help: "Maintenance task runs by task and result",
	}, []string{"task", "result"})

	sweepRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "internhub_sweep_removed_total",
		Help: "Entries removed by maintenance tasks",
	}, []string{"task"})

	remoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "internhub_remote_requests_total",
		Help: "Remote API calls made by the client by method and result",
	}, []string{"method", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveGuardDecision counts a navigation decision
func ObserveGuardDecision(action, reason string) {
	guardDecisions.WithLabelValues(action, reason).Inc()
}

// ObserveDocstore records a document store operation with a result label.
func ObserveDocstore(entity, op, result string, duration time.Duration) {
	docstoreOperations.WithLabelValues(entity, op, result).Inc()
	docstoreDuration.WithLabelValues(entity, op).Observe(duration.Seconds())
}

// IncrementSessions increments the active session gauge.
func IncrementSessions() {
	activeSessions.Inc()
}

// DecrementSessions decrements the active session gauge.
func DecrementSessions() {
	activeSessions.Dec()
}

// ObserveIdleLogout counts a session closed for inactivity
func ObserveIdleLogout() {
	idleLogouts.Inc()
}

// ObserveRemoteRequest counts a remote API call
func ObserveRemoteRequest(method, result string) {
	remoteRequests.WithLabelValues(method, result).Inc()
}

// ObserveSweep records one maintenance task run
func ObserveSweep(task, result string, removed int) {
	sweepRuns.WithLabelValues(task, result).Inc()
	if removed > 0 {
		sweepRemoved.WithLabelValues(task).Add(float64(removed))
	}
}
