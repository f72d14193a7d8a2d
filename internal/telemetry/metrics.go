// ABOUTME: Prometheus collectors for bootstrap runs, retries and telemetry reports
// ABOUTME: Registered once on the default registry via promauto

package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// bootstrapRuns counts completed bootstrap runs by request path and terminal action
	bootstrapRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popcode_bootstrap_runs_total",
		Help: "Completed bootstrap runs by path and terminal action",
	}, []string{"path", "action"})

	// bootstrapNotifications counts notifications emitted by bootstrap runs
	bootstrapNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popcode_bootstrap_notifications_total",
		Help: "Notifications emitted during bootstrap by tag",
	}, []string{"tag"})

	// bootstrapDuration tracks wall time of a bootstrap run
	bootstrapDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "popcode_bootstrap_duration_seconds",
		Help:    "Bootstrap run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	}, []string{"path"})

	// retryAttempts counts retries (not first attempts) of outbound calls
	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popcode_retry_attempts_total",
		Help: "Retried outbound calls by operation",
	}, []string{"op"})

	// reportsTotal counts telemetry reports by kind (exception, opaque)
	reportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popcode_telemetry_reports_total",
		Help: "Unexpected failures reported to telemetry",
	}, []string{"kind"})
)

// ObserveBootstrap records one finished run.
func ObserveBootstrap(path, action string, elapsed time.Duration) {
	bootstrapRuns.WithLabelValues(path, action).Inc()
	bootstrapDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// CountNotification records an emitted notification tag.
func CountNotification(tag string) {
	bootstrapNotifications.WithLabelValues(tag).Inc()
}

// CountRetry records a retry of op.
func CountRetry(op string) {
	retryAttempts.WithLabelValues(op).Inc()
}

// RetryCount returns the retry counter for op.
func RetryCount(op string) prometheus.Counter {
	return retryAttempts.WithLabelValues(op)
}

// ReportCount returns the report counter for kind.
func ReportCount(kind string) prometheus.Counter {
	return reportsTotal.WithLabelValues(kind)
}
