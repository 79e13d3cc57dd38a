// Package metrics provides Prometheus metrics for the comment service.
// Metrics are grouped by concern: HTTP requests, moderation decisions,
// the AI classifier and rejection notifications.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "blog_comments"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Moderation metrics - one increment per submitted comment
	ModerationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "decisions_total",
			Help:      "Automatic moderation decisions by decision path and resulting status",
		},
		[]string{"path", "status"},
	)

	ManualModerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "manual_total",
			Help:      "Manual moderation operations by target status and result",
		},
		[]string{"status", "result"},
	)

	SuspiciousEmails = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "suspicious_emails_total",
			Help:      "Submissions whose author email matched a suspicious pattern",
		},
	)

	// Classifier metrics
	ClassifierRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "requests_total",
			Help:      "AI gateway calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	ClassifierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "request_duration_seconds",
			Help:      "AI gateway call duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"operation"},
	)

	// Notification metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "total",
			Help:      "Rejection notifications by result",
		},
		[]string{"result"},
	)

	NotificationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "in_flight",
			Help:      "Number of notifications currently being sent",
		},
	)

	// Export metrics
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exports",
			Name:      "total",
			Help:      "Streaming comment exports by format and result",
		},
		[]string{"format", "result"},
	)

	ExportRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exports",
			Name:      "records_total",
			Help:      "Total number of comments streamed by format",
		},
		[]string{"format"},
	)
)

// ObserveDecision records the outcome of one automatic moderation
func ObserveDecision(path, status string) {
	ModerationDecisions.WithLabelValues(path, status).Inc()
}

// ObserveClassifierCall records an AI gateway call
func ObserveClassifierCall(operation, outcome string, elapsed time.Duration) {
	ClassifierRequests.WithLabelValues(operation, outcome).Inc()
	ClassifierDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveExport records a finished streaming export
func ObserveExport(format, result string, records int) {
	ExportsTotal.WithLabelValues(format, result).Inc()
	if records > 0 {
		ExportRecords.WithLabelValues(format).Add(float64(records))
	}
}
