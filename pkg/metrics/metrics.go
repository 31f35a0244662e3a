package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the background worker metrics
type Metrics struct {
	// Outbox related metrics
	OutboxEventsProcessed   *prometheus.CounterVec
	OutboxEventsFailed      *prometheus.CounterVec
	OutboxProcessingLatency prometheus.Histogram
	OutboxEventAge          *prometheus.HistogramVec
	OutboxRetries           *prometheus.CounterVec
	OutboxPruned            prometheus.Counter

	// Database metrics
	DatabaseOperations *prometheus.CounterVec

	// Notification metrics
	NotificationsSent *prometheus.CounterVec
}

// NewMetrics creates all worker metrics and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OutboxEventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_processed_total",
			Help:      "Total number of successfully published outbox events",
		}, []string{"event_type"}),
		OutboxEventsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_failed_total",
			Help:      "Total number of outbox events that could not be published",
		}, []string{"event_type"}),
		OutboxProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "batch_duration_seconds",
			Help:      "Time spent processing one batch of outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxEventAge: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "event_age_seconds",
			Help:      "Time between event creation and publication",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"event_type"}),
		OutboxRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "retry_attempts_total",
			Help:      "Total number of publish retries",
		}, []string{"event_type"}),
		OutboxPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_pruned_total",
			Help:      "Total number of processed events removed by the cleanup worker",
		}),

		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),

		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "emails_total",
			Help:      "Total number of notification emails by event type and outcome",
		}, []string{"event_type", "status"}),
	}
}
