package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal - queued API calls by operation and outcome
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queued_client_requests_total",
		Help: "Count of queued API requests",
	}, []string{"operation", "outcome"})

	// RequestDuration - queued API call latency
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "queued_client_request_duration_seconds",
		Help:    "Latency of queued API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// RetriesTotal - backoff sleeps taken before retrying a request
	RetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queued_client_retries_total",
		Help: "Count of request retries after transient failures",
	})

	// MessagesTotal - messages handled by consumer services
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queued_messages_total",
		Help: "Count of consumed messages by service and outcome",
	}, []string{"service", "outcome"})
)

// ObserveRequest ...
func ObserveRequest(operation string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	RequestsTotal.WithLabelValues(operation, outcome).Inc()
	RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
