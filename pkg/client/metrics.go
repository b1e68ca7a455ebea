package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for extraction requests.
var (
	zyteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zyte_requests_total",
		Help: "Total extraction API requests by status",
	}, []string{"status"})

	zyteRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "zyte_request_duration_seconds",
		Help:    "Extraction API request duration in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	zyteErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zyte_errors_total",
		Help: "Total extraction errors by class",
	}, []string{"class"})

	zyteRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zyte_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	zyteRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zyte_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	zyteRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zyte_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)
