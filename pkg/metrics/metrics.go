// Package metrics provides centralized Prometheus metrics registry for the
// Zyte API client. All metrics are defined in their respective packages
// (client, batch, cache, ratelimit) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler exposing every registered metric.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - zyte_requests_total{status} (Counter): Extraction API requests by HTTP status or network_error
//   - zyte_request_duration_seconds (Histogram): Duration of a single attempt
//   - zyte_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Retry Metrics (pkg/client):
//   - zyte_retries_total{error_class} (Counter): Retry attempts by error class
//   - zyte_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - zyte_retry_exhausted_total{error_class} (Counter): URLs that used every attempt
//
// Batch Metrics (pkg/batch):
//   - zyte_batch_in_flight (Gauge): URLs currently held by a worker
//   - zyte_batch_urls_total{outcome} (Counter): URLs resolved as succeeded or failed
//   - zyte_batch_duration_seconds (Histogram): Wall time of a complete batch
//
// Cache Metrics (pkg/cache):
//   - zyte_cache_hits_total (Counter): Cache hits
//   - zyte_cache_misses_total (Counter): Cache misses
//   - zyte_cache_written_bytes_total (Counter): Bytes written to the cache backend
//   - zyte_cache_errors_total{operation} (Counter): Cache operation errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - zyte_rate_limit_throttles_in_window (Gauge): 429 responses in the current window
//   - zyte_rate_limit_throttled_responses_total (Counter): All 429 responses
//   - zyte_rate_limit_wait_seconds (Histogram): Time spent in the outbound limiter
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(zyte_cache_hits_total[5m])) /
//   (sum(rate(zyte_cache_hits_total[5m])) + sum(rate(zyte_cache_misses_total[5m])))
//
//   # Throttling
//   zyte_rate_limit_throttles_in_window > 5
//
//   # Failed URL Rate
//   rate(zyte_batch_urls_total{outcome="failed"}[5m])
//
//   # P95 Attempt Latency
//   histogram_quantile(0.95, rate(zyte_request_duration_seconds_bucket[5m]))
