// Package metrics provides the centralized Prometheus metrics registry for
// the hydrator. All metrics are defined in their respective packages
// (cache, ratelimit, fetch, hydrate) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the hydrator.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - hydrator_cache_hits_total{backend} (Counter): Cache hits by backend
//   - hydrator_cache_misses_total{backend} (Counter): Cache misses by backend
//   - hydrator_cache_expired_total{backend} (Counter): Entries evicted lazily on read
//   - hydrator_cache_errors_total{backend, operation} (Counter): Cache operation errors
//
// Quota Metrics (pkg/ratelimit):
//   - hydrator_quota_admitted_units_total (Counter): Quota units committed
//   - hydrator_quota_blocked_total (Counter): Admissions that had to wait
//   - hydrator_quota_wait_seconds (Histogram): Time spent waiting for admission
//   - hydrator_quota_exceeded_total (Counter): Requests impossible within the budget
//   - hydrator_quota_window_used (Gauge): Units used in the current window
//   - hydrator_quota_remote_denials_total (Counter): Rate denials reported by the upstream
//
// Fetch Metrics (pkg/fetch):
//   - hydrator_fetch_batches_total{source, status} (Counter): Batches by outcome
//   - hydrator_fetch_duration_seconds{source} (Histogram): Batch fetch duration
//   - hydrator_fetch_errors_total{source, class} (Counter): Fetch errors by class
//   - hydrator_fetch_not_found_total{source} (Counter): Ids missing from upstream responses
//   - hydrator_fetch_retries_total{class} (Counter): Retry attempts by error class
//   - hydrator_fetch_retry_backoff_seconds{class} (Histogram): Backoff durations
//   - hydrator_fetch_retry_exhausted_total{class} (Counter): Batches that ran out of attempts
//   - hydrator_http_requests_total{status} (Counter): Raw HTTP requests by status
//   - hydrator_http_request_duration_seconds (Histogram): HTTP request duration
//   - hydrator_http_in_flight (Gauge): In-flight HTTP requests
//
// Pipeline Metrics (pkg/hydrate):
//   - hydrator_pipeline_runs_total{outcome} (Counter): Hydration runs by outcome
//   - hydrator_pipeline_records_total{status} (Counter): Output records by status
//   - hydrator_pipeline_batches_total (Counter): Batches dispatched
//   - hydrator_pipeline_duration_seconds (Histogram): Run wall time
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(hydrator_cache_hits_total[5m])) /
//   (sum(rate(hydrator_cache_hits_total[5m])) + sum(rate(hydrator_cache_misses_total[5m])))
//
//   # Quota Burn Rate (units per hour)
//   rate(hydrator_quota_admitted_units_total[1h]) * 3600
//
//   # Fetch Error Rate by Class
//   rate(hydrator_fetch_errors_total[5m])
//
//   # P95 Batch Latency
//   histogram_quantile(0.95, rate(hydrator_fetch_duration_seconds_bucket[5m]))
//
//   # Not-Found Ratio
//   rate(hydrator_fetch_not_found_total[5m]) / rate(hydrator_pipeline_records_total[5m])
