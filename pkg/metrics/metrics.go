// Package metrics provides the centralized Prometheus registry for the
// report engine. All metrics are defined in their respective packages
// (report, cache, progress) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the report engine.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Generation Metrics (pkg/report):
//   - report_generations_total{mode, outcome} (Counter): Generations by mode
//     (accumulate, stream) and outcome (success, error, handler_error, cancelled)
//   - report_batches_total{mode} (Counter): Pages fetched by mode
//   - report_rows_total{mode} (Counter): Aggregate rows produced by mode
//   - report_fetch_duration_seconds (Histogram): Individual page fetch duration
//   - report_generation_duration_seconds{mode} (Histogram): End-to-end duration
//
// Count Cache Metrics (pkg/cache):
//   - report_count_cache_hits_total (Counter): Item count cache hits
//   - report_count_cache_misses_total (Counter): Item count cache misses
//   - report_count_cache_errors_total{operation} (Counter): Cache operation errors
//
// Progress Metrics (pkg/progress):
//   - report_progress_updates_total (Counter): Progress updates published
//   - report_progress_errors_total (Counter): Failed progress writes
//
// Example Prometheus Queries:
//
//   # Count cache hit rate
//   rate(report_count_cache_hits_total[5m]) /
//   (rate(report_count_cache_hits_total[5m]) + rate(report_count_cache_misses_total[5m]))
//
//   # P95 page fetch latency
//   histogram_quantile(0.95, rate(report_fetch_duration_seconds_bucket[5m]))
//
//   # Failed generations
//   rate(report_generations_total{outcome!="success"}[5m])
//
//   # Rows per second by mode
//   rate(report_rows_total[5m])
