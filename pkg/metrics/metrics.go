// Package metrics holds the Prometheus collectors for pagegen. All collectors
// are registered with the default registerer through promauto.
//
// Unit Metrics:
//   - pagegen_units_total{category, status} (Counter): finished units, status is success or failed
//   - pagegen_unit_duration_seconds{category} (Histogram): unit processing time
//   - pagegen_units_in_flight (Gauge): units currently inside a processor
//   - pagegen_units_skipped_total{reason} (Counter): units not admitted (total_limit, category_limit, aborted)
//
// Backend Metrics:
//   - pagegen_backend_requests_total{status} (Counter): backend calls by HTTP status or error class
//   - pagegen_backend_request_duration_seconds (Histogram): backend call latency
//   - pagegen_backend_errors_total{class} (Counter): backend errors by class
//   - pagegen_backend_tokens_total{direction} (Counter): tokens reported by the backend (input, output)
//
// Retry Metrics:
//   - pagegen_retries_total{reason} (Counter): retry attempts, reason is backend_error or no_payload
//   - pagegen_retry_backoff_seconds (Histogram): backoff before each retry
//   - pagegen_retry_exhausted_total{reason} (Counter): calls that used every attempt
//
// Variety Metrics:
//   - pagegen_variety_resets_total{category} (Counter): automatic history resets after exhaustion
//
// Batch Metrics:
//   - pagegen_batches_total{mode} (Counter): finished batch runs
//   - pagegen_batch_duration_seconds{mode} (Histogram): batch run duration
//
// Example Prometheus Queries:
//
//	# Unit failure ratio
//	sum(rate(pagegen_units_total{status="failed"}[5m])) / sum(rate(pagegen_units_total[5m]))
//
//	# Retries per backend call
//	rate(pagegen_retries_total[5m]) / rate(pagegen_backend_requests_total[5m])
//
//	# P95 unit latency
//	histogram_quantile(0.95, rate(pagegen_unit_duration_seconds_bucket[5m]))
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the Prometheus registerer every pagegen collector is registered with.
var Registry = prometheus.DefaultRegisterer

// Unit processing.
var (
	UnitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegen_units_total",
		Help: "Total finished units by category and status",
	}, []string{"category", "status"})

	UnitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagegen_unit_duration_seconds",
		Help:    "Unit processing duration in seconds by category",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"category"})

	UnitsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pagegen_units_in_flight",
		Help: "Number of units currently being processed",
	})

	UnitsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegen_units_skipped_total",
		Help: "Total units not admitted by reason",
	}, []string{"reason"})
)

// Backend calls.
var (
	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegen_backend_requests_total",
		Help: "Total backend requests by status",
	}, []string{"status"})

	BackendRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pagegen_backend_request_duration_seconds",
		Help:    "Backend request duration in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	BackendErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegen_backend_errors_total",
		Help: "Total backend errors by class",
	}, []string{"class"})

	BackendTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegen_backend_tokens_total",
		Help: "Total tokens reported by the backend by direction",
	}, []string{"direction"})
)

// Retries.
var (
	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegen_retries_total",
		Help: "Total number of retry attempts by reason",
	}, []string{"reason"})

	RetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pagegen_retry_backoff_seconds",
		Help:    "Backoff duration before a retry",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
	})

	RetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegen_retry_exhausted_total",
		Help: "Total number of calls that exhausted every attempt by reason",
	}, []string{"reason"})
)

// Variety tracking.
var VarietyResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pagegen_variety_resets_total",
	Help: "Total automatic variety history resets by category",
}, []string{"category"})

// Batch runs.
var (
	BatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegen_batches_total",
		Help: "Total finished batch runs by pipeline mode",
	}, []string{"mode"})

	BatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagegen_batch_duration_seconds",
		Help:    "Batch run duration in seconds by pipeline mode",
		Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600},
	}, []string{"mode"})
)
