package observe

import (
	"strconv"
	"time"

	"github.com/Sternrassler/pagegen/pkg/metrics"
	"github.com/Sternrassler/pagegen/pkg/unit"
)

// MetricsObserver records notifications as Prometheus metrics.
type MetricsObserver struct{}

// NewMetricsObserver creates a MetricsObserver.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// UnitStarted is a no-op; the in-flight gauge is kept by the pipeline so
// that cancelled units are accounted for.
func (o *MetricsObserver) UnitStarted(unit.WorkUnit) {}

func (o *MetricsObserver) UnitCompleted(pu unit.ProcessedUnit, elapsed time.Duration) {
	category := unit.NormalizeCategory(pu.Category)
	status := "success"
	if !pu.Success {
		status = "failed"
	}
	metrics.UnitsTotal.WithLabelValues(category, status).Inc()
	metrics.UnitDuration.WithLabelValues(category).Observe(elapsed.Seconds())
}

func (o *MetricsObserver) BackendCalled(call BackendCall) {
	status := "error"
	if call.StatusCode > 0 {
		status = strconv.Itoa(call.StatusCode)
	}
	metrics.BackendRequestsTotal.WithLabelValues(status).Inc()
	metrics.BackendRequestDuration.Observe(call.Duration.Seconds())
	if call.InputTokens > 0 {
		metrics.BackendTokensTotal.WithLabelValues("input").Add(float64(call.InputTokens))
	}
	if call.OutputTokens > 0 {
		metrics.BackendTokensTotal.WithLabelValues("output").Add(float64(call.OutputTokens))
	}
}

func (o *MetricsObserver) BatchFinished(s BatchSummary) {
	metrics.BatchesTotal.WithLabelValues(s.Mode).Inc()
	metrics.BatchDuration.WithLabelValues(s.Mode).Observe(s.Duration.Seconds())
}
