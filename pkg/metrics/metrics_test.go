package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestUnitsTotal_Labels(t *testing.T) {
	counter := UnitsTotal.WithLabelValues("metrics-test", "success")
	before := testutil.ToFloat64(counter)

	counter.Inc()

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("pagegen_units_total = %v, want %v", got, before+1)
	}
}

func TestUnitsInFlight(t *testing.T) {
	UnitsInFlight.Set(0)
	UnitsInFlight.Inc()
	UnitsInFlight.Inc()
	UnitsInFlight.Dec()

	if got := testutil.ToFloat64(UnitsInFlight); got != 1 {
		t.Errorf("pagegen_units_in_flight = %v, want 1", got)
	}
	UnitsInFlight.Set(0)
}
