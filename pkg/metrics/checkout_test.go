package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)
	metrics.IncOrdersCreated()
	metrics.IncOrdersCreated()
	metrics.IncSoldUpdateFailed()
	metrics.IncEmailFailed()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "checkout_orders_created_total"); err != nil {
		t.Fatalf("fetch created: %v", err)
	} else if got != 2 {
		t.Fatalf("expected created=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "checkout_sold_counter_failures_total"); err != nil {
		t.Fatalf("fetch sold counter failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected sold counter failures=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "checkout_confirmation_email_failures_total"); err != nil {
		t.Fatalf("fetch email failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected email failures=1, got %f", got)
	}
}

func TestCheckoutMetricsNilSafe(t *testing.T) {
	var metrics *CheckoutMetrics
	metrics.IncOrdersCreated()
	metrics.IncSoldUpdateFailed()
	metrics.IncEmailFailed()

	unregistered := NewCheckoutMetrics(nil)
	unregistered.IncOrdersCreated()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() == name {
			for _, metric := range mf.GetMetric() {
				return metric.GetCounter().GetValue(), nil
			}
		}
	}
	return 0, fmt.Errorf("metric %q not found", name)
}
