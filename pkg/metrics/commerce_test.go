package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCommerceMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCommerceMetrics(reg)

	m.IncLineAdded(OwnerSession)
	m.IncLineAdded(OwnerSession)
	m.IncLineAdded(OwnerUser)
	m.ObserveMerge(3)
	m.ObserveMerge(0)
	m.ObserveCheckout(PathCart, 2, 40*time.Millisecond)
	m.IncCheckoutFailure(PathProduct)

	if got, err := CounterValue(reg, "cart_lines_added_total", map[string]string{"owner": OwnerSession}); err != nil {
		t.Fatalf("fetch lines added: %v", err)
	} else if got != 2 {
		t.Fatalf("expected session adds=2, got %f", got)
	}

	if got, err := CounterValue(reg, "cart_merges_total", nil); err != nil {
		t.Fatalf("fetch merges: %v", err)
	} else if got != 2 {
		t.Fatalf("expected merges=2, got %f", got)
	}

	if got, err := CounterValue(reg, "cart_lines_merged_total", nil); err != nil {
		t.Fatalf("fetch merged lines: %v", err)
	} else if got != 3 {
		t.Fatalf("expected merged lines=3, got %f", got)
	}

	if got, err := CounterValue(reg, "checkout_purchases_total", map[string]string{"path": PathCart}); err != nil {
		t.Fatalf("fetch purchases: %v", err)
	} else if got != 2 {
		t.Fatalf("expected purchases=2, got %f", got)
	}

	if got, err := CounterValue(reg, "checkout_failures_total", map[string]string{"path": PathProduct}); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}

	if got, err := HistogramCount(reg, "checkout_duration_seconds", map[string]string{"path": PathCart}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got != 1 {
		t.Fatalf("expected one duration sample, got %d", got)
	}
}

func TestCommerceMetricsNilSafe(t *testing.T) {
	var m *CommerceMetrics
	m.IncLineAdded(OwnerUser)
	m.ObserveMerge(1)
	m.ObserveCheckout(PathCart, 1, time.Second)
	m.IncCheckoutFailure(PathCart)

	unregistered := NewCommerceMetrics(nil)
	unregistered.IncLineAdded(OwnerUser)
	unregistered.ObserveCheckout(PathProduct, 1, time.Second)
}
