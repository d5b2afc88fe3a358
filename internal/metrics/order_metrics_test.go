package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func newTestMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.NewRegistry())
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestOrderMetrics_Counters(t *testing.T) {
	m := newTestMetrics()

	m.RecordOrderPlaced()
	m.RecordOrderPlaced()
	if got := counterValue(t, m.ordersPlaced); got != 2 {
		t.Fatalf("expected 2 placed orders, got %v", got)
	}

	m.RecordStockReserved(7)
	if got := counterValue(t, m.stockReserved); got != 7 {
		t.Fatalf("expected 7 reserved units, got %v", got)
	}

	m.RecordStockCompensation()
	if got := counterValue(t, m.stockCompensations); got != 1 {
		t.Fatalf("expected 1 compensation, got %v", got)
	}
}

func TestOrderMetrics_RejectedByReason(t *testing.T) {
	m := newTestMetrics()

	m.RecordOrderRejected(RejectReasonInsufficientStock)
	m.RecordOrderRejected(RejectReasonInsufficientStock)
	m.RecordOrderRejected(RejectReasonCustomerNotFound)

	if got := counterValue(t, m.ordersRejected.WithLabelValues(RejectReasonInsufficientStock)); got != 2 {
		t.Fatalf("expected 2 stock rejections, got %v", got)
	}
	if got := counterValue(t, m.ordersRejected.WithLabelValues(RejectReasonCustomerNotFound)); got != 1 {
		t.Fatalf("expected 1 customer rejection, got %v", got)
	}
}

func TestOrderMetrics_DurationObserved(t *testing.T) {
	m := newTestMetrics()

	m.RecordPlaceDuration(15 * time.Millisecond)

	var dm dto.Metric
	if err := m.placeDuration.Write(&dm); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if dm.GetHistogram().GetSampleCount() != 1 {
		t.Fatalf("expected 1 observation, got %d", dm.GetHistogram().GetSampleCount())
	}
}

func TestOrderMetrics_ReregisterReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newOrderMetricsWithRegisterer(registry)
	second := newOrderMetricsWithRegisterer(registry)

	first.RecordOrderPlaced()
	second.RecordOrderPlaced()

	if got := counterValue(t, first.ordersPlaced); got != 2 {
		t.Fatalf("expected shared counter value 2, got %v", got)
	}
}
