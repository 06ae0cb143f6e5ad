package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OwnerUser    = "user"
	OwnerSession = "session"

	PathCart    = "cart"
	PathProduct = "product"
)

// CommerceMetrics tracks cart and checkout activity. A nil receiver is a no-op.
type CommerceMetrics struct {
	linesAdded       *prometheus.CounterVec
	merges           prometheus.Counter
	linesMerged      prometheus.Counter
	purchases        *prometheus.CounterVec
	failures         *prometheus.CounterVec
	checkoutDuration *prometheus.HistogramVec
}

// NewCommerceMetrics registers the commerce metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	m := &CommerceMetrics{
		linesAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_lines_added_total",
			Help: "Add-to-cart operations by owner kind.",
		}, []string{"owner"}),
		merges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cart_merges_total",
			Help: "Session carts merged into user carts at login.",
		}),
		linesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cart_lines_merged_total",
			Help: "Session cart lines moved into user carts.",
		}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_purchases_total",
			Help: "Purchase records created by checkout path.",
		}, []string{"path"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_failures_total",
			Help: "Checkout attempts rolled back by checkout path.",
		}, []string{"path"}),
		checkoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Duration of checkout transactions in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}
	reg.MustRegister(m.linesAdded, m.merges, m.linesMerged, m.purchases, m.failures, m.checkoutDuration)
	return m
}

// IncLineAdded counts an add-to-cart for the given owner kind.
func (m *CommerceMetrics) IncLineAdded(owner string) {
	if m == nil || m.linesAdded == nil {
		return
	}
	m.linesAdded.WithLabelValues(normalizeLabel(owner)).Inc()
}

// ObserveMerge records a completed merge that moved the given number of lines.
func (m *CommerceMetrics) ObserveMerge(lines int) {
	if m == nil || m.merges == nil {
		return
	}
	m.merges.Inc()
	if lines > 0 {
		m.linesMerged.Add(float64(lines))
	}
}

// ObserveCheckout records a committed checkout on path that created n purchases.
func (m *CommerceMetrics) ObserveCheckout(path string, n int, took time.Duration) {
	if m == nil || m.purchases == nil {
		return
	}
	path = normalizeLabel(path)
	m.purchases.WithLabelValues(path).Add(float64(n))
	m.checkoutDuration.WithLabelValues(path).Observe(took.Seconds())
}

// IncCheckoutFailure counts a rolled-back checkout on path.
func (m *CommerceMetrics) IncCheckoutFailure(path string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(path)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
