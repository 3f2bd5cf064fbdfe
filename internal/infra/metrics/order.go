package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "order_pipeline"
	subsystem = "orders"
)

// OrderMetrics records order placement outcomes. Outcome labels are the
// error kinds plus "created" and "replayed".
type OrderMetrics struct {
	placements    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	lockContended prometheus.Counter
	mailDropped   prometheus.Counter
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "placements_total",
			Help: "Order placement attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "placement_duration_seconds",
			Help:    "Order placement latency by outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		lockContended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "cart_lock_contended_total",
			Help: "Placements rejected because the cart lock was held.",
		}),
		mailDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "mail_enqueue_failures_total",
			Help: "Confirmation mails that could not be enqueued.",
		}),
	}
	reg.MustRegister(m.placements, m.duration, m.lockContended, m.mailDropped)
	return m
}

func (m *OrderMetrics) ObservePlacement(outcome string, elapsed time.Duration) {
	m.placements.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *OrderMetrics) LockContended() {
	m.lockContended.Inc()
}

func (m *OrderMetrics) MailEnqueueFailed() {
	m.mailDropped.Inc()
}
