//go:build unit

package metrics_test

import (
	"strings"
	"testing"
	"time"

	"order-pipeline/internal/infra/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewOrderMetrics(reg)

	m.ObservePlacement("created", 120*time.Millisecond)
	m.ObservePlacement("created", 80*time.Millisecond)
	m.ObservePlacement("Locked", time.Millisecond)
	m.LockContended()
	m.MailEnqueueFailed()

	expected := `
# HELP order_pipeline_orders_placements_total Order placement attempts by outcome.
# TYPE order_pipeline_orders_placements_total counter
order_pipeline_orders_placements_total{outcome="Locked"} 1
order_pipeline_orders_placements_total{outcome="created"} 2
# HELP order_pipeline_orders_cart_lock_contended_total Placements rejected because the cart lock was held.
# TYPE order_pipeline_orders_cart_lock_contended_total counter
order_pipeline_orders_cart_lock_contended_total 1
# HELP order_pipeline_orders_mail_enqueue_failures_total Confirmation mails that could not be enqueued.
# TYPE order_pipeline_orders_mail_enqueue_failures_total counter
order_pipeline_orders_mail_enqueue_failures_total 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"order_pipeline_orders_placements_total",
		"order_pipeline_orders_cart_lock_contended_total",
		"order_pipeline_orders_mail_enqueue_failures_total",
	)
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "order_pipeline_orders_placement_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one histogram series per outcome")
}

func TestNewOrderMetricsRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewOrderMetrics(reg)
	assert.Panics(t, func() { metrics.NewOrderMetrics(reg) })
}
