package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "billing"

// Metrics holds the service's business counters
type Metrics struct {
	BillingEventsTotal *prometheus.CounterVec
	WebhookEventsTotal *prometheus.CounterVec
	WebhookDuration    *prometheus.HistogramVec
	LedgerClampedTotal *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with registry
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		BillingEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Billing events by type and outcome.",
			},
			[]string{"type", "outcome"},
		),
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Provider webhook events by type and outcome.",
			},
			[]string{"type", "outcome"},
		),
		WebhookDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "webhook_duration_seconds",
				Help:      "Provider webhook processing duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		LedgerClampedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_clamped_total",
				Help:      "Usage deltas skipped because the counter would go below zero.",
			},
			[]string{"field"},
		),
	}

	registry.MustRegister(
		m.BillingEventsTotal,
		m.WebhookEventsTotal,
		m.WebhookDuration,
		m.LedgerClampedTotal,
	)
	return m
}

func (m *Metrics) BillingEventProcessed(eventType, outcome string) {
	m.BillingEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) WebhookEventProcessed(eventType, outcome string, elapsed time.Duration) {
	m.WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
	m.WebhookDuration.WithLabelValues(eventType).Observe(elapsed.Seconds())
}

func (m *Metrics) LedgerClamped(field string) {
	m.LedgerClampedTotal.WithLabelValues(field).Inc()
}
