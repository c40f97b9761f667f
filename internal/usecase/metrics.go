package usecase

import "time"

// MetricsRecorder receives business counters from the use cases
type MetricsRecorder interface {
	BillingEventProcessed(eventType, outcome string)
	WebhookEventProcessed(eventType, outcome string, elapsed time.Duration)
	LedgerClamped(field string)
}

// NopMetrics discards all measurements
type NopMetrics struct{}

func (NopMetrics) BillingEventProcessed(string, string)                {}
func (NopMetrics) WebhookEventProcessed(string, string, time.Duration) {}
func (NopMetrics) LedgerClamped(string)                                {}

func metricsOrNop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return NopMetrics{}
	}
	return m
}
