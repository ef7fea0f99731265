package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records payment webhook processing outcomes.
type WebhookMetrics struct {
	duration           *prometheus.HistogramVec
	events             *prometheus.CounterVec
	sideEffectFailures *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_event_duration_seconds",
		Help:    "Duration of webhook event processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Processed webhook events by outcome.",
	}, []string{"event_type", "outcome"})
	sideEffectFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_side_effect_failures_total",
		Help: "Best-effort side effects that failed and need operator follow-up.",
	}, []string{"kind"})
	reg.MustRegister(duration, events, sideEffectFailures)
	return &WebhookMetrics{
		duration:           duration,
		events:             events,
		sideEffectFailures: sideEffectFailures,
	}
}

// ObserveDuration records processing duration for the event type.
func (m *WebhookMetrics) ObserveDuration(eventType string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncEvent counts one processed event with its outcome (processed, duplicate,
// order_not_found, amount_mismatch, failed, ignored).
func (m *WebhookMetrics) IncEvent(eventType, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// IncSideEffectFailure counts one failed best-effort side effect
// (stock_decrement, coupon_increment, profile_upsert).
func (m *WebhookMetrics) IncSideEffectFailure(kind string) {
	if m == nil || m.sideEffectFailures == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
