// Package metrics provides Prometheus metrics for the webhook intake path.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "welcome_mailer"

// Outcomes recorded for each webhook delivery.
const (
	OutcomeSent           = "sent"
	OutcomeSkipped        = "skipped"
	OutcomeFailed         = "failed"
	OutcomeRejectedMethod = "rejected_method"
)

// Metrics groups the collectors registered by the service.
type Metrics struct {
	WebhookEvents   *prometheus.CounterVec
	WebhookFailures *prometheus.CounterVec
	SendDuration    prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WebhookEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Webhook deliveries by event class and outcome",
			},
			[]string{"event", "outcome"},
		),
		WebhookFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_failures_total",
				Help:      "Failed webhook deliveries by failure kind",
			},
			[]string{"kind"},
		),
		SendDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "email_send_duration_seconds",
				Help:      "Duration of email provider calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// EventClass collapses arbitrary event types into a bounded label set.
func EventClass(eventType, handled string) string {
	if eventType == handled {
		return handled
	}
	return "other"
}

// RecordEvent counts one delivery.
func (m *Metrics) RecordEvent(event, outcome string) {
	m.WebhookEvents.WithLabelValues(event, outcome).Inc()
}

// RecordFailure counts one failed delivery by kind.
func (m *Metrics) RecordFailure(kind string) {
	m.WebhookFailures.WithLabelValues(kind).Inc()
}

// ObserveSend records the duration of an email provider call started at start.
func (m *Metrics) ObserveSend(start time.Time) {
	m.SendDuration.Observe(time.Since(start).Seconds())
}
