package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks lifecycle outcomes and mail deliveries.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Outcomes          *prometheus.CounterVec
	MailDeliveries    *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "newsletter_lifecycle_outcomes_total",
			Help: "Lifecycle operation results by operation and outcome",
		}, []string{"operation", "outcome"}),
		MailDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "newsletter_mail_deliveries_total",
			Help: "Outbound mail attempts by kind and result",
		}, []string{"kind", "result"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsletter_lifecycle_duration_seconds",
			Help:    "Duration of lifecycle operations including store and mail calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
	}
}

// RecordOutcome counts one finished operation.
func (m *Metrics) RecordOutcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(operation, outcome).Inc()
}

// RecordMail counts one delivery attempt.
func (m *Metrics) RecordMail(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.MailDeliveries.WithLabelValues(kind, result).Inc()
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
