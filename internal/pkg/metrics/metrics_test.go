package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordOutcome("signup", "created")
	m.RecordOutcome("signup", "created")
	m.RecordOutcome("signup", "mail_failure")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("signup", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("signup", "mail_failure")))
}

func TestRecordMail(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordMail("welcome", true)
	m.RecordMail("welcome", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MailDeliveries.WithLabelValues("welcome", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MailDeliveries.WithLabelValues("welcome", "failed")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOutcome("signup", "created")
		m.RecordMail("validation", true)
		m.ObserveOperation("signup", time.Now())
	})
}
