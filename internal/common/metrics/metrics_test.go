package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Transition("draft", "submitted")
	m.Transition("draft", "submitted")
	m.Notification("email", "sent")
	m.ObserveOperation("submit", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("draft", "submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("email", "sent")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["adoption_transitions_total"])
	assert.True(t, names["adoption_operation_duration_seconds"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition("a", "b")
		m.Notification("sms", "failed")
		m.ObserveOperation("x", time.Now())
	})
}

func TestNewNop_Independent(t *testing.T) {
	a := NewNop()
	b := NewNop()
	a.Transition("draft", "submitted")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Transitions.WithLabelValues("draft", "submitted")))
}
