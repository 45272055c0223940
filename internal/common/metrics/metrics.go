package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector of the adoption workers.
type Metrics struct {
	WorkerJobsCompleted *prometheus.CounterVec
	WorkerJobsFailed    *prometheus.CounterVec
	WorkerJobDuration   *prometheus.HistogramVec
	WorkerJobsActive    *prometheus.GaugeVec

	Transitions       *prometheus.CounterVec
	Decisions         *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	AuditIndexFailed  prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

// New registers the collectors with reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		WorkerJobsCompleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worker_jobs_completed_total",
				Help: "Total number of jobs completed by worker",
			},
			[]string{"task_type"},
		),
		WorkerJobsFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worker_jobs_failed_total",
				Help: "Total number of jobs failed by worker",
			},
			[]string{"task_type", "error_code"},
		),
		WorkerJobDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "worker_job_duration_seconds",
				Help: "Duration of job processing in seconds",
			},
			[]string{"task_type"},
		),
		WorkerJobsActive: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "worker_jobs_active",
				Help: "Number of active jobs per worker",
			},
			[]string{"task_type"},
		),
		Transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adoption_transitions_total",
				Help: "Committed application status transitions",
			},
			[]string{"from", "to"},
		),
		Decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adoption_decisions_total",
				Help: "Final decisions by verdict and outcome",
			},
			[]string{"decision", "outcome"},
		),
		Notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adoption_notifications_total",
				Help: "Notification deliveries by channel and status",
			},
			[]string{"channel", "status"},
		),
		AuditIndexFailed: f.NewCounter(
			prometheus.CounterOpts{
				Name: "adoption_audit_index_failures_total",
				Help: "Timeline entries that could not be exported to the audit index",
			},
		),
		OperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "adoption_operation_duration_seconds",
				Help: "Duration of application service operations",
			},
			[]string{"operation"},
		),
	}
}

// NewNop returns collectors attached to a private registry, for tests and
// callers that do not export metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveOperation records how long operation took since start.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Transition counts a committed status change.
func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

// Notification counts a delivery attempt on channel.
func (m *Metrics) Notification(channel, status string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(channel, status).Inc()
}

// Decision counts a final decision attempt by outcome.
func (m *Metrics) Decision(decision, outcome string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision, outcome).Inc()
}
