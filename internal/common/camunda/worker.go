// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"adoption-review/internal/common/config"
	"adoption-review/internal/common/errors"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/common/metrics"
	"adoption-review/internal/common/observability"
)

// JobHandler processes one job and reports its outcome to the broker. The
// returned error only feeds metrics.
type JobHandler func(client worker.JobClient, job entities.Job) error

// WorkerOptions configure one job worker.
type WorkerOptions struct {
	TaskType      string
	Config        config.WorkerConfig
	Handler       JobHandler
	Logger        logger.Logger
	Metrics       *metrics.Metrics
	Observability *observability.Observability
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for opts.TaskType.
func NewWorker(client zbc.Client, opts WorkerOptions) *CamundaWorker {
	builder := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(Instrument(opts.TaskType, opts.Handler, opts.Metrics, opts.Observability))

	if opts.Config.MaxJobsActive > 0 {
		builder = builder.MaxJobsActive(opts.Config.MaxJobsActive)
	}
	if opts.Config.Timeout > 0 {
		builder = builder.Timeout(config.GetDuration(opts.Config.Timeout))
	}

	w := &CamundaWorker{
		worker:   builder.Open(),
		logger:   opts.Logger,
		taskType: opts.TaskType,
	}
	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.Config.MaxJobsActive,
		"timeout_ms":    opts.Config.Timeout,
	})
	return w
}

// Instrument wraps h with job counters, duration histograms and the active
// job gauge.
func Instrument(taskType string, h JobHandler, m *metrics.Metrics, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		if m != nil {
			m.WorkerJobsActive.WithLabelValues(taskType).Inc()
			defer m.WorkerJobsActive.WithLabelValues(taskType).Dec()
		}

		err := h(client, job)

		status := "completed"
		if err != nil {
			status = "failed"
		}
		if m != nil {
			m.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			if err != nil {
				m.WorkerJobsFailed.WithLabelValues(taskType, string(errors.CodeOf(err))).Inc()
			} else {
				m.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
			}
		}
		obs.RecordJobProcessed(context.Background(), taskType, status)
		obs.RecordJobDuration(context.Background(), taskType, time.Since(start), status)
	}
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
