package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"adoption-review/internal/common/errors"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/common/validation"
)

// DefaultJobTimeout bounds a job when the worker has no timeout configured.
const DefaultJobTimeout = 30 * time.Second

// Process does the work of one job. It receives the raw job variables and
// returns the variables to complete the job with.
type Process func(ctx context.Context, variables string) (interface{}, error)

// Runner drives a job through decode, execute and complete. Failures are
// reported through the ErrorHandler as job failures or BPMN errors.
type Runner struct {
	taskType string
	timeout  time.Duration
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

func NewRunner(taskType string, timeout time.Duration, log logger.Logger) *Runner {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	return &Runner{
		taskType: taskType,
		timeout:  timeout,
		errors:   errors.NewErrorHandler(log),
		logger:   log,
	}
}

// Run executes process for job and reports the outcome to client.
func (r *Runner) Run(client worker.JobClient, job entities.Job, process Process) error {
	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	output, err := process(ctx, job.Variables)
	if err != nil {
		r.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	if err := CompleteJob(ctx, client, job, output); err != nil {
		r.logger.WithError(err).Error("failed to complete job", map[string]interface{}{"jobKey": job.Key})
		return err
	}
	r.logger.Info("job completed successfully", map[string]interface{}{"jobKey": job.Key})
	return nil
}

// CompleteJob completes job with output as its variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return errors.NewInternalError("build complete job command", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return errors.NewInternalError("send complete job command", err)
	}
	return nil
}

// DecodeVariables validates raw against schema and unmarshals it into out.
// Both failures are validation errors.
func DecodeVariables(raw string, schema *validation.Schema, out interface{}) error {
	if schema != nil {
		if err := validation.ValidateJSON(raw, schema); err != nil {
			return err
		}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.NewValidationError(fmt.Sprintf("parse job variables: %v", err))
	}
	return nil
}
