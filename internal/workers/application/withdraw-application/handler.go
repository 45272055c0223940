// internal/workers/application/withdraw-application/handler.go
package withdrawapplication

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"adoption-review/internal/common/camunda"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/models"
	"adoption-review/pkg/registry"
)

const (
	TaskType = "adoption-withdraw-application"
)

var inputSchema = registry.MustInputSchema(TaskType)

type Service interface {
	Withdraw(ctx context.Context, actor models.Actor, appID int64) (*models.Application, error)
}

type Handler struct {
	service Service
	runner  *camunda.Runner
	logger  logger.Logger
}

func NewHandler(config *Config, svc Service, log logger.Logger) *Handler {
	return &Handler{
		service: svc,
		runner:  camunda.NewRunner(TaskType, config.Timeout, log),
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	return h.runner.Run(client, job, h.process)
}

func (h *Handler) process(ctx context.Context, variables string) (interface{}, error) {
	var input Input
	if err := camunda.DecodeVariables(variables, inputSchema, &input); err != nil {
		return nil, err
	}
	return h.Execute(ctx, &input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor := models.Actor{ID: input.ApplicantID, Role: models.RoleApplicant}
	app, err := h.service.Withdraw(ctx, actor, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("application withdrawn", map[string]interface{}{
		"applicationId": app.ApplicationID,
	})
	return &Output{
		ApplicationID:     app.ID,
		ApplicationStatus: string(app.Status),
		WithdrawnAt:       app.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}
