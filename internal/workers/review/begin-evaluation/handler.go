// internal/workers/review/begin-evaluation/handler.go
package beginevaluation

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"adoption-review/internal/common/camunda"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/models"
	"adoption-review/pkg/registry"
)

const (
	TaskType = "adoption-begin-evaluation"
)

var inputSchema = registry.MustInputSchema(TaskType)

type Service interface {
	BeginEvaluation(ctx context.Context, actor models.Actor, appID int64) (*models.Application, error)
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

// Execute moves the application into evaluation on behalf of the shelter, or
// of the system when the job carries no shelter.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor := models.Actor{Role: models.RoleSystem}
	if input.ShelterID != nil {
		actor = models.Actor{ID: *input.ShelterID, Role: models.RoleShelter}
	}

	app, err := h.service.BeginEvaluation(ctx, actor, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("evaluation started", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"actor":         actor.String(),
	})
	return &Output{
		ApplicationStatus: string(app.Status),
		AutoGenerated:     actor.Role == models.RoleSystem,
	}, nil
}
