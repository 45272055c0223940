// internal/workers/review/request-documents/handler.go
package requestdocuments

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"adoption-review/internal/adoption/service"
	"adoption-review/internal/common/camunda"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/models"
	"adoption-review/pkg/registry"
)

const (
	TaskType = "adoption-request-documents"
)

var inputSchema = registry.MustInputSchema(TaskType)

type Service interface {
	RequestDocuments(ctx context.Context, actor models.Actor, appID int64) (*models.Application, error)
	DocumentStatus(ctx context.Context, actor models.Actor, appID int64) (*service.DocumentSummary, error)
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
	actor := models.Actor{ID: input.ShelterID, Role: models.RoleShelter}

	app, err := h.service.RequestDocuments(ctx, actor, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	out := &Output{ApplicationStatus: string(app.Status), MissingDocuments: []string{}}

	summary, err := h.service.DocumentStatus(ctx, actor, input.ApplicationID)
	if err != nil {
		h.logger.WithError(err).Warn("document completion unavailable", map[string]interface{}{
			"applicationId": app.ApplicationID,
		})
		return out, nil
	}
	out.DocumentsComplete = summary.Completion.IsComplete()
	for _, t := range summary.Completion.Missing {
		out.MissingDocuments = append(out.MissingDocuments, string(t))
	}

	h.logger.Info("documents requested", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"missing":       out.MissingDocuments,
	})
	return out, nil
}
