// internal/workers/application/create-draft/handler.go
package createdraft

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"adoption-review/internal/common/camunda"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/common/validation"
	"adoption-review/internal/models"
	"adoption-review/pkg/registry"
)

const (
	TaskType = "adoption-create-draft"
)

var inputSchema = registry.MustInputSchema(TaskType)

// Service is the part of the application service this worker drives.
type Service interface {
	CreateDraft(ctx context.Context, actor models.Actor, petID int64, form *models.FormData) (*models.Application, error)
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

// Execute returns the applicant's active application for the pet. A form
// supplied with the job is merged into an existing draft.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Form != nil {
		if err := validation.ValidateDraft(*input.Form); err != nil {
			return nil, err
		}
	}

	actor := models.Actor{ID: input.ApplicantID, Role: models.RoleApplicant}
	app, err := h.service.CreateDraft(ctx, actor, input.PetID, input.Form)
	if err != nil {
		return nil, err
	}

	h.logger.Info("draft application ready", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"applicantId":   app.ApplicantID,
		"petId":         app.PetID,
		"status":        app.Status,
	})

	return &Output{
		ApplicationID:     app.ID,
		ApplicationCode:   app.ApplicationID,
		ApplicationStatus: string(app.Status),
		ShelterID:         app.ShelterID,
		CreatedAt:         app.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
