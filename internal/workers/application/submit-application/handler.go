// internal/workers/application/submit-application/handler.go
package submitapplication

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
	TaskType = "adoption-submit-application"
)

var inputSchema = registry.MustInputSchema(TaskType)

type Service interface {
	GetApplication(ctx context.Context, actor models.Actor, appID int64) (*models.Application, error)
	Submit(ctx context.Context, actor models.Actor, appID int64, form models.FormData) (*models.Application, error)
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

// Execute submits the draft. The sections sent with the job are laid over the
// stored draft and the result must be a complete questionnaire.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor := models.Actor{ID: input.ApplicantID, Role: models.RoleApplicant}

	current, err := h.service.GetApplication(ctx, actor, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	var form models.FormData
	if input.Form != nil {
		form = *input.Form
	}
	current.ApplyForm(form)
	if err := validation.ValidateSubmission(current.Form()); err != nil {
		return nil, err
	}

	app, err := h.service.Submit(ctx, actor, input.ApplicationID, form)
	if err != nil {
		return nil, err
	}

	h.logger.Info("application submitted", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"shelterId":     app.ShelterID,
	})

	out := &Output{
		ApplicationID:     app.ID,
		ApplicationCode:   app.ApplicationID,
		ApplicationStatus: string(app.Status),
		ShelterID:         app.ShelterID,
	}
	if app.SubmittedAt != nil {
		out.SubmittedAt = app.SubmittedAt.UTC().Format(time.RFC3339)
	}
	return out, nil
}
