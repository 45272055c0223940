// internal/workers/review/final-decision/handler.go
package finaldecision

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
	TaskType = "adoption-final-decision"
)

var inputSchema = registry.MustInputSchema(TaskType)

type Service interface {
	MakeFinalDecision(ctx context.Context, actor models.Actor, appID int64, decision, notes string) (*models.Application, error)
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

// Execute records the shelter's decision. An approval that loses the race
// for the pet surfaces as PET_NOT_AVAILABLE and leaves the application in
// evaluation.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor := models.Actor{ID: input.ShelterID, Role: models.RoleShelter}
	app, err := h.service.MakeFinalDecision(ctx, actor, input.ApplicationID, input.Decision, input.Notes)
	if err != nil {
		return nil, err
	}

	out := &Output{
		ApplicationStatus: string(app.Status),
		Decision:          input.Decision,
		PetAdopted:        app.Status == models.StatusApproved,
	}
	if app.ReviewedBy != nil {
		out.ReviewedBy = *app.ReviewedBy
	}
	if app.ReviewedAt != nil {
		out.ReviewedAt = app.ReviewedAt.UTC().Format(time.RFC3339)
	}

	h.logger.Info("final decision recorded", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"decision":      input.Decision,
		"petId":         app.PetID,
	})
	return out, nil
}
