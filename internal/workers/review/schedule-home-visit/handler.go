// internal/workers/review/schedule-home-visit/handler.go
package schedulehomevisit

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
	TaskType = "adoption-schedule-home-visit"
)

var inputSchema = registry.MustInputSchema(TaskType)

type Service interface {
	ScheduleHomeVisit(ctx context.Context, actor models.Actor, appID int64, visitDateTime string) (*models.Application, error)
	UpdateHomeVisitDate(ctx context.Context, actor models.Actor, appID int64, newDateTime string) (*models.Application, error)
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

// Execute books the visit. With ChangeDateOnly it only moves the date of a
// visit that is already scheduled.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor := models.Actor{ID: input.ShelterID, Role: models.RoleShelter}

	var (
		app *models.Application
		err error
	)
	if input.ChangeDateOnly {
		app, err = h.service.UpdateHomeVisitDate(ctx, actor, input.ApplicationID, input.VisitDateTime)
	} else {
		app, err = h.service.ScheduleHomeVisit(ctx, actor, input.ApplicationID, input.VisitDateTime)
	}
	if err != nil {
		return nil, err
	}

	out := &Output{ApplicationStatus: string(app.Status)}
	if app.HomeVisitDate != nil {
		out.HomeVisitDate = app.HomeVisitDate.UTC().Format(time.RFC3339)
	}
	h.logger.Info("home visit scheduled", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"visitAt":       out.HomeVisitDate,
		"dateOnly":      input.ChangeDateOnly,
	})
	return out, nil
}
