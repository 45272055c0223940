// internal/workers/review/complete-home-visit/handler.go
package completehomevisit

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"adoption-review/internal/common/camunda"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/common/validation"
	"adoption-review/internal/models"
	"adoption-review/pkg/registry"
)

const (
	TaskType = "adoption-complete-home-visit"
)

var inputSchema = registry.MustInputSchema(TaskType)

type Service interface {
	CompleteHomeVisit(ctx context.Context, actor models.Actor, appID int64, notes string, upload *models.Upload) (*models.Application, error)
	UpdateHomeVisitRecord(ctx context.Context, actor models.Actor, appID int64, notes string, upload *models.Upload) (*models.Application, error)
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

// Execute records the visit outcome. A redelivered job finds the visit
// already completed and only edits the record, so it never advances the
// application twice.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var upload *models.Upload
	if input.Document != nil {
		u, err := validation.DecodeUpload(input.Document.FileName, input.Document.ContentType, input.Document.Content)
		if err != nil {
			return nil, err
		}
		upload = &u
	}

	actor := models.Actor{ID: input.ShelterID, Role: models.RoleShelter}
	var (
		app *models.Application
		err error
	)
	if input.RecordOnly {
		app, err = h.service.UpdateHomeVisitRecord(ctx, actor, input.ApplicationID, input.Notes, upload)
	} else {
		app, err = h.service.CompleteHomeVisit(ctx, actor, input.ApplicationID, input.Notes, upload)
	}
	if err != nil {
		return nil, err
	}

	h.logger.Info("home visit recorded", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"status":        app.Status,
		"hasDocument":   app.HomeVisitDocument != "",
	})
	return &Output{
		ApplicationStatus: string(app.Status),
		HomeVisitNotes:    app.HomeVisitNotes,
		HomeVisitDocument: app.HomeVisitDocument,
	}, nil
}
