// internal/workers/application/upload-document/handler.go
package uploaddocument

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"adoption-review/internal/adoption/service"
	"adoption-review/internal/common/camunda"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/common/validation"
	"adoption-review/internal/models"
	"adoption-review/pkg/registry"
)

const (
	TaskType = "adoption-upload-document"
)

var inputSchema = registry.MustInputSchema(TaskType)

type Service interface {
	UploadDocument(ctx context.Context, actor models.Actor, appID int64, req service.UploadRequest) (*models.ApplicationDocument, error)
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

// Execute stores the document and reports how far the required set is
// covered. The upload has already been committed when the completion lookup
// runs, so a failing lookup only leaves the completion fields empty.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	upload, err := validation.DecodeUpload(input.FileName, input.ContentType, input.Content)
	if err != nil {
		return nil, err
	}

	actor := models.Actor{ID: input.ApplicantID, Role: models.RoleApplicant}
	doc, err := h.service.UploadDocument(ctx, actor, input.ApplicationID, service.UploadRequest{
		Type:        input.DocumentType,
		Upload:      upload,
		Description: input.Description,
	})
	if err != nil {
		return nil, err
	}

	out := &Output{
		DocumentID:       doc.ID,
		DocumentType:     string(doc.DocumentType),
		Version:          doc.Version,
		FileSize:         doc.FileSize,
		MissingDocuments: []string{},
	}

	summary, err := h.service.DocumentStatus(ctx, actor, input.ApplicationID)
	if err != nil {
		h.logger.WithError(err).Warn("document completion unavailable", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"documentId":    doc.ID,
		})
		return out, nil
	}
	out.DocumentsComplete = summary.Completion.IsComplete()
	out.CompletionPercent = summary.Completion.Percentage
	for _, t := range summary.Completion.Missing {
		out.MissingDocuments = append(out.MissingDocuments, string(t))
	}

	h.logger.Info("document uploaded", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"documentType":  doc.DocumentType,
		"version":       doc.Version,
		"complete":      out.DocumentsComplete,
	})
	return out, nil
}
