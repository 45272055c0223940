package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"adoption-review/internal/adoption/documents"
	"adoption-review/internal/adoption/store"
	apperrors "adoption-review/internal/common/errors"
	"adoption-review/internal/models"
)

// DocumentSummary is the current set of documents of an application and how
// far it covers the required types.
type DocumentSummary struct {
	Documents  []models.ApplicationDocument `json:"documents"`
	Completion models.Completion            `json:"completion"`
}

// UploadRequest is a document the applicant attaches to an application.
type UploadRequest struct {
	Type        string
	Upload      models.Upload
	Description string
}

func uploadable(s models.Status) bool {
	switch s {
	case models.StatusDraft, models.StatusSubmitted, models.StatusDocumentReview:
		return true
	default:
		return false
	}
}

// UploadDocument stores the file and attaches it as the current version of
// its type. Earlier versions are kept and linked to the new one.
func (s *Service) UploadDocument(ctx context.Context, actor models.Actor, appID int64, req UploadRequest) (*models.ApplicationDocument, error) {
	const op = "upload_document"
	docType, err := models.ParseDocumentType(strings.TrimSpace(req.Type))
	if err != nil {
		verr := apperrors.NewValidationError(err.Error())
		s.logFailure(op, actor, appID, verr)
		return nil, verr
	}
	if s.files == nil {
		return nil, apperrors.NewInternalError(op, errors.New("file storage is not configured"))
	}

	check := func(actor models.Actor, app *models.Application) error {
		if err := owningApplicant(actor, app); err != nil {
			return err
		}
		if !uploadable(app.Status) {
			return apperrors.NewInvalidStatusTransitionError(string(app.Status), string(app.Status),
				fmt.Sprintf("documents cannot be uploaded while the application is %s", app.Status))
		}
		return nil
	}

	current, err := s.store.GetApplication(ctx, appID)
	if err == nil {
		err = check(actor, current)
	}
	if err != nil {
		err = s.classify(op, appID, err)
		s.logFailure(op, actor, appID, err)
		return nil, err
	}

	key, err := s.files.Store(ctx, models.CategoryApplicationDocument, req.Upload)
	if err != nil {
		err = s.classify(op, appID, err)
		s.logFailure(op, actor, appID, err)
		return nil, err
	}

	var doc *models.ApplicationDocument
	_, err = s.update(ctx, op, actor, appID, check, func(ctx context.Context, tx store.Tx, c *change) error {
		attached, err := s.docs.Attach(ctx, tx, c.app.ID, documents.Input{
			Type:        docType,
			FileName:    req.Upload.FileName,
			StorageKey:  key,
			MimeType:    req.Upload.ContentType,
			Size:        req.Upload.Size(),
			Description: req.Description,
		})
		if err != nil {
			return err
		}
		doc = attached
		return s.saveEdit(ctx, tx, c, actor, models.ActionDocumentUploaded, nil,
			map[string]interface{}{"documentId": doc.ID, "documentType": doc.DocumentType, "version": doc.Version},
			fmt.Sprintf("%s document uploaded (version %d)", doc.DocumentType, doc.Version))
	})
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	return doc, nil
}

// DocumentStatus lists the current documents and the completion of the
// required set.
func (s *Service) DocumentStatus(ctx context.Context, actor models.Actor, appID int64) (*DocumentSummary, error) {
	if _, err := s.view(ctx, "document_status", actor, appID); err != nil {
		return nil, err
	}

	all, err := s.store.Documents(ctx, appID)
	if err != nil {
		return nil, s.classify("document_status", appID, err)
	}
	current := make([]models.ApplicationDocument, 0, len(all))
	for _, d := range all {
		if d.IsCurrentVersion {
			current = append(current, d)
		}
	}
	return &DocumentSummary{
		Documents:  current,
		Completion: s.docs.CompletionStatus(current),
	}, nil
}

// DocumentURL returns a time-limited download link for one document of the
// application.
func (s *Service) DocumentURL(ctx context.Context, actor models.Actor, appID, documentID int64, ttl time.Duration) (string, error) {
	const op = "document_url"
	if _, err := s.view(ctx, op, actor, appID); err != nil {
		return "", err
	}
	if s.files == nil {
		return "", apperrors.NewInternalError(op, errors.New("file storage is not configured"))
	}

	doc, err := s.store.GetDocument(ctx, documentID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && doc.ApplicationID != appID) {
		return "", apperrors.NewNotFoundError("document", documentID)
	}
	if err != nil {
		return "", s.classify(op, appID, err)
	}

	ctx, end := s.obs.StartSpan(ctx, "adoption.presign", attribute.Int64("document.id", documentID))
	url, err := s.files.URL(ctx, doc.StorageKey, ttl)
	end(err)
	if err != nil {
		return "", s.classify(op, appID, err)
	}
	return url, nil
}
