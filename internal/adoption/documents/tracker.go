// Package documents tracks the supporting documents of an application:
// versioning on re-upload and completeness against the required set.
package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adoption-review/internal/adoption/store"
	apperrors "adoption-review/internal/common/errors"
	"adoption-review/internal/models"
)

// Input describes a stored upload to attach.
type Input struct {
	Type        models.DocumentType
	FileName    string
	StorageKey  string
	MimeType    string
	Size        int64
	Description string
}

// Tracker attaches documents inside the caller's transaction.
type Tracker struct {
	now      func() time.Time
	required []models.DocumentType
}

// NewTracker returns a tracker using the standard required document set.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now, required: models.RequiredDocumentTypes()}
}

// Attach stores in as the current version of its type. A previous current
// version is superseded first and then linked to the new one.
func (t *Tracker) Attach(ctx context.Context, tx store.Tx, applicationID int64, in Input) (*models.ApplicationDocument, error) {
	if _, err := models.ParseDocumentType(string(in.Type)); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if strings.TrimSpace(in.StorageKey) == "" {
		return nil, apperrors.NewValidationError("storage reference is required")
	}
	if strings.TrimSpace(in.FileName) == "" {
		return nil, apperrors.NewValidationError("file name is required")
	}

	prev, err := tx.CurrentDocument(ctx, applicationID, in.Type)
	if err != nil {
		return nil, fmt.Errorf("load current %s document: %w", in.Type, err)
	}

	version := 1
	if prev != nil {
		version = prev.Version + 1
		if err := tx.SupersedeDocument(ctx, prev.ID); err != nil {
			return nil, fmt.Errorf("supersede document %d: %w", prev.ID, err)
		}
	}

	doc := &models.ApplicationDocument{
		ApplicationID:      applicationID,
		DocumentType:       in.Type,
		FileName:           in.FileName,
		StorageKey:         in.StorageKey,
		MimeType:           in.MimeType,
		FileSize:           in.Size,
		Description:        in.Description,
		SecurityScanStatus: models.ScanPending,
		IsSafe:             true,
		Version:            version,
		IsCurrentVersion:   true,
		UploadedAt:         t.now().UTC(),
	}
	if err := tx.InsertDocument(ctx, doc); err != nil {
		return nil, err
	}

	if prev != nil {
		if err := tx.LinkReplacement(ctx, prev.ID, doc.ID); err != nil {
			return nil, fmt.Errorf("link document %d to %d: %w", prev.ID, doc.ID, err)
		}
	}
	return doc, nil
}

// Completion loads the current documents and summarises them.
func (t *Tracker) Completion(ctx context.Context, tx store.Tx, applicationID int64) (models.Completion, error) {
	docs, err := tx.CurrentDocuments(ctx, applicationID)
	if err != nil {
		return models.Completion{}, fmt.Errorf("load current documents: %w", err)
	}
	return t.CompletionStatus(docs), nil
}

// CompletionStatus intersects the required types with the current versions
// in docs. Superseded versions are ignored.
func (t *Tracker) CompletionStatus(docs []models.ApplicationDocument) models.Completion {
	present := make(map[models.DocumentType]bool, len(docs))
	for _, d := range docs {
		if d.IsCurrentVersion {
			present[d.DocumentType] = true
		}
	}

	c := models.Completion{
		Required: append([]models.DocumentType(nil), t.required...),
		Uploaded: []models.DocumentType{},
		Missing:  []models.DocumentType{},
	}
	for _, req := range t.required {
		if present[req] {
			c.Uploaded = append(c.Uploaded, req)
		} else {
			c.Missing = append(c.Missing, req)
		}
	}
	if len(t.required) == 0 {
		c.Percentage = 100
	} else {
		c.Percentage = len(c.Uploaded) * 100 / len(t.required)
	}
	return c
}
