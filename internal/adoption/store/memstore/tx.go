package memstore

import (
	"context"
	"encoding/json"

	"adoption-review/internal/adoption/store"
	"adoption-review/internal/models"
)

type tx struct {
	state state
}

var _ store.Tx = (*tx)(nil)

func (t *tx) LockApplication(_ context.Context, id int64) (*models.Application, error) {
	app, ok := t.state.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return app.Clone(), nil
}

func (t *tx) FindActiveApplication(_ context.Context, applicantID, petID int64) (*models.Application, error) {
	var found *models.Application
	for _, a := range t.state.applications {
		if a.ApplicantID != applicantID || a.PetID != petID || a.Status.IsTerminal() {
			continue
		}
		if found == nil || a.ID < found.ID {
			found = a
		}
	}
	return found.Clone(), nil
}

func (t *tx) InsertApplication(ctx context.Context, app *models.Application) error {
	if !app.Status.IsTerminal() {
		if existing, _ := t.FindActiveApplication(ctx, app.ApplicantID, app.PetID); existing != nil {
			return store.ErrDuplicateActive
		}
	}
	t.state.nextApplicationID++
	app.ID = t.state.nextApplicationID
	t.state.applications[app.ID] = app.Clone()
	return nil
}

func (t *tx) UpdateApplication(_ context.Context, app *models.Application) error {
	if _, ok := t.state.applications[app.ID]; !ok {
		return store.ErrNotFound
	}
	t.state.applications[app.ID] = app.Clone()
	return nil
}

func (t *tx) GetPet(_ context.Context, petID int64) (*models.Pet, error) {
	p, ok := t.state.pets[petID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (t *tx) CompareAndSwapPetStatus(_ context.Context, petID int64, expected, next models.PetStatus) (bool, error) {
	p, ok := t.state.pets[petID]
	if !ok || p.Status != expected {
		return false, nil
	}
	p.Status = next
	t.state.pets[petID] = p
	return true, nil
}

func (t *tx) CurrentDocument(_ context.Context, applicationID int64, docType models.DocumentType) (*models.ApplicationDocument, error) {
	for _, d := range t.state.documents {
		if d.ApplicationID == applicationID && d.DocumentType == docType && d.IsCurrentVersion {
			d = cloneDocument(d)
			return &d, nil
		}
	}
	return nil, nil
}

func (t *tx) CurrentDocuments(_ context.Context, applicationID int64) ([]models.ApplicationDocument, error) {
	return t.state.documentsOf(applicationID, true), nil
}

func (t *tx) InsertDocument(_ context.Context, doc *models.ApplicationDocument) error {
	t.state.nextDocumentID++
	doc.ID = t.state.nextDocumentID
	t.state.documents[doc.ID] = cloneDocument(*doc)
	return nil
}

func (t *tx) SupersedeDocument(_ context.Context, documentID int64) error {
	d, ok := t.state.documents[documentID]
	if !ok || !d.IsCurrentVersion {
		return store.ErrNotFound
	}
	d.IsCurrentVersion = false
	t.state.documents[documentID] = d
	return nil
}

func (t *tx) LinkReplacement(_ context.Context, oldID, newID int64) error {
	d, ok := t.state.documents[oldID]
	if !ok {
		return store.ErrNotFound
	}
	d.ReplacedByID = &newID
	t.state.documents[oldID] = d
	return nil
}

func (t *tx) InsertTimelineEntry(_ context.Context, entry *models.TimelineEntry) error {
	t.state.nextTimelineID++
	entry.ID = t.state.nextTimelineID
	t.state.timeline = append(t.state.timeline, *entry)
	return nil
}

func (t *tx) InsertAuditLog(_ context.Context, entry *models.AuditLogEntry) error {
	t.state.nextAuditID++
	entry.ID = t.state.nextAuditID
	e := *entry
	e.OldValues = append(json.RawMessage(nil), entry.OldValues...)
	e.NewValues = append(json.RawMessage(nil), entry.NewValues...)
	t.state.audit = append(t.state.audit, e)
	return nil
}
