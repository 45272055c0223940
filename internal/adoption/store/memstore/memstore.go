// Package memstore is an in-memory store.Store. A transaction works on a
// private copy of the state and swaps it in on commit; the store mutex is
// held for the whole transaction, so transactions are serialisable.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"adoption-review/internal/adoption/store"
	"adoption-review/internal/models"
)

type state struct {
	applications map[int64]*models.Application
	pets         map[int64]models.Pet
	documents    map[int64]models.ApplicationDocument
	timeline     []models.TimelineEntry
	audit        []models.AuditLogEntry

	nextApplicationID int64
	nextDocumentID    int64
	nextTimelineID    int64
	nextAuditID       int64
}

func newState() state {
	return state{
		applications: map[int64]*models.Application{},
		pets:         map[int64]models.Pet{},
		documents:    map[int64]models.ApplicationDocument{},
	}
}

func (s state) clone() state {
	out := s
	out.applications = make(map[int64]*models.Application, len(s.applications))
	for id, app := range s.applications {
		out.applications[id] = app.Clone()
	}
	out.pets = make(map[int64]models.Pet, len(s.pets))
	for id, p := range s.pets {
		out.pets[id] = p
	}
	out.documents = make(map[int64]models.ApplicationDocument, len(s.documents))
	for id, d := range s.documents {
		out.documents[id] = cloneDocument(d)
	}
	out.timeline = append([]models.TimelineEntry(nil), s.timeline...)
	out.audit = append([]models.AuditLogEntry(nil), s.audit...)
	return out
}

// Store is the in-memory implementation of store.Store.
type Store struct {
	mu    sync.Mutex
	state state
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{state: newState()}
}

// PutPet inserts or replaces a pet in the catalog.
func (s *Store) PutPet(p models.Pet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.pets[p.ID] = p
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	t := &tx{state: s.state.clone()}
	if err := fn(ctx, t); err != nil {
		return err
	}
	s.state = t.state
	return nil
}

func (s *Store) GetApplication(_ context.Context, id int64) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.state.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return app.Clone(), nil
}

func (s *Store) GetApplicationByCode(_ context.Context, code string) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range s.state.applications {
		if app.ApplicationID == code {
			return app.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListByApplicant(_ context.Context, applicantID int64, page store.Page) ([]*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(page, func(a *models.Application) bool { return a.ApplicantID == applicantID }), nil
}

func (s *Store) ListByShelter(_ context.Context, shelterID int64, status *models.Status, page store.Page) ([]*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(page, func(a *models.Application) bool {
		return a.ShelterID == shelterID && (status == nil || a.Status == *status)
	}), nil
}

func (s *Store) CountByShelter(_ context.Context, shelterID int64, status *models.Status) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.state.applications {
		if a.ShelterID == shelterID && (status == nil || a.Status == *status) {
			n++
		}
	}
	return n, nil
}

// list returns matches newest first, like the Postgres ORDER BY created_at DESC, id DESC.
func (s *Store) list(page store.Page, match func(*models.Application) bool) []*models.Application {
	page = page.Normalize()
	var out []*models.Application
	for _, a := range s.state.applications {
		if match(a) {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if page.Offset >= len(out) {
		return nil
	}
	out = out[page.Offset:]
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out
}

func (s *Store) Timeline(_ context.Context, applicationID int64) ([]models.TimelineEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TimelineEntry
	for _, e := range s.state.timeline {
		if e.ApplicationID == applicationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) AuditLog(_ context.Context, applicationID int64) ([]models.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditLogEntry
	for _, e := range s.state.audit {
		if e.ApplicationID == applicationID {
			e.OldValues = append(json.RawMessage(nil), e.OldValues...)
			e.NewValues = append(json.RawMessage(nil), e.NewValues...)
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) Documents(_ context.Context, applicationID int64) ([]models.ApplicationDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.documentsOf(applicationID, false), nil
}

func (s *Store) GetDocument(_ context.Context, documentID int64) (*models.ApplicationDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.state.documents[documentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	d = cloneDocument(d)
	return &d, nil
}

func (s *Store) GetPet(_ context.Context, petID int64) (*models.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.pets[petID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (st state) documentsOf(applicationID int64, currentOnly bool) []models.ApplicationDocument {
	var out []models.ApplicationDocument
	for _, d := range st.documents {
		if d.ApplicationID != applicationID || (currentOnly && !d.IsCurrentVersion) {
			continue
		}
		out = append(out, cloneDocument(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentType != out[j].DocumentType {
			return out[i].DocumentType < out[j].DocumentType
		}
		return out[i].Version < out[j].Version
	})
	return out
}

func cloneDocument(d models.ApplicationDocument) models.ApplicationDocument {
	if d.ReplacedByID != nil {
		v := *d.ReplacedByID
		d.ReplacedByID = &v
	}
	return d
}
