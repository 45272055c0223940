// Package store persists adoption applications, their documents and their
// audit history.
package store

import (
	"context"
	"errors"

	"adoption-review/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicateActive is returned by InsertApplication when the applicant
	// already has a non-terminal application for the pet.
	ErrDuplicateActive = errors.New("store: active application already exists")
)

// Store is the repository used by the adoption service. Every mutation runs
// inside WithinTx; the read methods see committed state only.
type Store interface {
	// WithinTx runs fn in one transaction. The transaction commits if fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetApplication(ctx context.Context, id int64) (*models.Application, error)
	GetApplicationByCode(ctx context.Context, code string) (*models.Application, error)
	ListByApplicant(ctx context.Context, applicantID int64, page Page) ([]*models.Application, error)
	ListByShelter(ctx context.Context, shelterID int64, status *models.Status, page Page) ([]*models.Application, error)
	CountByShelter(ctx context.Context, shelterID int64, status *models.Status) (int, error)
	Timeline(ctx context.Context, applicationID int64) ([]models.TimelineEntry, error)
	AuditLog(ctx context.Context, applicationID int64) ([]models.AuditLogEntry, error)
	Documents(ctx context.Context, applicationID int64) ([]models.ApplicationDocument, error)
	GetDocument(ctx context.Context, documentID int64) (*models.ApplicationDocument, error)
	GetPet(ctx context.Context, petID int64) (*models.Pet, error)
}

// Tx is the set of reads and writes available inside a transaction.
type Tx interface {
	// LockApplication loads the application and holds its row lock until the
	// transaction ends.
	LockApplication(ctx context.Context, id int64) (*models.Application, error)
	// FindActiveApplication returns the non-terminal application of the
	// applicant for the pet, or nil.
	FindActiveApplication(ctx context.Context, applicantID, petID int64) (*models.Application, error)
	InsertApplication(ctx context.Context, app *models.Application) error
	UpdateApplication(ctx context.Context, app *models.Application) error

	GetPet(ctx context.Context, petID int64) (*models.Pet, error)
	// CompareAndSwapPetStatus sets the pet's status to next only if it is
	// currently expected, and reports whether it did.
	CompareAndSwapPetStatus(ctx context.Context, petID int64, expected, next models.PetStatus) (bool, error)

	CurrentDocument(ctx context.Context, applicationID int64, docType models.DocumentType) (*models.ApplicationDocument, error)
	CurrentDocuments(ctx context.Context, applicationID int64) ([]models.ApplicationDocument, error)
	InsertDocument(ctx context.Context, doc *models.ApplicationDocument) error
	// SupersedeDocument clears is_current_version on the document.
	SupersedeDocument(ctx context.Context, documentID int64) error
	// LinkReplacement points the superseded document at its successor.
	LinkReplacement(ctx context.Context, oldID, newID int64) error

	InsertTimelineEntry(ctx context.Context, entry *models.TimelineEntry) error
	InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
}

// Page bounds a list query.
type Page struct {
	Offset int
	Limit  int
}

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

// Normalize applies the default limit and clamps out-of-range values.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}
