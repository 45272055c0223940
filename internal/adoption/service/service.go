// Package service implements the adoption application workflow. Every
// mutating operation runs in one transaction that locks the application row,
// validates the status change, writes the timeline and audit rows and, for
// approvals, flips the pet. Notifications and audit export run after commit.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"adoption-review/internal/adoption/audit"
	"adoption-review/internal/adoption/availability"
	"adoption-review/internal/adoption/documents"
	"adoption-review/internal/adoption/store"
	"adoption-review/internal/adoption/transition"
	apperrors "adoption-review/internal/common/errors"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/common/metrics"
	"adoption-review/internal/common/observability"
	"adoption-review/internal/models"
)

// Notifier delivers a notification after commit.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// FileStorage keeps uploaded documents outside the database.
type FileStorage interface {
	Store(ctx context.Context, category string, u models.Upload) (string, error)
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// AuditIndexer exports committed timeline entries for compliance search.
type AuditIndexer interface {
	IndexTimeline(ctx context.Context, app *models.Application, entries ...models.TimelineEntry) error
}

// Deps are the collaborators of the service. Store is required.
type Deps struct {
	Store         store.Store
	Notifier      Notifier
	Files         FileStorage
	Indexer       AuditIndexer
	Logger        logger.Logger
	Clock         func() time.Time
	Metrics       *metrics.Metrics
	Observability *observability.Observability
}

// Service is the application review workflow.
type Service struct {
	store    store.Store
	notifier Notifier
	files    FileStorage
	indexer  AuditIndexer
	logger   logger.Logger
	clock    func() time.Time
	metrics  *metrics.Metrics
	obs      *observability.Observability

	docs  *documents.Tracker
	pets  *availability.Coordinator
	trail *audit.Trail
}

// postCommitTimeout bounds notification and export work after a commit.
const postCommitTimeout = 15 * time.Second

// New builds a Service from d.
func New(d Deps) (*Service, error) {
	if d.Store == nil {
		return nil, errors.New("service: store is required")
	}
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewNop()
	}
	if d.Observability == nil {
		d.Observability = observability.NewNoop()
	}

	now := func() time.Time { return d.Clock().UTC() }
	return &Service{
		store:    d.Store,
		notifier: d.Notifier,
		files:    d.Files,
		indexer:  d.Indexer,
		logger:   d.Logger.WithFields(map[string]interface{}{"component": "adoption-service"}),
		clock:    now,
		metrics:  d.Metrics,
		obs:      d.Observability,
		docs:     documents.NewTracker(now),
		pets:     availability.NewCoordinator(),
		trail:    audit.NewTrail(now),
	}, nil
}

// change collects what a transaction did, for the post-commit phase.
type change struct {
	app           *models.Application
	entries       []models.TimelineEntry
	notifications []models.Notification
}

func (c *change) notify(n models.Notification) {
	c.notifications = append(c.notifications, n)
}

// accessRule decides whether actor may act on app.
type accessRule func(actor models.Actor, app *models.Application) error

// update runs fn in a transaction on the locked application appID.
func (s *Service) update(ctx context.Context, op string, actor models.Actor, appID int64, allow accessRule,
	fn func(ctx context.Context, tx store.Tx, c *change) error) (*models.Application, error) {

	start := time.Now()
	ctx, end := s.obs.StartSpan(ctx, "adoption."+op,
		attribute.Int64("application.id", appID),
		attribute.String("actor.role", string(actor.Role)))
	defer s.metrics.ObserveOperation(op, start)

	c := &change{}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		app, err := tx.LockApplication(ctx, appID)
		if err != nil {
			return err
		}
		if err := allow(actor, app); err != nil {
			return err
		}
		c.app = app
		return fn(ctx, tx, c)
	})
	err = s.classify(op, appID, err)
	end(err)
	if err != nil {
		s.logFailure(op, actor, appID, err)
		return nil, err
	}

	s.afterCommit(ctx, c)
	return c.app.Clone(), nil
}

// saveTransition persists c.app, whose status has moved from from, after
// checking the move against the status graph. It appends one timeline entry.
func (s *Service) saveTransition(ctx context.Context, tx store.Tx, c *change, from models.Status, actor models.Actor, reason string) error {
	to := c.app.Status
	if d := transition.Validate(from, to, actor.Role); !d.Allowed {
		return denial(from, to, d)
	}

	c.app.UpdatedAt = s.clock()
	if err := tx.UpdateApplication(ctx, c.app); err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	entry, err := s.trail.Record(ctx, tx, audit.Change{
		ApplicationID: c.app.ID,
		From:          from,
		To:            to,
		ActorID:       actor.ID,
		Role:          actor.Role,
		Reason:        reason,
		Auto:          actor.Role == models.RoleSystem,
	})
	if err != nil {
		return err
	}
	c.entries = append(c.entries, *entry)
	return nil
}

// saveEdit persists c.app without a status change and writes an audit row.
func (s *Service) saveEdit(ctx context.Context, tx store.Tx, c *change, actor models.Actor, action string, old, new interface{}, summary string) error {
	c.app.UpdatedAt = s.clock()
	if err := tx.UpdateApplication(ctx, c.app); err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	return s.trail.RecordEdit(ctx, tx, editOf(c.app.ID, actor, action, old, new, summary))
}

// afterCommit delivers notifications and exports the timeline. Failures are
// logged; the committed change stands.
func (s *Service) afterCommit(ctx context.Context, c *change) {
	for _, e := range c.entries {
		s.metrics.Transition(string(e.FromStatus), string(e.ToStatus))
	}
	if len(c.notifications) == 0 && (len(c.entries) == 0 || s.indexer == nil) {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()

	if s.notifier != nil {
		for _, n := range c.notifications {
			if err := s.notifier.Notify(ctx, n); err != nil {
				s.logger.Warn("notification delivery failed", map[string]interface{}{
					"applicationId":  c.app.ID,
					"notificationId": n.ID,
					"recipientId":    n.UserID,
					"error":          err.Error(),
				})
			}
		}
	}

	if s.indexer != nil && len(c.entries) > 0 {
		if err := s.indexer.IndexTimeline(ctx, c.app, c.entries...); err != nil {
			s.logger.Warn("audit index export failed", map[string]interface{}{
				"applicationId": c.app.ID,
				"error":         err.Error(),
			})
		}
	}
}

// classify maps store and unexpected errors onto the error taxonomy.
func (s *Service) classify(op string, appID int64, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsStandardError(err) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewNotFoundError("application", appID)
	}
	return apperrors.NewInternalError(op, err)
}

func (s *Service) logFailure(op string, actor models.Actor, appID int64, err error) {
	fields := map[string]interface{}{
		"operation":     op,
		"applicationId": appID,
		"actor":         actor.String(),
		"errorCode":     string(apperrors.CodeOf(err)),
	}
	if apperrors.CodeOf(err) == apperrors.ErrCodeInternal {
		s.logger.WithError(err).Error("operation failed", fields)
		return
	}
	s.logger.Debug("operation rejected", fields)
}

func denial(from, to models.Status, d transition.Decision) error {
	if d.Denial == transition.DenialRole {
		return apperrors.NewPermissionDeniedError(d.Reason)
	}
	return apperrors.NewInvalidStatusTransitionError(string(from), string(to), d.Reason)
}

// ==========================
// Access rules
// ==========================

func owningShelter(actor models.Actor, app *models.Application) error {
	if actor.Role != models.RoleShelter {
		return apperrors.NewPermissionDeniedError(fmt.Sprintf("role %q cannot review applications", actor.Role))
	}
	if actor.ID != app.ShelterID {
		return apperrors.NewPermissionDeniedError("application belongs to another shelter")
	}
	return nil
}

func owningApplicant(actor models.Actor, app *models.Application) error {
	if actor.Role != models.RoleApplicant {
		return apperrors.NewPermissionDeniedError(fmt.Sprintf("role %q cannot act as the applicant", actor.Role))
	}
	if actor.ID != app.ApplicantID {
		return apperrors.NewPermissionDeniedError("application belongs to another applicant")
	}
	return nil
}

func participant(actor models.Actor, app *models.Application) error {
	switch {
	case actor.Role == models.RoleApplicant && actor.ID == app.ApplicantID:
		return nil
	case actor.Role == models.RoleShelter && actor.ID == app.ShelterID:
		return nil
	default:
		return apperrors.NewPermissionDeniedError("only the applicant or the owning shelter may view this application")
	}
}

func shelterOrSystem(actor models.Actor, app *models.Application) error {
	if actor.Role == models.RoleSystem {
		return nil
	}
	return owningShelter(actor, app)
}

func editOf(appID int64, actor models.Actor, action string, old, new interface{}, summary string) audit.Edit {
	return audit.Edit{
		ApplicationID: appID,
		Action:        action,
		ActorID:       actor.ID,
		Role:          actor.Role,
		Old:           old,
		New:           new,
		Summary:       summary,
	}
}
