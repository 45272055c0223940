package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"adoption-review/internal/adoption/store"
	apperrors "adoption-review/internal/common/errors"
	"adoption-review/internal/models"
)

// maxCreateAttempts bounds retries after losing a concurrent insert race.
const maxCreateAttempts = 2

// CreateDraft returns the applicant's active application for petID, creating
// a draft when there is none. Supplied sections are merged into an existing
// draft; an application that has left draft is returned unchanged.
func (s *Service) CreateDraft(ctx context.Context, actor models.Actor, petID int64, form *models.FormData) (*models.Application, error) {
	const op = "create_draft"
	start := time.Now()
	ctx, end := s.obs.StartSpan(ctx, "adoption."+op,
		attribute.Int64("pet.id", petID),
		attribute.String("actor.role", string(actor.Role)))
	defer s.metrics.ObserveOperation(op, start)

	app, err := s.createDraft(ctx, actor, petID, form)
	end(err)
	if err != nil {
		s.logFailure(op, actor, 0, err)
		return nil, err
	}
	return app, nil
}

func (s *Service) createDraft(ctx context.Context, actor models.Actor, petID int64, form *models.FormData) (*models.Application, error) {
	if actor.Role != models.RoleApplicant {
		return nil, apperrors.NewPermissionDeniedError(fmt.Sprintf("role %q cannot create applications", actor.Role))
	}

	var supplied models.FormData
	if form != nil {
		supplied = *form
	}

	for attempt := 1; ; attempt++ {
		var app *models.Application
		err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			pet, err := s.pets.EnsureAvailable(ctx, tx, petID)
			if err != nil {
				return err
			}

			existing, err := tx.FindActiveApplication(ctx, actor.ID, petID)
			if err != nil {
				return fmt.Errorf("find active application: %w", err)
			}
			if existing != nil {
				app = existing
				return s.mergeDraft(ctx, tx, actor, app, supplied)
			}

			app, err = s.insertDraft(ctx, tx, actor, pet, supplied)
			return err
		})

		if errors.Is(err, store.ErrDuplicateActive) && attempt < maxCreateAttempts {
			s.logger.Debug("lost draft creation race, reloading", map[string]interface{}{
				"applicantId": actor.ID,
				"petId":       petID,
			})
			continue
		}
		if err != nil {
			if apperrors.IsStandardError(err) {
				return nil, err
			}
			return nil, apperrors.NewInternalError("create_draft", err)
		}
		return app, nil
	}
}

func (s *Service) insertDraft(ctx context.Context, tx store.Tx, actor models.Actor, pet *models.Pet, form models.FormData) (*models.Application, error) {
	now := s.clock()
	app := &models.Application{
		ApplicationID: newApplicationCode(now),
		PetID:         pet.ID,
		ApplicantID:   actor.ID,
		ShelterID:     pet.ShelterID,
		Status:        models.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	app.ApplyForm(form)

	if err := tx.InsertApplication(ctx, app); err != nil {
		return nil, err
	}
	err := s.trail.RecordEdit(ctx, tx, editOf(app.ID, actor, models.ActionApplicationCreated, nil,
		map[string]interface{}{"status": app.Status, "petId": app.PetID, "applicationId": app.ApplicationID},
		"application created"))
	if err != nil {
		return nil, err
	}

	s.logger.Info("draft application created", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"petId":         app.PetID,
		"applicantId":   app.ApplicantID,
	})
	return app, nil
}

func (s *Service) mergeDraft(ctx context.Context, tx store.Tx, actor models.Actor, app *models.Application, form models.FormData) error {
	if app.Status != models.StatusDraft || form.IsEmpty() {
		return nil
	}
	app.ApplyForm(form)
	app.UpdatedAt = s.clock()
	if err := tx.UpdateApplication(ctx, app); err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	return s.trail.RecordEdit(ctx, tx, editOf(app.ID, actor, models.ActionDraftUpdated, nil,
		map[string]interface{}{"sections": suppliedSections(form)}, "draft form updated"))
}

// Submit moves a draft to submitted and persists the questionnaire.
func (s *Service) Submit(ctx context.Context, actor models.Actor, appID int64, form models.FormData) (*models.Application, error) {
	return s.update(ctx, "submit", actor, appID, owningApplicant, func(ctx context.Context, tx store.Tx, c *change) error {
		from := c.app.Status
		now := s.clock()
		c.app.ApplyForm(form)
		c.app.Status = models.StatusSubmitted
		c.app.SubmittedAt = &now
		if err := s.saveTransition(ctx, tx, c, from, actor, ""); err != nil {
			return err
		}

		c.notify(s.notice(c.app, c.app.ShelterID, "submitted",
			"New adoption application",
			fmt.Sprintf("Application %s was submitted and is waiting for review.", c.app.ApplicationID), false))
		return nil
	})
}

// Withdraw ends an active application at the applicant's request.
func (s *Service) Withdraw(ctx context.Context, actor models.Actor, appID int64) (*models.Application, error) {
	return s.update(ctx, "withdraw", actor, appID, owningApplicant, func(ctx context.Context, tx store.Tx, c *change) error {
		from := c.app.Status
		c.app.Status = models.StatusWithdrawn
		if err := s.saveTransition(ctx, tx, c, from, actor, "withdrawn by applicant"); err != nil {
			return err
		}

		if from != models.StatusDraft {
			c.notify(s.notice(c.app, c.app.ShelterID, "withdrawn",
				"Application withdrawn",
				fmt.Sprintf("Application %s was withdrawn by the applicant.", c.app.ApplicationID), false))
		}
		return nil
	})
}

// newApplicationCode returns a public code such as APP20240301A1B2C3D4.
func newApplicationCode(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "APP" + now.Format("20060102") + strings.ToUpper(id[:8])
}

func suppliedSections(f models.FormData) []string {
	var out []string
	if len(f.PersonalInfo) > 0 {
		out = append(out, "personalInfo")
	}
	if len(f.LivingEnvironment) > 0 {
		out = append(out, "livingEnvironment")
	}
	if len(f.PetExperience) > 0 {
		out = append(out, "petExperience")
	}
	return out
}
