package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"adoption-review/internal/adoption/homevisit"
	"adoption-review/internal/adoption/notify"
	"adoption-review/internal/adoption/store"
	"adoption-review/internal/adoption/transition"
	apperrors "adoption-review/internal/common/errors"
	"adoption-review/internal/models"
)

// RequestDocuments asks the applicant for the required documents that are
// still missing, moving a submitted application into document review.
func (s *Service) RequestDocuments(ctx context.Context, actor models.Actor, appID int64) (*models.Application, error) {
	return s.update(ctx, "request_documents", actor, appID, owningShelter, func(ctx context.Context, tx store.Tx, c *change) error {
		from := c.app.Status
		switch from {
		case models.StatusSubmitted:
			c.app.Status = models.StatusDocumentReview
			if err := s.saveTransition(ctx, tx, c, from, actor, "documents requested"); err != nil {
				return err
			}
		case models.StatusDocumentReview:
		default:
			return apperrors.NewInvalidStatusTransitionError(string(from), string(models.StatusDocumentReview),
				fmt.Sprintf("documents can only be requested while submitted or in document review, not %s", from))
		}

		completion, err := s.docs.Completion(ctx, tx, c.app.ID)
		if err != nil {
			return err
		}
		if from == models.StatusDocumentReview {
			err := s.saveEdit(ctx, tx, c, actor, models.ActionDocumentsRequested, nil,
				map[string]interface{}{"missing": completion.Missing}, "documents requested again")
			if err != nil {
				return err
			}
		}

		c.notify(s.notice(c.app, c.app.ApplicantID, "documents_requested",
			"Documents requested", documentsMessage(c.app, completion), false))
		return nil
	})
}

// ScheduleHomeVisit books the home visit. Booking again while scheduled
// changes the date without a new timeline entry.
func (s *Service) ScheduleHomeVisit(ctx context.Context, actor models.Actor, appID int64, visitDateTime string) (*models.Application, error) {
	return s.update(ctx, "schedule_home_visit", actor, appID, owningShelter, func(ctx context.Context, tx store.Tx, c *change) error {
		when, err := homevisit.ParseVisitTime(visitDateTime)
		if err != nil {
			return err
		}
		old := c.app.HomeVisitDate
		out, err := homevisit.PlanSchedule(c.app, when)
		if err != nil {
			return err
		}
		if err := s.applyVisit(ctx, tx, c, actor, out, models.ActionVisitRescheduled,
			map[string]interface{}{"homeVisitDate": old},
			map[string]interface{}{"homeVisitDate": c.app.HomeVisitDate}); err != nil {
			return err
		}
		c.notify(s.notice(c.app, c.app.ApplicantID, "home_visit_"+string(out.Kind), out.NotifyTitle, out.NotifyMessage, false))
		return nil
	})
}

// CompleteHomeVisit records the visit outcome. The optional document is
// stored before the transaction and removed again if the transaction fails.
func (s *Service) CompleteHomeVisit(ctx context.Context, actor models.Actor, appID int64, notes string, upload *models.Upload) (*models.Application, error) {
	key, err := s.storeVisitDocument(ctx, "complete_home_visit", actor, appID, upload)
	if err != nil {
		return nil, err
	}

	app, err := s.update(ctx, "complete_home_visit", actor, appID, owningShelter, func(ctx context.Context, tx store.Tx, c *change) error {
		if _, err := s.pets.EnsureAvailable(ctx, tx, c.app.PetID); err != nil {
			return err
		}
		old := visitRecord(c.app)
		out, err := homevisit.PlanCompletion(c.app, notes, key)
		if err != nil {
			return err
		}
		if err := s.applyVisit(ctx, tx, c, actor, out, models.ActionVisitRecordUpdated, old, visitRecord(c.app)); err != nil {
			return err
		}
		c.notify(s.notice(c.app, c.app.ApplicantID, "home_visit_"+string(out.Kind), out.NotifyTitle, out.NotifyMessage, false))
		return nil
	})
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	return app, nil
}

// UpdateHomeVisitRecord edits the notes and document of a completed visit.
func (s *Service) UpdateHomeVisitRecord(ctx context.Context, actor models.Actor, appID int64, notes string, upload *models.Upload) (*models.Application, error) {
	key, err := s.storeVisitDocument(ctx, "update_home_visit_record", actor, appID, upload)
	if err != nil {
		return nil, err
	}

	app, err := s.update(ctx, "update_home_visit_record", actor, appID, owningShelter, func(ctx context.Context, tx store.Tx, c *change) error {
		old := visitRecord(c.app)
		out, err := homevisit.PlanRecordUpdate(c.app, notes, key)
		if err != nil {
			return err
		}
		return s.applyVisit(ctx, tx, c, actor, out, models.ActionVisitRecordUpdated, old, visitRecord(c.app))
	})
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	return app, nil
}

// UpdateHomeVisitDate moves the recorded visit date. The status is kept.
func (s *Service) UpdateHomeVisitDate(ctx context.Context, actor models.Actor, appID int64, newDateTime string) (*models.Application, error) {
	return s.update(ctx, "update_home_visit_date", actor, appID, owningShelter, func(ctx context.Context, tx store.Tx, c *change) error {
		when, err := homevisit.ParseVisitTime(newDateTime)
		if err != nil {
			return err
		}
		old := c.app.HomeVisitDate
		out, err := homevisit.PlanReschedule(c.app, when)
		if err != nil {
			return err
		}
		if err := s.applyVisit(ctx, tx, c, actor, out, models.ActionVisitRescheduled,
			map[string]interface{}{"homeVisitDate": old},
			map[string]interface{}{"homeVisitDate": c.app.HomeVisitDate}); err != nil {
			return err
		}
		c.notify(s.notice(c.app, c.app.ApplicantID, "home_visit_date_updated", out.NotifyTitle, out.NotifyMessage, false))
		return nil
	})
}

// BeginEvaluation moves a completed home visit into evaluation. The system
// actor does this automatically; its timeline entry is flagged as such.
func (s *Service) BeginEvaluation(ctx context.Context, actor models.Actor, appID int64) (*models.Application, error) {
	return s.update(ctx, "begin_evaluation", actor, appID, shelterOrSystem, func(ctx context.Context, tx store.Tx, c *change) error {
		from := c.app.Status
		c.app.Status = models.StatusUnderEvaluation
		if err := s.saveTransition(ctx, tx, c, from, actor, "home visit completed, evaluation started"); err != nil {
			return err
		}
		c.notify(s.notice(c.app, c.app.ApplicantID, "under_evaluation",
			"Application under evaluation",
			fmt.Sprintf("Application %s\nYour home visit is complete and the shelter is evaluating your application.", c.app.ApplicationID), false))
		return nil
	})
}

// MakeFinalDecision approves or rejects the application. Approval adopts the
// pet in the same transaction; if the pet is no longer available nothing
// changes and a PetNotAvailable error is returned.
func (s *Service) MakeFinalDecision(ctx context.Context, actor models.Actor, appID int64, decision, notes string) (*models.Application, error) {
	d, err := models.ParseDecision(strings.TrimSpace(decision))
	if err != nil {
		verr := apperrors.NewValidationError(err.Error())
		s.logFailure("final_decision", actor, appID, verr)
		return nil, verr
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		verr := apperrors.NewValidationError("decision notes are required")
		s.logFailure("final_decision", actor, appID, verr)
		return nil, verr
	}

	app, err := s.update(ctx, "final_decision", actor, appID, owningShelter, func(ctx context.Context, tx store.Tx, c *change) error {
		from := c.app.Status
		if v := transition.Validate(from, d.Status(), actor.Role); !v.Allowed {
			return denial(from, d.Status(), v)
		}

		if d == models.DecisionApproved {
			if _, err := s.pets.TryAdopt(ctx, tx, c.app.PetID); err != nil {
				return err
			}
		}

		now := s.clock()
		reviewer := actor.ID
		c.app.Status = d.Status()
		c.app.ReviewedBy = &reviewer
		c.app.ReviewedAt = &now
		c.app.FinalDecisionNotes = notes
		if err := s.saveTransition(ctx, tx, c, from, actor, c.app.FinalDecisionNotes); err != nil {
			return err
		}

		if d == models.DecisionApproved {
			err := s.trail.RecordEdit(ctx, tx, editOf(c.app.ID, actor, models.ActionPetAdopted,
				map[string]interface{}{"petId": c.app.PetID, "status": models.PetAvailable},
				map[string]interface{}{"petId": c.app.PetID, "status": models.PetAdopted},
				fmt.Sprintf("pet %d adopted through application %s", c.app.PetID, c.app.ApplicationID)))
			if err != nil {
				return err
			}
		}

		title, message := decisionMessage(c.app, d)
		c.notify(s.notice(c.app, c.app.ApplicantID, "decision_"+string(d), title, message, true))
		return nil
	})

	outcome := "committed"
	switch {
	case apperrors.CodeOf(err) == apperrors.ErrCodePetNotAvailable:
		outcome = "conflict"
	case err != nil:
		outcome = "rejected"
	}
	s.metrics.Decision(string(d), outcome)
	return app, err
}

// applyVisit persists a home-visit plan: a timeline entry when the status
// moved, an audit edit otherwise.
func (s *Service) applyVisit(ctx context.Context, tx store.Tx, c *change, actor models.Actor, out homevisit.Outcome, action string, old, new interface{}) error {
	if out.StatusChanged {
		return s.saveTransition(ctx, tx, c, out.FromStatus, actor, string(out.Kind))
	}
	if v := transition.Validate(out.FromStatus, out.ToStatus, actor.Role); v.Denial == transition.DenialRole {
		return denial(out.FromStatus, out.ToStatus, v)
	}
	return s.saveEdit(ctx, tx, c, actor, action, old, new, fmt.Sprintf("home visit %s", strings.ReplaceAll(string(out.Kind), "_", " ")))
}

// storeVisitDocument uploads the optional visit document after a read-only
// access check, so strangers cannot write to the bucket.
func (s *Service) storeVisitDocument(ctx context.Context, op string, actor models.Actor, appID int64, upload *models.Upload) (string, error) {
	if upload == nil || len(upload.Data) == 0 {
		return "", nil
	}
	if s.files == nil {
		return "", apperrors.NewInternalError(op, fmt.Errorf("file storage is not configured"))
	}

	app, err := s.store.GetApplication(ctx, appID)
	if err != nil {
		err = s.classify(op, appID, err)
		s.logFailure(op, actor, appID, err)
		return "", err
	}
	if err := owningShelter(actor, app); err != nil {
		s.logFailure(op, actor, appID, err)
		return "", err
	}

	key, err := s.files.Store(ctx, models.CategoryHomeVisitDocument, *upload)
	if err != nil {
		return "", s.classify(op, appID, err)
	}
	return key, nil
}

// discard removes an object whose transaction did not commit.
func (s *Service) discard(ctx context.Context, key string) {
	if key == "" || s.files == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()
	if err := s.files.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to remove orphaned upload", map[string]interface{}{
			"storageKey": key,
			"error":      err.Error(),
		})
	}
}

func visitRecord(app *models.Application) map[string]interface{} {
	return map[string]interface{}{
		"homeVisitNotes":    app.HomeVisitNotes,
		"homeVisitDocument": app.HomeVisitDocument,
	}
}

func documentsMessage(app *models.Application, c models.Completion) string {
	if c.IsComplete() {
		return fmt.Sprintf("Application %s\nThe shelter is reviewing your documents.", app.ApplicationID)
	}
	missing := make([]string, len(c.Missing))
	for i, t := range c.Missing {
		missing[i] = string(t)
	}
	return fmt.Sprintf("Application %s\nPlease upload: %s", app.ApplicationID, strings.Join(missing, ", "))
}

func decisionMessage(app *models.Application, d models.Decision) (string, string) {
	if d == models.DecisionApproved {
		return "Adoption approved", fmt.Sprintf("Application %s was approved. The shelter will contact you to arrange the handover.", app.ApplicationID)
	}
	msg := fmt.Sprintf("Application %s was not approved.", app.ApplicationID)
	if app.FinalDecisionNotes != "" {
		msg += "\n" + app.FinalDecisionNotes
	}
	return "Adoption application declined", msg
}

// notice builds a notification whose ID is stable for the event, so a
// redelivered job does not notify twice.
func (s *Service) notice(app *models.Application, userID int64, event, title, message string, urgent bool) models.Notification {
	return models.Notification{
		ID:        notificationID(app.ApplicationID, event, app.UpdatedAt),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      models.NotificationApplicationStatus,
		RelatedID: app.ID,
		Urgent:    urgent,
		CreatedAt: s.clock(),
	}
}

func notificationID(code, event string, at time.Time) string {
	return notify.ID(code, event, strconv.FormatInt(at.UnixNano(), 10))
}
