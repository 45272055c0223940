package service

import (
	"context"

	"adoption-review/internal/adoption/store"
	"adoption-review/internal/models"
)

// GetApplication returns the application to its applicant or owning shelter.
func (s *Service) GetApplication(ctx context.Context, actor models.Actor, appID int64) (*models.Application, error) {
	return s.view(ctx, "get_application", actor, appID)
}

// Timeline returns the status history, oldest first.
func (s *Service) Timeline(ctx context.Context, actor models.Actor, appID int64) ([]models.TimelineEntry, error) {
	if _, err := s.view(ctx, "timeline", actor, appID); err != nil {
		return nil, err
	}
	entries, err := s.store.Timeline(ctx, appID)
	if err != nil {
		return nil, s.classify("timeline", appID, err)
	}
	return entries, nil
}

// ListForApplicant returns the applicant's applications, newest first.
func (s *Service) ListForApplicant(ctx context.Context, applicantID int64, page store.Page) ([]*models.Application, error) {
	apps, err := s.store.ListByApplicant(ctx, applicantID, page.Normalize())
	if err != nil {
		return nil, s.classify("list_for_applicant", 0, err)
	}
	return apps, nil
}

// ListForShelter returns the shelter's applications, optionally filtered by
// status, newest first.
func (s *Service) ListForShelter(ctx context.Context, shelterID int64, status *models.Status, page store.Page) ([]*models.Application, error) {
	apps, err := s.store.ListByShelter(ctx, shelterID, status, page.Normalize())
	if err != nil {
		return nil, s.classify("list_for_shelter", 0, err)
	}
	return apps, nil
}

// CountForShelter counts the shelter's applications, optionally by status.
func (s *Service) CountForShelter(ctx context.Context, shelterID int64, status *models.Status) (int, error) {
	n, err := s.store.CountByShelter(ctx, shelterID, status)
	if err != nil {
		return 0, s.classify("count_for_shelter", 0, err)
	}
	return n, nil
}

func (s *Service) view(ctx context.Context, op string, actor models.Actor, appID int64) (*models.Application, error) {
	app, err := s.store.GetApplication(ctx, appID)
	if err == nil {
		err = participant(actor, app)
	}
	if err != nil {
		err = s.classify(op, appID, err)
		s.logFailure(op, actor, appID, err)
		return nil, err
	}
	return app, nil
}
