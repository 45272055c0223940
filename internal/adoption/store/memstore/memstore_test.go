package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adoption-review/internal/adoption/store"
	"adoption-review/internal/models"
)

func insertDraft(t *testing.T, s *Store, applicantID, petID int64) *models.Application {
	t.Helper()
	app := &models.Application{
		ApplicationID: "APP20251201AAAAAAAA",
		PetID:         petID,
		ApplicantID:   applicantID,
		ShelterID:     3,
		Status:        models.StatusDraft,
		CreatedAt:     time.Now().UTC(),
	}
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.InsertApplication(ctx, app)
	})
	require.NoError(t, err)
	return app
}

func TestWithinTx_RollbackDiscardsWrites(t *testing.T) {
	s := New()
	app := insertDraft(t, s, 7, 42)

	boom := errors.New("boom")
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		locked, err := tx.LockApplication(ctx, app.ID)
		require.NoError(t, err)
		locked.Status = models.StatusSubmitted
		require.NoError(t, tx.UpdateApplication(ctx, locked))
		require.NoError(t, tx.InsertTimelineEntry(ctx, &models.TimelineEntry{ApplicationID: app.ID}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, got.Status)

	entries, err := s.Timeline(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInsertApplication_RejectsSecondActive(t *testing.T) {
	s := New()
	insertDraft(t, s, 7, 42)

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.InsertApplication(ctx, &models.Application{PetID: 42, ApplicantID: 7, Status: models.StatusDraft})
	})
	assert.ErrorIs(t, err, store.ErrDuplicateActive)

	// a different pet is fine
	insertDraft(t, s, 7, 43)
}

func TestCompareAndSwapPetStatus(t *testing.T) {
	s := New()
	s.PutPet(models.Pet{ID: 42, ShelterID: 3, Status: models.PetAvailable})

	var first, second bool
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		first, err = tx.CompareAndSwapPetStatus(ctx, 42, models.PetAvailable, models.PetAdopted)
		if err != nil {
			return err
		}
		second, err = tx.CompareAndSwapPetStatus(ctx, 42, models.PetAvailable, models.PetAdopted)
		return err
	})
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	pet, err := s.GetPet(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.PetAdopted, pet.Status)
}

func TestReturnedApplicationsAreCopies(t *testing.T) {
	s := New()
	app := insertDraft(t, s, 7, 42)

	got, err := s.GetApplication(context.Background(), app.ID)
	require.NoError(t, err)
	got.Status = models.StatusApproved

	again, err := s.GetApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, again.Status)
}

func TestListByShelter_NewestFirstWithPaging(t *testing.T) {
	s := New()
	for pet := int64(1); pet <= 3; pet++ {
		insertDraft(t, s, 7, pet)
	}

	apps, err := s.ListByShelter(context.Background(), 3, nil, store.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.True(t, apps[0].ID > apps[1].ID || apps[0].CreatedAt.After(apps[1].CreatedAt))

	rest, err := s.ListByShelter(context.Background(), 3, nil, store.Page{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	draft := models.StatusDraft
	n, err := s.CountByShelter(context.Background(), 3, &draft)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
