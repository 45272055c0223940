// Package availability owns the one write the adoption workflow makes to the
// pet catalog: flipping a pet from available to adopted on approval.
package availability

import (
	"context"
	"errors"
	"fmt"

	"adoption-review/internal/adoption/store"
	apperrors "adoption-review/internal/common/errors"
	"adoption-review/internal/models"
)

// Result is the outcome of TryAdopt.
type Result string

const (
	Adopted  Result = "adopted"
	Conflict Result = "conflict"
)

// Coordinator gates approvals on pet availability.
type Coordinator struct{}

// NewCoordinator returns a Coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// TryAdopt compare-and-swaps the pet from available to adopted inside tx. On
// Conflict it also returns a PetNotAvailable error so the caller's
// transaction rolls back.
func (c *Coordinator) TryAdopt(ctx context.Context, tx store.Tx, petID int64) (Result, error) {
	swapped, err := tx.CompareAndSwapPetStatus(ctx, petID, models.PetAvailable, models.PetAdopted)
	if err != nil {
		return "", fmt.Errorf("flip pet %d to adopted: %w", petID, err)
	}
	if swapped {
		return Adopted, nil
	}

	current := "unknown"
	if pet, err := tx.GetPet(ctx, petID); err == nil {
		current = string(pet.Status)
	}
	return Conflict, apperrors.NewPetNotAvailableError(petID, current)
}

// EnsureAvailable fails unless the pet exists and is currently available.
func (c *Coordinator) EnsureAvailable(ctx context.Context, tx store.Tx, petID int64) (*models.Pet, error) {
	pet, err := tx.GetPet(ctx, petID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("pet", petID)
	}
	if err != nil {
		return nil, fmt.Errorf("load pet %d: %w", petID, err)
	}
	if pet.Status != models.PetAvailable {
		return pet, apperrors.NewPetNotAvailableError(petID, string(pet.Status))
	}
	return pet, nil
}
