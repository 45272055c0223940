package models

// PetStatus is the availability of a pet in the catalog.
type PetStatus string

const (
	PetDraft         PetStatus = "draft"
	PetPendingReview PetStatus = "pending_review"
	PetAvailable     PetStatus = "available"
	PetPending       PetStatus = "pending"
	PetAdopted       PetStatus = "adopted"
	PetUnavailable   PetStatus = "unavailable"
	PetRejected      PetStatus = "rejected"
)

// Pet carries the only catalog fields the adoption workflow reads.
type Pet struct {
	ID        int64     `json:"id"`
	ShelterID int64     `json:"shelterId"`
	Name      string    `json:"name,omitempty"`
	Status    PetStatus `json:"status"`
}
