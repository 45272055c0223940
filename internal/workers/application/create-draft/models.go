// internal/workers/application/create-draft/models.go
package createdraft

import "adoption-review/internal/models"

type Input struct {
	ApplicantID int64            `json:"applicantId"`
	PetID       int64            `json:"petId"`
	Form        *models.FormData `json:"form,omitempty"`
}

type Output struct {
	ApplicationID     int64  `json:"applicationId"`
	ApplicationCode   string `json:"applicationCode"`
	ApplicationStatus string `json:"applicationStatus"`
	ShelterID         int64  `json:"shelterId"`
	CreatedAt         string `json:"createdAt"` // ISO 8601
}
