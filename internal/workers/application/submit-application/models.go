// internal/workers/application/submit-application/models.go
package submitapplication

import "adoption-review/internal/models"

type Input struct {
	ApplicationID int64            `json:"applicationId"`
	ApplicantID   int64            `json:"applicantId"`
	Form          *models.FormData `json:"form,omitempty"`
}

type Output struct {
	ApplicationID     int64  `json:"applicationId"`
	ApplicationCode   string `json:"applicationCode"`
	ApplicationStatus string `json:"applicationStatus"`
	ShelterID         int64  `json:"shelterId"`
	SubmittedAt       string `json:"submittedAt"` // ISO 8601
}
