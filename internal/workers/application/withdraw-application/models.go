// internal/workers/application/withdraw-application/models.go
package withdrawapplication

type Input struct {
	ApplicationID int64 `json:"applicationId"`
	ApplicantID   int64 `json:"applicantId"`
}

type Output struct {
	ApplicationID     int64  `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	WithdrawnAt       string `json:"withdrawnAt"` // ISO 8601
}
