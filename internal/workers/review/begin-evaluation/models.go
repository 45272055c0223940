// internal/workers/review/begin-evaluation/models.go
package beginevaluation

type Input struct {
	ApplicationID int64  `json:"applicationId"`
	ShelterID     *int64 `json:"shelterId,omitempty"` // absent when the process moves on by itself
}

type Output struct {
	ApplicationStatus string `json:"applicationStatus"`
	AutoGenerated     bool   `json:"autoGenerated"`
}
