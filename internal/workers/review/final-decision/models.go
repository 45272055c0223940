// internal/workers/review/final-decision/models.go
package finaldecision

type Input struct {
	ApplicationID int64  `json:"applicationId"`
	ShelterID     int64  `json:"shelterId"`
	Decision      string `json:"decision"` // approved | rejected
	Notes         string `json:"notes,omitempty"`
}

type Output struct {
	ApplicationStatus string `json:"applicationStatus"`
	Decision          string `json:"decision"`
	PetAdopted        bool   `json:"petAdopted"`
	ReviewedBy        int64  `json:"reviewedBy"`
	ReviewedAt        string `json:"reviewedAt"` // ISO 8601
}
