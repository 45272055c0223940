// internal/workers/review/schedule-home-visit/models.go
package schedulehomevisit

type Input struct {
	ApplicationID  int64  `json:"applicationId"`
	ShelterID      int64  `json:"shelterId"`
	VisitDateTime  string `json:"visitDateTime"`
	ChangeDateOnly bool   `json:"changeDateOnly"`
}

type Output struct {
	ApplicationStatus string `json:"applicationStatus"`
	HomeVisitDate     string `json:"homeVisitDate"` // ISO 8601
}
