// internal/workers/review/complete-home-visit/models.go
package completehomevisit

type Input struct {
	ApplicationID int64          `json:"applicationId"`
	ShelterID     int64          `json:"shelterId"`
	Notes         string         `json:"notes"`
	RecordOnly    bool           `json:"recordOnly"`
	Document      *DocumentInput `json:"document,omitempty"`
}

// DocumentInput is the visit report attached to the job, base64 encoded.
type DocumentInput struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType,omitempty"`
	Content     string `json:"content"`
}

type Output struct {
	ApplicationStatus string `json:"applicationStatus"`
	HomeVisitNotes    string `json:"homeVisitNotes"`
	HomeVisitDocument string `json:"homeVisitDocument,omitempty"`
}
