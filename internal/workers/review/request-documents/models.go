// internal/workers/review/request-documents/models.go
package requestdocuments

type Input struct {
	ApplicationID int64 `json:"applicationId"`
	ShelterID     int64 `json:"shelterId"`
}

type Output struct {
	ApplicationStatus string   `json:"applicationStatus"`
	MissingDocuments  []string `json:"missingDocuments"`
	DocumentsComplete bool     `json:"documentsComplete"`
}
