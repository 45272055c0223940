// internal/workers/application/upload-document/models.go
package uploaddocument

type Input struct {
	ApplicationID int64  `json:"applicationId"`
	ApplicantID   int64  `json:"applicantId"`
	DocumentType  string `json:"documentType"`
	FileName      string `json:"fileName"`
	ContentType   string `json:"contentType,omitempty"`
	Content       string `json:"content"` // base64
	Description   string `json:"description,omitempty"`
}

type Output struct {
	DocumentID        int64    `json:"documentId"`
	DocumentType      string   `json:"documentType"`
	Version           int      `json:"version"`
	FileSize          int64    `json:"fileSize"`
	DocumentsComplete bool     `json:"documentsComplete"`
	MissingDocuments  []string `json:"missingDocuments"`
	CompletionPercent int      `json:"completionPercent"`
}
