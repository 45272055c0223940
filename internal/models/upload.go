package models

// Storage categories of uploaded files.
const (
	CategoryApplicationDocument = "application_document"
	CategoryHomeVisitDocument   = "home_visit_document"
)

// Upload is a file received from a caller and not yet stored.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Size returns the length of the upload in bytes.
func (u Upload) Size() int64 {
	return int64(len(u.Data))
}
