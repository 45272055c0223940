package validation

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	apperrors "adoption-review/internal/common/errors"
	"adoption-review/internal/models"
)

// MaxUploadSize bounds a single decoded upload.
const MaxUploadSize = 10 << 20

// DecodeUpload turns a base64 payload from job variables into an Upload.
// A missing content type is derived from the file extension, then sniffed.
func DecodeUpload(fileName, contentType, content string) (models.Upload, error) {
	name := filepath.Base(strings.TrimSpace(fileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return models.Upload{}, apperrors.NewValidationError("fileName is required")
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
	if err != nil {
		return models.Upload{}, apperrors.NewValidationError(fmt.Sprintf("content of %s is not valid base64: %v", name, err))
	}
	if len(data) == 0 {
		return models.Upload{}, apperrors.NewValidationError(fmt.Sprintf("%s is empty", name))
	}
	if len(data) > MaxUploadSize {
		return models.Upload{}, apperrors.NewValidationError(
			fmt.Sprintf("%s is %d bytes, the limit is %d", name, len(data), MaxUploadSize))
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return models.Upload{FileName: name, ContentType: contentType, Data: data}, nil
}
