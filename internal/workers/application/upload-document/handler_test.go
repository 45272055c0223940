// internal/workers/application/upload-document/handler_test.go
package uploaddocument

import (
	"context"
	"encoding/base64"
	goerrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adoption-review/internal/adoption/service"
	"adoption-review/internal/common/errors"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UploadDocument(ctx context.Context, actor models.Actor, appID int64, req service.UploadRequest) (*models.ApplicationDocument, error) {
	args := m.Called(ctx, actor, appID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApplicationDocument), args.Error(1)
}

func (m *MockService) DocumentStatus(ctx context.Context, actor models.Actor, appID int64) (*service.DocumentSummary, error) {
	args := m.Called(ctx, actor, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentSummary), args.Error(1)
}

var applicant = models.Actor{ID: 7, Role: models.RoleApplicant}

func validInput() *Input {
	return &Input{
		ApplicationID: 11,
		ApplicantID:   7,
		DocumentType:  "identity",
		FileName:      "passport.pdf",
		Content:       base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 passport")),
		Description:   "Passport photo page",
	}
}

func newHandler(t *testing.T, svc Service) *Handler {
	return NewHandler(&Config{Timeout: time.Second}, svc, logger.NewTestLogger(t))
}

func TestHandler_Execute_Success(t *testing.T) {
	svc := new(MockService)
	svc.On("UploadDocument", mock.Anything, applicant, int64(11), mock.MatchedBy(func(r service.UploadRequest) bool {
		return r.Type == "identity" &&
			r.Upload.FileName == "passport.pdf" &&
			r.Upload.ContentType == "application/pdf" &&
			string(r.Upload.Data) == "%PDF-1.4 passport"
	})).Return(&models.ApplicationDocument{ID: 5, DocumentType: models.DocumentIdentity, Version: 2, FileSize: 17}, nil)
	svc.On("DocumentStatus", mock.Anything, applicant, int64(11)).Return(&service.DocumentSummary{
		Completion: models.Completion{
			Required:   models.RequiredDocumentTypes(),
			Uploaded:   []models.DocumentType{models.DocumentIdentity},
			Missing:    []models.DocumentType{models.DocumentIncome, models.DocumentResidence},
			Percentage: 33,
		},
	}, nil)

	out, err := newHandler(t, svc).Execute(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.DocumentID)
	assert.Equal(t, 2, out.Version)
	assert.False(t, out.DocumentsComplete)
	assert.Equal(t, []string{"income", "residence"}, out.MissingDocuments)
	assert.Equal(t, 33, out.CompletionPercent)
	svc.AssertExpectations(t)
}

func TestHandler_Execute_CompletionLookupFails(t *testing.T) {
	svc := new(MockService)
	svc.On("UploadDocument", mock.Anything, applicant, int64(11), mock.Anything).
		Return(&models.ApplicationDocument{ID: 5, DocumentType: models.DocumentIdentity, Version: 1}, nil)
	svc.On("DocumentStatus", mock.Anything, applicant, int64(11)).
		Return(nil, errors.NewInternalError("document_status", fmt.Errorf("connection reset")))

	out, err := newHandler(t, svc).Execute(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.DocumentID)
	assert.Empty(t, out.MissingDocuments)
}

func TestHandler_Execute_BadContent(t *testing.T) {
	svc := new(MockService)
	in := validInput()
	in.Content = "not base64!"

	_, err := newHandler(t, svc).Execute(context.Background(), in)
	assert.True(t, goerrors.Is(err, errors.ErrValidation))
	svc.AssertNotCalled(t, "UploadDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Process_UnknownDocumentType(t *testing.T) {
	svc := new(MockService)
	_, err := newHandler(t, svc).process(context.Background(),
		`{"applicationId": 11, "applicantId": 7, "documentType": "selfie", "fileName": "a.jpg", "content": "aGk="}`)
	assert.True(t, goerrors.Is(err, errors.ErrValidation))
	svc.AssertNotCalled(t, "UploadDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_StorageFailure(t *testing.T) {
	svc := new(MockService)
	svc.On("UploadDocument", mock.Anything, applicant, int64(11), mock.Anything).
		Return(nil, errors.NewStorageFailedError("put object", fmt.Errorf("timeout")))

	_, err := newHandler(t, svc).Execute(context.Background(), validInput())
	assert.Equal(t, errors.ErrCodeStorageFailed, errors.CodeOf(err))
	svc.AssertNotCalled(t, "DocumentStatus", mock.Anything, mock.Anything, mock.Anything)
}
