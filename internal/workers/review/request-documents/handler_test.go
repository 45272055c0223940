// internal/workers/review/request-documents/handler_test.go
package requestdocuments

import (
	"context"
	goerrors "errors"
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

func (m *MockService) RequestDocuments(ctx context.Context, actor models.Actor, appID int64) (*models.Application, error) {
	args := m.Called(ctx, actor, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockService) DocumentStatus(ctx context.Context, actor models.Actor, appID int64) (*service.DocumentSummary, error) {
	args := m.Called(ctx, actor, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentSummary), args.Error(1)
}

var shelter = models.Actor{ID: 3, Role: models.RoleShelter}

func TestHandler_Process(t *testing.T) {
	svc := new(MockService)
	svc.On("RequestDocuments", mock.Anything, shelter, int64(11)).
		Return(&models.Application{ID: 11, Status: models.StatusDocumentReview}, nil)
	svc.On("DocumentStatus", mock.Anything, shelter, int64(11)).Return(&service.DocumentSummary{
		Completion: models.Completion{Missing: []models.DocumentType{models.DocumentResidence}},
	}, nil)

	h := NewHandler(&Config{Timeout: time.Second}, svc, logger.NewTestLogger(t))
	out, err := h.process(context.Background(), `{"applicationId": 11, "shelterId": 3}`)
	require.NoError(t, err)

	output := out.(*Output)
	assert.Equal(t, "document_review", output.ApplicationStatus)
	assert.Equal(t, []string{"residence"}, output.MissingDocuments)
	assert.False(t, output.DocumentsComplete)
	svc.AssertExpectations(t)
}

func TestHandler_Execute_WrongShelter(t *testing.T) {
	svc := new(MockService)
	svc.On("RequestDocuments", mock.Anything, models.Actor{ID: 4, Role: models.RoleShelter}, int64(11)).
		Return(nil, errors.NewPermissionDeniedError("application belongs to another shelter"))

	h := NewHandler(&Config{Timeout: time.Second}, svc, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{ApplicationID: 11, ShelterID: 4})
	assert.True(t, goerrors.Is(err, errors.ErrPermissionDenied))
	svc.AssertNotCalled(t, "DocumentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_CompleteSet(t *testing.T) {
	svc := new(MockService)
	svc.On("RequestDocuments", mock.Anything, shelter, int64(11)).
		Return(&models.Application{ID: 11, Status: models.StatusDocumentReview}, nil)
	svc.On("DocumentStatus", mock.Anything, shelter, int64(11)).
		Return(&service.DocumentSummary{Completion: models.Completion{Percentage: 100}}, nil)

	h := NewHandler(&Config{Timeout: time.Second}, svc, logger.NewNoOpLogger())
	out, err := h.Execute(context.Background(), &Input{ApplicationID: 11, ShelterID: 3})
	require.NoError(t, err)
	assert.True(t, out.DocumentsComplete)
	assert.Empty(t, out.MissingDocuments)
}
