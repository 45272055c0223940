// internal/workers/review/complete-home-visit/handler_test.go
package completehomevisit

import (
	"context"
	"encoding/base64"
	goerrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adoption-review/internal/common/errors"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CompleteHomeVisit(ctx context.Context, actor models.Actor, appID int64, notes string, upload *models.Upload) (*models.Application, error) {
	args := m.Called(ctx, actor, appID, notes, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockService) UpdateHomeVisitRecord(ctx context.Context, actor models.Actor, appID int64, notes string, upload *models.Upload) (*models.Application, error) {
	args := m.Called(ctx, actor, appID, notes, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

var shelter = models.Actor{ID: 3, Role: models.RoleShelter}

func newHandler(t *testing.T, svc Service) *Handler {
	return NewHandler(&Config{Timeout: time.Second}, svc, logger.NewTestLogger(t))
}

func TestHandler_Execute_WithDocument(t *testing.T) {
	svc := new(MockService)
	svc.On("CompleteHomeVisit", mock.Anything, shelter, int64(11), "Fenced garden", mock.MatchedBy(func(u *models.Upload) bool {
		return u != nil && u.FileName == "report.txt" && string(u.Data) == "all good"
	})).Return(&models.Application{
		ID:                11,
		Status:            models.StatusHomeVisitCompleted,
		HomeVisitNotes:    "Fenced garden",
		HomeVisitDocument: "home_visit_document/11/report.txt",
	}, nil)

	out, err := newHandler(t, svc).Execute(context.Background(), &Input{
		ApplicationID: 11,
		ShelterID:     3,
		Notes:         "Fenced garden",
		Document: &DocumentInput{
			FileName: "report.txt",
			Content:  base64.StdEncoding.EncodeToString([]byte("all good")),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "home_visit_completed", out.ApplicationStatus)
	assert.Equal(t, "home_visit_document/11/report.txt", out.HomeVisitDocument)
	svc.AssertExpectations(t)
}

func TestHandler_Process_RecordOnly(t *testing.T) {
	svc := new(MockService)
	svc.On("UpdateHomeVisitRecord", mock.Anything, shelter, int64(11), "Second look", (*models.Upload)(nil)).
		Return(&models.Application{ID: 11, Status: models.StatusUnderEvaluation, HomeVisitNotes: "Second look"}, nil)

	out, err := newHandler(t, svc).process(context.Background(),
		`{"applicationId": 11, "shelterId": 3, "notes": "Second look", "recordOnly": true}`)
	require.NoError(t, err)
	assert.Equal(t, "under_evaluation", out.(*Output).ApplicationStatus)
	svc.AssertNotCalled(t, "CompleteHomeVisit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_PetNoLongerAvailable(t *testing.T) {
	svc := new(MockService)
	svc.On("CompleteHomeVisit", mock.Anything, shelter, int64(11), "ok", (*models.Upload)(nil)).
		Return(nil, errors.NewPetNotAvailableError(42, "adopted"))

	_, err := newHandler(t, svc).Execute(context.Background(), &Input{ApplicationID: 11, ShelterID: 3, Notes: "ok"})
	assert.True(t, goerrors.Is(err, errors.ErrPetNotAvailable))
}

func TestHandler_Process_RejectsInput(t *testing.T) {
	tests := []struct {
		name string
		vars string
	}{
		{"empty notes", `{"applicationId": 11, "shelterId": 3, "notes": ""}`},
		{"document without content", `{"applicationId": 11, "shelterId": 3, "notes": "ok", "document": {"fileName": "a.pdf"}}`},
		{"document not base64", `{"applicationId": 11, "shelterId": 3, "notes": "ok", "document": {"fileName": "a.pdf", "content": "???"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			_, err := newHandler(t, svc).process(context.Background(), tt.vars)
			assert.True(t, goerrors.Is(err, errors.ErrValidation), "got %v", err)
			svc.AssertNotCalled(t, "CompleteHomeVisit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
