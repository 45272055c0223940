// internal/workers/application/create-draft/handler_test.go
package createdraft

import (
	"context"
	goerrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adoption-review/internal/common/config"
	"adoption-review/internal/common/errors"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateDraft(ctx context.Context, actor models.Actor, petID int64, form *models.FormData) (*models.Application, error) {
	args := m.Called(ctx, actor, petID, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func newHandler(t *testing.T, svc Service) *Handler {
	return NewHandler(&Config{Timeout: time.Second}, svc, logger.NewTestLogger(t))
}

func draftApp() *models.Application {
	return &models.Application{
		ID:            11,
		ApplicationID: "APP20251120ABCDEF12",
		PetID:         42,
		ApplicantID:   7,
		ShelterID:     3,
		Status:        models.StatusDraft,
		CreatedAt:     time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestHandler_Process_Success(t *testing.T) {
	svc := new(MockService)
	applicant := models.Actor{ID: 7, Role: models.RoleApplicant}
	svc.On("CreateDraft", mock.Anything, applicant, int64(42), mock.MatchedBy(func(f *models.FormData) bool {
		return f != nil && f.PersonalInfo["name"] == "Ada"
	})).Return(draftApp(), nil)

	out, err := newHandler(t, svc).process(context.Background(),
		`{"applicantId": 7, "petId": 42, "form": {"personalInfo": {"name": "Ada"}}}`)
	require.NoError(t, err)

	output := out.(*Output)
	assert.Equal(t, int64(11), output.ApplicationID)
	assert.Equal(t, "APP20251120ABCDEF12", output.ApplicationCode)
	assert.Equal(t, "draft", output.ApplicationStatus)
	assert.Equal(t, int64(3), output.ShelterID)
	assert.Equal(t, "2025-11-20T09:00:00Z", output.CreatedAt)
	svc.AssertExpectations(t)
}

func TestHandler_Process_WithoutForm(t *testing.T) {
	svc := new(MockService)
	svc.On("CreateDraft", mock.Anything, mock.Anything, int64(42), (*models.FormData)(nil)).Return(draftApp(), nil)

	_, err := newHandler(t, svc).process(context.Background(), `{"applicantId": 7, "petId": 42}`)
	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestHandler_Process_RejectsInput(t *testing.T) {
	tests := []struct {
		name string
		vars string
	}{
		{"missing pet", `{"applicantId": 7}`},
		{"zero applicant", `{"applicantId": 0, "petId": 42}`},
		{"pet as string", `{"applicantId": 7, "petId": "42"}`},
		{"section not an object", `{"applicantId": 7, "petId": 42, "form": {"personalInfo": "Ada"}}`},
		{"broken json", `{"applicantId": 7`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			_, err := newHandler(t, svc).process(context.Background(), tt.vars)
			assert.True(t, goerrors.Is(err, errors.ErrValidation), "got %v", err)
			svc.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Execute_PropagatesServiceError(t *testing.T) {
	svc := new(MockService)
	svc.On("CreateDraft", mock.Anything, mock.Anything, int64(42), (*models.FormData)(nil)).
		Return(nil, errors.NewPetNotAvailableError(42, "adopted"))

	_, err := newHandler(t, svc).Execute(context.Background(), &Input{ApplicantID: 7, PetID: 42})
	assert.True(t, goerrors.Is(err, errors.ErrPetNotAvailable))
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 15*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
	assert.Equal(t, 2*time.Second, LoadConfig(config.WorkerConfig{Timeout: 2000}).Timeout)
}
