// internal/workers/application/withdraw-application/handler_test.go
package withdrawapplication

import (
	"context"
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

func (m *MockService) Withdraw(ctx context.Context, actor models.Actor, appID int64) (*models.Application, error) {
	args := m.Called(ctx, actor, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func TestHandler_Process(t *testing.T) {
	svc := new(MockService)
	svc.On("Withdraw", mock.Anything, models.Actor{ID: 7, Role: models.RoleApplicant}, int64(11)).
		Return(&models.Application{
			ID:        11,
			Status:    models.StatusWithdrawn,
			UpdatedAt: time.Date(2025, 11, 21, 8, 30, 0, 0, time.UTC),
		}, nil)

	h := NewHandler(&Config{Timeout: time.Second}, svc, logger.NewTestLogger(t))
	out, err := h.process(context.Background(), `{"applicationId": 11, "applicantId": 7}`)
	require.NoError(t, err)

	output := out.(*Output)
	assert.Equal(t, "withdrawn", output.ApplicationStatus)
	assert.Equal(t, "2025-11-21T08:30:00Z", output.WithdrawnAt)
	svc.AssertExpectations(t)
}

func TestHandler_Process_TerminalApplication(t *testing.T) {
	svc := new(MockService)
	svc.On("Withdraw", mock.Anything, mock.Anything, int64(11)).
		Return(nil, errors.NewInvalidStatusTransitionError("approved", "withdrawn", "terminal"))

	h := NewHandler(&Config{Timeout: time.Second}, svc, logger.NewNoOpLogger())
	_, err := h.process(context.Background(), `{"applicationId": 11, "applicantId": 7}`)
	assert.True(t, goerrors.Is(err, errors.ErrInvalidStatusTransition))
}

func TestHandler_Process_MissingApplicant(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(&Config{Timeout: time.Second}, svc, logger.NewNoOpLogger())

	_, err := h.process(context.Background(), `{"applicationId": 11}`)
	assert.True(t, goerrors.Is(err, errors.ErrValidation))
	svc.AssertNotCalled(t, "Withdraw", mock.Anything, mock.Anything, mock.Anything)
}
