// internal/workers/review/begin-evaluation/handler_test.go
package beginevaluation

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

func (m *MockService) BeginEvaluation(ctx context.Context, actor models.Actor, appID int64) (*models.Application, error) {
	args := m.Called(ctx, actor, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func evaluating() *models.Application {
	return &models.Application{ID: 11, Status: models.StatusUnderEvaluation}
}

func TestHandler_Process_ActorSelection(t *testing.T) {
	tests := []struct {
		name      string
		vars      string
		actor     models.Actor
		automatic bool
	}{
		{"shelter", `{"applicationId": 11, "shelterId": 3}`, models.Actor{ID: 3, Role: models.RoleShelter}, false},
		{"system", `{"applicationId": 11}`, models.Actor{Role: models.RoleSystem}, true},
		{"explicit null shelter", `{"applicationId": 11, "shelterId": null}`, models.Actor{Role: models.RoleSystem}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("BeginEvaluation", mock.Anything, tt.actor, int64(11)).Return(evaluating(), nil)

			h := NewHandler(&Config{Timeout: time.Second}, svc, logger.NewTestLogger(t))
			out, err := h.process(context.Background(), tt.vars)
			require.NoError(t, err)

			output := out.(*Output)
			assert.Equal(t, "under_evaluation", output.ApplicationStatus)
			assert.Equal(t, tt.automatic, output.AutoGenerated)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Execute_WrongStatus(t *testing.T) {
	svc := new(MockService)
	svc.On("BeginEvaluation", mock.Anything, mock.Anything, int64(11)).
		Return(nil, errors.NewInvalidStatusTransitionError("submitted", "under_evaluation", "not allowed"))

	h := NewHandler(&Config{Timeout: time.Second}, svc, logger.NewNoOpLogger())
	_, err := h.Execute(context.Background(), &Input{ApplicationID: 11})
	assert.True(t, goerrors.Is(err, errors.ErrInvalidStatusTransition))
}
