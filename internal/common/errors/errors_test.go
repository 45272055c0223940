package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := NewNotFoundError("application", 42)
	wrapped := fmt.Errorf("get application: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrNotFound))
	assert.False(t, stderrors.Is(wrapped, ErrPermissionDenied))
	assert.Equal(t, "application", err.Metadata["entity"])
}

func TestNewInternalError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewInternalError("commit", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, ErrInternal))
	assert.True(t, err.Retryable)
	assert.Contains(t, err.Error(), "commit: connection reset")
}

func TestAsStandardError(t *testing.T) {
	assert.Nil(t, AsStandardError(nil))

	plain := AsStandardError(stderrors.New("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrCodeInternal, plain.Code)

	denied := NewPermissionDeniedError("not the owner")
	assert.Same(t, denied, AsStandardError(fmt.Errorf("wrap: %w", denied)))
	assert.Equal(t, ErrCodePermissionDenied, CodeOf(denied))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodePermissionDenied, http.StatusForbidden},
		{ErrCodeInvalidStatusTransition, http.StatusBadRequest},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodePetNotAvailable, http.StatusConflict},
		{ErrCodeDuplicateApplication, http.StatusConflict},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("business error is not retried", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewPetNotAvailableError(7, "adopted"))
		assert.Equal(t, "ADOPTION_PET_NOT_AVAILABLE", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)
		assert.False(t, bpmn.Retryable)

		vars := bpmn.ToErrorVariables()
		assert.Equal(t, "ADOPTION_PET_NOT_AVAILABLE", vars["errorCode"])
		assert.Equal(t, "PET_NOT_AVAILABLE", vars["originalErrorCode"])
	})

	t.Run("internal error is retried", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewInternalError("insert", stderrors.New("deadlock")))
		assert.Equal(t, "ADOPTION_INTERNAL_ERROR", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
	})

	t.Run("unknown code falls back to itself", func(t *testing.T) {
		bpmn := ConvertToBPMNError(&StandardError{Code: "SOMETHING_ELSE"})
		assert.Equal(t, "SOMETHING_ELSE", bpmn.Code)
	})
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "AUTHORIZATION", GetErrorCategory(ErrCodePermissionDenied))
	assert.Equal(t, "CONFLICT", GetErrorCategory(ErrCodePetNotAvailable))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidStatusTransition))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDatabaseConnectionFailed))
	assert.Equal(t, "NOT_FOUND", GetErrorCategory(ErrCodeNotFound))
	assert.False(t, IsRetryableErrorCode(ErrCodeValidation))
	assert.True(t, IsRetryableErrorCode(ErrCodeStorageFailed))
}
