// Package errors provides the adoption workflow error taxonomy and its
// mapping onto BPMN errors for the Camunda job workers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode identifies an error kind across the service, the workers and the
// BPMN process.
type ErrorCode string

const (
	ErrCodeNotFound                ErrorCode = "NOT_FOUND"
	ErrCodePermissionDenied        ErrorCode = "PERMISSION_DENIED"
	ErrCodeInvalidStatusTransition ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodePetNotAvailable         ErrorCode = "PET_NOT_AVAILABLE"
	ErrCodeValidation              ErrorCode = "VALIDATION_ERROR"
	ErrCodeDuplicateApplication    ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeInternal                ErrorCode = "INTERNAL_ERROR"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeStorageFailed            ErrorCode = "STORAGE_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// Sentinels for errors.Is. A StandardError matches a sentinel with the same code.
var (
	ErrNotFound                = &StandardError{Code: ErrCodeNotFound}
	ErrPermissionDenied        = &StandardError{Code: ErrCodePermissionDenied}
	ErrInvalidStatusTransition = &StandardError{Code: ErrCodeInvalidStatusTransition}
	ErrPetNotAvailable         = &StandardError{Code: ErrCodePetNotAvailable}
	ErrValidation              = &StandardError{Code: ErrCodeValidation}
	ErrDuplicateApplication    = &StandardError{Code: ErrCodeDuplicateApplication}
	ErrInternal                = &StandardError{Code: ErrCodeInternal}
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches on Code so callers can compare against the package sentinels.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error's metadata and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError reports a missing application, pet or document.
func NewNotFoundError(entity string, id interface{}) *StandardError {
	return newError(ErrCodeNotFound, fmt.Sprintf("%s not found", entity), fmt.Sprintf("%s: %v", entity, id), false).
		WithMetadata("entity", entity)
}

// NewPermissionDeniedError reports an actor lacking the role or ownership for an operation.
func NewPermissionDeniedError(details string) *StandardError {
	return newError(ErrCodePermissionDenied, "Permission denied", details, false)
}

// NewInvalidStatusTransitionError reports a transition rejected by the matrix.
func NewInvalidStatusTransitionError(from, to, reason string) *StandardError {
	return newError(ErrCodeInvalidStatusTransition, "Invalid status transition",
		fmt.Sprintf("%s -> %s: %s", from, to, reason), false).
		WithMetadata("fromStatus", from).
		WithMetadata("toStatus", to)
}

// NewPetNotAvailableError reports a pet that is no longer available for adoption.
func NewPetNotAvailableError(petID int64, status string) *StandardError {
	return newError(ErrCodePetNotAvailable, "Pet is not available for adoption",
		fmt.Sprintf("petId: %d, status: %s", petID, status), false).
		WithMetadata("petId", petID)
}

// NewValidationError reports malformed input.
func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidation, "Validation failed", details, false)
}

// NewDuplicateApplicationError reports a second active application for the same applicant and pet.
func NewDuplicateApplicationError(applicationID string) *StandardError {
	return newError(ErrCodeDuplicateApplication, "Application already exists",
		fmt.Sprintf("applicationId: %s", applicationID), false)
}

// NewInternalError wraps an unexpected failure of the given operation.
func NewInternalError(op string, err error) *StandardError {
	e := newError(ErrCodeInternal, "Internal error", fmt.Sprintf("%s: %v", op, err), true)
	e.cause = err
	return e
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	e := newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
	e.cause = err
	return e
}

// NewStorageFailedError reports a document storage failure.
func NewStorageFailedError(op string, err error) *StandardError {
	e := newError(ErrCodeStorageFailed, "Document storage failed", fmt.Sprintf("%s: %v", op, err), true)
	e.cause = err
	return e
}

// NewNotificationSendFailedError creates a notification delivery error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	e := newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %v", channel, err), true)
	e.cause = err
	return e
}

// ==========================
// 4. Error Conversion
// ==========================

// BPMNErrorMapping maps internal codes to the error codes caught by boundary
// events in the adoption process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNotFound:                 "ADOPTION_NOT_FOUND",
	ErrCodePermissionDenied:         "ADOPTION_PERMISSION_DENIED",
	ErrCodeInvalidStatusTransition:  "ADOPTION_INVALID_TRANSITION",
	ErrCodePetNotAvailable:          "ADOPTION_PET_NOT_AVAILABLE",
	ErrCodeValidation:               "ADOPTION_VALIDATION_FAILED",
	ErrCodeDuplicateApplication:     "ADOPTION_DUPLICATE_APPLICATION",
	ErrCodeInternal:                 "ADOPTION_INTERNAL_ERROR",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeStorageFailed:            "STORAGE_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns how many times a job failing with code should be retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeInternal,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeStorageFailed,
		ErrCodeNotificationSendFailed:
		return 3
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// HTTPStatus returns the status code an HTTP facade reports for code.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodePermissionDenied:
		return http.StatusForbidden
	case ErrCodeInvalidStatusTransition, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodePetNotAvailable, ErrCodeDuplicateApplication:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err to a StandardError, wrapping anything else as
// INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError("unexpected", err)
}

// IsStandardError reports whether err wraps a *StandardError.
func IsStandardError(err error) bool {
	var stdErr *StandardError
	return errors.As(err, &stdErr)
}

// CodeOf returns the error code of err, INTERNAL_ERROR for foreign errors and
// the empty code for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return AsStandardError(err).Code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodePermissionDenied:
		return "AUTHORIZATION"
	case code == ErrCodePetNotAvailable || code == ErrCodeDuplicateApplication:
		return "CONFLICT"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "STORAGE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case code == ErrCodeNotFound:
		return "NOT_FOUND"
	default:
		return "OTHER"
	}
}
