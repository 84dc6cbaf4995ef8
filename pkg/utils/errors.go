package utils

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")
	ErrConflict       = errors.New("resource conflict")
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func NewAppError(code string, message string, details ...string) *AppError {
	err := &AppError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Wrap prefixes the message with additional context while keeping the code.
func (e *AppError) Wrap(context string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: fmt.Sprintf("%s: %s", context, e.Message),
		Details: e.Details,
	}
}

// AsAppError extracts an *AppError from any error, converting plain errors
// into internal-error envelopes.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewAppError(ErrCodeInternal, err.Error())
}

// Error codes. Validation and state-conflict codes map to 4xx at the HTTP
// boundary, provider absence to 503, invariant and plugin violations to 500.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeMissingField = "MISSING_FIELD"
	ErrCodeBadAction    = "BAD_ACTION"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeConflict     = "CONFLICT"

	ErrCodeModeUnsupported    = "MODE_UNSUPPORTED"
	ErrCodeOneShotOneAction   = "ONE_SHOT_REQUIRES_ONE_ACTION"
	ErrCodeEnduranceBadLength = "ENDURANCE_BAD_LENGTH"
	ErrCodeDimensionMismatch  = "DIMENSION_MISMATCH"
	ErrCodeInvalidPattern     = "INVALID_PATTERN"

	ErrCodeEmbeddingNotFound = "EMBEDDING_NOT_FOUND"
	ErrCodeEmptyCluster      = "EMPTY_CLUSTER"

	ErrCodeAlreadyClaimed     = "ALREADY_CLAIMED"
	ErrCodeUnknownMilestone   = "UNKNOWN_MILESTONE"
	ErrCodeNotAchieved        = "NOT_ACHIEVED"
	ErrCodeInvariantViolation = "INVARIANT_VIOLATION"

	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeStoreConflict       = "STORE_CONFLICT"

	ErrCodePluginViolation = "PLUGIN_CONTRACT_VIOLATION"
	ErrCodeCancelled       = "CANCELLED"
)
