package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *AppError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type Meta struct {
	Limit   int   `json:"limit,omitempty"`
	Offset  int   `json:"offset,omitempty"`
	Total   int64 `json:"total,omitempty"`
	HasMore bool  `json:"has_more"`
}

func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func SendSuccessWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func SendError(c *gin.Context, statusCode int, err *AppError) {
	c.JSON(statusCode, Response{
		Success: false,
		Error:   err,
	})
}

func SendValidationError(c *gin.Context, message string, details string) {
	SendError(c, http.StatusBadRequest, NewAppError(ErrCodeValidation, message, details))
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, NewAppError(ErrCodeNotFound, message))
}

func SendUnauthorized(c *gin.Context, message string) {
	SendError(c, http.StatusUnauthorized, NewAppError(ErrCodeUnauthorized, message))
}

func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, NewAppError(ErrCodeInternal, message))
}

func SendConflict(c *gin.Context, message string) {
	SendError(c, http.StatusConflict, NewAppError(ErrCodeConflict, message))
}

// SendAppError maps an error code to its HTTP status and writes the envelope.
func SendAppError(c *gin.Context, err *AppError) {
	SendError(c, StatusForCode(err.Code), err)
}

// StatusForCode maps error codes to HTTP status per the boundary policy:
// validation and state conflicts are client errors, provider outages are 503,
// invariant and plugin violations are server errors.
func StatusForCode(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeMissingField, ErrCodeBadAction,
		ErrCodeModeUnsupported, ErrCodeOneShotOneAction, ErrCodeEnduranceBadLength,
		ErrCodeDimensionMismatch, ErrCodeInvalidPattern:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeEmbeddingNotFound, ErrCodeUnknownMilestone:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeAlreadyClaimed, ErrCodeNotAchieved, ErrCodeConflict, ErrCodeStoreConflict:
		return http.StatusConflict
	case ErrCodeEmptyCluster:
		return http.StatusUnprocessableEntity
	case ErrCodeProviderUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
