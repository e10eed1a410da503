package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spigell/part-recommender/internal/spec"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	ErrorCodeInvalidJSON         ErrorCode = "INVALID_JSON"
	ErrorCodeInvalidRequirement  ErrorCode = "INVALID_REQUIREMENT"
	ErrorCodeInvalidArgument     ErrorCode = "INVALID_ARGUMENT"
	ErrorCodeHistoryDisabled     ErrorCode = "HISTORY_DISABLED"
	ErrorCodeCandidateSourceFail ErrorCode = "CANDIDATE_SOURCE_FAILED"
	ErrorCodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	resp := &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
		RequestID: requestID(c),
	}

	c.JSON(statusCode, resp)
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendArgumentError maps caller contract violations to 400 and anything else
// to 500.
func SendArgumentError(c *gin.Context, operation string, err error) {
	var argErr *spec.InvalidArgumentError
	if errors.As(err, &argErr) {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidArgument, err.Error(),
			ErrorDetail{Field: argErr.Argument, Message: argErr.Reason})
		return
	}
	SendInternalError(c, operation, err)
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}
