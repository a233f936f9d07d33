package errors

import (
	"errors"
	"net/http"

	"codeberg.org/seoscribe/dashboard/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers:
//   - Use errors.Respond() for anything returned by the entitlement engine;
//     it maps the typed errors below to status codes
//   - Use errors.InternalError(), errors.BadRequest(), etc. for handler-local failures
//   - Never call both logger.ErrorErr() and errors.InternalError() for the same error
//
// For the usage store and its backends:
//   - Persistence failures are logged at WARN and swallowed (fail open)
//
// For services/clients/internal packages:
//   - Return wrapped errors with context using fmt.Errorf("context: %w", err)
//   - Return *NetworkError / *AuthError / *QuotaExceededError / *ValidationError
//     where the caller needs to branch on the kind of failure

// standard error codes
const (
	CodeUnauthorized        = "unauthorized"
	CodeNotFound            = "not_found"
	CodeValidationError     = "validation_error"
	CodeServerError         = "server_error"
	CodeBadRequest          = "bad_request"
	CodeTooManyRequests     = "too_many_requests"
	CodeQuotaExceeded       = "quota_exceeded"
	CodeUpstreamUnavailable = "upstream_unavailable"
)

// maps an engine error to the matching response
func Respond(c *gin.Context, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		ValidationFailed(c, validationErr)
		return
	}

	var quotaErr *QuotaExceededError
	if errors.As(err, &quotaErr) {
		QuotaExceeded(c, quotaErr)
		return
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		Unauthorized(c, UserMessage(err))
		return
	}

	var networkErr *NetworkError
	if errors.As(err, &networkErr) {
		BadGateway(c, UserMessage(err), err)
		return
	}

	InternalError(c, "an error occurred", err)
}

// returns a 401 unauthorized error
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}

	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   CodeUnauthorized,
		Message: message,
	})
}

// returns a 404 not found error
func NotFound(c *gin.Context, resource string) {
	message := "resource not found"

	if resource != "" {
		message = resource + " not found"
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   CodeNotFound,
		Message: message,
	})
}

// returns a 400 bad request error
func BadRequest(c *gin.Context, message string, err error) {
	if message == "" {
		message = "invalid request"
	}

	response := ErrorResponse{
		Error:   CodeBadRequest,
		Message: message,
	}

	// add details if error provided
	if err != nil {
		response.Details = sanitizeError(err)
	}

	c.JSON(http.StatusBadRequest, response)
}

// returns a 400 bad request error for validation failures
func ValidationFailed(c *gin.Context, err error) {
	message := "validation failed"

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		message = validationErr.Message
	}

	response := ErrorResponse{
		Error:   CodeValidationError,
		Message: message,
	}

	if validationErr == nil && err != nil {
		response.Details = sanitizeError(err)
	}

	c.JSON(http.StatusBadRequest, response)
}

// returns a 429 for a local gating decision
func QuotaExceeded(c *gin.Context, err *QuotaExceededError) {
	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   CodeQuotaExceeded,
		Message: UserMessage(err),
		Upsell:  err.Upsell,
	})
}

// returns a 429 too many requests error
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "too many requests"
	}

	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   CodeTooManyRequests,
		Message: message,
	})
}

// returns a 502 when the remote API failed or was unreachable
func BadGateway(c *gin.Context, message string, err error) {
	logger.Warn("upstream request failed",
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"error", err,
	)

	c.JSON(http.StatusBadGateway, ErrorResponse{
		Error:   CodeUpstreamUnavailable,
		Message: message,
		Details: sanitizeError(err),
	})
}

// returns a 500 internal server error
func InternalError(c *gin.Context, message string, err error) {
	if message == "" {
		message = "an error occurred"
	}

	// log full error server-side with context
	logger.ErrorErr(err, message,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"device_id", c.GetString("device_id"),
	)

	// return sanitized error to client
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   CodeServerError,
		Message: message,
		Details: sanitizeError(err),
	})
}

// validates a UUID string format
func IsValidUUID(id string) bool {
	if id == "" {
		return false
	}

	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
