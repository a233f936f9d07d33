package errors

import (
	"fmt"
	"net/http"
)

// represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`             // error code (e.g., "unauthorized", "quota_exceeded")
	Message string `json:"message"`           // user-friendly message
	Details string `json:"details,omitempty"` // optional details (sanitized in production)
	Upsell  string `json:"upsell,omitempty"`  // follow-up action for gated requests ("sign_up", "upgrade")
}

type ErrorInfo struct {
	category  string
	sanitized string
}

// returns the error category
func (i ErrorInfo) Category() string {
	return i.category
}

// returns the sanitized message
func (i ErrorInfo) Sanitized() string {
	return i.sanitized
}

// transport failure or non-2xx response from the remote API.
// callers keep their last known state when they see this.
type NetworkError struct {
	Op         string // e.g. "fetch profile"
	StatusCode int    // 0 for transport failures
	Message    string // server-provided message, if any
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		if e.Message != "" {
			return fmt.Sprintf("%s: remote returned %d: %s", e.Op, e.StatusCode, e.Message)
		}

		return fmt.Sprintf("%s: remote returned %d", e.Op, e.StatusCode)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// rejected or expired credential. StatusCode is 0 when detected locally
// (missing access token, expired JWT) without a network call.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}

	if e.StatusCode == http.StatusUnauthorized {
		return "unauthorized: " + e.Message
	}

	return e.Message
}

// local gating decision; never a server failure
type QuotaExceededError struct {
	Action  string // "generate" or "tool"
	Tool    string
	Plan    string // "visitor" for unauthenticated callers
	Limit   int    // -1 when the limit is not numeric (demo lockout)
	Used    int
	Message string // user-facing gating message
	Upsell  string // "sign_up", "upgrade" or ""
}

func (e *QuotaExceededError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("quota exceeded: %s %s (%d/%d, plan %s)", e.Action, e.Tool, e.Used, e.Limit, e.Plan)
	}

	return fmt.Sprintf("quota exceeded: %s (%d/%d, plan %s)", e.Action, e.Used, e.Limit, e.Plan)
}

// empty or invalid input caught before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}
