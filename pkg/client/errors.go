package client

import (
	"fmt"
	"net/http"
	"time"
)

// APIError is a non-2xx reply. Detail carries the Portuguese message the
// API shows to end users.
type APIError struct {
	StatusCode int           `json:"-"`
	RequestID  string        `json:"-"`
	RetryAfter time.Duration `json:"-"`
	Code       string        `json:"code"`
	Detail     string        `json:"detail"`
	Details    interface{}   `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s (status: %d)", e.Detail, e.StatusCode)
	if e.Code != "" {
		msg = fmt.Sprintf("[%s] %s", e.Code, msg)
	}
	if e.RequestID != "" {
		msg += " request_id=" + e.RequestID
	}
	return "API error " + msg
}

// IsNotFound reports a 404, which the API also returns for records owned
// by another user
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports a missing, expired or revoked session
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsForbidden returns true if the error is a 403 error, which includes
// exhausted plan quotas
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsQuotaExceeded reports that the current plan's limit for a feature is used up
func (e *APIError) IsQuotaExceeded() bool {
	return e.StatusCode == http.StatusForbidden && e.Code == "QUOTA_EXCEEDED"
}

// IsConflict returns true if the error is a 409 conflict, e.g. a payment
// that was already reviewed
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsValidationError returns true if the error is a 400 validation error
func (e *APIError) IsValidationError() bool {
	return e.StatusCode == http.StatusBadRequest
}

// IsRateLimited reports a 429; RetryAfter holds the server's hint
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}
