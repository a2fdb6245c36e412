// Package model defines the error taxonomy and small shared helpers used
// across the proxy.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrRemote         = errors.New("remote platform error")
)

// RemoteError is the typed failure produced whenever the delivery platform
// answers with a non-2xx status. It carries everything the caller needs to
// interpret the failure: the numeric status, its text, and the raw body.
// The proxy never inspects the body for platform business errors ("store
// closed" and friends stay inside the payload for the caller).
type RemoteError struct {
	Status     int             // HTTP status from the platform
	StatusText string          // e.g. "Forbidden"
	Body       string          // raw response body, best-effort text
	Data       json.RawMessage // set when the body parsed as JSON
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("platform returned %d %s: %s", e.Status, e.StatusText, e.Body)
}

func (e *RemoteError) Unwrap() error {
	return ErrRemote
}

// ClassifyResponse maps a non-2xx platform response into a RemoteError.
// This is the only error boundary in the core: it classifies by transport
// status only, never by body contents. The body is kept verbatim; if it
// happens to be JSON it is additionally exposed as Data so callers can
// pass it through without re-parsing.
func ClassifyResponse(status int, body []byte) *RemoteError {
	re := &RemoteError{
		Status:     status,
		StatusText: http.StatusText(status),
		Body:       string(body),
	}
	if json.Valid(body) {
		re.Data = json.RawMessage(body)
	}
	return re
}

// APIError is the structured error shape for the proxy's own inbound
// surface. Implements error and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: http.StatusBadRequest,
		Err:        ErrInvalidRequest,
	}
}

// NewNotFoundError creates a 404 error for a lookup that matched nothing.
func NewNotFoundError(what string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    what,
		StatusCode: http.StatusNotFound,
	}
}

// NewBadCookieError creates a 502 error for a platform response whose
// Set-Cookie headers could not be parsed.
func NewBadCookieError(err error) *APIError {
	return &APIError{
		Code:       "MALFORMED_COOKIE",
		Message:    "platform returned an unparseable Set-Cookie header",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
