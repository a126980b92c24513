package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a request error carrying the HTTP status it should render with
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Session / OAuth failures. Handlers translate these into a login redirect
// for browser flows, or a plain 401 for API callers.
var (
	ErrTokenMalformed = NewAppError(http.StatusUnauthorized, "Session token is malformed")
	ErrTokenExpired   = NewAppError(http.StatusUnauthorized, "Session token has expired")
	ErrMissingClaims  = NewAppError(http.StatusUnauthorized, "Session token is missing required claims")
	ErrStateMismatch  = NewAppError(http.StatusBadRequest, "OAuth state does not match")
	ErrRefreshFailed  = NewAppError(http.StatusUnauthorized, "Failed to refresh Spotify access token")
)

// Common errors
var (
	ErrInvalidRequest = NewAppError(http.StatusBadRequest, "Invalid request parameters")
	ErrUnauthorized   = NewAppError(http.StatusUnauthorized, "Unauthorized access")
	ErrForbidden      = NewAppError(http.StatusForbidden, "Access denied")
	ErrNotFound       = NewAppError(http.StatusNotFound, "Resource not found")
	ErrInternalServer = NewAppError(http.StatusInternalServerError, "Internal server error")
	ErrRateLimit      = NewAppError(http.StatusTooManyRequests, "Rate limit exceeded")
)

func BadRequest(msg string) *AppError {
	return NewAppError(http.StatusBadRequest, msg)
}

func NotFound(msg string) *AppError {
	return NewAppError(http.StatusNotFound, msg)
}

func Unauthorized(msg string) *AppError {
	return NewAppError(http.StatusUnauthorized, msg)
}

func Forbidden(msg string) *AppError {
	return NewAppError(http.StatusForbidden, msg)
}

func Internal(msg string) *AppError {
	return NewAppError(http.StatusInternalServerError, msg)
}

// RemoteError is a non-success response from the Spotify Web API. The provider's
// status and body are surfaced verbatim to the caller, never swallowed.
type RemoteError struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("spotify: status %d: %s", e.Status, e.Body)
}

// Remote unwraps err into a RemoteError if it is one.
func Remote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsAuthError reports whether err is one of the session/OAuth sentinel errors.
func IsAuthError(err error) bool {
	switch {
	case errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrMissingClaims),
		errors.Is(err, ErrStateMismatch),
		errors.Is(err, ErrRefreshFailed):
		return true
	}
	return false
}
