package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthenticated   = errors.New("sign in required")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrRemote            = errors.New("remote service failure")
	ErrInternal          = errors.New("internal server error")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Specific conditions. Each one wraps its category so callers can match
// either the precise case or the whole class.
var (
	ErrEmptyContent      = fmt.Errorf("content must not be empty: %w", ErrValidation)
	ErrAlreadyMember     = fmt.Errorf("user is already a member of this group: %w", ErrConflict)
	ErrDuplicatePending  = fmt.Errorf("user already has a pending invite: %w", ErrConflict)
	ErrInvalidTransition = fmt.Errorf("invite is no longer actionable: %w", ErrConflict)
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Remote tags a failure coming back from the data service. Context
// cancellation is passed through untouched so callers can tell a torn-down
// request apart from a broken backend.
func Remote(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrRemote) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRemote, err)
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthenticated) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrRateLimitExceeded) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrRemote) {
		return http.StatusBadGateway
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
