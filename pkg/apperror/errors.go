package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrBadRequest           = errors.New("bad request")
	ErrInternal             = errors.New("internal server error")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidMessage       = errors.New("message content must not be empty")
	ErrDuplicateApplication = errors.New("an application already exists for this user")
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrStorageUnavailable   = errors.New("storage unavailable, please retry")
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

// DuplicateApplicationError reports the application that blocked a creation so
// the client can redirect to it.
type DuplicateApplicationError struct {
	ExistingID uuid.UUID
}

func (e *DuplicateApplicationError) Error() string {
	return fmt.Sprintf("%s (existing application %s)", ErrDuplicateApplication.Error(), e.ExistingID)
}

func (e *DuplicateApplicationError) Unwrap() error {
	return ErrDuplicateApplication
}

// NewDuplicateApplication wraps the id of the application that already exists.
func NewDuplicateApplication(existingID uuid.UUID) error {
	return &DuplicateApplicationError{ExistingID: existingID}
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
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrDuplicateApplication) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidMessage) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrRateLimitExceeded) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrStorageUnavailable) {
		return http.StatusServiceUnavailable
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
