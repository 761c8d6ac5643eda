package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("application: %w", ErrNotFound), http.StatusNotFound},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"invalid message", ErrInvalidMessage, http.StatusUnprocessableEntity},
		{"invalid input", fmt.Errorf("receiver: %w", ErrInvalidInput), http.StatusBadRequest},
		{"duplicate", NewDuplicateApplication(uuid.New()), http.StatusConflict},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"storage", fmt.Errorf("%w: connection refused", ErrStorageUnavailable), http.StatusServiceUnavailable},
		{"app error code wins", New(http.StatusTeapot, "teapot", ErrNotFound), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatus(tt.err))
		})
	}
}

func TestDuplicateApplicationError(t *testing.T) {
	id := uuid.New()
	err := fmt.Errorf("create application: %w", NewDuplicateApplication(id))

	assert.ErrorIs(t, err, ErrDuplicateApplication)

	var dup *DuplicateApplicationError
	if assert.ErrorAs(t, err, &dup) {
		assert.Equal(t, id, dup.ExistingID)
	}
	assert.Contains(t, err.Error(), id.String())
}
