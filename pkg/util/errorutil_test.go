package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		retryable bool
	}{
		{name: "validation", err: NewValidationError("bad", nil), status: http.StatusBadRequest, code: "VALIDATION_FAILED"},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", NewNotFound("Course", nil)), status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "unauthorized", err: NewUnauthorized("no token"), status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "forbidden", err: NewForbidden("nope"), status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), status: http.StatusInternalServerError, code: "STORAGE_ERROR", retryable: true},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.status, de.HTTPStatus)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.retryable, de.Retryable)
		})
	}
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestStorageErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStorageError(cause)
	assert.ErrorIs(t, err, cause)
	assert.False(t, ToDomainError(err).Retryable)
}
