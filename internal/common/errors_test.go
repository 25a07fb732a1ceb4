package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", fmt.Errorf("job x: %w", ErrNotFound), http.StatusNotFound},
		{"missing file", ErrMissingFile, http.StatusBadRequest},
		{"unsupported type", fmt.Errorf("upload: %w", ErrUnsupportedType), http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"conflict", ErrConflict, http.StatusConflict},
		{"invalid transition", ErrInvalidTransition, http.StatusConflict},
		{"queue down", fmt.Errorf("enqueue: %w", ErrServiceUnavailable), http.StatusServiceUnavailable},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromError(tt.err))
		})
	}
}

func TestUploadErrorsAreValidationErrors(t *testing.T) {
	assert.ErrorIs(t, ErrMissingFile, ErrValidation)
	assert.ErrorIs(t, ErrUnsupportedType, ErrValidation)
	assert.NotErrorIs(t, ErrMissingFile, ErrUnsupportedType)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}))
	assert.False(t, IsUniqueViolation(errors.New("nope")))
}
