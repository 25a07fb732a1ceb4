package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict") // e.g., username already exists
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable") // e.g. queue down

	// Upload validation; both satisfy errors.Is(err, ErrValidation).
	ErrMissingFile     = fmt.Errorf("no file provided: %w", ErrValidation)
	ErrUnsupportedType = fmt.Errorf("unsupported file type: %w", ErrValidation)

	// Job pipeline.
	ErrInvalidTransition = errors.New("invalid job state transition")
	ErrTranscription     = errors.New("transcription failed")
	ErrPersistence       = errors.New("failed to persist result")

	ErrDecryption    = errors.New("decryption failed")
	ErrConfiguration = errors.New("invalid configuration")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
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
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidTransition) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation {
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

// IsUniqueViolation reports whether err came from a Postgres unique constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
