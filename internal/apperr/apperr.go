// Package apperr defines the error kinds shared by the stores, the ingestion
// pipeline and the web layer, and maps them to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an identity or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique field collides with an existing record.
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized is returned when the caller is not (or no longer) authenticated.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrUnsupportedFormat is returned for uploads that are not csv files.
	ErrUnsupportedFormat = errors.New("only csv files are supported")

	// ErrSchemaMismatch is returned when the csv header differs from the expected columns.
	ErrSchemaMismatch = errors.New("csv header mismatch")

	// ErrRowShape is returned when a csv row does not match the header.
	ErrRowShape = errors.New("csv row mismatch")

	// ErrUpstream is returned when the store, object storage or a queue fails.
	ErrUpstream = errors.New("upstream failure")
)

// Status maps an error to the HTTP status code of its kind.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrSchemaMismatch),
		errors.Is(err, ErrRowShape):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsUniqueViolation reports whether err is a unique constraint violation of the store.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
