// Package platform defines the error kinds shared across aggregate families
// and their mapping to HTTP status codes. Every domain package wraps these
// sentinels so callers can classify failures without knowing which family
// produced them.
package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Domain packages wrap these with %w to add context while
// keeping the kind recoverable through errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrStorage        = errors.New("storage failure")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("authorization failed")
)

// NotFound builds a not-found error for the named resource,
// e.g. NotFound("agent") reads "agent not found".
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// NotFoundID builds a not-found error carrying the resource identifier.
func NotFoundID(resource string, id any) error {
	return fmt.Errorf("%s %v %w", resource, id, ErrNotFound)
}

// Conflict builds a conflict error for the named constraint.
func Conflict(detail string) error {
	return fmt.Errorf("%w: %s", ErrConflict, detail)
}

// Validation builds a validation error with the given detail.
func Validation(detail string) error {
	return fmt.Errorf("%w: %s", ErrValidation, detail)
}

// Storage wraps a driver-level error as a storage failure. The original
// error remains inspectable through errors.Is/As but is reported to clients
// as a generic server fault.
func Storage(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

// MapHTTPStatus maps error kinds to HTTP status codes. Unclassified errors
// are treated as server faults.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
