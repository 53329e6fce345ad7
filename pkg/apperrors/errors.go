package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the booking core. Services wrap these with context via
// fmt.Errorf("...: %w", err); controllers classify with errors.Is.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource state conflict")
	ErrInvalid  = errors.New("operation not valid for current state")
	ErrInternal = errors.New("internal error")

	// ErrHoldExpired is a conflict specialization: the seat was held but the
	// hold's TTL elapsed before the reservation attempt. Callers that only
	// care about the conflict class can match ErrConflict.
	ErrHoldExpired = fmt.Errorf("%w: seat hold expired", ErrConflict)
)

// StatusCode maps a classified error to its HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
