package transit

import (
	"errors"
	"sort"
	"strings"

	"slugstop.org/tracker/internal/geo"
)

var (
	// ErrInvalidCoordinate is the same sentinel as geo.ErrInvalidCoordinate so
	// errors.Is works regardless of which layer produced it.
	ErrInvalidCoordinate = geo.ErrInvalidCoordinate
	ErrRouteNotFound     = errors.New("route not found")
	ErrStopNotFound      = errors.New("stop not found")
	ErrStopNotOnRoute    = errors.New("stop not on route")
	ErrNoStopsAvailable  = errors.New("no stops available")
	ErrValidationFailed  = errors.New("validation failed")
)

// ValidationError carries per-field messages for a malformed payload.
type ValidationError struct {
	FieldErrors map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{FieldErrors: make(map[string][]string)}
}

// Add records a message for field.
func (e *ValidationError) Add(field, message string) {
	e.FieldErrors[field] = append(e.FieldErrors[field], message)
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.FieldErrors) > 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString(ErrValidationFailed.Error())
	for i, field := range fields {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(field)
		b.WriteString(" ")
		b.WriteString(strings.Join(e.FieldErrors[field], ", "))
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// ErrorCode maps an error to the stable code clients switch on.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCoordinate):
		return "INVALID_COORDINATE"
	case errors.Is(err, ErrValidationFailed):
		return "VALIDATION_FAILED"
	case errors.Is(err, ErrRouteNotFound):
		return "ROUTE_NOT_FOUND"
	case errors.Is(err, ErrStopNotOnRoute):
		return "STOP_NOT_ON_ROUTE"
	case errors.Is(err, ErrStopNotFound):
		return "STOP_NOT_FOUND"
	case errors.Is(err, ErrNoStopsAvailable):
		return "NO_STOPS_AVAILABLE"
	default:
		return "INTERNAL"
	}
}
