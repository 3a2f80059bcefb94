package application

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the requested event does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is matched by mutations rejected under the enforce conflict policy.
	ErrConflict = errors.New("application: schedule conflict")
	// ErrRefreshSuperseded is returned by a refresh whose results were
	// discarded because a newer refresh started.
	ErrRefreshSuperseded = errors.New("application: refresh superseded")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError lists the bookings a rejected mutation would have overlapped.
// Reason is set instead when the repository itself refused the write.
type ConflictError struct {
	Conflicts []ConflictWarning
	Reason    string
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 && e.Reason != "" {
		return fmt.Sprintf("%v: %s", ErrConflict, e.Reason)
	}
	ids := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		ids = append(ids, c.EventID)
	}
	return fmt.Sprintf("%v: overlaps %s", ErrConflict, strings.Join(ids, ", "))
}

// Is makes every ConflictError match ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
