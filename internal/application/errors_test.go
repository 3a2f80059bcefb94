package application

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"title": "title is required"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for populated error, got %q", got)
	}
}

func TestValidationError_Add(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	if vErr.HasErrors() {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	vErr.add("end", "end must be after start")
	if !vErr.HasErrors() {
		t.Fatalf("expected HasErrors to report true after add")
	}
	if got := vErr.FieldErrors["end"]; got != "end must be after start" {
		t.Fatalf("expected add to populate map, got %q", got)
	}
}

func TestConflictError_MatchesSentinel(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("create: %w", &ConflictError{Conflicts: []ConflictWarning{{EventID: "e1"}, {EventID: "e2"}}})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected wrapped ConflictError to match ErrConflict")
	}

	var cErr *ConflictError
	if !errors.As(err, &cErr) || len(cErr.Conflicts) != 2 {
		t.Fatalf("expected conflicts to be recoverable, got %v", err)
	}
	if !strings.Contains(err.Error(), "e1, e2") {
		t.Fatalf("expected message to list conflicting ids, got %q", err.Error())
	}
}
