package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/example/trainer-scheduler/internal/repository"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err  error
		want string
	}{
		"nil":        {err: nil, want: ""},
		"not found":  {err: fmt.Errorf("%w: gone", ErrNotFound), want: "not_found"},
		"conflict":   {err: &ConflictError{}, want: "conflict"},
		"superseded": {err: ErrRefreshSuperseded, want: "superseded"},
		"canceled":   {err: context.Canceled, want: "canceled"},
		"transport":  {err: &repository.TransportError{Op: "load_events", Status: 502}, want: "transport"},
		"validation": {err: &ValidationError{FieldErrors: map[string]string{"title": "x"}}, want: "validation"},
		"unexpected": {err: io.ErrUnexpectedEOF, want: "unexpected"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorKind(tc.err); got != tc.want {
				t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
