package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/trainer-scheduler/internal/application"
	"github.com/example/trainer-scheduler/internal/repository"
)

var (
	errBadRequestBody  = errors.New("request body is not valid JSON")
	errInvalidEventID  = errors.New("event id is required")
	errInvalidTrainer  = errors.New("trainer id is required")
	errInvalidInterval = errors.New("start and end must be RFC 3339 timestamps with start before end")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// writeEnvelope answers a repository contract call. Failures carry the
// error text and the status derived from the backend error.
func (r responder) writeEnvelope(ctx context.Context, w http.ResponseWriter, status int, data any, err error) {
	if err != nil {
		status = repository.StatusFor(err)
		if status >= http.StatusInternalServerError {
			r.loggerFor(ctx).ErrorContext(ctx, "repository call failed", "status", status, "error", err)
		}
		r.writeJSON(ctx, w, status, repository.Envelope{Success: false, Error: err.Error()})
		return
	}
	r.writeJSON(ctx, w, status, repository.Envelope{Success: true, Data: data})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	logger := r.loggerFor(ctx)
	var (
		vErr *application.ValidationError
		cErr *application.ConflictError
	)
	switch {
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   statusMessage(http.StatusUnprocessableEntity),
			Errors:    vErr.FieldErrors,
		})
	case errors.As(err, &cErr):
		message := statusMessage(http.StatusConflict)
		if cErr.Reason != "" {
			message = cErr.Reason
		}
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SCHEDULE_CONFLICT",
			Message:   message,
			Conflicts: toWarningDTOs(cErr.Conflicts),
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: statusMessage(http.StatusNotFound)})
	case errors.Is(err, repository.ErrTransport):
		logger.ErrorContext(ctx, "repository unavailable", "error", err, "error_kind", application.ErrorKind(err))
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{
			ErrorCode: "REPOSITORY_UNAVAILABLE",
			Message:   err.Error(),
		})
	default:
		logger.ErrorContext(ctx, "unexpected service error", "error", err, "error_kind", application.ErrorKind(err))
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: statusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request is malformed"
	case http.StatusNotFound:
		return "the requested resource was not found"
	case http.StatusConflict:
		return "the event overlaps existing bookings"
	case http.StatusUnprocessableEntity:
		return "the request contains invalid fields"
	case http.StatusBadGateway:
		return "the schedule repository is unavailable"
	default:
		return "internal server error"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflicts []conflictDTO     `json:"conflicts,omitempty"`
}
