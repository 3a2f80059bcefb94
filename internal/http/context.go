package http

import (
	"context"
	"log/slog"

	"github.com/example/trainer-scheduler/internal/logging"
)

type contextKey string

const (
	eventIDContextKey   contextKey = "event_id"
	trainerIDContextKey contextKey = "trainer_id"
)

// ContextWithLogger attaches the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithEventID injects the event identifier resolved from the request path.
func ContextWithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, eventIDContextKey, eventID)
}

// EventIDFromContext extracts an event identifier previously associated with the context.
func EventIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(eventIDContextKey).(string)
	return id, ok
}

// ContextWithTrainerID injects the trainer identifier resolved from the request path.
func ContextWithTrainerID(ctx context.Context, trainerID string) context.Context {
	return context.WithValue(ctx, trainerIDContextKey, trainerID)
}

// TrainerIDFromContext extracts a trainer identifier previously associated with the context.
func TrainerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(trainerIDContextKey).(string)
	return id, ok
}
