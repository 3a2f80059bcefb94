// Package repository loads and mutates schedule data through the external
// repository contract and normalizes every record it receives.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/trainer-scheduler/internal/logging"
	"github.com/example/trainer-scheduler/internal/scheduler"
)

const tracerName = "github.com/example/trainer-scheduler/internal/repository"

// Client is the Event/Trainer repository client.
type Client struct {
	transport  Transport
	normalizer *Normalizer
	logger     *slog.Logger
	tracer     trace.Tracer
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *Normalizer) ClientOption {
	return func(c *Client) {
		if n != nil {
			c.normalizer = n
		}
	}
}

// NewClient constructs a Client over transport.
func NewClient(transport Transport, opts ...ClientOption) *Client {
	c := &Client{
		transport:  transport,
		normalizer: NewNormalizer(nil, nil),
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadEvents fetches every event. An envelope failure fails the whole load;
// defective records are repaired and reported as warnings.
func (c *Client) LoadEvents(ctx context.Context) ([]scheduler.Event, []Warning, error) {
	const op = "load_events"
	ctx, span := c.start(ctx, op)
	defer span.End()

	records, err := c.list(ctx, Request{Op: op, Method: http.MethodGet, Path: "/events"})
	if err != nil {
		return nil, nil, c.fail(ctx, span, op, err)
	}

	events := make([]scheduler.Event, 0, len(records))
	var warns []Warning
	for i, record := range records {
		raw, ok := record.(map[string]any)
		if !ok {
			warns = append(warns, Warning{Record: RecordEvent, RecordID: fmt.Sprintf("#%d", i), Field: "record", Reason: "not an object, skipped"})
			continue
		}
		e, w := c.normalizer.Event(raw)
		events = append(events, e)
		warns = append(warns, w...)
	}

	c.report(ctx, op, warns)
	span.SetAttributes(attribute.Int("events", len(events)), attribute.Int("warnings", len(warns)))
	repositoryRequests.WithLabelValues(op, "ok").Inc()
	return events, warns, nil
}

// LoadTrainers fetches every trainer.
func (c *Client) LoadTrainers(ctx context.Context) ([]scheduler.Trainer, []Warning, error) {
	const op = "load_trainers"
	ctx, span := c.start(ctx, op)
	defer span.End()

	records, err := c.list(ctx, Request{Op: op, Method: http.MethodGet, Path: "/trainers"})
	if err != nil {
		return nil, nil, c.fail(ctx, span, op, err)
	}

	trainers := make([]scheduler.Trainer, 0, len(records))
	var warns []Warning
	for i, record := range records {
		raw, ok := record.(map[string]any)
		if !ok {
			warns = append(warns, Warning{Record: RecordTrainer, RecordID: fmt.Sprintf("#%d", i), Field: "record", Reason: "not an object, skipped"})
			continue
		}
		t, w := c.normalizer.Trainer(raw)
		trainers = append(trainers, t)
		warns = append(warns, w...)
	}

	c.report(ctx, op, warns)
	span.SetAttributes(attribute.Int("trainers", len(trainers)), attribute.Int("warnings", len(warns)))
	repositoryRequests.WithLabelValues(op, "ok").Inc()
	return trainers, warns, nil
}

// CreateEvent submits payload and returns the canonical stored event.
func (c *Client) CreateEvent(ctx context.Context, payload EventPayload) (scheduler.Event, []Warning, error) {
	return c.eventCall(ctx, Request{Op: "create_event", Method: http.MethodPost, Path: "/events", Body: payload})
}

// UpdateEvent submits a partial update of id and returns the stored event.
func (c *Client) UpdateEvent(ctx context.Context, id string, patch EventPatch) (scheduler.Event, []Warning, error) {
	return c.eventCall(ctx, Request{Op: "update_event", Method: http.MethodPatch, Path: "/events/" + url.PathEscape(id), Body: patch})
}

// DeleteEvent removes id from the repository.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	const op = "delete_event"
	ctx, span := c.start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	body, err := c.transport.Do(ctx, Request{Op: op, Method: http.MethodDelete, Path: "/events/" + url.PathEscape(id)})
	if err == nil {
		_, err = openEnvelope(op, body)
	}
	if err != nil {
		return c.fail(ctx, span, op, err)
	}
	repositoryRequests.WithLabelValues(op, "ok").Inc()
	return nil
}

// PutTrainer creates or replaces the trainer id.
func (c *Client) PutTrainer(ctx context.Context, id string, payload TrainerPayload) (scheduler.Trainer, []Warning, error) {
	const op = "put_trainer"
	ctx, span := c.start(ctx, op)
	defer span.End()

	body, err := c.transport.Do(ctx, Request{Op: op, Method: http.MethodPut, Path: "/trainers/" + url.PathEscape(id), Body: payload})
	if err != nil {
		return scheduler.Trainer{}, nil, c.fail(ctx, span, op, err)
	}
	raw, err := decodeObject(op, body)
	if err != nil {
		return scheduler.Trainer{}, nil, c.fail(ctx, span, op, err)
	}

	t, warns := c.normalizer.Trainer(raw)
	c.report(ctx, op, warns)
	repositoryRequests.WithLabelValues(op, "ok").Inc()
	return t, warns, nil
}

func (c *Client) eventCall(ctx context.Context, req Request) (scheduler.Event, []Warning, error) {
	ctx, span := c.start(ctx, req.Op)
	defer span.End()

	body, err := c.transport.Do(ctx, req)
	if err != nil {
		return scheduler.Event{}, nil, c.fail(ctx, span, req.Op, err)
	}
	raw, err := decodeObject(req.Op, body)
	if err != nil {
		return scheduler.Event{}, nil, c.fail(ctx, span, req.Op, err)
	}

	e, warns := c.normalizer.Event(raw)
	c.report(ctx, req.Op, warns)
	span.SetAttributes(attribute.String("event.id", e.ID))
	repositoryRequests.WithLabelValues(req.Op, "ok").Inc()
	return e, warns, nil
}

func (c *Client) list(ctx context.Context, req Request) ([]any, error) {
	body, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeList(req.Op, body)
}

func (c *Client) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "repository."+op, trace.WithSpanKind(trace.SpanKindClient))
}

func (c *Client) fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	repositoryRequests.WithLabelValues(op, "error").Inc()
	c.loggerFor(ctx).ErrorContext(ctx, "repository call failed", "operation", op, "kind", "transport", "error", err)
	return err
}

// report logs and counts normalization warnings apart from transport failures.
func (c *Client) report(ctx context.Context, op string, warns []Warning) {
	if len(warns) == 0 {
		return
	}
	logger := c.loggerFor(ctx)
	for _, w := range warns {
		normalizationWarnings.WithLabelValues(w.Record, w.Field).Inc()
		logger.WarnContext(ctx, "repaired repository record",
			"kind", "normalization",
			"operation", op,
			"record", w.Record,
			"record_id", w.RecordID,
			"field", w.Field,
			"reason", w.Reason,
		)
	}
}

func (c *Client) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return c.logger
}

