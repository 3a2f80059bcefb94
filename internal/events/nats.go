package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/example/trainer-scheduler/internal/scheduler"
)

// Publisher is the subset of *nats.Conn used by NATSPublisher.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher forwards update diffs to NATS subjects named
// "<prefix>.<kind>". The full collection is not sent.
type NATSPublisher struct {
	conn   Publisher
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// ChangeMessage is the JSON payload published per update.
type ChangeMessage struct {
	EventType  string         `json:"event_type"`
	Changed    []EventMessage `json:"changed,omitempty"`
	RemovedIDs []string       `json:"removed_ids,omitempty"`
	Total      int            `json:"total"`
	SentAt     time.Time      `json:"sent_at"`
}

// EventMessage is the wire shape of a changed event.
type EventMessage struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	TrainerID string    `json:"trainer_id"`
	ClientID  string    `json:"client_id,omitempty"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
}

// ConnectNATS dials url and wraps the connection in a publisher.
func ConnectNATS(url, prefix string, logger *slog.Logger) (*NATSPublisher, *nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("trainer-scheduler"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	return NewNATSPublisher(nc, prefix, logger, nil), nc, nil
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn Publisher, prefix string, logger *slog.Logger, now func() time.Time) *NATSPublisher {
	if prefix == "" {
		prefix = "schedule.events"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger, now: now}
}

// Listener returns the hub listener publishing each update.
func (p *NATSPublisher) Listener() Listener {
	return func(ctx context.Context, update Update) {
		if err := p.Publish(update); err != nil {
			p.logger.ErrorContext(ctx, "failed to publish schedule update", "kind", update.Kind, "error", err)
		}
	}
}

// Publish marshals update and sends it on its subject.
func (p *NATSPublisher) Publish(update Update) error {
	msg := ChangeMessage{
		EventType:  string(update.Kind),
		RemovedIDs: update.RemovedIDs,
		Total:      len(update.Events),
		SentAt:     p.now().UTC(),
	}
	for _, e := range update.Changed {
		msg.Changed = append(msg.Changed, toEventMessage(e))
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	subject := p.prefix + "." + string(update.Kind)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func toEventMessage(e scheduler.Event) EventMessage {
	return EventMessage{
		ID:        e.ID,
		Title:     e.Title,
		Type:      string(e.Type),
		Status:    string(e.Status),
		TrainerID: e.TrainerID,
		ClientID:  e.ClientID,
		StartAt:   e.Start.UTC(),
		EndAt:     e.End.UTC(),
	}
}
