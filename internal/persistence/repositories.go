package persistence

import (
	"context"
	"time"
)

// EventFilter narrows event queries. Zero fields do not filter.
type EventFilter struct {
	TrainerID    string
	StartsAfter  *time.Time
	StartsBefore *time.Time
}

// EventRepository stores bookings.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// TrainerRepository stores trainer profiles.
type TrainerRepository interface {
	UpsertTrainer(ctx context.Context, trainer Trainer) error
	GetTrainer(ctx context.Context, id string) (Trainer, error)
	ListTrainers(ctx context.Context) ([]Trainer, error)
	DeleteTrainer(ctx context.Context, id string) error
}
