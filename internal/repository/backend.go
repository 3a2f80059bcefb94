package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/example/trainer-scheduler/internal/persistence"
	"github.com/example/trainer-scheduler/internal/scheduler"
)

// Backend serves the repository contract from persistence repositories. It
// is the server side of both LocalTransport and the /api HTTP endpoints.
type Backend struct {
	events   persistence.EventRepository
	trainers persistence.TrainerRepository
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// BackendOption customizes a Backend.
type BackendOption func(*Backend)

// WithBackendClock overrides the timestamp source.
func WithBackendClock(now func() time.Time) BackendOption {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

// WithBackendIDGenerator overrides event identifier generation.
func WithBackendIDGenerator(gen func() string) BackendOption {
	return func(b *Backend) {
		if gen != nil {
			b.newID = gen
		}
	}
}

// NewBackend constructs a Backend.
func NewBackend(events persistence.EventRepository, trainers persistence.TrainerRepository, opts ...BackendOption) *Backend {
	b := &Backend{
		events:   events,
		trainers: trainers,
		validate: newValidator(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := scheduler.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

// ListEvents returns every stored event ordered by start time.
func (b *Backend) ListEvents(ctx context.Context) ([]EventRecord, error) {
	stored, err := b.events.ListEvents(ctx, persistence.EventFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]EventRecord, 0, len(stored))
	for _, e := range stored {
		out = append(out, eventRecord(e))
	}
	return out, nil
}

// CreateEvent validates and stores payload under a fresh identifier.
func (b *Backend) CreateEvent(ctx context.Context, payload EventPayload) (EventRecord, error) {
	if err := b.check(payload); err != nil {
		return EventRecord{}, err
	}

	now := b.now().UTC()
	stored := persistence.Event{
		ID:          b.newID(),
		Title:       strings.TrimSpace(payload.Title),
		Description: optionalString(payload.Description),
		Type:        withDefault(payload.Type, string(scheduler.EventTypeTraining)),
		Status:      withDefault(payload.Status, string(scheduler.StatusScheduled)),
		Start:       payload.StartTime.UTC(),
		End:         payload.EndTime.UTC(),
		TrainerID:   payload.TrainerID,
		ClientID:    optionalString(payload.ClientID),
		ClientName:  optionalString(payload.ClientName),
		Recurrence:  storedRecurrence(payload.Recurring),
		CreatedBy:   payload.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := b.events.CreateEvent(ctx, stored); err != nil {
		return EventRecord{}, err
	}
	return b.getEvent(ctx, stored.ID)
}

// PatchEvent applies the non-nil fields of patch to the event id.
func (b *Backend) PatchEvent(ctx context.Context, id string, patch EventPatch) (EventRecord, error) {
	if err := b.check(patch); err != nil {
		return EventRecord{}, err
	}

	stored, err := b.events.GetEvent(ctx, id)
	if err != nil {
		return EventRecord{}, err
	}

	if patch.Title != nil {
		stored.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		stored.Description = optionalString(*patch.Description)
	}
	if patch.Type != nil {
		stored.Type = *patch.Type
	}
	if patch.Status != nil {
		stored.Status = *patch.Status
	}
	if patch.StartTime != nil {
		stored.Start = patch.StartTime.UTC()
	}
	if patch.EndTime != nil {
		stored.End = patch.EndTime.UTC()
	}
	if patch.TrainerID != nil {
		stored.TrainerID = *patch.TrainerID
	}
	if patch.ClientID != nil {
		stored.ClientID = optionalString(*patch.ClientID)
	}
	if patch.ClientName != nil {
		stored.ClientName = optionalString(*patch.ClientName)
	}
	if patch.Recurring != nil {
		stored.Recurrence = storedRecurrence(patch.Recurring)
	}
	if !stored.Start.Before(stored.End) {
		return EventRecord{}, fmt.Errorf("%w: endTime must be after startTime", ErrInvalidPayload)
	}
	stored.UpdatedAt = b.now().UTC()

	if err := b.events.UpdateEvent(ctx, stored); err != nil {
		return EventRecord{}, err
	}
	return b.getEvent(ctx, id)
}

// DeleteEvent removes the event id.
func (b *Backend) DeleteEvent(ctx context.Context, id string) error {
	return b.events.DeleteEvent(ctx, id)
}

// ListTrainers returns every stored trainer.
func (b *Backend) ListTrainers(ctx context.Context) ([]TrainerRecord, error) {
	stored, err := b.trainers.ListTrainers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TrainerRecord, 0, len(stored))
	for _, t := range stored {
		out = append(out, trainerRecord(t))
	}
	return out, nil
}

// PutTrainer creates or replaces the trainer id. Missing working hours take
// the defaults.
func (b *Backend) PutTrainer(ctx context.Context, id string, payload TrainerPayload) (TrainerRecord, error) {
	if strings.TrimSpace(id) == "" {
		return TrainerRecord{}, fmt.Errorf("%w: id is required", ErrInvalidPayload)
	}
	if err := b.check(payload); err != nil {
		return TrainerRecord{}, err
	}

	hours := WorkingHoursRecord{Start: scheduler.DefaultWorkStart, End: scheduler.DefaultWorkEnd, Days: []int{1, 2, 3, 4, 5}}
	if payload.WorkingHours != nil {
		hours = *payload.WorkingHours
		hours.Days = slices.Clone(hours.Days)
		slices.Sort(hours.Days)
		hours.Days = slices.Compact(hours.Days)
		window := scheduler.WorkingHours{Start: hours.Start, End: hours.End}
		if _, _, err := window.Window(); err != nil {
			return TrainerRecord{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}

	now := b.now().UTC()
	stored := persistence.Trainer{
		ID:        id,
		Name:      strings.TrimSpace(payload.Name),
		Role:      payload.Role,
		WorkStart: hours.Start,
		WorkEnd:   hours.End,
		WorkDays:  hours.Days,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.trainers.UpsertTrainer(ctx, stored); err != nil {
		return TrainerRecord{}, err
	}
	saved, err := b.trainers.GetTrainer(ctx, id)
	if err != nil {
		return TrainerRecord{}, err
	}
	return trainerRecord(saved), nil
}

func (b *Backend) getEvent(ctx context.Context, id string) (EventRecord, error) {
	stored, err := b.events.GetEvent(ctx, id)
	if err != nil {
		return EventRecord{}, err
	}
	return eventRecord(stored), nil
}

func (b *Backend) check(payload any) error {
	err := b.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(parts, "; "))
}

// StatusFor maps backend errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, persistence.ErrConstraintViolation):
		return http.StatusBadRequest
	case errors.Is(err, persistence.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func eventRecord(e persistence.Event) EventRecord {
	rec := EventRecord{
		ID:          e.ID,
		Title:       e.Title,
		Description: deref(e.Description),
		Type:        e.Type,
		StartTime:   e.Start,
		EndTime:     e.End,
		TrainerID:   e.TrainerID,
		TrainerName: e.TrainerName,
		ClientID:    deref(e.ClientID),
		ClientName:  deref(e.ClientName),
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		CreatedBy:   e.CreatedBy,
	}
	if e.Recurrence != nil {
		rec.Recurring = &RecurrenceRecord{Type: e.Recurrence.Frequency, Interval: e.Recurrence.Interval}
		if e.Recurrence.EndDate != nil {
			end := *e.Recurrence.EndDate
			rec.Recurring.EndDate = &end
		}
	}
	return rec
}

func trainerRecord(t persistence.Trainer) TrainerRecord {
	days := slices.Clone(t.WorkDays)
	if days == nil {
		days = []int{}
	}
	return TrainerRecord{
		ID:   t.ID,
		Name: t.Name,
		Role: t.Role,
		WorkingHours: WorkingHoursRecord{
			Start: t.WorkStart,
			End:   t.WorkEnd,
			Days:  days,
		},
	}
}

func storedRecurrence(r *RecurrenceRecord) *persistence.Recurrence {
	if r == nil {
		return nil
	}
	out := &persistence.Recurrence{Frequency: r.Type, Interval: r.Interval}
	if r.EndDate != nil {
		end := r.EndDate.UTC()
		out.EndDate = &end
	}
	return out
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
