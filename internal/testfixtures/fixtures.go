package testfixtures

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/example/trainer-scheduler/internal/application"
	"github.com/example/trainer-scheduler/internal/persistence"
	"github.com/example/trainer-scheduler/internal/recurrence"
	"github.com/example/trainer-scheduler/internal/repository"
	"github.com/example/trainer-scheduler/internal/scheduler"
)

var (
	eventCounter   uint64
	trainerCounter uint64
)

// referenceTime is Monday 2024-03-11 07:30 UTC, before working hours start.
var referenceTime = time.Date(2024, time.March, 11, 7, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Monday returns hour:minute on the reference Monday.
func Monday(hour, minute int) time.Time {
	return time.Date(2024, time.March, 11, hour, minute, 0, 0, time.UTC)
}

// ----------------------------- Trainer fixtures -----------------------------

// TrainerFixture is a deterministic trainer that can be materialised for any
// layer of the stack.
type TrainerFixture struct {
	ID        string
	Name      string
	Role      string
	WorkStart string
	WorkEnd   string
	WorkDays  []time.Weekday
	CreatedAt time.Time
}

// TrainerOption configures the generated trainer fixture.
type TrainerOption func(*TrainerFixture)

// NewTrainerFixture returns a trainer working Monday to Friday, 09:00-18:00.
func NewTrainerFixture(opts ...TrainerOption) TrainerFixture {
	idx := atomic.AddUint64(&trainerCounter, 1)
	fixture := TrainerFixture{
		ID:        fmt.Sprintf("trainer-%03d", idx),
		Name:      fmt.Sprintf("Trainer %03d", idx),
		Role:      "coach",
		WorkStart: scheduler.DefaultWorkStart,
		WorkEnd:   scheduler.DefaultWorkEnd,
		WorkDays:  slices.Clone(scheduler.DefaultWorkDays),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTrainerID overrides the generated trainer ID.
func WithTrainerID(id string) TrainerOption {
	return func(f *TrainerFixture) {
		f.ID = id
	}
}

// WithTrainerName overrides the generated name.
func WithTrainerName(name string) TrainerOption {
	return func(f *TrainerFixture) {
		f.Name = name
	}
}

// WithTrainerRole overrides the role.
func WithTrainerRole(role string) TrainerOption {
	return func(f *TrainerFixture) {
		f.Role = role
	}
}

// WithTrainerHours overrides the working window and days.
func WithTrainerHours(start, end string, days ...time.Weekday) TrainerOption {
	return func(f *TrainerFixture) {
		f.WorkStart = start
		f.WorkEnd = end
		f.WorkDays = slices.Clone(days)
	}
}

// Domain converts the fixture into a scheduler.Trainer.
func (f TrainerFixture) Domain() scheduler.Trainer {
	return scheduler.Trainer{
		ID:   f.ID,
		Name: f.Name,
		Role: f.Role,
		WorkingHours: scheduler.WorkingHours{
			Start: f.WorkStart,
			End:   f.WorkEnd,
			Days:  slices.Clone(f.WorkDays),
		},
	}
}

// Persistence converts the fixture into a persistence.Trainer.
func (f TrainerFixture) Persistence() persistence.Trainer {
	return persistence.Trainer{
		ID:        f.ID,
		Name:      f.Name,
		Role:      f.Role,
		WorkStart: f.WorkStart,
		WorkEnd:   f.WorkEnd,
		WorkDays:  dayNumbers(f.WorkDays),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// Payload converts the fixture into a trainer upsert body.
func (f TrainerFixture) Payload() repository.TrainerPayload {
	return repository.TrainerPayload{
		Name: f.Name,
		Role: f.Role,
		WorkingHours: &repository.WorkingHoursRecord{
			Start: f.WorkStart,
			End:   f.WorkEnd,
			Days:  dayNumbers(f.WorkDays),
		},
	}
}

// Record renders the fixture the way a decoded repository response looks.
func (f TrainerFixture) Record() map[string]any {
	days := make([]any, 0, len(f.WorkDays))
	for _, d := range f.WorkDays {
		days = append(days, float64(d))
	}
	return map[string]any{
		"id":   f.ID,
		"name": f.Name,
		"role": f.Role,
		"workingHours": map[string]any{
			"start": f.WorkStart,
			"end":   f.WorkEnd,
			"days":  days,
		},
	}
}

// ------------------------------ Event fixtures ------------------------------

// EventFixture is a deterministic booking.
type EventFixture struct {
	ID          string
	Title       string
	Description string
	Type        scheduler.EventType
	Status      scheduler.EventStatus
	Start       time.Time
	End         time.Time
	TrainerID   string
	TrainerName string
	ClientID    string
	ClientName  string
	Recurring   *recurrence.Rule
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a scheduled training on the reference Monday from
// 10:00 to 11:00.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	fixture := EventFixture{
		ID:        fmt.Sprintf("event-%03d", idx),
		Title:     fmt.Sprintf("Session %03d", idx),
		Type:      scheduler.EventTypeTraining,
		Status:    scheduler.StatusScheduled,
		Start:     Monday(10, 0),
		End:       Monday(11, 0),
		TrainerID: "trainer-001",
		CreatedBy: "front-desk",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventTitle overrides the title.
func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) {
		f.Title = title
	}
}

// WithEventDescription sets the description.
func WithEventDescription(description string) EventOption {
	return func(f *EventFixture) {
		f.Description = description
	}
}

// WithEventType overrides the event type.
func WithEventType(t scheduler.EventType) EventOption {
	return func(f *EventFixture) {
		f.Type = t
	}
}

// WithEventStatus overrides the status.
func WithEventStatus(status scheduler.EventStatus) EventOption {
	return func(f *EventFixture) {
		f.Status = status
	}
}

// WithEventWindow overrides the start and end.
func WithEventWindow(start, end time.Time) EventOption {
	return func(f *EventFixture) {
		f.Start = start
		f.End = end
	}
}

// WithEventTrainer assigns the event to trainerID.
func WithEventTrainer(trainerID string) EventOption {
	return func(f *EventFixture) {
		f.TrainerID = trainerID
	}
}

// WithEventClient sets the client reference.
func WithEventClient(id, name string) EventOption {
	return func(f *EventFixture) {
		f.ClientID = id
		f.ClientName = name
	}
}

// WithEventRecurrence attaches a recurrence descriptor.
func WithEventRecurrence(rule recurrence.Rule) EventOption {
	return func(f *EventFixture) {
		f.Recurring = rule.Clone()
	}
}

// Domain converts the fixture into a scheduler.Event.
func (f EventFixture) Domain() scheduler.Event {
	return scheduler.Event{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Type:        f.Type,
		Start:       f.Start,
		End:         f.End,
		TrainerID:   f.TrainerID,
		TrainerName: f.TrainerName,
		ClientID:    f.ClientID,
		ClientName:  f.ClientName,
		Status:      f.Status,
		Recurring:   f.Recurring.Clone(),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		CreatedBy:   f.CreatedBy,
	}
}

// Persistence converts the fixture into a persistence.Event.
func (f EventFixture) Persistence() persistence.Event {
	e := persistence.Event{
		ID:          f.ID,
		Title:       f.Title,
		Description: optional(f.Description),
		Type:        string(f.Type),
		Status:      string(f.Status),
		Start:       f.Start,
		End:         f.End,
		TrainerID:   f.TrainerID,
		ClientID:    optional(f.ClientID),
		ClientName:  optional(f.ClientName),
		CreatedBy:   f.CreatedBy,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
	if f.Recurring != nil {
		e.Recurrence = &persistence.Recurrence{Frequency: string(f.Recurring.Frequency), Interval: f.Recurring.Interval}
		if f.Recurring.EndDate != nil {
			end := *f.Recurring.EndDate
			e.Recurrence.EndDate = &end
		}
	}
	return e
}

// Payload converts the fixture into a creation body.
func (f EventFixture) Payload() repository.EventPayload {
	payload := repository.EventPayload{
		Title:       f.Title,
		Description: f.Description,
		Type:        string(f.Type),
		StartTime:   f.Start,
		EndTime:     f.End,
		TrainerID:   f.TrainerID,
		ClientID:    f.ClientID,
		ClientName:  f.ClientName,
		Status:      string(f.Status),
		CreatedBy:   f.CreatedBy,
	}
	if f.Recurring != nil {
		payload.Recurring = &repository.RecurrenceRecord{Type: string(f.Recurring.Frequency), Interval: f.Recurring.Interval, EndDate: f.Recurring.EndDate}
	}
	return payload
}

// Input converts the fixture into store input.
func (f EventFixture) Input() application.EventInput {
	return application.EventInput{
		Title:       f.Title,
		Description: f.Description,
		Type:        f.Type,
		Start:       f.Start,
		End:         f.End,
		TrainerID:   f.TrainerID,
		ClientID:    f.ClientID,
		ClientName:  f.ClientName,
		Status:      f.Status,
		Recurring:   f.Recurring.Clone(),
		CreatedBy:   f.CreatedBy,
	}
}

// Record renders the fixture the way a decoded repository response looks.
func (f EventFixture) Record() map[string]any {
	record := map[string]any{
		"id":        f.ID,
		"title":     f.Title,
		"type":      string(f.Type),
		"status":    string(f.Status),
		"startTime": f.Start.Format(time.RFC3339),
		"endTime":   f.End.Format(time.RFC3339),
		"trainerId": f.TrainerID,
		"createdAt": f.CreatedAt.Format(time.RFC3339),
		"updatedAt": f.UpdatedAt.Format(time.RFC3339),
		"createdBy": f.CreatedBy,
	}
	if f.Description != "" {
		record["description"] = f.Description
	}
	if f.ClientName != "" {
		record["clientId"] = f.ClientID
		record["clientName"] = f.ClientName
	}
	if f.Recurring != nil {
		record["recurring"] = map[string]any{
			"type":     string(f.Recurring.Frequency),
			"interval": float64(f.Recurring.Interval),
		}
	}
	return record
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func dayNumbers(days []time.Weekday) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		out = append(out, int(d))
	}
	return out
}
