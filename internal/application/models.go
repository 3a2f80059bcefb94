package application

import (
	"time"

	"github.com/example/trainer-scheduler/internal/recurrence"
	"github.com/example/trainer-scheduler/internal/scheduler"
)

// EventInput captures caller provided fields of a new event.
type EventInput struct {
	Title       string                `validate:"required"`
	Description string
	Type        scheduler.EventType   `validate:"omitempty,oneof=training consultation group maintenance"`
	Start       time.Time             `validate:"required"`
	End         time.Time             `validate:"required,gtfield=Start"`
	TrainerID   string                `validate:"required"`
	ClientID    string
	ClientName  string
	Status      scheduler.EventStatus `validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
	Recurring   *recurrence.Rule
	CreatedBy   string
}

// EventChanges is a partial update. Nil fields are left untouched.
type EventChanges struct {
	Title       *string                `validate:"omitempty,min=1"`
	Description *string
	Type        *scheduler.EventType   `validate:"omitempty,oneof=training consultation group maintenance"`
	Start       *time.Time
	End         *time.Time
	TrainerID   *string                `validate:"omitempty,min=1"`
	ClientID    *string
	ClientName  *string
	Status      *scheduler.EventStatus `validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
	Recurring   *recurrence.Rule
}

// schedulingChange reports whether the changes can create new overlaps.
func (c EventChanges) schedulingChange() bool {
	return c.Start != nil || c.End != nil || c.TrainerID != nil || c.Status != nil
}

// apply returns e with the non-nil changes applied.
func (c EventChanges) apply(e scheduler.Event) scheduler.Event {
	e = e.Clone()
	if c.Title != nil {
		e.Title = *c.Title
	}
	if c.Description != nil {
		e.Description = *c.Description
	}
	if c.Type != nil {
		e.Type = *c.Type
	}
	if c.Start != nil {
		e.Start = *c.Start
	}
	if c.End != nil {
		e.End = *c.End
	}
	if c.TrainerID != nil {
		e.TrainerID = *c.TrainerID
	}
	if c.ClientID != nil {
		e.ClientID = *c.ClientID
	}
	if c.ClientName != nil {
		e.ClientName = *c.ClientName
	}
	if c.Status != nil {
		e.Status = *c.Status
	}
	if c.Recurring != nil {
		e.Recurring = c.Recurring.Clone()
	}
	return e
}

// ConflictWarning describes an existing booking overlapping a mutation.
type ConflictWarning struct {
	EventID   string    `json:"eventId"`
	TrainerID string    `json:"trainerId"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// ConflictPolicy decides what a mutation does when it overlaps existing bookings.
type ConflictPolicy string

const (
	// ConflictPolicyAdvisory commits the mutation and reports the overlaps.
	ConflictPolicyAdvisory ConflictPolicy = "advisory"
	// ConflictPolicyEnforce rejects the mutation before contacting the repository.
	ConflictPolicyEnforce ConflictPolicy = "enforce"
)

// ParseConflictPolicy matches value against the known policies.
func ParseConflictPolicy(value string) (ConflictPolicy, bool) {
	switch ConflictPolicy(value) {
	case ConflictPolicyAdvisory:
		return ConflictPolicyAdvisory, true
	case ConflictPolicyEnforce:
		return ConflictPolicyEnforce, true
	default:
		return "", false
	}
}

// State summarises the store's load status.
type State struct {
	Loading     bool      `json:"loading"`
	LastError   string    `json:"lastError,omitempty"`
	Warnings    int       `json:"warnings"`
	Events      int       `json:"events"`
	Trainers    int       `json:"trainers"`
	LastRefresh time.Time `json:"lastRefresh"`
}

func toConflictWarnings(conflicts []scheduler.Event) []ConflictWarning {
	if len(conflicts) == 0 {
		return nil
	}
	warnings := make([]ConflictWarning, 0, len(conflicts))
	for _, c := range conflicts {
		warnings = append(warnings, ConflictWarning{
			EventID:   c.ID,
			TrainerID: c.TrainerID,
			Title:     c.Title,
			Start:     c.Start,
			End:       c.End,
		})
	}
	return warnings
}
