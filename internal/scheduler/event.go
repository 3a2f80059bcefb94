package scheduler

import (
	"strings"
	"time"

	"github.com/example/trainer-scheduler/internal/recurrence"
)

// EventType classifies a schedulable occurrence.
type EventType string

const (
	// EventTypeTraining is a one-to-one training session.
	EventTypeTraining EventType = "training"
	// EventTypeConsultation is a consultation with a client.
	EventTypeConsultation EventType = "consultation"
	// EventTypeGroup is a group class.
	EventTypeGroup EventType = "group"
	// EventTypeMaintenance blocks a trainer for non-client work.
	EventTypeMaintenance EventType = "maintenance"
)

// EventTypes lists every supported event type in display order.
var EventTypes = []EventType{EventTypeTraining, EventTypeConsultation, EventTypeGroup, EventTypeMaintenance}

// ParseEventType matches value case-insensitively against the supported types.
func ParseEventType(value string) (EventType, bool) {
	candidate := EventType(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range EventTypes {
		if candidate == t {
			return t, true
		}
	}
	return "", false
}

// EventStatus tracks the booking state of an event. Transitions are driven
// externally; any status may follow any other.
type EventStatus string

const (
	// StatusScheduled is the initial booking state.
	StatusScheduled EventStatus = "scheduled"
	// StatusConfirmed marks an event acknowledged by both parties.
	StatusConfirmed EventStatus = "confirmed"
	// StatusCompleted marks an event that took place.
	StatusCompleted EventStatus = "completed"
	// StatusCancelled marks an event that no longer occupies the trainer.
	StatusCancelled EventStatus = "cancelled"
)

// EventStatuses lists every supported status.
var EventStatuses = []EventStatus{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled}

// ParseEventStatus matches value case-insensitively against the supported statuses.
func ParseEventStatus(value string) (EventStatus, bool) {
	candidate := EventStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range EventStatuses {
		if candidate == s {
			return s, true
		}
	}
	return "", false
}

// Event is a single bookable occurrence assigned to one trainer.
type Event struct {
	ID          string
	Title       string
	Description string
	Type        EventType
	Start       time.Time
	End         time.Time
	TrainerID   string
	TrainerName string
	ClientID    string
	ClientName  string
	Status      EventStatus
	Recurring   *recurrence.Rule
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   string
}

// Active reports whether the event still occupies its trainer.
func (e Event) Active() bool {
	return e.Status != StatusCancelled
}

// Duration returns the length of the event interval.
func (e Event) Duration() time.Duration {
	if !e.Start.Before(e.End) {
		return 0
	}
	return e.End.Sub(e.Start)
}

// Clone returns a copy that shares no mutable state with e.
func (e Event) Clone() Event {
	e.Recurring = e.Recurring.Clone()
	return e
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Intervals that merely touch do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func cloneEvents(events []Event) []Event {
	if len(events) == 0 {
		return nil
	}
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}
