package http

import (
	"strings"
	"time"

	"github.com/example/trainer-scheduler/internal/application"
	"github.com/example/trainer-scheduler/internal/recurrence"
	"github.com/example/trainer-scheduler/internal/scheduler"
)

type recurrenceDTO struct {
	Type     string  `json:"type"`
	Interval int     `json:"interval"`
	EndDate  *string `json:"endDate,omitempty"`
}

type eventDTO struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Type        string         `json:"type"`
	StartTime   string         `json:"startTime"`
	EndTime     string         `json:"endTime"`
	TrainerID   string         `json:"trainerId"`
	TrainerName string         `json:"trainerName,omitempty"`
	ClientID    string         `json:"clientId,omitempty"`
	ClientName  string         `json:"clientName,omitempty"`
	Status      string         `json:"status"`
	Recurring   *recurrenceDTO `json:"recurring,omitempty"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
	CreatedBy   string         `json:"createdBy,omitempty"`
}

func toEventDTO(e scheduler.Event) eventDTO {
	dto := eventDTO{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Type:        string(e.Type),
		StartTime:   formatTime(e.Start),
		EndTime:     formatTime(e.End),
		TrainerID:   e.TrainerID,
		TrainerName: e.TrainerName,
		ClientID:    e.ClientID,
		ClientName:  e.ClientName,
		Status:      string(e.Status),
		CreatedAt:   formatTime(e.CreatedAt),
		UpdatedAt:   formatTime(e.UpdatedAt),
		CreatedBy:   e.CreatedBy,
	}
	if e.Recurring != nil {
		rec := &recurrenceDTO{Type: string(e.Recurring.Frequency), Interval: e.Recurring.Interval}
		if e.Recurring.EndDate != nil {
			end := formatTime(*e.Recurring.EndDate)
			rec.EndDate = &end
		}
		dto.Recurring = rec
	}
	return dto
}

func toEventDTOs(events []scheduler.Event) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toEventDTO(e))
	}
	return out
}

type workingHoursDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  []int  `json:"days"`
}

type trainerDTO struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Role         string          `json:"role,omitempty"`
	WorkingHours workingHoursDTO `json:"workingHours"`
}

func toTrainerDTOs(trainers []scheduler.Trainer) []trainerDTO {
	out := make([]trainerDTO, 0, len(trainers))
	for _, t := range trainers {
		days := make([]int, 0, len(t.WorkingHours.Days))
		for _, d := range t.WorkingHours.Days {
			days = append(days, int(d))
		}
		out = append(out, trainerDTO{
			ID:   t.ID,
			Name: t.Name,
			Role: t.Role,
			WorkingHours: workingHoursDTO{
				Start: t.WorkingHours.Start,
				End:   t.WorkingHours.End,
				Days:  days,
			},
		})
	}
	return out
}

type conflictDTO struct {
	EventID   string `json:"eventId"`
	TrainerID string `json:"trainerId"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictDTO {
	if len(warnings) == 0 {
		return nil
	}

	out := make([]conflictDTO, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, conflictDTO{
			EventID:   w.EventID,
			TrainerID: w.TrainerID,
			Title:     w.Title,
			StartTime: formatTime(w.Start),
			EndTime:   formatTime(w.End),
		})
	}
	return out
}

type slotDTO struct {
	TrainerID string `json:"trainerId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// eventRequest is the body of POST /schedule/events.
type eventRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	StartTime   string         `json:"startTime"`
	EndTime     string         `json:"endTime"`
	TrainerID   string         `json:"trainerId"`
	ClientID    string         `json:"clientId"`
	ClientName  string         `json:"clientName"`
	Status      string         `json:"status"`
	Recurring   *recurrenceDTO `json:"recurring"`
	CreatedBy   string         `json:"createdBy"`
}

func (r eventRequest) toInput() application.EventInput {
	return application.EventInput{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Type:        scheduler.EventType(strings.TrimSpace(r.Type)),
		Start:       parseTime(r.StartTime),
		End:         parseTime(r.EndTime),
		TrainerID:   strings.TrimSpace(r.TrainerID),
		ClientID:    strings.TrimSpace(r.ClientID),
		ClientName:  strings.TrimSpace(r.ClientName),
		Status:      scheduler.EventStatus(strings.TrimSpace(r.Status)),
		Recurring:   r.Recurring.toRule(),
		CreatedBy:   strings.TrimSpace(r.CreatedBy),
	}
}

// eventPatchRequest is the body of PATCH /schedule/events/{id}. Absent
// fields are left untouched.
type eventPatchRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Type        *string        `json:"type"`
	StartTime   *string        `json:"startTime"`
	EndTime     *string        `json:"endTime"`
	TrainerID   *string        `json:"trainerId"`
	ClientID    *string        `json:"clientId"`
	ClientName  *string        `json:"clientName"`
	Status      *string        `json:"status"`
	Recurring   *recurrenceDTO `json:"recurring"`
}

func (r eventPatchRequest) toChanges() (application.EventChanges, error) {
	changes := application.EventChanges{
		Title:       r.Title,
		Description: r.Description,
		TrainerID:   r.TrainerID,
		ClientID:    r.ClientID,
		ClientName:  r.ClientName,
		Recurring:   r.Recurring.toRule(),
	}
	if r.Type != nil {
		t := scheduler.EventType(*r.Type)
		changes.Type = &t
	}
	if r.Status != nil {
		s := scheduler.EventStatus(*r.Status)
		changes.Status = &s
	}
	fieldErrors := map[string]string{}
	if r.StartTime != nil {
		ts := parseTime(*r.StartTime)
		if ts.IsZero() {
			fieldErrors["start"] = "start must be an RFC 3339 timestamp"
		}
		changes.Start = &ts
	}
	if r.EndTime != nil {
		ts := parseTime(*r.EndTime)
		if ts.IsZero() {
			fieldErrors["end"] = "end must be an RFC 3339 timestamp"
		}
		changes.End = &ts
	}
	if len(fieldErrors) > 0 {
		return application.EventChanges{}, &application.ValidationError{FieldErrors: fieldErrors}
	}
	return changes, nil
}

type statusRequest struct {
	Status string `json:"status"`
}

func (r *recurrenceDTO) toRule() *recurrence.Rule {
	if r == nil {
		return nil
	}
	rule := &recurrence.Rule{
		Frequency: recurrence.Frequency(strings.ToLower(strings.TrimSpace(r.Type))),
		Interval:  r.Interval,
	}
	if r.EndDate != nil {
		if ts := parseTime(*r.EndDate); !ts.IsZero() {
			rule.EndDate = &ts
		}
	}
	return rule
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}
