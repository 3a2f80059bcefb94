package repository

import "time"

// RecurrenceRecord is the wire shape of a recurrence descriptor.
type RecurrenceRecord struct {
	Type     string     `json:"type" validate:"oneof=daily weekly monthly"`
	Interval int        `json:"interval" validate:"min=1"`
	EndDate  *time.Time `json:"endDate,omitempty"`
}

// EventRecord is the wire shape of an event as served by the repository.
type EventRecord struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Type        string            `json:"type"`
	StartTime   time.Time         `json:"startTime"`
	EndTime     time.Time         `json:"endTime"`
	TrainerID   string            `json:"trainerId"`
	TrainerName string            `json:"trainerName,omitempty"`
	ClientID    string            `json:"clientId,omitempty"`
	ClientName  string            `json:"clientName,omitempty"`
	Status      string            `json:"status"`
	Recurring   *RecurrenceRecord `json:"recurring,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	CreatedBy   string            `json:"createdBy,omitempty"`
}

// WorkingHoursRecord is the wire shape of a trainer's working hours.
type WorkingHoursRecord struct {
	Start string `json:"start" validate:"clock"`
	End   string `json:"end" validate:"clock"`
	Days  []int  `json:"days" validate:"dive,min=0,max=6"`
}

// TrainerRecord is the wire shape of a trainer as served by the repository.
type TrainerRecord struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Role         string             `json:"role,omitempty"`
	WorkingHours WorkingHoursRecord `json:"workingHours"`
}

// EventPayload is the body of an event creation request.
type EventPayload struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description,omitempty"`
	Type        string            `json:"type,omitempty" validate:"omitempty,oneof=training consultation group maintenance"`
	StartTime   time.Time         `json:"startTime" validate:"required"`
	EndTime     time.Time         `json:"endTime" validate:"required,gtfield=StartTime"`
	TrainerID   string            `json:"trainerId" validate:"required"`
	ClientID    string            `json:"clientId,omitempty"`
	ClientName  string            `json:"clientName,omitempty"`
	Status      string            `json:"status,omitempty" validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
	Recurring   *RecurrenceRecord `json:"recurring,omitempty"`
	CreatedBy   string            `json:"createdBy,omitempty"`
}

// EventPatch is the body of a partial event update. Nil fields are left untouched.
type EventPatch struct {
	Title       *string           `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string           `json:"description,omitempty"`
	Type        *string           `json:"type,omitempty" validate:"omitempty,oneof=training consultation group maintenance"`
	StartTime   *time.Time        `json:"startTime,omitempty"`
	EndTime     *time.Time        `json:"endTime,omitempty"`
	TrainerID   *string           `json:"trainerId,omitempty" validate:"omitempty,min=1"`
	ClientID    *string           `json:"clientId,omitempty"`
	ClientName  *string           `json:"clientName,omitempty"`
	Status      *string           `json:"status,omitempty" validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
	Recurring   *RecurrenceRecord `json:"recurring,omitempty"`
}

// TrainerPayload is the body of a trainer upsert request.
type TrainerPayload struct {
	Name         string              `json:"name" validate:"required"`
	Role         string              `json:"role,omitempty"`
	WorkingHours *WorkingHoursRecord `json:"workingHours,omitempty"`
}
