package persistence

import "time"

// Trainer is a stored trainer profile with its weekly working hours.
// WorkDays holds weekday numbers, Sunday being 0.
type Trainer struct {
	ID        string
	Name      string
	Role      string
	WorkStart string
	WorkEnd   string
	WorkDays  []int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recurrence is the stored recurrence descriptor of an event.
type Recurrence struct {
	Frequency string
	Interval  int
	EndDate   *time.Time
}

// Event is a stored booking. TrainerName is resolved from the trainers table
// on read and ignored on write.
type Event struct {
	ID          string
	Title       string
	Description *string
	Type        string
	Status      string
	Start       time.Time
	End         time.Time
	TrainerID   string
	TrainerName string
	ClientID    *string
	ClientName  *string
	Recurrence  *Recurrence
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
