package scheduler

import (
	"fmt"
	"slices"
	"time"
)

const (
	// DefaultWorkStart is the working-hours start applied when none is known.
	DefaultWorkStart = "09:00"
	// DefaultWorkEnd is the working-hours end applied when none is known.
	DefaultWorkEnd = "18:00"
)

// DefaultWorkDays are Monday through Friday.
var DefaultWorkDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" string.
func ParseClock(value string) (Clock, error) {
	if len(value) != 5 || value[2] != ':' {
		return Clock{}, fmt.Errorf("scheduler: invalid clock %q", value)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if value[i] < '0' || value[i] > '9' {
			return Clock{}, fmt.Errorf("scheduler: invalid clock %q", value)
		}
	}
	c := Clock{
		Hour:   int(value[0]-'0')*10 + int(value[1]-'0'),
		Minute: int(value[3]-'0')*10 + int(value[4]-'0'),
	}
	if c.Hour > 23 || c.Minute > 59 {
		return Clock{}, fmt.Errorf("scheduler: clock %q out of range", value)
	}
	return c, nil
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// On returns the instant at this clock time on the calendar day of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

// String formats the clock as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// WorkingHours is a trainer's daily window and the weekdays it applies to.
type WorkingHours struct {
	Start string
	End   string
	Days  []time.Weekday
}

// DefaultWorkingHours returns 09:00-18:00, Monday to Friday.
func DefaultWorkingHours() WorkingHours {
	return WorkingHours{
		Start: DefaultWorkStart,
		End:   DefaultWorkEnd,
		Days:  slices.Clone(DefaultWorkDays),
	}
}

// Window parses the start and end clocks. It fails when either bound is
// malformed or the window is empty.
func (w WorkingHours) Window() (Clock, Clock, error) {
	start, err := ParseClock(w.Start)
	if err != nil {
		return Clock{}, Clock{}, err
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return Clock{}, Clock{}, err
	}
	if start.Minutes() >= end.Minutes() {
		return Clock{}, Clock{}, fmt.Errorf("scheduler: working hours %s-%s are empty", w.Start, w.End)
	}
	return start, end, nil
}

// Includes reports whether day is a working day.
func (w WorkingHours) Includes(day time.Weekday) bool {
	return slices.Contains(w.Days, day)
}

// Trainer is a schedulable resource. Its events are derived from the snapshot
// through Snapshot.EventsFor and never stored on the trainer itself.
type Trainer struct {
	ID           string
	Name         string
	Role         string
	WorkingHours WorkingHours
}

// Clone returns a copy that shares no mutable state with t.
func (t Trainer) Clone() Trainer {
	t.WorkingHours.Days = slices.Clone(t.WorkingHours.Days)
	return t
}
