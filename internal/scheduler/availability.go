package scheduler

import "time"

// Policy holds the tunables of the slot search.
type Policy struct {
	// HorizonDays is the number of calendar days scanned, starting with the
	// day of the search start.
	HorizonDays int
	// Step is the distance between consecutive candidate start times.
	Step time.Duration
	// DefaultDuration is used when a caller passes a non-positive duration.
	DefaultDuration time.Duration
}

// DefaultPolicy scans seven days in one-hour steps for one-hour slots.
func DefaultPolicy() Policy {
	return Policy{
		HorizonDays:     7,
		Step:            time.Hour,
		DefaultDuration: time.Hour,
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.HorizonDays <= 0 {
		p.HorizonDays = def.HorizonDays
	}
	if p.Step <= 0 {
		p.Step = def.Step
	}
	if p.DefaultDuration <= 0 {
		p.DefaultDuration = def.DefaultDuration
	}
	return p
}

// Slot is a free interval proposed by the finder.
type Slot struct {
	Start time.Time
	End   time.Time
}

// SlotFinder searches forward in time for open slots inside working hours.
type SlotFinder struct {
	policy   Policy
	location *time.Location
	now      func() time.Time
}

// NewSlotFinder constructs a finder. Working hours are interpreted in loc
// (UTC when nil); now defaults to time.Now.
func NewSlotFinder(policy Policy, loc *time.Location, now func() time.Time) *SlotFinder {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &SlotFinder{policy: policy.withDefaults(), location: loc, now: now}
}

// Policy returns the effective policy.
func (f *SlotFinder) Policy() Policy {
	return f.policy
}

// NextAvailableSlot returns the earliest conflict-free slot of duration for
// trainerID. The search starts at the next full hour after now and covers
// the policy horizon; days outside the trainer's working days are skipped
// and a slot never ends after the working-hours end. The boolean is false
// when the trainer is unknown or nothing fits within the horizon.
func (f *SlotFinder) NextAvailableSlot(s *Snapshot, trainerID string, duration time.Duration) (Slot, bool) {
	trainer, ok := s.Trainer(trainerID)
	if !ok {
		return Slot{}, false
	}
	if duration <= 0 {
		duration = f.policy.DefaultDuration
	}

	hours := trainer.WorkingHours
	open, closing, err := hours.Window()
	if err != nil {
		fallback := DefaultWorkingHours()
		open, closing, _ = fallback.Window()
	}

	searchStart := nextFullHour(f.now().In(f.location))
	candidates := s.EventsFor(trainerID)

	for offset := 0; offset < f.policy.HorizonDays; offset++ {
		y, m, d := searchStart.Date()
		day := time.Date(y, m, d+offset, 0, 0, 0, 0, f.location)
		if !hours.Includes(day.Weekday()) {
			continue
		}

		dayOpen := open.On(day)
		dayClose := closing.On(day)
		for start := dayOpen; !start.Add(duration).After(dayClose); start = start.Add(f.policy.Step) {
			if start.Before(searchStart) {
				continue
			}
			end := start.Add(duration)
			if len(DetectConflicts(candidates, Event{TrainerID: trainerID, Start: start, End: end})) == 0 {
				return Slot{Start: start, End: end}, true
			}
		}
	}

	return Slot{}, false
}

func nextFullHour(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
}
