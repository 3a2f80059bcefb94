package scheduler

import "time"

// DetectConflicts returns the events in existing that clash with candidate:
// same trainer, not cancelled, a different ID, and an overlapping half-open
// interval. A cancelled candidate never conflicts.
func DetectConflicts(existing []Event, candidate Event) []Event {
	if !candidate.Active() || !candidate.Start.Before(candidate.End) {
		return nil
	}

	conflicts := make([]Event, 0)
	for _, e := range existing {
		if e.TrainerID != candidate.TrainerID {
			continue
		}
		if candidate.ID != "" && e.ID == candidate.ID {
			continue
		}
		if !e.Active() {
			continue
		}
		if Overlaps(candidate.Start, candidate.End, e.Start, e.End) {
			conflicts = append(conflicts, e.Clone())
		}
	}
	if len(conflicts) == 0 {
		return nil
	}
	SortEvents(conflicts)
	return conflicts
}

// CheckConflicts returns the non-cancelled events of trainerID overlapping
// [start, end), skipping excludeEventID when it is not empty.
func (s *Snapshot) CheckConflicts(trainerID string, start, end time.Time, excludeEventID string) []Event {
	return DetectConflicts(s.EventsFor(trainerID), Event{
		ID:        excludeEventID,
		TrainerID: trainerID,
		Start:     start,
		End:       end,
	})
}

// IsAvailable reports whether trainerID has no conflicts over [start, end).
func (s *Snapshot) IsAvailable(trainerID string, start, end time.Time, excludeEventID string) bool {
	return len(s.CheckConflicts(trainerID, start, end, excludeEventID)) == 0
}

// AvailableTrainers returns, in snapshot order, the trainers without conflicts over [start, end).
func (s *Snapshot) AvailableTrainers(start, end time.Time, excludeEventID string) []Trainer {
	out := make([]Trainer, 0)
	for _, t := range s.Trainers() {
		if s.IsAvailable(t.ID, start, end, excludeEventID) {
			out = append(out, t)
		}
	}
	return out
}
