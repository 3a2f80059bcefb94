package scheduler

import (
	"slices"
	"sort"
	"time"
)

// Snapshot is an immutable view of events and trainers. Mutating methods
// return a new Snapshot and leave the receiver untouched, so readers holding
// an older snapshot are never affected by later changes.
//
// The trainer association is an index from trainer ID to event IDs, updated
// incrementally by WithEvent and WithoutEvent.
type Snapshot struct {
	events    []Event
	position  map[string]int
	byTrainer map[string][]string
	trainers  []Trainer
	trainerAt map[string]int
}

// NewSnapshot builds a snapshot over copies of events and trainers. When
// several events share an ID, the last one wins.
func NewSnapshot(events []Event, trainers []Trainer) *Snapshot {
	s := &Snapshot{
		events:    make([]Event, 0, len(events)),
		position:  make(map[string]int, len(events)),
		byTrainer: make(map[string][]string),
		trainers:  make([]Trainer, 0, len(trainers)),
		trainerAt: make(map[string]int, len(trainers)),
	}

	for _, e := range events {
		if idx, ok := s.position[e.ID]; ok {
			s.events[idx] = e.Clone()
			continue
		}
		s.position[e.ID] = len(s.events)
		s.events = append(s.events, e.Clone())
	}
	for _, e := range s.events {
		s.byTrainer[e.TrainerID] = append(s.byTrainer[e.TrainerID], e.ID)
	}

	for _, t := range trainers {
		if idx, ok := s.trainerAt[t.ID]; ok {
			s.trainers[idx] = t.Clone()
			continue
		}
		s.trainerAt[t.ID] = len(s.trainers)
		s.trainers = append(s.trainers, t.Clone())
	}

	return s
}

// Len returns the number of events.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.events)
}

// Events returns a copy of every event in insertion order.
func (s *Snapshot) Events() []Event {
	if s == nil {
		return nil
	}
	return cloneEvents(s.events)
}

// Event looks up a single event by ID.
func (s *Snapshot) Event(id string) (Event, bool) {
	if s == nil {
		return Event{}, false
	}
	idx, ok := s.position[id]
	if !ok {
		return Event{}, false
	}
	return s.events[idx].Clone(), true
}

// Trainers returns a copy of every trainer.
func (s *Snapshot) Trainers() []Trainer {
	if s == nil || len(s.trainers) == 0 {
		return nil
	}
	out := make([]Trainer, len(s.trainers))
	for i, t := range s.trainers {
		out[i] = t.Clone()
	}
	return out
}

// Trainer looks up a trainer by ID.
func (s *Snapshot) Trainer(id string) (Trainer, bool) {
	if s == nil {
		return Trainer{}, false
	}
	idx, ok := s.trainerAt[id]
	if !ok {
		return Trainer{}, false
	}
	return s.trainers[idx].Clone(), true
}

// EventsFor returns the events assigned to trainerID in insertion order. An
// unknown trainer yields an empty result.
func (s *Snapshot) EventsFor(trainerID string) []Event {
	if s == nil {
		return nil
	}
	ids := s.byTrainer[trainerID]
	if len(ids) == 0 {
		return nil
	}
	out := make([]Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.events[s.position[id]].Clone())
	}
	return out
}

// EventsBetween returns events whose start falls within [from, to], ordered by start.
func (s *Snapshot) EventsBetween(from, to time.Time) []Event {
	if s == nil {
		return nil
	}
	out := make([]Event, 0)
	for _, e := range s.events {
		if e.Start.Before(from) || e.Start.After(to) {
			continue
		}
		out = append(out, e.Clone())
	}
	SortEvents(out)
	return out
}

// WithEvent returns a snapshot where e replaces the event with the same ID,
// or is appended when no such event exists.
func (s *Snapshot) WithEvent(e Event) *Snapshot {
	if s == nil {
		return NewSnapshot([]Event{e}, nil)
	}
	next := s.shallowCopy()
	next.events = slices.Clone(s.events)
	e = e.Clone()

	idx, exists := s.position[e.ID]
	if !exists {
		next.position = cloneMap(s.position)
		next.position[e.ID] = len(next.events)
		next.events = append(next.events, e)
		next.byTrainer = cloneMap(s.byTrainer)
		next.byTrainer[e.TrainerID] = append(slices.Clone(s.byTrainer[e.TrainerID]), e.ID)
		return next
	}

	previous := s.events[idx]
	next.events[idx] = e
	if previous.TrainerID != e.TrainerID {
		next.byTrainer = cloneMap(s.byTrainer)
		next.byTrainer[previous.TrainerID] = removeID(s.byTrainer[previous.TrainerID], e.ID)
		if len(next.byTrainer[previous.TrainerID]) == 0 {
			delete(next.byTrainer, previous.TrainerID)
		}
		next.byTrainer[e.TrainerID] = append(slices.Clone(s.byTrainer[e.TrainerID]), e.ID)
	}
	return next
}

// WithoutEvent returns a snapshot without the event id. The second result is
// false when the event was not present, in which case the receiver is returned.
func (s *Snapshot) WithoutEvent(id string) (*Snapshot, bool) {
	if s == nil {
		return s, false
	}
	idx, ok := s.position[id]
	if !ok {
		return s, false
	}

	removed := s.events[idx]
	next := s.shallowCopy()
	next.events = make([]Event, 0, len(s.events)-1)
	next.events = append(next.events, s.events[:idx]...)
	next.events = append(next.events, s.events[idx+1:]...)
	next.position = make(map[string]int, len(next.events))
	for i, e := range next.events {
		next.position[e.ID] = i
	}
	next.byTrainer = cloneMap(s.byTrainer)
	next.byTrainer[removed.TrainerID] = removeID(s.byTrainer[removed.TrainerID], id)
	if len(next.byTrainer[removed.TrainerID]) == 0 {
		delete(next.byTrainer, removed.TrainerID)
	}
	return next, true
}

func (s *Snapshot) shallowCopy() *Snapshot {
	return &Snapshot{
		events:    s.events,
		position:  s.position,
		byTrainer: s.byTrainer,
		trainers:  s.trainers,
		trainerAt: s.trainerAt,
	}
}

// SortEvents orders events by start time, then ID.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
