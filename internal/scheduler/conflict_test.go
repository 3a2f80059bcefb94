package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is 2024-03-04, a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2024, time.March, 4, hour, minute, 0, 0, time.UTC)
}

func trainerT1() Trainer {
	return Trainer{ID: "T1", Name: "Alex", Role: "coach", WorkingHours: DefaultWorkingHours()}
}

func bookedEvent() Event {
	return Event{
		ID:        "evt-1",
		Title:     "Strength session",
		Type:      EventTypeTraining,
		TrainerID: "T1",
		Start:     monday(10, 0),
		End:       monday(11, 0),
		Status:    StatusScheduled,
	}
}

func TestSnapshot_CheckConflicts(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot([]Event{bookedEvent()}, []Trainer{trainerT1()})

	t.Run("overlapping proposal reports the booked event", func(t *testing.T) {
		t.Parallel()
		conflicts := snap.CheckConflicts("T1", monday(10, 30), monday(11, 30), "")
		require.Len(t, conflicts, 1)
		assert.Equal(t, "evt-1", conflicts[0].ID)
	})

	t.Run("back-to-back proposal does not conflict", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, snap.CheckConflicts("T1", monday(11, 0), monday(12, 0), ""))
		assert.Empty(t, snap.CheckConflicts("T1", monday(9, 0), monday(10, 0), ""))
		assert.True(t, snap.IsAvailable("T1", monday(11, 0), monday(12, 0), ""))
	})

	t.Run("excluded event is ignored", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, snap.CheckConflicts("T1", monday(10, 0), monday(11, 0), "evt-1"))
	})

	t.Run("other trainers are unaffected", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, snap.CheckConflicts("T2", monday(10, 0), monday(11, 0), ""))
	})

	t.Run("cancelled events never conflict", func(t *testing.T) {
		t.Parallel()
		cancelled := bookedEvent()
		cancelled.Status = StatusCancelled
		s := NewSnapshot([]Event{cancelled}, []Trainer{trainerT1()})
		assert.Empty(t, s.CheckConflicts("T1", monday(10, 0), monday(11, 0), ""))
	})

	t.Run("empty interval never conflicts", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, snap.CheckConflicts("T1", monday(10, 30), monday(10, 30), ""))
	})
}

func TestSnapshot_CheckConflicts_PairwiseOverlap(t *testing.T) {
	t.Parallel()

	events := []Event{
		{ID: "a", TrainerID: "T1", Start: monday(8, 0), End: monday(9, 30), Status: StatusScheduled},
		{ID: "b", TrainerID: "T1", Start: monday(9, 0), End: monday(10, 0), Status: StatusConfirmed},
		{ID: "c", TrainerID: "T1", Start: monday(10, 0), End: monday(11, 0), Status: StatusCompleted},
		{ID: "d", TrainerID: "T1", Start: monday(10, 30), End: monday(12, 0), Status: StatusScheduled},
		{ID: "e", TrainerID: "T1", Start: monday(7, 0), End: monday(13, 0), Status: StatusCancelled},
		{ID: "f", TrainerID: "T2", Start: monday(9, 0), End: monday(12, 0), Status: StatusScheduled},
	}
	snap := NewSnapshot(events, nil)

	for _, a := range events {
		if !a.Active() {
			continue
		}
		conflicts := snap.CheckConflicts(a.TrainerID, a.Start, a.End, a.ID)
		got := make(map[string]bool, len(conflicts))
		for _, c := range conflicts {
			got[c.ID] = true
		}
		for _, b := range events {
			if b.ID == a.ID || b.TrainerID != a.TrainerID || !b.Active() {
				assert.False(t, got[b.ID], "%s must not report %s", a.ID, b.ID)
				continue
			}
			assert.Equal(t, Overlaps(a.Start, a.End, b.Start, b.End), got[b.ID], "%s vs %s", a.ID, b.ID)
		}
	}
}

func TestSnapshot_AvailableTrainers(t *testing.T) {
	t.Parallel()

	t2 := Trainer{ID: "T2", Name: "Sam", WorkingHours: DefaultWorkingHours()}
	t3 := Trainer{ID: "T3", Name: "Kim", WorkingHours: DefaultWorkingHours()}
	events := []Event{
		bookedEvent(),
		{ID: "evt-2", TrainerID: "T3", Start: monday(10, 45), End: monday(12, 0), Status: StatusConfirmed},
	}
	snap := NewSnapshot(events, []Trainer{trainerT1(), t2, t3})

	available := snap.AvailableTrainers(monday(10, 30), monday(11, 0), "")
	require.Len(t, available, 1)
	assert.Equal(t, "T2", available[0].ID)

	for _, tr := range snap.Trainers() {
		busy := len(snap.CheckConflicts(tr.ID, monday(10, 30), monday(11, 0), "")) > 0
		found := false
		for _, a := range available {
			found = found || a.ID == tr.ID
		}
		assert.Equal(t, !busy, found, tr.ID)
	}

	assert.Len(t, snap.AvailableTrainers(monday(10, 30), monday(11, 0), "evt-1"), 2)
}

func TestDetectConflicts_OrdersByStart(t *testing.T) {
	t.Parallel()

	existing := []Event{
		{ID: "late", TrainerID: "T1", Start: monday(11, 0), End: monday(12, 0)},
		{ID: "early", TrainerID: "T1", Start: monday(9, 0), End: monday(10, 30)},
	}
	conflicts := DetectConflicts(existing, Event{TrainerID: "T1", Start: monday(10, 0), End: monday(11, 30)})
	require.Len(t, conflicts, 2)
	assert.Equal(t, "early", conflicts[0].ID)
	assert.Equal(t, "late", conflicts[1].ID)

	cancelled := Event{TrainerID: "T1", Start: monday(10, 0), End: monday(11, 30), Status: StatusCancelled}
	assert.Nil(t, DetectConflicts(existing, cancelled))
}
