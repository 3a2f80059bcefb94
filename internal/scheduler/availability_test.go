package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSlotFinder_NextAvailableSlot(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot([]Event{bookedEvent()}, []Trainer{trainerT1()})

	t.Run("returns the first in-hours slot before the booking", func(t *testing.T) {
		t.Parallel()
		finder := NewSlotFinder(DefaultPolicy(), time.UTC, fixedNow(monday(7, 15)))
		slot, ok := finder.NextAvailableSlot(snap, "T1", time.Hour)
		require.True(t, ok)
		assert.Equal(t, monday(9, 0), slot.Start)
		assert.Equal(t, monday(10, 0), slot.End)
	})

	t.Run("starts from the previous Sunday", func(t *testing.T) {
		t.Parallel()
		sunday := monday(20, 0).AddDate(0, 0, -1)
		finder := NewSlotFinder(DefaultPolicy(), time.UTC, fixedNow(sunday))
		slot, ok := finder.NextAvailableSlot(snap, "T1", 0)
		require.True(t, ok)
		assert.Equal(t, monday(9, 0), slot.Start)
		assert.Equal(t, monday(10, 0), slot.End)
	})

	t.Run("skips the booked hour", func(t *testing.T) {
		t.Parallel()
		finder := NewSlotFinder(DefaultPolicy(), time.UTC, fixedNow(monday(9, 10)))
		slot, ok := finder.NextAvailableSlot(snap, "T1", time.Hour)
		require.True(t, ok)
		assert.Equal(t, monday(11, 0), slot.Start)
	})

	t.Run("moves to the next working day after hours", func(t *testing.T) {
		t.Parallel()
		finder := NewSlotFinder(DefaultPolicy(), time.UTC, fixedNow(monday(17, 5)))
		slot, ok := finder.NextAvailableSlot(snap, "T1", time.Hour)
		require.True(t, ok)
		assert.Equal(t, monday(9, 0).AddDate(0, 0, 1), slot.Start)
	})

	t.Run("skips non-working days", func(t *testing.T) {
		t.Parallel()
		friday := monday(18, 30).AddDate(0, 0, 4)
		finder := NewSlotFinder(DefaultPolicy(), time.UTC, fixedNow(friday))
		slot, ok := finder.NextAvailableSlot(snap, "T1", time.Hour)
		require.True(t, ok)
		assert.Equal(t, time.Monday, slot.Start.Weekday())
		assert.Equal(t, monday(9, 0).AddDate(0, 0, 7), slot.Start)
	})

	t.Run("slot never exceeds working-hours end", func(t *testing.T) {
		t.Parallel()
		finder := NewSlotFinder(DefaultPolicy(), time.UTC, fixedNow(monday(7, 0)))
		_, ok := finder.NextAvailableSlot(snap, "T1", 10*time.Hour)
		assert.False(t, ok)
	})

	t.Run("unknown trainer has no slot", func(t *testing.T) {
		t.Parallel()
		finder := NewSlotFinder(DefaultPolicy(), time.UTC, fixedNow(monday(7, 0)))
		_, ok := finder.NextAvailableSlot(snap, "nobody", time.Hour)
		assert.False(t, ok)
	})

	t.Run("fully booked horizon yields nothing", func(t *testing.T) {
		t.Parallel()
		block := Event{ID: "block", TrainerID: "T1", Start: monday(0, 0), End: monday(0, 0).AddDate(0, 0, 8), Status: StatusScheduled}
		busy := NewSnapshot([]Event{block}, []Trainer{trainerT1()})
		finder := NewSlotFinder(DefaultPolicy(), time.UTC, fixedNow(monday(7, 0)))
		_, ok := finder.NextAvailableSlot(busy, "T1", time.Hour)
		assert.False(t, ok)
	})
}

func TestSlotFinder_SlotSatisfiesConstraints(t *testing.T) {
	t.Parallel()

	trainer := Trainer{ID: "T1", WorkingHours: WorkingHours{Start: "07:30", End: "12:00", Days: []time.Weekday{time.Tuesday, time.Thursday}}}
	events := []Event{
		{ID: "a", TrainerID: "T1", Start: monday(7, 0).AddDate(0, 0, 1), End: monday(9, 0).AddDate(0, 0, 1), Status: StatusScheduled},
		{ID: "b", TrainerID: "T1", Start: monday(9, 30).AddDate(0, 0, 1), End: monday(12, 0).AddDate(0, 0, 1), Status: StatusConfirmed},
	}
	snap := NewSnapshot(events, []Trainer{trainer})
	finder := NewSlotFinder(DefaultPolicy(), time.UTC, fixedNow(monday(6, 0)))

	slot, ok := finder.NextAvailableSlot(snap, "T1", time.Hour)
	require.True(t, ok)

	open, closing, err := trainer.WorkingHours.Window()
	require.NoError(t, err)
	assert.True(t, trainer.WorkingHours.Includes(slot.Start.Weekday()))
	assert.False(t, slot.Start.Before(open.On(slot.Start)))
	assert.False(t, slot.End.After(closing.On(slot.Start)))
	assert.Empty(t, snap.CheckConflicts("T1", slot.Start, slot.End, ""))
	assert.Equal(t, monday(7, 30).AddDate(0, 0, 3), slot.Start)
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	c, err := ParseClock("09:45")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 9, Minute: 45}, c)
	assert.Equal(t, "09:45", c.String())

	for _, bad := range []string{"9:45", "24:00", "12:60", "ab:cd", "", "12-30"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}

	_, _, err = WorkingHours{Start: "18:00", End: "09:00"}.Window()
	assert.Error(t, err)
}
