package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_IndexFollowsMutations(t *testing.T) {
	t.Parallel()

	base := NewSnapshot([]Event{bookedEvent()}, []Trainer{trainerT1()})

	added := base.WithEvent(Event{ID: "evt-2", TrainerID: "T1", Start: monday(12, 0), End: monday(13, 0)})
	assert.Len(t, added.EventsFor("T1"), 2)
	assert.Len(t, base.EventsFor("T1"), 1, "receiver must stay untouched")

	moved := bookedEvent()
	moved.TrainerID = "T2"
	reassigned := added.WithEvent(moved)
	require.Len(t, reassigned.EventsFor("T1"), 1)
	assert.Equal(t, "evt-2", reassigned.EventsFor("T1")[0].ID)
	require.Len(t, reassigned.EventsFor("T2"), 1)
	assert.Equal(t, "evt-1", reassigned.EventsFor("T2")[0].ID)
	assert.Equal(t, 2, reassigned.Len())

	removed, ok := reassigned.WithoutEvent("evt-1")
	require.True(t, ok)
	assert.Empty(t, removed.EventsFor("T2"))
	assert.Equal(t, 1, removed.Len())
	_, found := removed.Event("evt-1")
	assert.False(t, found)
	e, found := removed.Event("evt-2")
	require.True(t, found)
	assert.Equal(t, monday(12, 0), e.Start)

	same, ok := removed.WithoutEvent("missing")
	assert.False(t, ok)
	assert.Same(t, removed, same)
}

func TestSnapshot_DanglingTrainerReference(t *testing.T) {
	t.Parallel()

	orphan := Event{ID: "orphan", TrainerID: "ghost", Start: monday(9, 0), End: monday(10, 0)}
	snap := NewSnapshot([]Event{orphan}, []Trainer{trainerT1()})

	assert.Empty(t, snap.EventsFor("T1"))
	assert.Len(t, snap.EventsFor("ghost"), 1)
	_, ok := snap.Trainer("ghost")
	assert.False(t, ok)
}

func TestSnapshot_EventsBetween(t *testing.T) {
	t.Parallel()

	events := []Event{
		{ID: "late", Start: monday(15, 0), End: monday(16, 0)},
		{ID: "edge", Start: monday(9, 0), End: monday(10, 0)},
		{ID: "outside", Start: monday(8, 59), End: monday(10, 0)},
	}
	snap := NewSnapshot(events, nil)

	got := snap.EventsBetween(monday(9, 0), monday(15, 0))
	require.Len(t, got, 2)
	assert.Equal(t, "edge", got[0].ID)
	assert.Equal(t, "late", got[1].ID)
}

func TestSnapshot_EventsAreCopies(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot([]Event{bookedEvent()}, []Trainer{trainerT1()})
	events := snap.Events()
	events[0].Title = "mutated"
	trainers := snap.Trainers()
	trainers[0].WorkingHours.Days[0] = 0

	e, _ := snap.Event("evt-1")
	assert.Equal(t, "Strength session", e.Title)
	tr, _ := snap.Trainer("T1")
	assert.Equal(t, DefaultWorkDays, tr.WorkingHours.Days)
}
