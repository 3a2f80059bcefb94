package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/trainer-scheduler/internal/scheduler"
)

// wednesday is 2024-03-06, inside the Monday-start week of 2024-03-04.
var wednesday = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC)
}

func trainer(id string) scheduler.Trainer {
	return scheduler.Trainer{ID: id, Name: "Trainer " + id, WorkingHours: scheduler.DefaultWorkingHours()}
}

func scenarioEvents() []scheduler.Event {
	statuses := []scheduler.EventStatus{
		scheduler.StatusCompleted, scheduler.StatusCompleted, scheduler.StatusCompleted,
		scheduler.StatusCompleted, scheduler.StatusCompleted, scheduler.StatusCompleted,
		scheduler.StatusCancelled, scheduler.StatusCancelled,
		scheduler.StatusScheduled, scheduler.StatusConfirmed,
	}
	types := []scheduler.EventType{scheduler.EventTypeTraining, scheduler.EventTypeGroup, scheduler.EventTypeConsultation}

	events := make([]scheduler.Event, 0, len(statuses))
	for i, status := range statuses {
		start := at(4+i%5, 9+i)
		events = append(events, scheduler.Event{
			ID:        fmt.Sprintf("evt-%02d", i),
			TrainerID: "T1",
			Type:      types[i%len(types)],
			Status:    status,
			Start:     start,
			End:       start.Add(90 * time.Minute),
		})
	}
	return events
}

func TestAggregator_CompletionAndCancellationRates(t *testing.T) {
	t.Parallel()

	snap := scheduler.NewSnapshot(scenarioEvents(), []scheduler.Trainer{trainer("T1")})
	report := NewAggregator(DefaultConfig(), time.UTC, func() time.Time { return wednesday }).Compute(snap)

	assert.Equal(t, 10, report.Summary.TotalEvents)
	assert.Equal(t, 8, report.Summary.ActiveEvents)
	assert.InDelta(t, 60.0, report.Summary.CompletionRate, 1e-9)

	require.Len(t, report.Trainers, 1)
	stats := report.Trainers[0]
	assert.Equal(t, 10, stats.TotalEvents)
	assert.Equal(t, 6, stats.CompletedEvents)
	assert.Equal(t, 2, stats.CancelledEvents)
	assert.InDelta(t, 20.0, stats.CancellationRate, 1e-9)
	assert.InDelta(t, 10.0, report.Summary.AverageEventsTrainer, 1e-9)
}

func TestAggregator_TypeStatsAccountForEveryEvent(t *testing.T) {
	t.Parallel()

	snap := scheduler.NewSnapshot(scenarioEvents(), []scheduler.Trainer{trainer("T1")})
	report := NewAggregator(DefaultConfig(), time.UTC, func() time.Time { return wednesday }).Compute(snap)

	sum := 0
	for _, count := range report.EventTypeStats {
		sum += count
	}
	assert.Equal(t, report.Summary.TotalEvents, sum+report.Summary.CancelledEvents)
	assert.Contains(t, report.EventTypeStats, scheduler.EventTypeMaintenance)
	assert.Equal(t, 0, report.EventTypeStats[scheduler.EventTypeMaintenance])
}

func TestAggregator_HistogramsAndRollups(t *testing.T) {
	t.Parallel()

	events := []scheduler.Event{
		{ID: "a", TrainerID: "T1", Type: scheduler.EventTypeTraining, Status: scheduler.StatusScheduled, Start: at(4, 10), End: at(4, 11)},
		{ID: "b", TrainerID: "T1", Type: scheduler.EventTypeGroup, Status: scheduler.StatusConfirmed, Start: at(11, 10), End: at(11, 12)},
		{ID: "c", TrainerID: "T2", Type: scheduler.EventTypeTraining, Status: scheduler.StatusCompleted, Start: at(5, 14), End: at(5, 15)},
		{ID: "d", TrainerID: "T2", Type: scheduler.EventTypeTraining, Status: scheduler.StatusCancelled, Start: at(5, 16), End: at(5, 17)},
		{ID: "e", TrainerID: "T1", Type: scheduler.EventTypeTraining, Status: scheduler.StatusScheduled, Start: time.Date(2023, time.March, 1, 8, 0, 0, 0, time.UTC), End: time.Date(2023, time.March, 1, 9, 0, 0, 0, time.UTC)},
	}
	snap := scheduler.NewSnapshot(events, []scheduler.Trainer{trainer("T1"), trainer("T2")})
	report := NewAggregator(Config{RevenuePerEvent: 25}, time.UTC, func() time.Time { return wednesday }).Compute(snap)

	assert.Equal(t, 2, report.HourHistogram[10])
	assert.Equal(t, 1, report.HourHistogram[14])
	assert.Equal(t, 0, report.HourHistogram[16], "cancelled events are not bucketed")
	assert.Equal(t, 10, report.Summary.PeakHour)

	assert.Equal(t, 2, report.WeekdayHistogram[time.Monday])
	assert.Equal(t, 1, report.WeekdayHistogram[time.Tuesday])
	assert.Equal(t, 1, report.WeekdayHistogram[time.Wednesday])
	assert.Equal(t, int(time.Monday), report.Summary.PeakWeekday)

	monday := report.WeeklyUtilization[time.Monday]
	assert.Equal(t, time.Monday, monday.Weekday)
	assert.Equal(t, 2, monday.Events)
	assert.InDelta(t, 3.0, monday.Hours, 1e-9)

	march := report.Monthly[time.March-1]
	assert.Equal(t, time.March, march.Month)
	assert.Equal(t, 4, march.Events)
	assert.InDelta(t, 100.0, march.Revenue, 1e-9)
	assert.Equal(t, 0, report.Monthly[time.April-1].Events)

	byID := map[string]TrainerStats{}
	for _, s := range report.Trainers {
		byID[s.TrainerID] = s
	}
	assert.Equal(t, 1, byID["T1"].ThisWeekEvents)
	assert.Equal(t, 2, byID["T1"].ThisMonthEvents)
	assert.InDelta(t, 2.5, byID["T1"].UtilizationRate, 1e-9)
	assert.Equal(t, 1, byID["T2"].ThisWeekEvents)
	assert.InDelta(t, 50.0, byID["T2"].CancellationRate, 1e-9)
	assert.Equal(t, 1, report.StatusCounts[scheduler.StatusCancelled])
}

func TestAggregator_EmptySnapshot(t *testing.T) {
	t.Parallel()

	report := NewAggregator(Config{}, nil, func() time.Time { return wednesday }).Compute(scheduler.NewSnapshot(nil, nil))

	assert.Equal(t, 0, report.Summary.TotalEvents)
	assert.Zero(t, report.Summary.CompletionRate)
	assert.Zero(t, report.Summary.AverageEventsTrainer)
	assert.Equal(t, FallbackPeakHour, report.Summary.PeakHour)
	assert.Equal(t, FallbackPeakWeekday, report.Summary.PeakWeekday)
	assert.Empty(t, report.Trainers)
}

func TestStartOfWeek(t *testing.T) {
	t.Parallel()

	sunday := time.Date(2024, time.March, 10, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), startOfWeek(sunday))
	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), startOfWeek(at(4, 0)))
}
