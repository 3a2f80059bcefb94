// Package analytics derives utilization statistics from a schedule snapshot.
//
// Every figure is recomputed from the snapshot on each call; the aggregator
// keeps no state besides its configuration.
package analytics

import (
	"time"

	"github.com/example/trainer-scheduler/internal/scheduler"
)

const (
	// FallbackPeakHour is reported when no active events exist.
	FallbackPeakHour = 9
	// FallbackPeakWeekday is reported when no active events exist (Monday).
	FallbackPeakWeekday = 1
)

// Config holds the business constants used by the aggregator.
type Config struct {
	// BaselineWeeklyHours is the full-time workload a week of events is compared against.
	BaselineWeeklyHours float64
	// RevenuePerEvent is the flat price used for revenue estimates.
	RevenuePerEvent float64
}

// DefaultConfig returns a 40-hour baseline and a flat price of 50 per event.
func DefaultConfig() Config {
	return Config{BaselineWeeklyHours: 40, RevenuePerEvent: 50}
}

// TrainerStats summarises one trainer's bookings.
type TrainerStats struct {
	TrainerID        string  `json:"trainerId"`
	TrainerName      string  `json:"trainerName"`
	TotalEvents      int     `json:"totalEvents"`
	ThisWeekEvents   int     `json:"thisWeekEvents"`
	ThisMonthEvents  int     `json:"thisMonthEvents"`
	CompletedEvents  int     `json:"completedEvents"`
	CancelledEvents  int     `json:"cancelledEvents"`
	CancellationRate float64 `json:"cancellationRate"`
	UtilizationRate  float64 `json:"utilizationRate"`
}

// WeekdayUtilization aggregates active events falling on one weekday.
type WeekdayUtilization struct {
	Weekday time.Weekday `json:"weekday"`
	Events  int          `json:"events"`
	Hours   float64      `json:"hours"`
}

// MonthlyRollup aggregates active events of one calendar month.
type MonthlyRollup struct {
	Month   time.Month `json:"month"`
	Events  int        `json:"events"`
	Revenue float64    `json:"revenue"`
}

// Summary holds the headline figures.
type Summary struct {
	TotalEvents          int     `json:"totalEvents"`
	ActiveEvents         int     `json:"activeEvents"`
	CompletedEvents      int     `json:"completedEvents"`
	CancelledEvents      int     `json:"cancelledEvents"`
	CompletionRate       float64 `json:"completionRate"`
	AverageEventsTrainer float64 `json:"averageEventsPerTrainer"`
	PeakHour             int     `json:"peakHour"`
	PeakWeekday          int     `json:"peakWeekday"`
}

// Report is the full analytics snapshot.
type Report struct {
	GeneratedAt       time.Time                     `json:"generatedAt"`
	Trainers          []TrainerStats                `json:"trainers"`
	HourHistogram     [24]int                       `json:"hourHistogram"`
	WeekdayHistogram  [7]int                        `json:"weekdayHistogram"`
	EventTypeStats    map[scheduler.EventType]int   `json:"eventTypeStats"`
	WeeklyUtilization [7]WeekdayUtilization         `json:"weeklyUtilization"`
	Monthly           [12]MonthlyRollup             `json:"monthly"`
	Summary           Summary                       `json:"summary"`
	StatusCounts      map[scheduler.EventStatus]int `json:"statusCounts"`
}

// Aggregator computes reports. Hours and weekdays are bucketed in its location.
type Aggregator struct {
	cfg      Config
	location *time.Location
	now      func() time.Time
}

// NewAggregator constructs an Aggregator. A zero config field takes its
// default, loc defaults to UTC and now to time.Now.
func NewAggregator(cfg Config, loc *time.Location, now func() time.Time) *Aggregator {
	def := DefaultConfig()
	if cfg.BaselineWeeklyHours <= 0 {
		cfg.BaselineWeeklyHours = def.BaselineWeeklyHours
	}
	if cfg.RevenuePerEvent <= 0 {
		cfg.RevenuePerEvent = def.RevenuePerEvent
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{cfg: cfg, location: loc, now: now}
}

// Compute derives a report from snap.
func (a *Aggregator) Compute(snap *scheduler.Snapshot) Report {
	now := a.now().In(a.location)
	weekStart := startOfWeek(now)
	weekEnd := weekStart.AddDate(0, 0, 7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, a.location)
	monthEnd := monthStart.AddDate(0, 1, 0)

	report := Report{
		GeneratedAt:    now,
		EventTypeStats: make(map[scheduler.EventType]int, len(scheduler.EventTypes)),
		StatusCounts:   make(map[scheduler.EventStatus]int, len(scheduler.EventStatuses)),
	}
	for _, t := range scheduler.EventTypes {
		report.EventTypeStats[t] = 0
	}
	for _, s := range scheduler.EventStatuses {
		report.StatusCounts[s] = 0
	}
	for d := range report.WeeklyUtilization {
		report.WeeklyUtilization[d].Weekday = time.Weekday(d)
	}
	for m := range report.Monthly {
		report.Monthly[m].Month = time.Month(m + 1)
	}

	events := snap.Events()
	for _, e := range events {
		report.Summary.TotalEvents++
		report.StatusCounts[e.Status]++
		switch e.Status {
		case scheduler.StatusCompleted:
			report.Summary.CompletedEvents++
		case scheduler.StatusCancelled:
			report.Summary.CancelledEvents++
		}
		if !e.Active() {
			continue
		}

		report.Summary.ActiveEvents++
		start := e.Start.In(a.location)
		report.HourHistogram[start.Hour()]++
		report.WeekdayHistogram[start.Weekday()]++
		report.EventTypeStats[e.Type]++

		day := &report.WeeklyUtilization[start.Weekday()]
		day.Events++
		day.Hours += e.Duration().Hours()

		month := &report.Monthly[start.Month()-1]
		month.Events++
	}
	for m := range report.Monthly {
		report.Monthly[m].Revenue = float64(report.Monthly[m].Events) * a.cfg.RevenuePerEvent
	}

	trainers := snap.Trainers()
	report.Trainers = make([]TrainerStats, 0, len(trainers))
	for _, t := range trainers {
		stats := TrainerStats{TrainerID: t.ID, TrainerName: t.Name}
		for _, e := range snap.EventsFor(t.ID) {
			stats.TotalEvents++
			switch e.Status {
			case scheduler.StatusCompleted:
				stats.CompletedEvents++
			case scheduler.StatusCancelled:
				stats.CancelledEvents++
			}
			if !e.Active() {
				continue
			}
			if within(e.Start, weekStart, weekEnd) {
				stats.ThisWeekEvents++
			}
			if within(e.Start, monthStart, monthEnd) {
				stats.ThisMonthEvents++
			}
		}
		stats.CancellationRate = percentage(stats.CancelledEvents, stats.TotalEvents)
		stats.UtilizationRate = float64(stats.ThisWeekEvents) / a.cfg.BaselineWeeklyHours * 100
		report.Trainers = append(report.Trainers, stats)
	}

	report.Summary.CompletionRate = percentage(report.Summary.CompletedEvents, report.Summary.TotalEvents)
	if len(trainers) > 0 {
		report.Summary.AverageEventsTrainer = float64(report.Summary.TotalEvents) / float64(len(trainers))
	}
	report.Summary.PeakHour = argmax(report.HourHistogram[:], FallbackPeakHour)
	report.Summary.PeakWeekday = argmax(report.WeekdayHistogram[:], FallbackPeakWeekday)

	return report
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// argmax returns the first index holding the largest positive count, or fallback.
func argmax(buckets []int, fallback int) int {
	best, bestCount := fallback, 0
	for i, count := range buckets {
		if count > bestCount {
			best, bestCount = i, count
		}
	}
	return best
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// startOfWeek returns local midnight of the Monday starting t's week.
func startOfWeek(t time.Time) time.Time {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(start.Weekday()) + 6) % 7
	return start.AddDate(0, 0, -offset)
}
