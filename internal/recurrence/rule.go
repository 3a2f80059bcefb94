package recurrence

import (
	"errors"
	"strings"
	"time"
)

// Frequency identifies how often a recurring event repeats.
type Frequency string

const (
	// FrequencyDaily repeats every Interval days.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly repeats every Interval weeks.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyMonthly repeats every Interval months.
	FrequencyMonthly Frequency = "monthly"
)

// Rule is the recurrence descriptor attached to an event. The descriptor is
// stored and round-tripped as is; occurrences are never materialized here.
type Rule struct {
	Frequency Frequency
	Interval  int
	EndDate   *time.Time
}

// ErrInvalidFrequency indicates the recurrence frequency is not supported.
var ErrInvalidFrequency = errors.New("recurrence: invalid frequency")

// ErrInvalidInterval indicates the interval is not a positive integer.
var ErrInvalidInterval = errors.New("recurrence: interval must be positive")

// ParseFrequency matches value case-insensitively against the supported frequencies.
func ParseFrequency(value string) (Frequency, bool) {
	switch Frequency(strings.ToLower(strings.TrimSpace(value))) {
	case FrequencyDaily:
		return FrequencyDaily, true
	case FrequencyWeekly:
		return FrequencyWeekly, true
	case FrequencyMonthly:
		return FrequencyMonthly, true
	default:
		return "", false
	}
}

// Validate reports whether the rule satisfies the descriptor invariants.
func (r Rule) Validate() error {
	if _, ok := ParseFrequency(string(r.Frequency)); !ok {
		return ErrInvalidFrequency
	}
	if r.Interval < 1 {
		return ErrInvalidInterval
	}
	return nil
}

// Repair coerces a raw descriptor into a valid Rule. Unknown frequencies fall
// back to weekly and non-positive intervals to 1. The names of repaired fields
// are returned so callers can surface them.
func Repair(frequency string, interval int, endDate *time.Time) (Rule, []string) {
	var repaired []string

	freq, ok := ParseFrequency(frequency)
	if !ok {
		freq = FrequencyWeekly
		repaired = append(repaired, "type")
	}
	if interval < 1 {
		interval = 1
		repaired = append(repaired, "interval")
	}

	rule := Rule{Frequency: freq, Interval: interval}
	if endDate != nil && !endDate.IsZero() {
		end := *endDate
		rule.EndDate = &end
	}
	return rule, repaired
}

// Clone returns a deep copy of the rule.
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	out := *r
	if r.EndDate != nil {
		end := *r.EndDate
		out.EndDate = &end
	}
	return &out
}
