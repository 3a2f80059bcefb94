package repository

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/trainer-scheduler/internal/recurrence"
	"github.com/example/trainer-scheduler/internal/scheduler"
)

const (
	// RecordEvent labels warnings raised for event records.
	RecordEvent = "event"
	// RecordTrainer labels warnings raised for trainer records.
	RecordTrainer = "trainer"

	// DefaultEventTitle replaces a missing or blank title.
	DefaultEventTitle = "Untitled event"
	// DefaultEventDuration is applied when an end time cannot be trusted.
	DefaultEventDuration = 60 * time.Minute
)

var idKeys = []string{"id", "_id", "$id"}

// Warning records one field the normalizer had to repair.
type Warning struct {
	Record   string `json:"record"`
	RecordID string `json:"recordId"`
	Field    string `json:"field"`
	Reason   string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %s: %s", w.Record, w.RecordID, w.Field, w.Reason)
}

// Normalizer turns loosely typed repository records into domain values.
// Defects are repaired, never rejected.
type Normalizer struct {
	now   func() time.Time
	newID func() string
}

// NewNormalizer constructs a Normalizer. now defaults to time.Now and newID to
// random UUIDs.
func NewNormalizer(now func() time.Time, newID func() string) *Normalizer {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Normalizer{now: now, newID: newID}
}

type warnings struct {
	record string
	id     string
	list   []Warning
}

func (w *warnings) add(field, reason string, args ...any) {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	w.list = append(w.list, Warning{Record: w.record, RecordID: w.id, Field: field, Reason: reason})
}

// Event normalizes a raw event record.
func (n *Normalizer) Event(raw map[string]any) (scheduler.Event, []Warning) {
	w := &warnings{record: RecordEvent}
	e := scheduler.Event{ID: n.identifier(raw, w)}

	e.Title = strings.TrimSpace(stringField(raw, "title"))
	if e.Title == "" {
		e.Title = DefaultEventTitle
		w.add("title", "missing title")
	}
	e.Description = stringField(raw, "description")

	if value, ok := raw["type"]; ok && value != nil {
		t, valid := scheduler.ParseEventType(fmt.Sprint(value))
		if !valid {
			t = scheduler.EventTypeTraining
			w.add("type", "unknown type %q", fmt.Sprint(value))
		}
		e.Type = t
	} else {
		e.Type = scheduler.EventTypeTraining
		w.add("type", "missing type")
	}

	if value, ok := raw["status"]; ok && value != nil {
		s, valid := scheduler.ParseEventStatus(fmt.Sprint(value))
		if !valid {
			s = scheduler.StatusScheduled
			w.add("status", "unknown status %q", fmt.Sprint(value))
		}
		e.Status = s
	} else {
		e.Status = scheduler.StatusScheduled
		w.add("status", "missing status")
	}

	e.CreatedAt = n.optionalTime(raw, "createdAt", w)
	e.UpdatedAt = n.optionalTime(raw, "updatedAt", w)
	e.CreatedBy = stringField(raw, "createdBy")

	start, ok := parseTime(raw["startTime"])
	if !ok {
		start = e.CreatedAt
		if start.IsZero() {
			start = n.now().UTC()
		}
		w.add("startTime", "missing or invalid start time")
	}
	e.Start = start

	end, ok := parseTime(raw["endTime"])
	switch {
	case !ok:
		end = start.Add(DefaultEventDuration)
		w.add("endTime", "missing or invalid end time")
	case !end.After(start):
		end = start.Add(DefaultEventDuration)
		w.add("endTime", "end time not after start time")
	}
	e.End = end

	e.TrainerID = strings.TrimSpace(stringField(raw, "trainerId"))
	if e.TrainerID == "" {
		w.add("trainerId", "missing trainer reference")
	}
	e.TrainerName = stringField(raw, "trainerName")
	e.ClientID = stringField(raw, "clientId")
	e.ClientName = stringField(raw, "clientName")

	e.Recurring = recurringField(raw, w)

	return e, w.list
}

// Trainer normalizes a raw trainer record.
func (n *Normalizer) Trainer(raw map[string]any) (scheduler.Trainer, []Warning) {
	w := &warnings{record: RecordTrainer}
	t := scheduler.Trainer{ID: n.identifier(raw, w)}

	t.Name = firstString(raw, "name", "trainerName")
	if strings.TrimSpace(t.Name) == "" {
		w.add("name", "missing name")
	}
	t.Role = firstString(raw, "role", "trainerRole")

	hoursRaw, ok := raw["workingHours"].(map[string]any)
	if !ok {
		t.WorkingHours = scheduler.DefaultWorkingHours()
		w.add("workingHours", "missing working hours")
		return t, w.list
	}

	hours := scheduler.WorkingHours{
		Start: stringField(hoursRaw, "start"),
		End:   stringField(hoursRaw, "end"),
	}
	if _, _, err := hours.Window(); err != nil {
		hours.Start, hours.End = scheduler.DefaultWorkStart, scheduler.DefaultWorkEnd
		w.add("workingHours.start", "invalid window: %v", err)
	}

	daysRaw, isList := hoursRaw["days"].([]any)
	if !isList {
		hours.Days = slices.Clone(scheduler.DefaultWorkDays)
		w.add("workingHours.days", "missing or not a list")
	} else {
		days, dropped := coerceDays(daysRaw)
		hours.Days = days
		if dropped > 0 {
			w.add("workingHours.days", "dropped %d invalid entries", dropped)
		}
	}

	t.WorkingHours = hours
	return t, w.list
}

func (n *Normalizer) identifier(raw map[string]any, w *warnings) string {
	for _, key := range idKeys {
		if id := scalarString(raw[key]); id != "" {
			w.id = id
			return id
		}
	}
	id := n.newID()
	w.id = id
	w.add("id", "missing identifier, generated one")
	return id
}

func (n *Normalizer) optionalTime(raw map[string]any, key string, w *warnings) time.Time {
	value, present := raw[key]
	if !present || value == nil {
		return time.Time{}
	}
	t, ok := parseTime(value)
	if !ok {
		w.add(key, "invalid timestamp")
		return time.Time{}
	}
	return t
}

func recurringField(raw map[string]any, w *warnings) *recurrence.Rule {
	value, present := raw["recurring"]
	if !present || value == nil {
		return nil
	}
	desc, ok := value.(map[string]any)
	if !ok {
		w.add("recurring", "not an object, dropped")
		return nil
	}

	interval, _ := intValue(desc["interval"])
	var endDate *time.Time
	if end, ok := parseTime(desc["endDate"]); ok {
		endDate = &end
	} else if desc["endDate"] != nil {
		w.add("recurring.endDate", "invalid end date, dropped")
	}

	rule, repaired := recurrence.Repair(scalarString(desc["type"]), interval, endDate)
	for _, field := range repaired {
		w.add("recurring."+field, "repaired to %s", describeRule(rule, field))
	}
	return &rule
}

func describeRule(rule recurrence.Rule, field string) string {
	if field == "interval" {
		return strconv.Itoa(rule.Interval)
	}
	return string(rule.Frequency)
}

// coerceDays keeps integral values in 0..6, removes duplicates and sorts.
func coerceDays(values []any) ([]time.Weekday, int) {
	days := make([]time.Weekday, 0, len(values))
	dropped := 0
	for _, value := range values {
		n, ok := intValue(value)
		if !ok || n < 0 || n > 6 {
			dropped++
			continue
		}
		day := time.Weekday(n)
		if !slices.Contains(days, day) {
			days = append(days, day)
		}
	}
	slices.Sort(days)
	return days, dropped
}

// localTimeLayout matches ISO timestamps written without a zone. They are
// read as UTC.
const localTimeLayout = "2006-01-02T15:04:05.999999999"

// parseTime accepts RFC 3339 strings, zone-less ISO timestamps and Unix epoch
// milliseconds.
func parseTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		text := strings.TrimSpace(v)
		for _, layout := range []string{time.RFC3339Nano, localTimeLayout} {
			if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return time.Time{}, false
			}
			ms = int64(f)
		}
		return time.UnixMilli(ms).UTC(), true
	case float64:
		return time.UnixMilli(int64(v)).UTC(), true
	default:
		return time.Time{}, false
	}
}

// intValue accepts integral JSON numbers and numeric strings.
func intValue(value any) (int, bool) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringField(raw, key); s != "" {
			return s
		}
	}
	return ""
}

// scalarString renders strings and numbers, ignoring every other type.
func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
