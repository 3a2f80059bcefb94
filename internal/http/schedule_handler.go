package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/trainer-scheduler/internal/analytics"
	"github.com/example/trainer-scheduler/internal/application"
	"github.com/example/trainer-scheduler/internal/scheduler"
)

type scheduleStore interface {
	Events() []scheduler.Event
	Event(id string) (scheduler.Event, error)
	Trainers() []scheduler.Trainer
	EventsByTrainer(trainerID string) []scheduler.Event
	EventsInDateRange(start, end time.Time) []scheduler.Event
	SearchEvents(query string) []scheduler.Event
	CreateEvent(ctx context.Context, input application.EventInput) (scheduler.Event, []application.ConflictWarning, error)
	UpdateEvent(ctx context.Context, id string, changes application.EventChanges) (scheduler.Event, []application.ConflictWarning, error)
	UpdateEventStatus(ctx context.Context, id string, status scheduler.EventStatus) (scheduler.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	CheckConflicts(trainerID string, start, end time.Time, excludeEventID string) []scheduler.Event
	IsAvailable(trainerID string, start, end time.Time, excludeEventID string) bool
	AvailableTrainers(start, end time.Time, excludeEventID string) []scheduler.Trainer
	NextAvailableSlot(trainerID string, duration time.Duration) (scheduler.Slot, bool)
	Analytics() analytics.Report
	Refresh(ctx context.Context) error
	State() application.State
}

// ScheduleHandler exposes the schedule store queries and mutations.
type ScheduleHandler struct {
	store     scheduleStore
	responder responder
	logger    *slog.Logger
}

func NewScheduleHandler(store scheduleStore, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{store: store, responder: newResponder(logger), logger: defaultLogger(logger)}
}

// List serves GET /schedule/events. The trainer, from/to and q filters
// combine; without filters every event is returned.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, to, hasRange, err := parseRange(query)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	trainer := strings.TrimSpace(query.Get("trainer"))

	var events []scheduler.Event
	switch q := strings.TrimSpace(query.Get("q")); {
	case q != "":
		events = h.store.SearchEvents(q)
	case trainer != "":
		events = h.store.EventsByTrainer(trainer)
	case hasRange:
		events = h.store.EventsInDateRange(from, to)
	default:
		events = h.store.Events()
	}

	events = filterEvents(events, func(e scheduler.Event) bool {
		if trainer != "" && e.TrainerID != trainer {
			return false
		}
		if hasRange && (e.Start.Before(from) || e.Start.After(to)) {
			return false
		}
		return true
	})

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: toEventDTOs(events)})
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	event, err := h.store.Event(id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, warnings, err := h.store.CreateEvent(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderEvent(r.Context(), w, event, warnings, http.StatusCreated)
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req eventPatchRequest
	if err := decodeBody(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	changes, err := req.toChanges()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	event, warnings, err := h.store.UpdateEvent(r.Context(), id, changes)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderEvent(r.Context(), w, event, warnings, http.StatusOK)
}

func (h *ScheduleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.store.UpdateEventStatus(r.Context(), id, scheduler.EventStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderEvent(r.Context(), w, event, nil, http.StatusOK)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	if err := h.store.DeleteEvent(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Conflicts serves GET /schedule/conflicts?trainer=&start=&end=&exclude=.
func (h *ScheduleHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	trainer := strings.TrimSpace(query.Get("trainer"))
	if trainer == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTrainer)
		return
	}
	start, end, err := parseInterval(query)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	conflicts := h.store.CheckConflicts(trainer, start, end, strings.TrimSpace(query.Get("exclude")))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, conflictsResponse{
		Available: len(conflicts) == 0,
		Conflicts: toEventDTOs(conflicts),
	})
}

// Availability serves GET /schedule/availability?start=&end=[&trainer=][&exclude=].
// With a trainer it answers for that trainer, otherwise it lists every free trainer.
func (h *ScheduleHandler) Availability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, end, err := parseInterval(query)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	exclude := strings.TrimSpace(query.Get("exclude"))

	resp := availabilityResponse{StartTime: formatTime(start), EndTime: formatTime(end)}
	if trainer := strings.TrimSpace(query.Get("trainer")); trainer != "" {
		available := h.store.IsAvailable(trainer, start, end, exclude)
		resp.TrainerID = trainer
		resp.Available = &available
	} else {
		resp.Trainers = toTrainerDTOs(h.store.AvailableTrainers(start, end, exclude))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *ScheduleHandler) Trainers(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTrainersResponse{Trainers: toTrainerDTOs(h.store.Trainers())})
}

// NextSlot serves GET /schedule/trainers/{id}/next-slot?duration=90m. The
// duration also accepts plain minutes.
func (h *ScheduleHandler) NextSlot(w http.ResponseWriter, r *http.Request) {
	trainer, ok := TrainerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(trainer) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTrainer)
		return
	}

	duration, err := parseDuration(r.URL.Query().Get("duration"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	slot, found := h.store.NextAvailableSlot(trainer, duration)
	if !found {
		h.responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{
			ErrorCode: "NO_SLOT",
			Message:   "no free slot within the search horizon",
		})
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotDTO{
		TrainerID: trainer,
		StartTime: formatTime(slot.Start),
		EndTime:   formatTime(slot.End),
	})
}

func (h *ScheduleHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.store.Analytics())
}

func (h *ScheduleHandler) State(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.store.State())
}

// Refresh reloads the store. A refresh overtaken by a newer one answers
// 202 since the newer refresh owns the result. The reload outlives a client
// that disconnects mid-request.
func (h *ScheduleHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	err := h.store.Refresh(context.WithoutCancel(r.Context()))
	switch {
	case err == nil:
		h.responder.writeJSON(r.Context(), w, http.StatusOK, h.store.State())
	case errors.Is(err, application.ErrRefreshSuperseded):
		handlerLogger(r.Context(), h.logger, "schedule", "Refresh").Debug("refresh superseded")
		h.responder.writeJSON(r.Context(), w, http.StatusAccepted, h.store.State())
	default:
		h.responder.handleServiceError(r.Context(), w, err)
	}
}

func (h *ScheduleHandler) renderEvent(ctx context.Context, w http.ResponseWriter, event scheduler.Event, warnings []application.ConflictWarning, status int) {
	h.responder.writeJSON(ctx, w, status, eventResponse{
		Event:    toEventDTO(event),
		Warnings: toWarningDTOs(warnings),
	})
}

type eventResponse struct {
	Event    eventDTO      `json:"event"`
	Warnings []conflictDTO `json:"warnings,omitempty"`
}

type listEventsResponse struct {
	Events []eventDTO `json:"events"`
}

type listTrainersResponse struct {
	Trainers []trainerDTO `json:"trainers"`
}

type conflictsResponse struct {
	Available bool       `json:"available"`
	Conflicts []eventDTO `json:"conflicts"`
}

type availabilityResponse struct {
	StartTime string       `json:"startTime"`
	EndTime   string       `json:"endTime"`
	TrainerID string       `json:"trainerId,omitempty"`
	Available *bool        `json:"available,omitempty"`
	Trainers  []trainerDTO `json:"trainers,omitempty"`
}

func parseInterval(values url.Values) (time.Time, time.Time, error) {
	start := parseTime(values.Get("start"))
	end := parseTime(values.Get("end"))
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return time.Time{}, time.Time{}, errInvalidInterval
	}
	return start, end, nil
}

// parseRange reads the optional from/to filter. A missing bound is open.
func parseRange(values url.Values) (from, to time.Time, ok bool, err error) {
	rawFrom, rawTo := strings.TrimSpace(values.Get("from")), strings.TrimSpace(values.Get("to"))
	if rawFrom == "" && rawTo == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	from, to = time.Time{}, time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	if rawFrom != "" {
		if from = parseDay(rawFrom, false); from.IsZero() {
			return time.Time{}, time.Time{}, false, errors.New("from must be a date or RFC 3339 timestamp")
		}
	}
	if rawTo != "" {
		if to = parseDay(rawTo, true); to.IsZero() {
			return time.Time{}, time.Time{}, false, errors.New("to must be a date or RFC 3339 timestamp")
		}
	}
	return from, to, true, nil
}

// parseDay accepts a timestamp or a YYYY-MM-DD date. A date used as an
// upper bound covers the whole day.
func parseDay(value string, endOfDay bool) time.Time {
	if ts := parseTime(value); !ts.IsZero() {
		return ts
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Nanosecond)
	}
	return day
}

func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if minutes, err := strconv.Atoi(value); err == nil && minutes > 0 {
		return time.Duration(minutes) * time.Minute, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, errors.New("duration must be a positive number of minutes or a Go duration")
	}
	return d, nil
}

func filterEvents(events []scheduler.Event, keep func(scheduler.Event) bool) []scheduler.Event {
	out := events[:0:0]
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
