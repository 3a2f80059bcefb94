package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/trainer-scheduler/internal/analytics"
	"github.com/example/trainer-scheduler/internal/events"
	"github.com/example/trainer-scheduler/internal/recurrence"
	"github.com/example/trainer-scheduler/internal/repository"
	"github.com/example/trainer-scheduler/internal/scheduler"
)

const storeService = "schedule_store"

// Repository is the remote source of truth used by the Store.
type Repository interface {
	LoadEvents(ctx context.Context) ([]scheduler.Event, []repository.Warning, error)
	LoadTrainers(ctx context.Context) ([]scheduler.Trainer, []repository.Warning, error)
	CreateEvent(ctx context.Context, payload repository.EventPayload) (scheduler.Event, []repository.Warning, error)
	UpdateEvent(ctx context.Context, id string, patch repository.EventPatch) (scheduler.Event, []repository.Warning, error)
	DeleteEvent(ctx context.Context, id string) error
}

// Store holds the working copy of the schedule. Reads are served from an
// immutable snapshot; mutations round-trip to the repository first and only
// touch the snapshot once the repository confirmed them.
type Store struct {
	repo      Repository
	hub       *events.Hub
	finder    *scheduler.SlotFinder
	aggregate *analytics.Aggregator
	reports   *reportCache
	policy    ConflictPolicy
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time

	// publishMu orders snapshot swaps and their hub deliveries. It is taken
	// before mu. Listeners must not mutate the store.
	publishMu sync.Mutex

	mu            sync.RWMutex
	snap          *scheduler.Snapshot
	version       uint64
	loading       bool
	lastErr       string
	warnings      []repository.Warning
	lastRefresh   time.Time
	generation    uint64
	cancelRefresh context.CancelFunc
}

type storeConfig struct {
	hub         *events.Hub
	policy      ConflictPolicy
	slotPolicy  scheduler.Policy
	analytics   analytics.Config
	location    *time.Location
	logger      *slog.Logger
	now         func() time.Time
	reportCache time.Duration
}

// StoreOption customizes a Store.
type StoreOption func(*storeConfig)

// WithHub publishes updates on hub instead of a private one.
func WithHub(hub *events.Hub) StoreOption {
	return func(c *storeConfig) { c.hub = hub }
}

// WithConflictPolicy selects advisory or enforce behaviour.
func WithConflictPolicy(policy ConflictPolicy) StoreOption {
	return func(c *storeConfig) { c.policy = policy }
}

// WithSlotPolicy tunes the availability search.
func WithSlotPolicy(policy scheduler.Policy) StoreOption {
	return func(c *storeConfig) { c.slotPolicy = policy }
}

// WithAnalyticsConfig sets the analytics business constants.
func WithAnalyticsConfig(cfg analytics.Config) StoreOption {
	return func(c *storeConfig) { c.analytics = cfg }
}

// WithLocation sets the zone working hours and histograms are evaluated in.
func WithLocation(loc *time.Location) StoreOption {
	return func(c *storeConfig) { c.location = loc }
}

// WithStoreLogger sets the fallback logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(c *storeConfig) { c.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) { c.now = now }
}

// WithReportCacheTTL bounds how long an analytics report is reused.
func WithReportCacheTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) { c.reportCache = ttl }
}

// NewStore constructs an empty Store. Call Refresh to load it.
func NewStore(repo Repository, opts ...StoreOption) *Store {
	cfg := storeConfig{
		policy:     ConflictPolicyAdvisory,
		slotPolicy: scheduler.DefaultPolicy(),
		analytics:  analytics.DefaultConfig(),
		location:   time.UTC,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.hub == nil {
		cfg.hub = events.NewHub(cfg.logger)
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if _, ok := ParseConflictPolicy(string(cfg.policy)); !ok {
		cfg.policy = ConflictPolicyAdvisory
	}

	return &Store{
		repo:      repo,
		hub:       cfg.hub,
		finder:    scheduler.NewSlotFinder(cfg.slotPolicy, cfg.location, cfg.now),
		aggregate: analytics.NewAggregator(cfg.analytics, cfg.location, cfg.now),
		reports:   newReportCache(cfg.reportCache, cfg.now),
		policy:    cfg.policy,
		validate:  newValidator(),
		logger:    defaultLogger(cfg.logger),
		now:       cfg.now,
		snap:      scheduler.NewSnapshot(nil, nil),
	}
}

// Subscribe registers listener for store updates.
func (s *Store) Subscribe(listener events.Listener) (unsubscribe func()) {
	return s.hub.Subscribe(listener)
}

// Policy returns the configured conflict policy.
func (s *Store) Policy() ConflictPolicy {
	return s.policy
}

// Refresh reloads events and trainers and replaces the state wholesale. A
// refresh started while another is in flight cancels the older one, whose
// results are discarded with ErrRefreshSuperseded. On failure the store is
// left empty, the error is recorded and observers receive the empty
// collection. A refresh abandoned because ctx ended keeps the current state.
func (s *Store) Refresh(ctx context.Context) error {
	logger := serviceLogger(ctx, s.logger, storeService, "Refresh")

	caller := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancelRefresh != nil {
		s.cancelRefresh()
	}
	s.generation++
	generation := s.generation
	s.cancelRefresh = cancel
	s.loading = true
	s.mu.Unlock()

	started := s.now()
	loaded, trainers, warnings, err := s.load(ctx)
	refreshDuration.Observe(s.now().Sub(started).Seconds())

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		refreshes.WithLabelValues("superseded").Inc()
		logger.Info("discarded superseded refresh", "generation", generation)
		return ErrRefreshSuperseded
	}
	s.loading = false
	s.cancelRefresh = nil
	if err != nil && caller.Err() != nil {
		s.mu.Unlock()
		refreshes.WithLabelValues("abandoned").Inc()
		logger.Warn("refresh abandoned, keeping the current snapshot", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err != nil {
		previous := s.snap.Events()
		s.install(scheduler.NewSnapshot(nil, nil))
		s.lastErr = err.Error()
		s.warnings = nil
		s.mu.Unlock()
		refreshes.WithLabelValues("error").Inc()
		logger.Error("refresh failed", "error", err, "error_kind", ErrorKind(err))

		removed := make([]string, 0, len(previous))
		for _, e := range previous {
			removed = append(removed, e.ID)
		}
		s.hub.Publish(context.WithoutCancel(ctx), events.Update{Kind: events.KindRefresh, RemovedIDs: removed, Events: []scheduler.Event{}})
		return err
	}
	snap := scheduler.NewSnapshot(loaded, trainers)
	s.install(snap)
	s.lastErr = ""
	s.warnings = warnings
	s.lastRefresh = s.now()
	current := snap.Events()
	s.mu.Unlock()

	refreshes.WithLabelValues("ok").Inc()
	logger.Info("store refreshed", "events", len(current), "trainers", len(trainers), "warnings", len(warnings))
	s.hub.Publish(ctx, events.Update{Kind: events.KindRefresh, Changed: current, Events: current})
	return nil
}

func (s *Store) load(ctx context.Context) ([]scheduler.Event, []scheduler.Trainer, []repository.Warning, error) {
	loaded, eventWarnings, err := s.repo.LoadEvents(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load events: %w", err)
	}
	trainers, trainerWarnings, err := s.repo.LoadTrainers(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load trainers: %w", err)
	}
	return loaded, trainers, append(eventWarnings, trainerWarnings...), nil
}

// CreateEvent validates input, submits it to the repository and appends the
// stored event. Overlaps with existing bookings are returned as warnings, or
// reject the call under the enforce policy.
func (s *Store) CreateEvent(ctx context.Context, input EventInput) (scheduler.Event, []ConflictWarning, error) {
	logger := serviceLogger(ctx, s.logger, storeService, "CreateEvent", "trainer_id", input.TrainerID)

	input.Title = strings.TrimSpace(input.Title)
	vErr := &ValidationError{}
	validateStruct(s.validate, input, vErr)
	validateRecurrence(input.Recurring, vErr)
	if vErr.HasErrors() {
		logger.Warn("event validation failed", "error_kind", ErrorKind(vErr), "fields", vErr.FieldErrors)
		return scheduler.Event{}, nil, vErr
	}

	var warnings []ConflictWarning
	if input.Status != scheduler.StatusCancelled {
		warnings = toConflictWarnings(s.Snapshot().CheckConflicts(input.TrainerID, input.Start, input.End, ""))
	}
	if len(warnings) > 0 && s.policy == ConflictPolicyEnforce {
		err := &ConflictError{Conflicts: warnings}
		mutations.WithLabelValues("create", "conflict").Inc()
		logger.Warn("event rejected", "error", err, "error_kind", ErrorKind(err))
		return scheduler.Event{}, nil, err
	}

	created, repaired, err := s.repo.CreateEvent(ctx, toPayload(input))
	if err != nil {
		return scheduler.Event{}, nil, s.failMutation(logger, "create", err)
	}

	s.commit(ctx, repaired, func(snap *scheduler.Snapshot) (*scheduler.Snapshot, events.Update) {
		return snap.WithEvent(created), events.Update{Kind: events.KindCreated, Changed: []scheduler.Event{created.Clone()}}
	})
	mutations.WithLabelValues("create", "ok").Inc()
	logger.Info("event created", "event_id", created.ID, "conflicts", len(warnings), "repairs", len(repaired))
	return created, warnings, nil
}

// UpdateEvent submits a partial update. The returned record replaces the
// local copy when the event is part of the snapshot.
func (s *Store) UpdateEvent(ctx context.Context, id string, changes EventChanges) (scheduler.Event, []ConflictWarning, error) {
	logger := serviceLogger(ctx, s.logger, storeService, "UpdateEvent", "event_id", id)

	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		changes.Title = &title
	}
	vErr := &ValidationError{}
	if strings.TrimSpace(id) == "" {
		vErr.add("id", "id is required")
	}
	validateStruct(s.validate, changes, vErr)
	validateRecurrence(changes.Recurring, vErr)

	existing, known := s.Snapshot().Event(id)
	candidate := changes.apply(existing)
	if known || (changes.Start != nil && changes.End != nil) {
		if !candidate.Start.Before(candidate.End) {
			vErr.add("end", "end must be after start")
		}
	}
	if vErr.HasErrors() {
		logger.Warn("event validation failed", "error_kind", ErrorKind(vErr), "fields", vErr.FieldErrors)
		return scheduler.Event{}, nil, vErr
	}

	var warnings []ConflictWarning
	if known && candidate.Active() {
		warnings = toConflictWarnings(s.Snapshot().CheckConflicts(candidate.TrainerID, candidate.Start, candidate.End, id))
	}
	if len(warnings) > 0 && s.policy == ConflictPolicyEnforce && changes.schedulingChange() {
		err := &ConflictError{Conflicts: warnings}
		mutations.WithLabelValues("update", "conflict").Inc()
		logger.Warn("event update rejected", "error", err, "error_kind", ErrorKind(err))
		return scheduler.Event{}, nil, err
	}

	updated, repaired, err := s.repo.UpdateEvent(ctx, id, toPatch(changes))
	if err != nil {
		return scheduler.Event{}, nil, s.failMutation(logger, "update", err)
	}

	var applied bool
	s.commit(ctx, repaired, func(snap *scheduler.Snapshot) (*scheduler.Snapshot, events.Update) {
		if _, ok := snap.Event(id); !ok {
			return snap, events.Update{Kind: events.KindUpdated}
		}
		applied = true
		return snap.WithEvent(updated), events.Update{Kind: events.KindUpdated, Changed: []scheduler.Event{updated.Clone()}}
	})
	mutations.WithLabelValues("update", "ok").Inc()
	logger.Info("event updated", "applied_locally", applied, "conflicts", len(warnings), "repairs", len(repaired))
	return updated, warnings, nil
}

// UpdateEventStatus changes only the status of id.
func (s *Store) UpdateEventStatus(ctx context.Context, id string, status scheduler.EventStatus) (scheduler.Event, error) {
	parsed, ok := scheduler.ParseEventStatus(string(status))
	if !ok {
		vErr := &ValidationError{}
		vErr.add("status", fmt.Sprintf("unknown status %q", status))
		return scheduler.Event{}, vErr
	}
	updated, _, err := s.UpdateEvent(ctx, id, EventChanges{Status: &parsed})
	return updated, err
}

// DeleteEvent removes id from the repository and then from the snapshot.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	logger := serviceLogger(ctx, s.logger, storeService, "DeleteEvent", "event_id", id)

	if strings.TrimSpace(id) == "" {
		vErr := &ValidationError{}
		vErr.add("id", "id is required")
		return vErr
	}

	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return s.failMutation(logger, "delete", err)
	}

	var applied bool
	s.commit(ctx, nil, func(snap *scheduler.Snapshot) (*scheduler.Snapshot, events.Update) {
		next, ok := snap.WithoutEvent(id)
		if !ok {
			return next, events.Update{Kind: events.KindDeleted}
		}
		applied = true
		return next, events.Update{Kind: events.KindDeleted, RemovedIDs: []string{id}}
	})
	mutations.WithLabelValues("delete", "ok").Inc()
	logger.Info("event deleted", "applied_locally", applied)
	return nil
}

// commit swaps in the snapshot produced by fn, keeps the repairs the
// repository reported and publishes the update fn describes with the new
// collection. Swaps and deliveries happen in the same order.
func (s *Store) commit(ctx context.Context, repaired []repository.Warning, fn func(*scheduler.Snapshot) (*scheduler.Snapshot, events.Update)) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	next, update := fn(s.snap)
	s.install(next)
	s.lastErr = ""
	s.warnings = append(s.warnings, repaired...)
	update.Events = next.Events()
	s.mu.Unlock()

	s.hub.Publish(ctx, update)
}

// install replaces the snapshot. Callers hold s.mu.
func (s *Store) install(snap *scheduler.Snapshot) {
	s.snap = snap
	s.version++
	s.reports.Invalidate()
	storeEvents.Set(float64(snap.Len()))
	storeTrainers.Set(float64(len(snap.Trainers())))
}

func (s *Store) failMutation(logger *slog.Logger, op string, err error) error {
	var tErr *repository.TransportError
	if errors.As(err, &tErr) {
		switch tErr.Status {
		case http.StatusNotFound:
			err = fmt.Errorf("%w: %w", ErrNotFound, err)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			mutations.WithLabelValues(op, "rejected").Inc()
			logger.Warn("repository rejected payload", "error", err, "status", tErr.Status)
			vErr := &ValidationError{}
			vErr.add("payload", rejectionReason(tErr))
			return vErr
		case http.StatusConflict:
			mutations.WithLabelValues(op, "rejected").Inc()
			logger.Warn("repository reported a conflict", "error", err, "status", tErr.Status)
			return &ConflictError{Reason: rejectionReason(tErr)}
		}
	}

	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()

	mutations.WithLabelValues(op, "error").Inc()
	logger.Error("repository rejected mutation", "error", err, "error_kind", ErrorKind(err))
	return err
}

// rejectionReason is the repository's own message for a refused request.
func rejectionReason(tErr *repository.TransportError) string {
	if tErr.Err == nil {
		return http.StatusText(tErr.Status)
	}
	return tErr.Err.Error()
}

// Snapshot returns the current immutable snapshot.
func (s *Store) Snapshot() *scheduler.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Events returns every event of the current snapshot.
func (s *Store) Events() []scheduler.Event {
	return s.Snapshot().Events()
}

// Trainers returns every trainer of the current snapshot.
func (s *Store) Trainers() []scheduler.Trainer {
	return s.Snapshot().Trainers()
}

// Event looks up a single event.
func (s *Store) Event(id string) (scheduler.Event, error) {
	e, ok := s.Snapshot().Event(id)
	if !ok {
		return scheduler.Event{}, ErrNotFound
	}
	return e, nil
}

// Loading reports whether a refresh is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError returns the message of the most recent failure, or "" when the
// latest attempt succeeded.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// LastWarnings returns the normalization warnings of the latest load plus
// those reported for records returned by later mutations.
func (s *Store) LastWarnings() []repository.Warning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.warnings)
}

// State summarises the load status.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Loading:     s.loading,
		LastError:   s.lastErr,
		Warnings:    len(s.warnings),
		Events:      s.snap.Len(),
		Trainers:    len(s.snap.Trainers()),
		LastRefresh: s.lastRefresh,
	}
}

// EventsByTrainer returns the events assigned to trainerID.
func (s *Store) EventsByTrainer(trainerID string) []scheduler.Event {
	return s.Snapshot().EventsFor(trainerID)
}

// EventsInDateRange returns events starting within [start, end].
func (s *Store) EventsInDateRange(start, end time.Time) []scheduler.Event {
	return s.Snapshot().EventsBetween(start, end)
}

// SearchEvents matches query case-insensitively against title, trainer name,
// client name and description. An empty query returns every event.
func (s *Store) SearchEvents(query string) []scheduler.Event {
	snap := s.Snapshot()
	all := snap.Events()
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return all
	}

	out := make([]scheduler.Event, 0)
	for _, e := range all {
		trainerName := e.TrainerName
		if trainerName == "" {
			if t, ok := snap.Trainer(e.TrainerID); ok {
				trainerName = t.Name
			}
		}
		for _, field := range []string{e.Title, trainerName, e.ClientName, e.Description} {
			if strings.Contains(strings.ToLower(field), needle) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// CheckConflicts returns the active events of trainerID overlapping [start, end).
func (s *Store) CheckConflicts(trainerID string, start, end time.Time, excludeEventID string) []scheduler.Event {
	return s.Snapshot().CheckConflicts(trainerID, start, end, excludeEventID)
}

// IsAvailable reports whether trainerID is free over [start, end).
func (s *Store) IsAvailable(trainerID string, start, end time.Time, excludeEventID string) bool {
	return s.Snapshot().IsAvailable(trainerID, start, end, excludeEventID)
}

// AvailableTrainers returns the trainers free over [start, end).
func (s *Store) AvailableTrainers(start, end time.Time, excludeEventID string) []scheduler.Trainer {
	return s.Snapshot().AvailableTrainers(start, end, excludeEventID)
}

// NextAvailableSlot finds the earliest free slot of duration for trainerID.
func (s *Store) NextAvailableSlot(trainerID string, duration time.Duration) (scheduler.Slot, bool) {
	return s.finder.NextAvailableSlot(s.Snapshot(), trainerID, duration)
}

// Analytics computes the utilization report of the current snapshot.
func (s *Store) Analytics() analytics.Report {
	s.mu.RLock()
	snap, version := s.snap, s.version
	s.mu.RUnlock()

	if report, ok := s.reports.Get(version); ok {
		return report
	}
	report := s.aggregate.Compute(snap)
	s.reports.Store(version, report)
	return report
}

func validateRecurrence(rule *recurrence.Rule, vErr *ValidationError) {
	if rule == nil {
		return
	}
	if err := rule.Validate(); err != nil {
		vErr.add("recurring", err.Error())
	}
}

func toPayload(input EventInput) repository.EventPayload {
	return repository.EventPayload{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Type:        string(input.Type),
		StartTime:   input.Start,
		EndTime:     input.End,
		TrainerID:   input.TrainerID,
		ClientID:    input.ClientID,
		ClientName:  input.ClientName,
		Status:      string(input.Status),
		Recurring:   toRecurrenceRecord(input.Recurring),
		CreatedBy:   input.CreatedBy,
	}
}

func toPatch(c EventChanges) repository.EventPatch {
	patch := repository.EventPatch{
		Title:       c.Title,
		Description: c.Description,
		StartTime:   c.Start,
		EndTime:     c.End,
		TrainerID:   c.TrainerID,
		ClientID:    c.ClientID,
		ClientName:  c.ClientName,
		Recurring:   toRecurrenceRecord(c.Recurring),
	}
	if c.Type != nil {
		value := string(*c.Type)
		patch.Type = &value
	}
	if c.Status != nil {
		value := string(*c.Status)
		patch.Status = &value
	}
	return patch
}

func toRecurrenceRecord(rule *recurrence.Rule) *repository.RecurrenceRecord {
	if rule == nil {
		return nil
	}
	rec := &repository.RecurrenceRecord{Type: string(rule.Frequency), Interval: rule.Interval}
	if rule.EndDate != nil {
		end := *rule.EndDate
		rec.EndDate = &end
	}
	return rec
}
