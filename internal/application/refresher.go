package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRefreshSchedule reloads the store every five minutes.
const DefaultRefreshSchedule = "0 */5 * * * *"

// Refresher periodically reloads a Store on a cron schedule.
type Refresher struct {
	store   *Store
	cron    *cron.Cron
	timeout time.Duration
	logger  *slog.Logger
}

// NewRefresher registers a refresh job on schedule, a six field cron
// expression. An empty schedule uses DefaultRefreshSchedule; timeout bounds
// every run.
func NewRefresher(store *Store, schedule string, timeout time.Duration, logger *slog.Logger) (*Refresher, error) {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r := &Refresher{
		store:   store,
		cron:    cron.New(cron.WithSeconds()),
		timeout: timeout,
		logger:  defaultLogger(logger),
	}
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("register refresh schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start begins running scheduled refreshes in the background.
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish or ctx
// to expire.
func (r *Refresher) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := r.store.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRefreshSuperseded):
		r.logger.Debug("scheduled refresh superseded")
	default:
		r.logger.Warn("scheduled refresh failed", "error", err, "error_kind", ErrorKind(err))
	}
}
