package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/trainer-scheduler/internal/persistence"
	"github.com/example/trainer-scheduler/internal/persistence/sqlstore"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style tests.
type SQLiteHarness struct {
	DB       *sqlstore.DB
	Events   persistence.EventRepository
	Trainers persistence.TrainerRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// SeedTrainers stores every fixture, failing the test on error.
func (h *SQLiteHarness) SeedTrainers(tb testing.TB, trainers ...TrainerFixture) {
	tb.Helper()
	for _, t := range trainers {
		if err := h.Trainers.UpsertTrainer(context.Background(), t.Persistence()); err != nil {
			tb.Fatalf("failed to seed trainer %s: %v", t.ID, err)
		}
	}
}

// SeedEvents stores every fixture, failing the test on error.
func (h *SQLiteHarness) SeedEvents(tb testing.TB, events ...EventFixture) {
	tb.Helper()
	for _, e := range events {
		if err := h.Events.CreateEvent(context.Background(), e.Persistence()); err != nil {
			tb.Fatalf("failed to seed event %s: %v", e.ID, err)
		}
	}
}

// NewSQLiteHarness opens a migrated database in a temporary directory. The
// harness is closed automatically when the test ends.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	ctx := context.Background()
	path := filepath.Join(tb.TempDir(), "scheduler.db")

	db, err := sqlstore.Open(ctx, sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: path})
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		DB:       db,
		Events:   db.Events(),
		Trainers: db.Trainers(),
		cleanup: func() {
			_ = db.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
