package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/trainer-scheduler/internal/persistence"
)

// TrainerRepository implements persistence.TrainerRepository.
type TrainerRepository struct {
	db *DB
}

var _ persistence.TrainerRepository = (*TrainerRepository)(nil)

type trainerRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Role      string `db:"role"`
	WorkStart string `db:"work_start"`
	WorkEnd   string `db:"work_end"`
	WorkDays  string `db:"work_days"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// UpsertTrainer inserts trainer or replaces the stored profile with the same
// ID, keeping its creation time.
func (r *TrainerRepository) UpsertTrainer(ctx context.Context, trainer persistence.Trainer) error {
	if trainer.ID == "" || strings.TrimSpace(trainer.Name) == "" {
		return fmt.Errorf("%w: id and name are required", persistence.ErrConstraintViolation)
	}

	query := `
		INSERT INTO trainers (id, name, role, work_start, work_end, work_days, created_at, updated_at)
		VALUES (:id, :name, :role, :work_start, :work_end, :work_days, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			work_start = excluded.work_start,
			work_end = excluded.work_end,
			work_days = excluded.work_days,
			updated_at = excluded.updated_at
	`
	row := trainerRow{
		ID:        trainer.ID,
		Name:      trainer.Name,
		Role:      trainer.Role,
		WorkStart: trainer.WorkStart,
		WorkEnd:   trainer.WorkEnd,
		WorkDays:  encodeDays(trainer.WorkDays),
		CreatedAt: formatTime(trainer.CreatedAt),
		UpdatedAt: formatTime(trainer.UpdatedAt),
	}
	if _, err := r.db.db.NamedExecContext(ctx, query, row); err != nil {
		return mapError(err)
	}
	return nil
}

// GetTrainer retrieves a trainer by ID.
func (r *TrainerRepository) GetTrainer(ctx context.Context, id string) (persistence.Trainer, error) {
	var row trainerRow
	query := r.db.db.Rebind(`SELECT id, name, role, work_start, work_end, work_days, created_at, updated_at FROM trainers WHERE id = ?`)
	if err := r.db.db.GetContext(ctx, &row, query, id); err != nil {
		return persistence.Trainer{}, mapError(err)
	}
	return row.toTrainer()
}

// ListTrainers returns every trainer ordered by name, then ID.
func (r *TrainerRepository) ListTrainers(ctx context.Context) ([]persistence.Trainer, error) {
	var rows []trainerRow
	query := `SELECT id, name, role, work_start, work_end, work_days, created_at, updated_at FROM trainers ORDER BY name, id`
	if err := r.db.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, mapError(err)
	}

	trainers := make([]persistence.Trainer, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTrainer()
		if err != nil {
			return nil, err
		}
		trainers = append(trainers, t)
	}
	return trainers, nil
}

// DeleteTrainer removes a trainer. Events referencing it are kept.
func (r *TrainerRepository) DeleteTrainer(ctx context.Context, id string) error {
	result, err := r.db.db.ExecContext(ctx, r.db.db.Rebind(`DELETE FROM trainers WHERE id = ?`), id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (row trainerRow) toTrainer() (persistence.Trainer, error) {
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return persistence.Trainer{}, fmt.Errorf("sqlstore: trainer %s: %w", row.ID, err)
	}
	updated, err := parseTime(row.UpdatedAt)
	if err != nil {
		return persistence.Trainer{}, fmt.Errorf("sqlstore: trainer %s: %w", row.ID, err)
	}
	return persistence.Trainer{
		ID:        row.ID,
		Name:      row.Name,
		Role:      row.Role,
		WorkStart: row.WorkStart,
		WorkEnd:   row.WorkEnd,
		WorkDays:  decodeDays(row.WorkDays),
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}
