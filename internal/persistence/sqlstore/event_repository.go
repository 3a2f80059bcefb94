package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/trainer-scheduler/internal/persistence"
)

// EventRepository implements persistence.EventRepository.
type EventRepository struct {
	db *DB
}

var _ persistence.EventRepository = (*EventRepository)(nil)

type eventRow struct {
	ID                 string         `db:"id"`
	Title              string         `db:"title"`
	Description        sql.NullString `db:"description"`
	Type               string         `db:"type"`
	Status             string         `db:"status"`
	StartTime          string         `db:"start_time"`
	EndTime            string         `db:"end_time"`
	TrainerID          string         `db:"trainer_id"`
	TrainerName        sql.NullString `db:"trainer_name"`
	ClientID           sql.NullString `db:"client_id"`
	ClientName         sql.NullString `db:"client_name"`
	RecurrenceType     sql.NullString `db:"recurrence_type"`
	RecurrenceInterval sql.NullInt64  `db:"recurrence_interval"`
	RecurrenceEnd      sql.NullString `db:"recurrence_end"`
	CreatedBy          string         `db:"created_by"`
	CreatedAt          string         `db:"created_at"`
	UpdatedAt          string         `db:"updated_at"`
}

const selectEvents = `
	SELECT e.id, e.title, e.description, e.type, e.status, e.start_time, e.end_time,
		e.trainer_id, t.name AS trainer_name, e.client_id, e.client_name,
		e.recurrence_type, e.recurrence_interval, e.recurrence_end,
		e.created_by, e.created_at, e.updated_at
	FROM events e
	LEFT JOIN trainers t ON t.id = e.trainer_id
`

// CreateEvent inserts a new event.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}

	query := `
		INSERT INTO events (id, title, description, type, status, start_time, end_time,
			trainer_id, client_id, client_name, recurrence_type, recurrence_interval, recurrence_end,
			created_by, created_at, updated_at)
		VALUES (:id, :title, :description, :type, :status, :start_time, :end_time,
			:trainer_id, :client_id, :client_name, :recurrence_type, :recurrence_interval, :recurrence_end,
			:created_by, :created_at, :updated_at)
	`
	if _, err := r.db.db.NamedExecContext(ctx, query, toEventRow(event)); err != nil {
		return mapError(err)
	}
	return nil
}

// UpdateEvent replaces the mutable fields of an existing event. Creation
// provenance is left untouched.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}

	return r.db.withTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE events
			SET title = :title, description = :description, type = :type, status = :status,
				start_time = :start_time, end_time = :end_time, trainer_id = :trainer_id,
				client_id = :client_id, client_name = :client_name,
				recurrence_type = :recurrence_type, recurrence_interval = :recurrence_interval,
				recurrence_end = :recurrence_end, updated_at = :updated_at
			WHERE id = :id
		`
		result, err := tx.NamedExecContext(ctx, query, toEventRow(event))
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
	})
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	var row eventRow
	query := r.db.db.Rebind(selectEvents + ` WHERE e.id = ?`)
	if err := r.db.db.GetContext(ctx, &row, query, id); err != nil {
		return persistence.Event{}, mapError(err)
	}
	return row.toEvent()
}

// ListEvents returns events matching filter ordered by start time, then ID.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.TrainerID != "" {
		clauses = append(clauses, "e.trainer_id = ?")
		args = append(args, filter.TrainerID)
	}
	if filter.StartsAfter != nil {
		clauses = append(clauses, "e.start_time >= ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.StartsBefore != nil {
		clauses = append(clauses, "e.start_time <= ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}

	query := selectEvents
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY e.start_time, e.id"

	var rows []eventRow
	if err := r.db.db.SelectContext(ctx, &rows, r.db.db.Rebind(query), args...); err != nil {
		return nil, mapError(err)
	}

	events := make([]persistence.Event, 0, len(rows))
	for _, row := range rows {
		e, err := row.toEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// DeleteEvent removes an event by ID.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.db.db.ExecContext(ctx, r.db.db.Rebind(`DELETE FROM events WHERE id = ?`), id)
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

func validateEvent(event persistence.Event) error {
	switch {
	case event.ID == "":
		return fmt.Errorf("%w: id is required", persistence.ErrConstraintViolation)
	case strings.TrimSpace(event.Title) == "":
		return fmt.Errorf("%w: title is required", persistence.ErrConstraintViolation)
	case event.TrainerID == "":
		return fmt.Errorf("%w: trainer is required", persistence.ErrConstraintViolation)
	case !event.Start.Before(event.End):
		return fmt.Errorf("%w: end must be after start", persistence.ErrConstraintViolation)
	}
	return nil
}

func toEventRow(e persistence.Event) eventRow {
	row := eventRow{
		ID:          e.ID,
		Title:       e.Title,
		Description: nullString(e.Description),
		Type:        e.Type,
		Status:      e.Status,
		StartTime:   formatTime(e.Start),
		EndTime:     formatTime(e.End),
		TrainerID:   e.TrainerID,
		ClientID:    nullString(e.ClientID),
		ClientName:  nullString(e.ClientName),
		CreatedBy:   e.CreatedBy,
		CreatedAt:   formatTime(e.CreatedAt),
		UpdatedAt:   formatTime(e.UpdatedAt),
	}
	if e.Recurrence != nil {
		row.RecurrenceType = sql.NullString{String: e.Recurrence.Frequency, Valid: true}
		row.RecurrenceInterval = sql.NullInt64{Int64: int64(e.Recurrence.Interval), Valid: true}
		if e.Recurrence.EndDate != nil {
			row.RecurrenceEnd = sql.NullString{String: formatTime(*e.Recurrence.EndDate), Valid: true}
		}
	}
	return row
}

func (row eventRow) toEvent() (persistence.Event, error) {
	e := persistence.Event{
		ID:          row.ID,
		Title:       row.Title,
		Description: stringPtr(row.Description),
		Type:        row.Type,
		Status:      row.Status,
		TrainerID:   row.TrainerID,
		TrainerName: row.TrainerName.String,
		ClientID:    stringPtr(row.ClientID),
		ClientName:  stringPtr(row.ClientName),
		CreatedBy:   row.CreatedBy,
	}

	var err error
	for _, field := range []struct {
		dst   *time.Time
		value string
	}{
		{&e.Start, row.StartTime},
		{&e.End, row.EndTime},
		{&e.CreatedAt, row.CreatedAt},
		{&e.UpdatedAt, row.UpdatedAt},
	} {
		if *field.dst, err = parseTime(field.value); err != nil {
			return persistence.Event{}, fmt.Errorf("sqlstore: event %s: %w", row.ID, err)
		}
	}

	if row.RecurrenceType.Valid {
		e.Recurrence = &persistence.Recurrence{
			Frequency: row.RecurrenceType.String,
			Interval:  int(row.RecurrenceInterval.Int64),
		}
		if row.RecurrenceEnd.Valid {
			end, err := parseTime(row.RecurrenceEnd.String)
			if err != nil {
				return persistence.Event{}, fmt.Errorf("sqlstore: event %s: %w", row.ID, err)
			}
			e.Recurrence.EndDate = &end
		}
	}
	return e, nil
}
