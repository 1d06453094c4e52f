package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/ports"
)

const eventColumns = `id, name, description, location, start_time, end_time, total_capacity,
	available_capacity, unit_price, currency, created_by, state, created_at, updated_at`

type EventRepository struct {
	q         querier
	forUpdate bool
}

func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
	INSERT INTO events (` + eventColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.ExecContext(ctx, query,
		e.ID, e.Name, e.Description, e.Location, e.StartTime, e.EndTime, e.TotalCapacity,
		e.AvailableCapacity, e.UnitPrice, e.Currency, e.CreatorID, e.State, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", mapError(err))
	}

	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate takes the row lock when called inside WithinTx. Outside a
// transaction the lock would be released immediately, so it is a plain read.
func (r *EventRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return r.get(ctx, id, r.forUpdate)
}

func (r *EventRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	e, err := scanEvent(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("Event", id)
		}

		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}

	return e, nil
}

func (r *EventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
	UPDATE events
	SET name = $2,
		description = $3,
		location = $4,
		start_time = $5,
		end_time = $6,
		total_capacity = $7,
		available_capacity = $8,
		unit_price = $9,
		currency = $10,
		state = $11,
		updated_at = $12
	WHERE id = $1
	`

	res, err := r.q.ExecContext(ctx, query,
		e.ID, e.Name, e.Description, e.Location, e.StartTime, e.EndTime, e.TotalCapacity,
		e.AvailableCapacity, e.UnitPrice, e.Currency, e.State, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", e.ID, mapError(err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.NewNotFoundError("Event", e.ID)
	}

	return nil
}

func (r *EventRepository) NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM events WHERE LOWER(name) = LOWER($1) AND id <> $2)`

	var taken bool
	if err := r.q.QueryRowContext(ctx, query, strings.TrimSpace(name), exclude).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check event name: %w", err)
	}

	return taken, nil
}

func (r *EventRepository) List(ctx context.Context, filter ports.EventFilter) ([]*domain.Event, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.State != "" {
		conds = append(conds, "state = "+arg(filter.State))
	}
	if filter.Name != "" {
		conds = append(conds, "name ILIKE "+arg("%"+escapeLike(filter.Name)+"%"))
	}
	if filter.Location != "" {
		conds = append(conds, "location ILIKE "+arg("%"+escapeLike(filter.Location)+"%"))
	}
	if filter.Upcoming {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		conds = append(conds, "start_time > "+arg(now))
	}
	if filter.WithAvailable {
		conds = append(conds, "available_capacity > 0")
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY start_time, id`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *EventRepository) ListFinishable(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	query := `
	SELECT id FROM events
	WHERE state = $1 AND end_time <= $2
	ORDER BY end_time
	LIMIT $3
	`

	rows, err := r.q.QueryContext(ctx, query, domain.EventActive, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list finishable events: %w", err)
	}

	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event

	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.Location,
		&e.StartTime,
		&e.EndTime,
		&e.TotalCapacity,
		&e.AvailableCapacity,
		&e.UnitPrice,
		&e.Currency,
		&e.CreatorID,
		&e.State,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
