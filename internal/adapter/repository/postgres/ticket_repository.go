package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/srgjo27/event_booking/internal/core/domain"
)

const ticketColumns = `id, user_id, event_id, unit_price, currency, state, booked_at, cancelled_at, created_at, updated_at`

type TicketRepository struct {
	q         querier
	forUpdate bool
}

func (r *TicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	if err := t.CheckTimestamps(); err != nil {
		return err
	}

	query := `
	INSERT INTO tickets (` + ticketColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		t.ID, t.UserID, t.EventID, t.UnitPrice, t.Currency, t.State,
		nullTime(t.BookedAt), nullTime(t.CancelledAt), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", mapError(err))
	}

	return nil
}

func (r *TicketRepository) Update(ctx context.Context, t *domain.Ticket) error {
	if err := t.CheckTimestamps(); err != nil {
		return err
	}

	query := `
	UPDATE tickets
	SET state = $2,
		booked_at = $3,
		cancelled_at = $4,
		updated_at = $5
	WHERE id = $1
	`

	res, err := r.q.ExecContext(ctx, query, t.ID, t.State, nullTime(t.BookedAt), nullTime(t.CancelledAt), t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update ticket %s: %w", t.ID, mapError(err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.NewNotFoundError("Ticket", t.ID)
	}

	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	t, err := scanTicket(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("Ticket", id)
		}

		return nil, fmt.Errorf("failed to get ticket %s: %w", id, err)
	}

	return t, nil
}

func (r *TicketRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Ticket, error) {
	return r.getMany(ctx, ids, false)
}

// GetByIDsForUpdate locks the rows in id order so concurrent batches cannot
// deadlock on each other.
func (r *TicketRepository) GetByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*domain.Ticket, error) {
	return r.getMany(ctx, ids, r.forUpdate)
}

func (r *TicketRepository) getMany(ctx context.Context, ids []uuid.UUID, lock bool) ([]*domain.Ticket, error) {
	if len(ids) == 0 {
		return []*domain.Ticket{}, nil
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ANY($1::uuid[]) ORDER BY id`
	if lock {
		query += ` FOR UPDATE`
	}

	found, err := r.query(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*domain.Ticket, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}

	tickets := make([]*domain.Ticket, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, domain.NewNotFoundError("Ticket", id)
		}

		tickets = append(tickets, t)
	}

	return tickets, nil
}

func (r *TicketRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, states ...domain.TicketState) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1`
	args := []any{eventID}

	if len(states) > 0 {
		names := make([]string, 0, len(states))
		for _, s := range states {
			names = append(names, string(s))
		}

		query += ` AND state = ANY($2)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY created_at, id`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}

	return r.query(ctx, query, args...)
}

func (r *TicketRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id = $1 ORDER BY created_at, id`

	return r.query(ctx, query, userID)
}

func (r *TicketRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Ticket, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}

	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}

		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var t domain.Ticket
	var bookedAt sql.NullTime
	var cancelledAt sql.NullTime

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.EventID,
		&t.UnitPrice,
		&t.Currency,
		&t.State,
		&bookedAt,
		&cancelledAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bookedAt.Valid {
		t.BookedAt = &bookedAt.Time
	}

	if cancelledAt.Valid {
		t.CancelledAt = &cancelledAt.Time
	}

	return &t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
