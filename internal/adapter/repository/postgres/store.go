package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/ports"
)

var ErrCheckViolation = errors.New("postgres: check constraint violated")

const uniqueEventName = "events_name_lower_key"

// querier is the part of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Events() ports.EventRepository {
	return &EventRepository{q: s.db}
}

func (s *Store) Tickets() ports.TicketRepository {
	return &TicketRepository{q: s.db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	if err := fn(txRepositories{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}

	return nil
}

type txRepositories struct {
	tx *sql.Tx
}

func (r txRepositories) Events() ports.EventRepository {
	return &EventRepository{q: r.tx, forUpdate: true}
}

func (r txRepositories) Tickets() ports.TicketRepository {
	return &TicketRepository{q: r.tx, forUpdate: true}
}

// mapError turns constraint violations into errors the core understands.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code.Name() {
	case "unique_violation":
		if pqErr.Constraint == uniqueEventName {
			return domain.NewValidationError(domain.MsgNameTaken)
		}
	case "check_violation":
		return fmt.Errorf("%w: %s", ErrCheckViolation, pqErr.Constraint)
	}

	return err
}
