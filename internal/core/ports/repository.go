package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/event_booking/internal/core/domain"
)

type EventFilter struct {
	State         domain.EventState
	Name          string
	Location      string
	Upcoming      bool
	WithAvailable bool
	Now           time.Time
}

func (f EventFilter) IsZero() bool {
	return f.State == "" && f.Name == "" && f.Location == "" && !f.Upcoming && !f.WithAvailable
}

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	// GetForUpdate reads the event holding an exclusive row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, filter EventFilter) ([]*domain.Event, error)
	ListFinishable(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	// GetByIDs returns the tickets in the order requested or a not-found
	// error for the first missing id.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Ticket, error)
	GetByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*domain.Ticket, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, states ...domain.TicketState) ([]*domain.Ticket, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Ticket, error)
}

type Repositories interface {
	Events() EventRepository
	Tickets() TicketRepository
}

// Store gives autocommit repositories plus a transactional scope. Every
// write made through tx inside fn commits together or not at all.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error
}
