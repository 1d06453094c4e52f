package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/srgjo27/event_booking/internal/core/domain"
)

type ticketRepository struct {
	store *Store
	tx    *transaction
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.save(ticket)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if _, ok := r.load(ticket.ID); !ok {
		return domain.NewNotFoundError("Ticket", ticket.ID)
	}
	return r.save(ticket)
}

func (r *ticketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	t, ok := r.load(id)
	if !ok {
		return nil, domain.NewNotFoundError("Ticket", id)
	}
	return t, nil
}

func (r *ticketRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Ticket, error) {
	tickets := make([]*domain.Ticket, 0, len(ids))
	for _, id := range ids {
		t, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// GetByIDsForUpdate relies on the event row locks: every ticket write takes
// its event's lock first.
func (r *ticketRepository) GetByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*domain.Ticket, error) {
	return r.GetByIDs(ctx, ids)
}

func (r *ticketRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, states ...domain.TicketState) ([]*domain.Ticket, error) {
	var tickets []*domain.Ticket
	for _, t := range r.all() {
		if t.EventID == eventID && inStates(t.State, states) {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Ticket, error) {
	var tickets []*domain.Ticket
	for _, t := range r.all() {
		if t.UserID == userID {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

func inStates(s domain.TicketState, states []domain.TicketState) bool {
	if len(states) == 0 {
		return true
	}
	for _, want := range states {
		if s == want {
			return true
		}
	}
	return false
}

func (r *ticketRepository) load(id uuid.UUID) (*domain.Ticket, bool) {
	if r.tx != nil {
		if t, ok := r.tx.tickets[id]; ok {
			return cloneTicket(t), true
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	t, ok := r.store.tickets[id]
	if !ok {
		return nil, false
	}
	return cloneTicket(t), true
}

func (r *ticketRepository) save(t *domain.Ticket) error {
	if err := t.CheckTimestamps(); err != nil {
		return err
	}

	if r.tx != nil {
		r.tx.stageTicket(t)
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.putTicket(t)
	return nil
}

func (r *ticketRepository) all() []*domain.Ticket {
	r.store.mu.RLock()
	tickets := make([]*domain.Ticket, 0, len(r.store.ticketOrder))
	seen := make(map[uuid.UUID]bool, len(r.store.ticketOrder))
	for _, id := range r.store.ticketOrder {
		t := r.store.tickets[id]
		if r.tx != nil {
			if staged, ok := r.tx.tickets[id]; ok {
				t = staged
			}
		}
		seen[id] = true
		tickets = append(tickets, cloneTicket(t))
	}
	r.store.mu.RUnlock()

	if r.tx != nil {
		for _, id := range r.tx.ticketOrder {
			if !seen[id] {
				tickets = append(tickets, cloneTicket(r.tx.tickets[id]))
			}
		}
	}
	return tickets
}
