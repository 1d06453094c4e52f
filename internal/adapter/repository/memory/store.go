// Package memory is an in-process Store. Each transaction stages its writes
// and applies them at commit; GetForUpdate takes a per-event lock held until
// the transaction ends, so it behaves like SELECT ... FOR UPDATE.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/ports"
)

var ErrCheckViolation = errors.New("memory: events available_capacity check violated")

type Store struct {
	mu          sync.RWMutex
	events      map[uuid.UUID]*domain.Event
	tickets     map[uuid.UUID]*domain.Ticket
	eventOrder  []uuid.UUID
	ticketOrder []uuid.UUID

	locksMu sync.Mutex
	locks   map[uuid.UUID]chan struct{}
}

func NewStore() *Store {
	return &Store{
		events:  make(map[uuid.UUID]*domain.Event),
		tickets: make(map[uuid.UUID]*domain.Ticket),
		locks:   make(map[uuid.UUID]chan struct{}),
	}
}

func (s *Store) Events() ports.EventRepository {
	return &eventRepository{store: s}
}

func (s *Store) Tickets() ports.TicketRepository {
	return &ticketRepository{store: s}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.Repositories) error) error {
	tx := &transaction{
		store:   s,
		events:  make(map[uuid.UUID]*domain.Event),
		tickets: make(map[uuid.UUID]*domain.Ticket),
		heldSet: make(map[uuid.UUID]bool),
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return tx.commit()
}

func (s *Store) rowLock(id uuid.UUID) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

// checkEvent enforces the table constraints. mu must be held.
func (s *Store) checkEvent(e *domain.Event) error {
	if e.AvailableCapacity < 0 || e.AvailableCapacity > e.TotalCapacity {
		return ErrCheckViolation
	}
	for id, other := range s.events {
		if id != e.ID && strings.EqualFold(other.Name, e.Name) {
			return domain.NewValidationError(domain.MsgNameTaken)
		}
	}
	return nil
}

// putEvent must be called with mu held.
func (s *Store) putEvent(e *domain.Event) {
	if _, ok := s.events[e.ID]; !ok {
		s.eventOrder = append(s.eventOrder, e.ID)
	}
	s.events[e.ID] = cloneEvent(e)
}

// putTicket must be called with mu held.
func (s *Store) putTicket(t *domain.Ticket) {
	if _, ok := s.tickets[t.ID]; !ok {
		s.ticketOrder = append(s.ticketOrder, t.ID)
	}
	s.tickets[t.ID] = cloneTicket(t)
}

type transaction struct {
	store *Store

	events      map[uuid.UUID]*domain.Event
	eventOrder  []uuid.UUID
	tickets     map[uuid.UUID]*domain.Ticket
	ticketOrder []uuid.UUID

	held    []uuid.UUID
	heldSet map[uuid.UUID]bool
}

func (tx *transaction) Events() ports.EventRepository {
	return &eventRepository{store: tx.store, tx: tx}
}

func (tx *transaction) Tickets() ports.TicketRepository {
	return &ticketRepository{store: tx.store, tx: tx}
}

func (tx *transaction) lock(ctx context.Context, id uuid.UUID) error {
	if tx.heldSet[id] {
		return nil
	}

	select {
	case tx.store.rowLock(id) <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	tx.held = append(tx.held, id)
	tx.heldSet[id] = true
	return nil
}

func (tx *transaction) release() {
	for _, id := range tx.held {
		<-tx.store.rowLock(id)
	}
	tx.held = nil
}

func (tx *transaction) stageEvent(e *domain.Event) {
	if _, ok := tx.events[e.ID]; !ok {
		tx.eventOrder = append(tx.eventOrder, e.ID)
	}
	tx.events[e.ID] = cloneEvent(e)
}

func (tx *transaction) stageTicket(t *domain.Ticket) {
	if _, ok := tx.tickets[t.ID]; !ok {
		tx.ticketOrder = append(tx.ticketOrder, t.ID)
	}
	tx.tickets[t.ID] = cloneTicket(t)
}

func (tx *transaction) commit() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range tx.eventOrder {
		if err := s.checkEvent(tx.events[id]); err != nil {
			return err
		}
	}

	for _, id := range tx.eventOrder {
		s.putEvent(tx.events[id])
	}
	for _, id := range tx.ticketOrder {
		s.putTicket(tx.tickets[id])
	}
	return nil
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	if t.BookedAt != nil {
		at := *t.BookedAt
		c.BookedAt = &at
	}
	if t.CancelledAt != nil {
		at := *t.CancelledAt
		c.CancelledAt = &at
	}
	return &c
}
