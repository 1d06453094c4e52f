package services

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/ports"
	"github.com/srgjo27/event_booking/internal/core/result"
	"github.com/srgjo27/event_booking/internal/core/validation"
)

type TicketService struct {
	base
}

func NewTicketService(store ports.Store, cache ports.Cache, publisher ports.Publisher, log *zap.Logger, opts ...Option) *TicketService {
	return &TicketService{base: newBase(store, cache, publisher, log, opts)}
}

// BookTickets issues quantity booked tickets for actor or nothing at all.
// The event row stays locked from the capacity check to the commit.
func (s *TicketService) BookTickets(ctx context.Context, actor *domain.User, eventID uuid.UUID, quantity int) result.Result[[]*domain.Ticket] {
	fields := []zap.Field{actorField(actor), zap.String("event_id", eventID.String()), zap.Int("quantity", quantity)}

	err := validation.Run(
		authorize(s.tickets.Book(actor), domain.MsgNotAuthorizedBookTickets),
		validation.UserValid(actor),
	)
	if err != nil {
		return failure[[]*domain.Ticket](s.log, "book_tickets", err, fields...)
	}

	var (
		event  *domain.Event
		booked []*domain.Ticket
	)
	err = s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		e, err := tx.Events().GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		err = validation.Run(
			validation.EventValid(e),
			validation.EventActive(e, domain.MsgEventNotActive),
			validation.TicketCount(quantity),
			validation.AvailableTickets(e, quantity),
		)
		if err != nil {
			return err
		}

		now := s.now()
		tickets := make([]*domain.Ticket, 0, quantity)
		for i := 0; i < quantity; i++ {
			t := domain.NewTicket(e, actor.ID, now)
			if err := tx.Tickets().Create(ctx, t); err != nil {
				return err
			}
			if err := e.Reserve(1); err != nil {
				return err
			}
			if err := t.Confirm(now); err != nil {
				return err
			}
			if err := tx.Tickets().Update(ctx, t); err != nil {
				return err
			}
			tickets = append(tickets, t)
		}

		e.UpdatedAt = now
		if err := tx.Events().Update(ctx, e); err != nil {
			return err
		}
		event, booked = e, tickets
		return nil
	})
	if err != nil {
		return failure[[]*domain.Ticket](s.log, "book_tickets", err, fields...)
	}

	s.invalidate(ctx, eventKey(eventID), eventsAllKey, eventTicketsKey(eventID), userTicketsKey(actor.ID))
	s.publish(ctx, domain.NewNotification(domain.NotificationTicketsBooked, event, actor.ID, booked, s.now()))

	s.log.Info("tickets booked", append(fields, zap.Int("available_capacity", event.AvailableCapacity))...)
	return result.Ok(booked)
}

// CancelTickets cancels a batch of the actor's tickets and returns their
// units to the events. Any rejected member aborts the whole batch.
func (s *TicketService) CancelTickets(ctx context.Context, actor *domain.User, ticketIDs []uuid.UUID) result.Result[[]*domain.Ticket] {
	ids := dedupe(ticketIDs)
	fields := []zap.Field{actorField(actor), zap.Int("tickets", len(ids))}

	if err := validation.Run(validation.TicketsPresent(ids)); err != nil {
		return failure[[]*domain.Ticket](s.log, "cancel_tickets", err, fields...)
	}

	var (
		events    map[uuid.UUID]*domain.Event
		cancelled []*domain.Ticket
	)
	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		locked, tickets, err := lockTicketEvents(ctx, tx, ids)
		if err != nil {
			return err
		}

		err = validation.Run(
			authorize(s.tickets.Cancel(actor, tickets), domain.MsgNotAuthorizedCancelTickets),
			validation.UserValid(actor),
			validation.TicketsBelongToUser(tickets, actor.ID),
			validation.NotCancelled(tickets),
		)
		if err != nil {
			return err
		}

		now := s.now()
		for _, t := range tickets {
			if err := locked[t.EventID].Release(1); err != nil {
				return err
			}
			if err := t.Cancel(now); err != nil {
				return err
			}
			if err := tx.Tickets().Update(ctx, t); err != nil {
				return err
			}
		}
		for _, e := range locked {
			e.UpdatedAt = now
			if err := tx.Events().Update(ctx, e); err != nil {
				return err
			}
		}

		events, cancelled = locked, tickets
		return nil
	})
	if err != nil {
		return failure[[]*domain.Ticket](s.log, "cancel_tickets", err, fields...)
	}

	s.afterTicketChange(ctx, domain.NotificationTicketsCancelled, actor, events, cancelled)
	s.log.Info("tickets cancelled", fields...)
	return result.Ok(cancelled)
}

// RefundTickets lets the event owner refund booked tickets of that event.
func (s *TicketService) RefundTickets(ctx context.Context, actor *domain.User, eventID uuid.UUID, ticketIDs []uuid.UUID) result.Result[[]*domain.Ticket] {
	ids := dedupe(ticketIDs)
	fields := []zap.Field{actorField(actor), zap.String("event_id", eventID.String()), zap.Int("tickets", len(ids))}

	if err := validation.Run(validation.TicketsPresent(ids)); err != nil {
		return failure[[]*domain.Ticket](s.log, "refund_tickets", err, fields...)
	}

	var (
		event    *domain.Event
		refunded []*domain.Ticket
	)
	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		e, err := tx.Events().GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		tickets, err := tx.Tickets().GetByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		err = validation.Run(
			authorize(s.tickets.Refund(actor, e), domain.MsgNotAuthorizedRefundTickets),
			validation.UserValid(actor),
			validation.EventValid(e),
			validation.TicketsBelongToEvent(tickets, e.ID),
		)
		if err != nil {
			return err
		}

		now := s.now()
		for _, t := range tickets {
			if err := t.Refund(now); err != nil {
				return err
			}
			if err := e.Release(1); err != nil {
				return err
			}
			if err := tx.Tickets().Update(ctx, t); err != nil {
				return err
			}
		}

		e.UpdatedAt = now
		if err := tx.Events().Update(ctx, e); err != nil {
			return err
		}
		event, refunded = e, tickets
		return nil
	})
	if err != nil {
		return failure[[]*domain.Ticket](s.log, "refund_tickets", err, fields...)
	}

	s.afterTicketChange(ctx, domain.NotificationTicketsRefunded, actor, map[uuid.UUID]*domain.Event{event.ID: event}, refunded)
	s.log.Info("tickets refunded", fields...)
	return result.Ok(refunded)
}

// lockTicketEvents locks the events behind ids in a fixed order, then
// re-reads the tickets under those locks.
func lockTicketEvents(ctx context.Context, tx ports.Repositories, ids []uuid.UUID) (map[uuid.UUID]*domain.Event, []*domain.Ticket, error) {
	tickets, err := tx.Tickets().GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	eventIDs := make([]uuid.UUID, 0, len(tickets))
	seen := make(map[uuid.UUID]bool)
	for _, t := range tickets {
		if !seen[t.EventID] {
			seen[t.EventID] = true
			eventIDs = append(eventIDs, t.EventID)
		}
	}
	sort.Slice(eventIDs, func(i, j int) bool {
		return bytes.Compare(eventIDs[i][:], eventIDs[j][:]) < 0
	})

	events := make(map[uuid.UUID]*domain.Event, len(eventIDs))
	for _, id := range eventIDs {
		e, err := tx.Events().GetForUpdate(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		events[id] = e
	}

	tickets, err = tx.Tickets().GetByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return events, tickets, nil
}

func (s *TicketService) afterTicketChange(ctx context.Context, typ domain.NotificationType, actor *domain.User, events map[uuid.UUID]*domain.Event, tickets []*domain.Ticket) {
	keys := []string{eventsAllKey}
	for id := range events {
		keys = append(keys, eventKey(id), eventTicketsKey(id))
	}

	owners := make(map[uuid.UUID]bool)
	byEvent := make(map[uuid.UUID][]*domain.Ticket)
	for _, t := range tickets {
		keys = append(keys, ticketKey(t.ID))
		if !owners[t.UserID] {
			owners[t.UserID] = true
			keys = append(keys, userTicketsKey(t.UserID))
		}
		byEvent[t.EventID] = append(byEvent[t.EventID], t)
	}
	s.invalidate(ctx, keys...)

	now := s.now()
	for id, e := range events {
		s.publish(ctx, domain.NewNotification(typ, e, actor.ID, byEvent[id], now))
	}
}
