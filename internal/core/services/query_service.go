package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/policy"
	"github.com/srgjo27/event_booking/internal/core/ports"
	"github.com/srgjo27/event_booking/internal/core/result"
	"github.com/srgjo27/event_booking/internal/core/validation"
)

// QueryService serves reads for display. Results may be up to one cache TTL
// stale; nothing here takes a lock.
type QueryService struct {
	base
}

func NewQueryService(store ports.Store, cache ports.Cache, log *zap.Logger, opts ...Option) *QueryService {
	return &QueryService{base: newBase(store, cache, nil, log, opts)}
}

func (s *QueryService) GetEvent(ctx context.Context, id uuid.UUID) result.Result[*domain.Event] {
	event, err := cached(ctx, &s.base, eventKey(id), func() (*domain.Event, error) {
		return s.store.Events().GetByID(ctx, id)
	})
	if err != nil {
		return failure[*domain.Event](s.log, "get_event", err, zap.String("event_id", id.String()))
	}
	return result.Ok(event)
}

// ListEvents caches only the unfiltered listing.
func (s *QueryService) ListEvents(ctx context.Context, filter ports.EventFilter) result.Result[[]*domain.Event] {
	load := func() ([]*domain.Event, error) {
		return s.store.Events().List(ctx, filter)
	}

	var (
		events []*domain.Event
		err    error
	)
	if filter.IsZero() {
		events, err = cached(ctx, &s.base, eventsAllKey, load)
	} else {
		filter.Now = s.now()
		events, err = load()
	}
	if err != nil {
		return failure[[]*domain.Event](s.log, "list_events", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return result.Ok(events)
}

func (s *QueryService) GetTicket(ctx context.Context, actor *domain.User, id uuid.UUID) result.Result[*domain.Ticket] {
	ticket, err := cached(ctx, &s.base, ticketKey(id), func() (*domain.Ticket, error) {
		return s.store.Tickets().GetByID(ctx, id)
	})
	if err == nil {
		err = validation.Run(authorize(s.tickets.View(actor, ticket), domain.MsgNotAuthorizedViewTickets))
	}
	if err != nil {
		return failure[*domain.Ticket](s.log, "get_ticket", err, actorField(actor), zap.String("ticket_id", id.String()))
	}
	return result.Ok(ticket)
}

func (s *QueryService) ListUserTickets(ctx context.Context, actor *domain.User) result.Result[[]*domain.Ticket] {
	if err := validation.Run(authorize(actor != nil, domain.MsgNotAuthorizedViewTickets), validation.UserValid(actor)); err != nil {
		return failure[[]*domain.Ticket](s.log, "list_user_tickets", err, actorField(actor))
	}

	tickets, err := cached(ctx, &s.base, userTicketsKey(actor.ID), func() ([]*domain.Ticket, error) {
		return s.store.Tickets().ListByUser(ctx, actor.ID)
	})
	if err != nil {
		return failure[[]*domain.Ticket](s.log, "list_user_tickets", err, actorField(actor))
	}
	if tickets == nil {
		tickets = []*domain.Ticket{}
	}
	return result.Ok(tickets)
}

// ListEventTickets shows the owner every ticket ever issued for the event
// except those still pending.
func (s *QueryService) ListEventTickets(ctx context.Context, actor *domain.User, eventID uuid.UUID) result.Result[[]*domain.Ticket] {
	fields := []zap.Field{actorField(actor), zap.String("event_id", eventID.String())}

	event, err := s.store.Events().GetByID(ctx, eventID)
	if err == nil {
		err = validation.Run(authorize(policy.ForEvent(actor, event).Manage(), domain.MsgNotAuthorizedViewTickets))
	}
	if err != nil {
		return failure[[]*domain.Ticket](s.log, "list_event_tickets", err, fields...)
	}

	tickets, err := cached(ctx, &s.base, eventTicketsKey(eventID), func() ([]*domain.Ticket, error) {
		return s.store.Tickets().ListByEvent(ctx, eventID, domain.TicketBooked, domain.TicketCancelled, domain.TicketRefunded)
	})
	if err != nil {
		return failure[[]*domain.Ticket](s.log, "list_event_tickets", err, fields...)
	}
	if tickets == nil {
		tickets = []*domain.Ticket{}
	}
	return result.Ok(tickets)
}
