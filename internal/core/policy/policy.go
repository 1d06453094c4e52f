// Package policy answers who may do what. Every service consults it before
// running any validation so callers without the capability learn nothing
// else about the target.
package policy

import (
	"github.com/srgjo27/event_booking/internal/core/domain"
)

type EventPolicy struct {
	actor *domain.User
	event *domain.Event
}

func ForEvent(actor *domain.User, event *domain.Event) EventPolicy {
	return EventPolicy{actor: actor, event: event}
}

func (p EventPolicy) Create() bool {
	return p.actor.IsManager()
}

func (p EventPolicy) Update() bool {
	return p.owner()
}

func (p EventPolicy) Cancel() bool {
	return p.owner()
}

func (p EventPolicy) Finish() bool {
	return p.owner()
}

// Manage covers the event owner's read access to its tickets.
func (p EventPolicy) Manage() bool {
	return p.owner()
}

func (p EventPolicy) owner() bool {
	return p.actor.IsManager() && p.event != nil && p.event.CreatorID == p.actor.ID
}

// TicketPolicy decides ticket capabilities. AllowPendingCancel switches buyer
// cancellation between booked-only and booked-or-pending tickets.
type TicketPolicy struct {
	AllowPendingCancel bool
}

func (p TicketPolicy) Book(actor *domain.User) bool {
	return actor != nil
}

// Cancel requires actor to own every ticket and every ticket to be in a
// cancellable state.
func (p TicketPolicy) Cancel(actor *domain.User, tickets []*domain.Ticket) bool {
	if actor == nil {
		return false
	}
	for _, t := range tickets {
		if t.UserID != actor.ID {
			return false
		}
		if t.State != domain.TicketBooked && !(p.AllowPendingCancel && t.State == domain.TicketPending) {
			return false
		}
	}
	return true
}

// Refund is reserved to the manager who owns the event.
func (p TicketPolicy) Refund(actor *domain.User, event *domain.Event) bool {
	return ForEvent(actor, event).owner()
}

func (p TicketPolicy) View(actor *domain.User, ticket *domain.Ticket) bool {
	return actor != nil && ticket != nil && ticket.UserID == actor.ID
}

// Authorize turns a denied capability into the fixed authorization error.
func Authorize(allowed bool, message string) error {
	if allowed {
		return nil
	}
	return domain.NewAuthorizationError(message)
}
