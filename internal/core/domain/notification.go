package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTicketsBooked    NotificationType = "ticket.booked"
	NotificationTicketsCancelled NotificationType = "ticket.cancelled"
	NotificationTicketsRefunded  NotificationType = "ticket.refunded"
	NotificationEventCancelled   NotificationType = "event.cancelled"
)

// Notification announces a committed inventory change.
type Notification struct {
	ID         uuid.UUID        `json:"id"`
	Type       NotificationType `json:"type"`
	EventID    uuid.UUID        `json:"event_id"`
	ActorID    uuid.UUID        `json:"actor_id"`
	TicketIDs  []uuid.UUID      `json:"ticket_ids"`
	Available  int              `json:"available_capacity"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func NewNotification(typ NotificationType, event *Event, actorID uuid.UUID, tickets []*Ticket, now time.Time) Notification {
	ids := make([]uuid.UUID, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}

	return Notification{
		ID:         uuid.New(),
		Type:       typ,
		EventID:    event.ID,
		ActorID:    actorID,
		TicketIDs:  ids,
		Available:  event.AvailableCapacity,
		OccurredAt: now,
	}
}

// Key partitions notifications by event.
func (n Notification) Key() string {
	return n.EventID.String()
}
