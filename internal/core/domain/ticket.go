package domain

import (
	"time"

	"github.com/google/uuid"
)

type TicketState string

const (
	TicketPending   TicketState = "pending"
	TicketBooked    TicketState = "booked"
	TicketCancelled TicketState = "cancelled"
	TicketRefunded  TicketState = "refunded"
)

func (s TicketState) String() string {
	return string(s)
}

var TicketStates = []TicketState{TicketPending, TicketBooked, TicketCancelled, TicketRefunded}

type TicketAction string

const (
	TicketConfirm TicketAction = "confirm"
	TicketCancel  TicketAction = "cancel"
	TicketRefund  TicketAction = "refund"
)

var TicketActions = []TicketAction{TicketConfirm, TicketCancel, TicketRefund}

type ticketTransition struct {
	to     TicketState
	effect func(t *Ticket, now time.Time)
}

// ticketTransitions is the complete ticket lifecycle. cancelled and refunded
// are terminal.
var ticketTransitions = map[TicketState]map[TicketAction]ticketTransition{
	TicketPending: {
		TicketConfirm: {to: TicketBooked, effect: setBookedAt},
		TicketCancel:  {to: TicketCancelled, effect: setCancelledAt},
	},
	TicketBooked: {
		TicketCancel: {to: TicketCancelled, effect: setCancelledAt},
		TicketRefund: {to: TicketRefunded},
	},
}

func setBookedAt(t *Ticket, now time.Time) {
	if t.BookedAt == nil {
		t.BookedAt = &now
	}
}

func setCancelledAt(t *Ticket, now time.Time) {
	if t.CancelledAt == nil {
		t.CancelledAt = &now
	}
}

// NextTicketState reports where action leads from the given state.
func NextTicketState(from TicketState, action TicketAction) (TicketState, bool) {
	tr, ok := ticketTransitions[from][action]
	return tr.to, ok
}

type Ticket struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	EventID     uuid.UUID   `json:"event_id"`
	UnitPrice   int64       `json:"unit_price" validate:"gte=0"`
	Currency    Currency    `json:"currency" validate:"required,currency"`
	State       TicketState `json:"state" validate:"required,oneof=pending booked cancelled refunded"`
	BookedAt    *time.Time  `json:"booked_at"`
	CancelledAt *time.Time  `json:"cancelled_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewTicket creates a pending ticket for userID with the event's current
// price and currency.
func NewTicket(event *Event, userID uuid.UUID, now time.Time) *Ticket {
	return &Ticket{
		ID:        uuid.New(),
		UserID:    userID,
		EventID:   event.ID,
		UnitPrice: event.UnitPrice,
		Currency:  event.Currency,
		State:     TicketPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (t *Ticket) IsCancelled() bool {
	return t.State == TicketCancelled
}

func (t *Ticket) Confirm(now time.Time) error {
	return t.transition(TicketConfirm, now)
}

func (t *Ticket) Cancel(now time.Time) error {
	return t.transition(TicketCancel, now)
}

func (t *Ticket) Refund(now time.Time) error {
	return t.transition(TicketRefund, now)
}

func (t *Ticket) transition(action TicketAction, now time.Time) error {
	tr, ok := ticketTransitions[t.State][action]
	if !ok {
		return NewTransitionError("ticket", string(action), t.State)
	}

	if tr.effect != nil {
		tr.effect(t, now)
	}
	t.State = tr.to
	t.UpdatedAt = now
	return nil
}

// CheckTimestamps enforces the state/timestamp correspondence. Stores call
// it on every save.
func (t *Ticket) CheckTimestamps() error {
	switch t.State {
	case TicketPending:
		if t.BookedAt != nil || t.CancelledAt != nil {
			return NewValidationError(MsgPendingTimestamps)
		}
	case TicketBooked:
		if t.BookedAt == nil {
			return NewValidationError(MsgBookedAtMissing)
		}
		if t.CancelledAt != nil {
			return NewValidationError(MsgCancelledAtWhenBooked)
		}
	case TicketCancelled:
		if t.CancelledAt == nil {
			return NewValidationError(MsgCancelledAtMissing)
		}
	case TicketRefunded:
		if t.BookedAt == nil || t.CancelledAt != nil {
			return NewValidationError(MsgRefundedTimestamps)
		}
	}
	return nil
}
