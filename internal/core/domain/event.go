package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventState string

const (
	EventActive    EventState = "active"
	EventFinished  EventState = "finished"
	EventCancelled EventState = "cancelled"
)

func (s EventState) String() string {
	return string(s)
}

type EventAction string

const (
	EventFinish EventAction = "finish"
	EventCancel EventAction = "cancel"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

var SupportedCurrencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP}

func (c Currency) Valid() bool {
	for _, s := range SupportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

type eventTransition struct {
	to    EventState
	guard func(e *Event, now time.Time) bool
}

// eventTransitions is the complete event lifecycle. Pairs missing from the
// table are invalid transitions.
var eventTransitions = map[EventState]map[EventAction]eventTransition{
	EventActive: {
		EventFinish: {to: EventFinished, guard: endTimeReached},
		EventCancel: {to: EventCancelled},
	},
}

func endTimeReached(e *Event, now time.Time) bool {
	return !e.EndTime.IsZero() && !now.Before(e.EndTime)
}

type Event struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name" validate:"required,max=255"`
	Description       string     `json:"description" validate:"required"`
	Location          string     `json:"location" validate:"required,max=255"`
	StartTime         time.Time  `json:"start_time" validate:"required"`
	EndTime           time.Time  `json:"end_time" validate:"required"`
	TotalCapacity     int        `json:"total_capacity" validate:"gt=0"`
	AvailableCapacity int        `json:"available_capacity" validate:"gte=0"`
	UnitPrice         int64      `json:"unit_price" validate:"gte=0"`
	Currency          Currency   `json:"currency" validate:"required,currency"`
	CreatorID         uuid.UUID  `json:"created_by"`
	State             EventState `json:"state" validate:"required,oneof=active finished cancelled"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewEvent builds an active event owned by creatorID with its whole capacity
// available.
func NewEvent(creatorID uuid.UUID, p EventParams, now time.Time) *Event {
	e := &Event{
		ID:        uuid.New(),
		CreatorID: creatorID,
		State:     EventActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.applyFields(e)
	if p.TotalCapacity != nil {
		e.TotalCapacity = *p.TotalCapacity
		e.AvailableCapacity = *p.TotalCapacity
	}
	return e
}

func (e *Event) IsActive() bool {
	return e.State == EventActive
}

func (e *Event) CanCancel() bool {
	_, ok := eventTransitions[e.State][EventCancel]
	return ok
}

// Sold is the number of units currently held by tickets.
func (e *Event) Sold() int {
	return e.TotalCapacity - e.AvailableCapacity
}

func (e *Event) Finish(now time.Time) error {
	return e.transition(EventFinish, now)
}

// Cancel moves the event to cancelled. Cascading to its tickets is the
// caller's job and must happen in the same transaction.
func (e *Event) Cancel(now time.Time) error {
	return e.transition(EventCancel, now)
}

func (e *Event) transition(action EventAction, now time.Time) error {
	tr, ok := eventTransitions[e.State][action]
	if !ok {
		return NewTransitionError("event", string(action), e.State)
	}
	if tr.guard != nil && !tr.guard(e, now) {
		return &Error{
			Kind:    KindInvalidTransition,
			Message: "Cannot " + string(action) + " event before its end time",
			err:     ErrInvalidTransition,
		}
	}

	e.State = tr.to
	e.UpdatedAt = now
	return nil
}

// Reserve takes count units out of the available capacity.
func (e *Event) Reserve(count int) error {
	if count <= 0 {
		return NewValidationError(MsgTicketCount)
	}
	if e.AvailableCapacity < count {
		return NewValidationError(MsgNotEnoughTickets)
	}

	e.AvailableCapacity -= count
	return nil
}

// Release returns count units to the available capacity.
func (e *Event) Release(count int) error {
	if count <= 0 {
		return NewValidationError(MsgTicketCount)
	}
	if e.AvailableCapacity+count > e.TotalCapacity {
		return ErrCapacityOverflow
	}

	e.AvailableCapacity += count
	return nil
}

// Resize changes the total capacity keeping the sold units sold.
func (e *Event) Resize(total int) error {
	sold := e.Sold()
	if total < sold {
		return NewValidationError(MsgCapacityBelowSold)
	}

	e.TotalCapacity = total
	e.AvailableCapacity = total - sold
	return nil
}

// EventParams carries the editable event fields. Nil means "not supplied".
type EventParams struct {
	Name          *string    `json:"name"`
	Description   *string    `json:"description"`
	Location      *string    `json:"location"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	TotalCapacity *int       `json:"total_capacity"`
	UnitPrice     *int64     `json:"unit_price"`
	Currency      *string    `json:"currency"`
}

// Missing lists the required keys that are absent or blank.
func (p EventParams) Missing() []string {
	var missing []string
	blank := func(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }

	if blank(p.Name) {
		missing = append(missing, "name")
	}
	if blank(p.Description) {
		missing = append(missing, "description")
	}
	if blank(p.Location) {
		missing = append(missing, "location")
	}
	if p.StartTime == nil || p.StartTime.IsZero() {
		missing = append(missing, "start_time")
	}
	if p.EndTime == nil || p.EndTime.IsZero() {
		missing = append(missing, "end_time")
	}
	if p.TotalCapacity == nil {
		missing = append(missing, "total_capacity")
	}
	if blank(p.Currency) {
		missing = append(missing, "currency")
	}
	return missing
}

// Apply copies the supplied fields onto e. Capacity goes through Resize so
// the sold units are preserved.
func (p EventParams) Apply(e *Event, now time.Time) error {
	p.applyFields(e)
	if p.TotalCapacity != nil && *p.TotalCapacity != e.TotalCapacity {
		if err := e.Resize(*p.TotalCapacity); err != nil {
			return err
		}
	}
	e.UpdatedAt = now
	return nil
}

func (p EventParams) NameChanged(e *Event) bool {
	return p.Name != nil && !strings.EqualFold(strings.TrimSpace(*p.Name), e.Name)
}

func (p EventParams) applyFields(e *Event) {
	if p.Name != nil {
		e.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Location != nil {
		e.Location = strings.TrimSpace(*p.Location)
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.UnitPrice != nil {
		e.UnitPrice = *p.UnitPrice
	}
	if p.Currency != nil {
		e.Currency = Currency(strings.ToUpper(strings.TrimSpace(*p.Currency)))
	}
}
