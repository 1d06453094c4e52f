package policy_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/policy"
)

func user(role domain.Role) *domain.User {
	return &domain.User{ID: uuid.New(), FirstName: "Sam", LastName: "Hill", Role: role}
}

func TestEventPolicy(t *testing.T) {
	owner := user(domain.RoleManager)
	otherManager := user(domain.RoleManager)
	customer := user(domain.RoleCustomer)
	event := &domain.Event{ID: uuid.New(), CreatorID: owner.ID}

	// A customer that somehow created the event still lacks the capability.
	customerEvent := &domain.Event{ID: uuid.New(), CreatorID: customer.ID}

	tests := []struct {
		name  string
		actor *domain.User
		event *domain.Event
		want  bool
	}{
		{name: "owner", actor: owner, event: event, want: true},
		{name: "other manager", actor: otherManager, event: event},
		{name: "customer", actor: customer, event: event},
		{name: "customer creator", actor: customer, event: customerEvent},
		{name: "anonymous", actor: nil, event: event},
		{name: "no event", actor: owner, event: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := policy.ForEvent(tt.actor, tt.event)
			assert.Equal(t, tt.want, p.Update())
			assert.Equal(t, tt.want, p.Cancel())
			assert.Equal(t, tt.want, p.Finish())
			assert.Equal(t, tt.want, p.Manage())
		})
	}

	assert.True(t, policy.ForEvent(otherManager, nil).Create())
	assert.False(t, policy.ForEvent(customer, nil).Create())
	assert.False(t, policy.ForEvent(nil, nil).Create())
}

func TestTicketPolicyCancel(t *testing.T) {
	buyer := user(domain.RoleCustomer)
	ticket := func(owner *domain.User, state domain.TicketState) *domain.Ticket {
		return &domain.Ticket{ID: uuid.New(), UserID: owner.ID, State: state}
	}

	strict := policy.TicketPolicy{}
	lenient := policy.TicketPolicy{AllowPendingCancel: true}

	booked := []*domain.Ticket{ticket(buyer, domain.TicketBooked), ticket(buyer, domain.TicketBooked)}
	assert.True(t, strict.Cancel(buyer, booked))
	assert.False(t, strict.Cancel(user(domain.RoleCustomer), booked))
	assert.False(t, strict.Cancel(nil, booked))

	mixed := append(booked, ticket(buyer, domain.TicketPending))
	assert.False(t, strict.Cancel(buyer, mixed))
	assert.True(t, lenient.Cancel(buyer, mixed))

	for _, state := range []domain.TicketState{domain.TicketCancelled, domain.TicketRefunded} {
		batch := []*domain.Ticket{ticket(buyer, domain.TicketBooked), ticket(buyer, state)}
		assert.False(t, strict.Cancel(buyer, batch))
		assert.False(t, lenient.Cancel(buyer, batch))
	}

	foreign := []*domain.Ticket{ticket(buyer, domain.TicketBooked), ticket(user(domain.RoleCustomer), domain.TicketBooked)}
	assert.False(t, lenient.Cancel(buyer, foreign))
}

func TestTicketPolicyOthers(t *testing.T) {
	owner := user(domain.RoleManager)
	buyer := user(domain.RoleCustomer)
	event := &domain.Event{ID: uuid.New(), CreatorID: owner.ID}
	tk := &domain.Ticket{ID: uuid.New(), UserID: buyer.ID}

	var p policy.TicketPolicy
	assert.True(t, p.Book(buyer))
	assert.False(t, p.Book(nil))

	assert.True(t, p.Refund(owner, event))
	assert.False(t, p.Refund(buyer, event))
	assert.False(t, p.Refund(user(domain.RoleManager), event))

	assert.True(t, p.View(buyer, tk))
	assert.False(t, p.View(owner, tk))
	assert.False(t, p.View(nil, tk))
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, policy.Authorize(true, domain.MsgNotAuthorizedCancelTickets))

	err := policy.Authorize(false, domain.MsgNotAuthorizedCancelTickets)
	assert.Equal(t, "Not authorized to cancel tickets", err.Error())
	assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))
}
