package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srgjo27/event_booking/internal/adapter/repository/memory"
	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/ports"
	"github.com/srgjo27/event_booking/internal/core/ports/mocks"
	"github.com/srgjo27/event_booking/internal/core/services"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var errStoreDown = errors.New("connection reset by peer")

type fixture struct {
	store     *memory.Store
	cache     *mocks.Cache
	publisher *mocks.Publisher
	events    *services.EventService
	tickets   *services.TicketService
	queries   *services.QueryService
}

func newFixture(t *testing.T, opts ...services.Option) *fixture {
	store := memory.NewStore()
	return newFixtureWithStore(t, store, store, opts...)
}

// newFixtureWithStore runs the services against svcStore while seeding goes
// straight to the memory store underneath it.
func newFixtureWithStore(t *testing.T, mem *memory.Store, svcStore ports.Store, opts ...services.Option) *fixture {
	t.Helper()

	cache := mocks.NewCache(t)
	publisher := mocks.NewPublisher(t)
	log := zap.NewNop()
	opts = append([]services.Option{services.WithClock(func() time.Time { return now })}, opts...)

	return &fixture{
		store:     mem,
		cache:     cache,
		publisher: publisher,
		events:    services.NewEventService(svcStore, cache, publisher, log, opts...),
		tickets:   services.NewTicketService(svcStore, cache, publisher, log, opts...),
		queries:   services.NewQueryService(svcStore, cache, log, opts...),
	}
}

// relax accepts any cache or publisher traffic. Expectations registered
// before it still take precedence.
func (f *fixture) relax() *fixture {
	f.cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Maybe()
	f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

func newManager() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "manager@example.com", FirstName: "Mia", LastName: "Stone", Role: domain.RoleManager}
}

func newCustomer() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "buyer@example.com", FirstName: "Cal", LastName: "Reyes", Role: domain.RoleCustomer}
}

func (f *fixture) seedEvent(t *testing.T, creator *domain.User, total, available int) *domain.Event {
	t.Helper()

	e := &domain.Event{
		ID:                uuid.New(),
		Name:              "Concert " + uuid.NewString()[:8],
		Description:       "Evening show",
		Location:          "Main Hall",
		StartTime:         now.Add(48 * time.Hour),
		EndTime:           now.Add(51 * time.Hour),
		TotalCapacity:     total,
		AvailableCapacity: available,
		UnitPrice:         2500,
		Currency:          domain.CurrencyEUR,
		CreatorID:         creator.ID,
		State:             domain.EventActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, f.store.Events().Create(context.Background(), e))
	return e
}

// seedTicket stores a ticket in state with the timestamps that state needs.
// It does not touch the event's capacity.
func (f *fixture) seedTicket(t *testing.T, event *domain.Event, owner *domain.User, state domain.TicketState) *domain.Ticket {
	t.Helper()

	tk := domain.NewTicket(event, owner.ID, now.Add(-time.Hour))
	booked := now.Add(-time.Hour)
	cancelled := now.Add(-time.Minute)
	switch state {
	case domain.TicketBooked, domain.TicketRefunded:
		tk.BookedAt = &booked
	case domain.TicketCancelled:
		tk.BookedAt = &booked
		tk.CancelledAt = &cancelled
	}
	tk.State = state

	require.NoError(t, f.store.Tickets().Create(context.Background(), tk))
	return tk
}

func (f *fixture) event(t *testing.T, id uuid.UUID) *domain.Event {
	t.Helper()
	e, err := f.store.Events().GetByID(context.Background(), id)
	require.NoError(t, err)
	return e
}

func (f *fixture) ticket(t *testing.T, id uuid.UUID) *domain.Ticket {
	t.Helper()
	tk, err := f.store.Tickets().GetByID(context.Background(), id)
	require.NoError(t, err)
	return tk
}

func ticketIDs(tickets ...*domain.Ticket) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return ids
}

// faultyStore injects write failures into transactions.
type faultyStore struct {
	ports.Store

	failCreateAt int
	failUpdate   bool
	creates      int
}

func (s *faultyStore) WithinTx(ctx context.Context, fn func(tx ports.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(tx ports.Repositories) error {
		return fn(&faultyRepos{Repositories: tx, store: s})
	})
}

type faultyRepos struct {
	ports.Repositories
	store *faultyStore
}

func (r *faultyRepos) Tickets() ports.TicketRepository {
	return &faultyTickets{TicketRepository: r.Repositories.Tickets(), store: r.store}
}

type faultyTickets struct {
	ports.TicketRepository
	store *faultyStore
}

func (r *faultyTickets) Create(ctx context.Context, t *domain.Ticket) error {
	r.store.creates++
	if r.store.failCreateAt > 0 && r.store.creates == r.store.failCreateAt {
		return errStoreDown
	}
	return r.TicketRepository.Create(ctx, t)
}

func (r *faultyTickets) Update(ctx context.Context, t *domain.Ticket) error {
	if r.store.failUpdate {
		return errStoreDown
	}
	return r.TicketRepository.Update(ctx, t)
}
