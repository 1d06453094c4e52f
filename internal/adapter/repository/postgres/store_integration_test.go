package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/event_booking/internal/adapter/repository/postgres"
	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/ports"
)

// openTestDB connects to TEST_POSTGRES_DSN and recreates the schema.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping integration test. Set TEST_POSTGRES_DSN to run")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Skipf("Skipping: Postgres not available: %v", err)
	}

	down, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "000001_create_events_tickets.down.sql"))
	require.NoError(t, err)
	up, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "000001_create_events_tickets.up.sql"))
	require.NoError(t, err)

	_, err = db.Exec(string(down))
	require.NoError(t, err)
	_, err = db.Exec(string(up))
	require.NoError(t, err)

	return db
}

func testEvent(name string, total, available int) *domain.Event {
	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Microsecond)
	return &domain.Event{
		ID:                uuid.New(),
		Name:              name,
		Description:       "desc",
		Location:          "Pier 9",
		StartTime:         start,
		EndTime:           start.Add(3 * time.Hour),
		TotalCapacity:     total,
		AvailableCapacity: available,
		UnitPrice:         1250,
		Currency:          domain.CurrencyGBP,
		CreatorID:         uuid.New(),
		State:             domain.EventActive,
		CreatedAt:         start.Add(-48 * time.Hour),
		UpdatedAt:         start.Add(-48 * time.Hour),
	}
}

func TestPostgresStore_EventRoundTrip(t *testing.T) {
	db := openTestDB(t)
	s := postgres.NewStore(db)
	ctx := context.Background()

	e := testEvent("Dockside Jazz", 50, 50)
	require.NoError(t, s.Events().Create(ctx, e))

	got, err := s.Events().GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Name, got.Name)
	assert.Equal(t, e.Currency, got.Currency)
	assert.True(t, e.StartTime.Equal(got.StartTime))

	taken, err := s.Events().NameTaken(ctx, "DOCKSIDE jazz", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)

	err = s.Events().Create(ctx, testEvent("dockside JAZZ", 5, 5))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.ErrorContains(t, err, domain.MsgNameTaken)

	missing := uuid.New()
	_, err = s.Events().GetByID(ctx, missing)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestPostgresStore_CheckConstraint(t *testing.T) {
	db := openTestDB(t)
	s := postgres.NewStore(db)
	ctx := context.Background()

	e := testEvent("Overflow", 10, 10)
	require.NoError(t, s.Events().Create(ctx, e))

	err := s.WithinTx(ctx, func(tx ports.Repositories) error {
		locked, err := tx.Events().GetForUpdate(ctx, e.ID)
		if err != nil {
			return err
		}
		locked.AvailableCapacity = 11
		return tx.Events().Update(ctx, locked)
	})
	assert.True(t, errors.Is(err, postgres.ErrCheckViolation))

	got, err := s.Events().GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.AvailableCapacity)
}

func TestPostgresStore_TxRollback(t *testing.T) {
	db := openTestDB(t)
	s := postgres.NewStore(db)
	ctx := context.Background()

	e := testEvent("Rollback Night", 10, 10)
	require.NoError(t, s.Events().Create(ctx, e))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx ports.Repositories) error {
		locked, err := tx.Events().GetForUpdate(ctx, e.ID)
		if err != nil {
			return err
		}
		tk := domain.NewTicket(locked, uuid.New(), time.Now())
		if err := tx.Tickets().Create(ctx, tk); err != nil {
			return err
		}
		if err := locked.Reserve(1); err != nil {
			return err
		}
		if err := tx.Events().Update(ctx, locked); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)

	got, err := s.Events().GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.AvailableCapacity)

	tickets, err := s.Tickets().ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestPostgresStore_TicketQueries(t *testing.T) {
	db := openTestDB(t)
	s := postgres.NewStore(db)
	ctx := context.Background()

	e := testEvent("Ticket Queries", 10, 8)
	require.NoError(t, s.Events().Create(ctx, e))

	owner := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)
	booked := domain.NewTicket(e, owner, now)
	require.NoError(t, booked.Confirm(now))
	pending := domain.NewTicket(e, uuid.New(), now)
	require.NoError(t, s.Tickets().Create(ctx, booked))
	require.NoError(t, s.Tickets().Create(ctx, pending))

	got, err := s.Tickets().GetByIDs(ctx, []uuid.UUID{pending.ID, booked.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, pending.ID, got[0].ID)
	assert.Equal(t, booked.ID, got[1].ID)
	require.NotNil(t, got[1].BookedAt)
	assert.Nil(t, got[1].CancelledAt)

	missing := uuid.New()
	_, err = s.Tickets().GetByIDs(ctx, []uuid.UUID{booked.ID, missing})
	assert.Equal(t, "Ticket with id "+missing.String()+" not found", err.Error())

	open, err := s.Tickets().ListByEvent(ctx, e.ID, domain.TicketBooked)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, booked.ID, open[0].ID)

	mine, err := s.Tickets().ListByUser(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, booked.Cancel(now))
	require.NoError(t, s.Tickets().Update(ctx, booked))
	stored, err := s.Tickets().GetByID(ctx, booked.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketCancelled, stored.State)
	assert.NotNil(t, stored.CancelledAt)
}

func TestPostgresStore_RowLockSerializesBookings(t *testing.T) {
	db := openTestDB(t)
	db.SetMaxOpenConns(10)
	s := postgres.NewStore(db)
	ctx := context.Background()

	e := testEvent("Rush", 20, 20)
	require.NoError(t, s.Events().Create(ctx, e))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithinTx(ctx, func(tx ports.Repositories) error {
				locked, err := tx.Events().GetForUpdate(ctx, e.ID)
				if err != nil {
					return err
				}
				if err := locked.Reserve(3); err != nil {
					return err
				}
				return tx.Events().Update(ctx, locked)
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, success)
	got, err := s.Events().GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableCapacity)
}
