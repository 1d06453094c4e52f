package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srgjo27/event_booking/internal/adapter/cache"
	"github.com/srgjo27/event_booking/internal/adapter/handler"
	"github.com/srgjo27/event_booking/internal/adapter/publisher"
	"github.com/srgjo27/event_booking/internal/adapter/repository/memory"
	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/services"
)

const (
	secret = "test-secret"
	issuer = "event-booking"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func newServer(t *testing.T) http.Handler {
	t.Helper()

	store := memory.NewStore()
	log := zap.NewNop()
	clock := services.WithClock(func() time.Time { return now })

	events := services.NewEventService(store, cache.Noop{}, publisher.Noop{}, log, clock)
	tickets := services.NewTicketService(store, cache.Noop{}, publisher.Noop{}, log, clock)
	queries := services.NewQueryService(store, cache.Noop{}, log, clock)

	return handler.NewRouter(
		handler.NewEventHandler(events, queries),
		handler.NewTicketHandler(tickets, queries),
		handler.NewAuthenticator(secret, issuer),
		log,
	)
}

func token(t *testing.T, id uuid.UUID, role domain.Role, iss string) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        id.String(),
		"iss":        iss,
		"email":      "someone@example.com",
		"first_name": "Sam",
		"last_name":  "Doe",
		"role":       string(role),
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func do(t *testing.T, srv http.Handler, method, path, bearer string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func eventBody(name string) map[string]any {
	start := now.Add(30 * 24 * time.Hour)
	return map[string]any{
		"name":           name,
		"description":    "Live on the pier",
		"location":       "Pier 39",
		"start_time":     start.Format(time.RFC3339),
		"end_time":       start.Add(3 * time.Hour).Format(time.RFC3339),
		"total_capacity": 10,
		"unit_price":     2500,
		"currency":       "EUR",
	}
}

func TestRouter_Health(t *testing.T) {
	srv := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_BookingFlow(t *testing.T) {
	srv := newServer(t)
	manager := token(t, uuid.New(), domain.RoleManager, issuer)
	buyerID := uuid.New()
	buyer := token(t, buyerID, domain.RoleCustomer, issuer)

	rec, env := do(t, srv, http.MethodPost, "/api/v1/manager/events", manager, eventBody("Harbor Nights"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var event domain.Event
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Equal(t, 10, event.AvailableCapacity)
	assert.Equal(t, domain.CurrencyEUR, event.Currency)

	rec, env = do(t, srv, http.MethodPost, "/api/v1/events/"+event.ID.String()+"/tickets", buyer, map[string]int{"quantity": 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var booked []domain.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &booked))
	require.Len(t, booked, 3)
	assert.Equal(t, buyerID, booked[0].UserID)
	assert.Equal(t, domain.TicketBooked, booked[0].State)

	rec, env = do(t, srv, http.MethodGet, "/api/v1/events/"+event.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Equal(t, 7, event.AvailableCapacity)

	rec, env = do(t, srv, http.MethodGet, "/api/v1/tickets", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []domain.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	assert.Len(t, mine, 3)

	rec, _ = do(t, srv, http.MethodDelete, "/api/v1/tickets/"+booked[0].ID.String(), buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = do(t, srv, http.MethodPost, "/api/v1/tickets/cancel", buyer,
		map[string][]uuid.UUID{"ticket_ids": {booked[1].ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = do(t, srv, http.MethodPost, "/api/v1/manager/events/"+event.ID.String()+"/refunds", manager,
		map[string][]uuid.UUID{"ticket_ids": {booked[2].ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = do(t, srv, http.MethodGet, "/api/v1/manager/events/"+event.ID.String()+"/tickets", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view []domain.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &view))
	states := map[domain.TicketState]int{}
	for _, tk := range view {
		states[tk.State]++
	}
	assert.Equal(t, map[domain.TicketState]int{domain.TicketCancelled: 2, domain.TicketRefunded: 1}, states)

	rec, env = do(t, srv, http.MethodGet, "/api/v1/events/"+event.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Equal(t, 10, event.AvailableCapacity)
}

func TestRouter_FailureStatuses(t *testing.T) {
	srv := newServer(t)
	managerID := uuid.New()
	manager := token(t, managerID, domain.RoleManager, issuer)
	buyer := token(t, uuid.New(), domain.RoleCustomer, issuer)

	rec, env := do(t, srv, http.MethodPost, "/api/v1/manager/events", manager, eventBody("Quay Sessions"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var event domain.Event
	require.NoError(t, json.Unmarshal(env.Data, &event))
	eventPath := "/api/v1/events/" + event.ID.String()

	tests := []struct {
		name    string
		method  string
		path    string
		bearer  string
		body    any
		status  int
		message string
	}{
		{"customer creates event", http.MethodPost, "/api/v1/manager/events", buyer, eventBody("Nope"), http.StatusForbidden, domain.MsgNotAuthorizedCreateEvent},
		{"duplicate name", http.MethodPost, "/api/v1/manager/events", manager, eventBody("quay sessions"), http.StatusUnprocessableEntity, domain.MsgNameTaken},
		{"overbooking", http.MethodPost, eventPath + "/tickets", buyer, map[string]int{"quantity": 11}, http.StatusUnprocessableEntity, domain.MsgNotEnoughTickets},
		{"zero quantity", http.MethodPost, eventPath + "/tickets", buyer, map[string]int{"quantity": 0}, http.StatusUnprocessableEntity, domain.MsgTicketCount},
		{"unknown event", http.MethodGet, "/api/v1/events/" + uuid.Nil.String(), "", nil, http.StatusNotFound, "Event with id " + uuid.Nil.String() + " not found"},
		{"finish too early", http.MethodPost, "/api/v1/manager/events/" + event.ID.String() + "/finish", manager, nil, http.StatusConflict, "Cannot finish event before its end time"},
		{"empty cancel batch", http.MethodPost, "/api/v1/tickets/cancel", buyer, map[string][]uuid.UUID{"ticket_ids": {}}, http.StatusUnprocessableEntity, domain.MsgNoTickets},
		{"malformed id", http.MethodGet, "/api/v1/events/not-a-uuid", "", nil, http.StatusBadRequest, "Invalid id"},
		{"unknown body field", http.MethodPost, eventPath + "/tickets", buyer, map[string]int{"qty": 1}, http.StatusBadRequest, "Invalid request body"},
		{"missing token", http.MethodGet, "/api/v1/tickets", "", nil, http.StatusUnauthorized, "Authentication required"},
		{"garbage token", http.MethodGet, "/api/v1/tickets", "abc.def.ghi", nil, http.StatusUnauthorized, "Invalid or expired token"},
		{"foreign issuer", http.MethodGet, "/api/v1/tickets", token(t, uuid.New(), domain.RoleCustomer, "someone-else"), nil, http.StatusUnauthorized, "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, srv, tt.method, tt.path, tt.bearer, tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			assert.Equal(t, []string{tt.message}, env.Errors)
		})
	}

	rec, env = do(t, srv, http.MethodDelete, "/api/v1/manager/events/"+event.ID.String(), manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = do(t, srv, http.MethodDelete, "/api/v1/manager/events/"+event.ID.String(), manager, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{domain.MsgEventNotCancelable}, env.Errors)
}

func TestRouter_ListEventsFilters(t *testing.T) {
	srv := newServer(t)
	manager := token(t, uuid.New(), domain.RoleManager, issuer)

	for _, name := range []string{"Harbor Nights", "Dockside Jazz"} {
		rec, _ := do(t, srv, http.MethodPost, "/api/v1/manager/events", manager, eventBody(name))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, env := do(t, srv, http.MethodGet, "/api/v1/events?name=jazz&upcoming=true&available=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []domain.Event
	require.NoError(t, json.Unmarshal(env.Data, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Dockside Jazz", events[0].Name)

	rec, env = do(t, srv, http.MethodGet, "/api/v1/events?state=cancelled", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Empty(t, env.Errors)
}
