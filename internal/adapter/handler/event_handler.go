package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/ports"
	"github.com/srgjo27/event_booking/internal/core/services"
)

type EventHandler struct {
	events  *services.EventService
	queries *services.QueryService
}

func NewEventHandler(events *services.EventService, queries *services.QueryService) *EventHandler {
	return &EventHandler{events: events, queries: queries}
}

// ListEvents handles GET /api/v1/events?state=&name=&location=&upcoming=&available=
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ports.EventFilter{
		State:    domain.EventState(q.Get("state")),
		Name:     q.Get("name"),
		Location: q.Get("location"),
	}
	filter.Upcoming, _ = strconv.ParseBool(q.Get("upcoming"))
	filter.WithAvailable, _ = strconv.ParseBool(q.Get("available"))

	render(w, http.StatusOK, h.queries.ListEvents(r.Context(), filter))
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	render(w, http.StatusOK, h.queries.GetEvent(r.Context(), id))
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var params domain.EventParams
	if err := decodeJSON(w, r, &params); err != nil {
		renderError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	render(w, http.StatusCreated, h.events.CreateEvent(r.Context(), UserFrom(r.Context()), params))
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var params domain.EventParams
	if err := decodeJSON(w, r, &params); err != nil {
		renderError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	render(w, http.StatusOK, h.events.UpdateEvent(r.Context(), UserFrom(r.Context()), id, params))
}

func (h *EventHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	render(w, http.StatusOK, h.events.CancelEvent(r.Context(), UserFrom(r.Context()), id))
}

func (h *EventHandler) FinishEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	render(w, http.StatusOK, h.events.FinishEvent(r.Context(), UserFrom(r.Context()), id))
}

// ListEventTickets is the manager view of an event's tickets.
func (h *EventHandler) ListEventTickets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	render(w, http.StatusOK, h.queries.ListEventTickets(r.Context(), UserFrom(r.Context()), id))
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, http.StatusBadRequest, msgInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
