package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/srgjo27/event_booking/internal/core/services"
)

type BookTicketsRequest struct {
	Quantity int `json:"quantity"`
}

type TicketIDsRequest struct {
	TicketIDs []uuid.UUID `json:"ticket_ids"`
}

type TicketHandler struct {
	tickets *services.TicketService
	queries *services.QueryService
}

func NewTicketHandler(tickets *services.TicketService, queries *services.QueryService) *TicketHandler {
	return &TicketHandler{tickets: tickets, queries: queries}
}

// BookTickets handles POST /api/v1/events/{id}/tickets
func (h *TicketHandler) BookTickets(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req BookTicketsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	render(w, http.StatusCreated, h.tickets.BookTickets(r.Context(), UserFrom(r.Context()), eventID, req.Quantity))
}

func (h *TicketHandler) ListMyTickets(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, h.queries.ListUserTickets(r.Context(), UserFrom(r.Context())))
}

func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	render(w, http.StatusOK, h.queries.GetTicket(r.Context(), UserFrom(r.Context()), id))
}

// CancelTicket handles DELETE /api/v1/tickets/{id}
func (h *TicketHandler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	render(w, http.StatusOK, h.tickets.CancelTickets(r.Context(), UserFrom(r.Context()), []uuid.UUID{id}))
}

// CancelTickets handles POST /api/v1/tickets/cancel
func (h *TicketHandler) CancelTickets(w http.ResponseWriter, r *http.Request) {
	var req TicketIDsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	render(w, http.StatusOK, h.tickets.CancelTickets(r.Context(), UserFrom(r.Context()), req.TicketIDs))
}

// RefundTickets handles POST /api/v1/manager/events/{id}/refunds
func (h *TicketHandler) RefundTickets(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req TicketIDsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	render(w, http.StatusOK, h.tickets.RefundTickets(r.Context(), UserFrom(r.Context()), eventID, req.TicketIDs))
}
