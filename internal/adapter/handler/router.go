package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(events *EventHandler, tickets *TicketHandler, auth *Authenticator, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))

	r.Get("/health", HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", events.ListEvents)
		r.Get("/events/{id}", events.GetEvent)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Post("/events/{id}/tickets", tickets.BookTickets)

			r.Route("/tickets", func(r chi.Router) {
				r.Get("/", tickets.ListMyTickets)
				r.Post("/cancel", tickets.CancelTickets)
				r.Get("/{id}", tickets.GetTicket)
				r.Delete("/{id}", tickets.CancelTicket)
			})

			r.Route("/manager/events", func(r chi.Router) {
				r.Post("/", events.CreateEvent)
				r.Patch("/{id}", events.UpdateEvent)
				r.Delete("/{id}", events.CancelEvent)
				r.Post("/{id}/finish", events.FinishEvent)
				r.Get("/{id}/tickets", events.ListEventTickets)
				r.Post("/{id}/refunds", tickets.RefundTickets)
			})
		})
	})

	return r
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
