package handler

import (
	"net/http"

	"github.com/go-ticket-auth/internal/application/ticket"
)

// CheckHandler answers ticket validity queries.
type CheckHandler struct {
	tickets ticket.Service
}

func NewCheckHandler(tickets ticket.Service) *CheckHandler {
	return &CheckHandler{tickets: tickets}
}

func (h *CheckHandler) Check(w http.ResponseWriter, r *http.Request) {
	encoded := r.URL.Query().Get("ticket")
	if encoded == "" {
		writeError(w, http.StatusBadRequest, "ticket query parameter required")
		return
	}
	ok, err := h.tickets.Check(r.Context(), encoded)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// A stale or unknown ticket is a plain negative answer, not an error.
	writeJSON(w, http.StatusOK, TicketEnvelope{Authenticated: ok})
}
