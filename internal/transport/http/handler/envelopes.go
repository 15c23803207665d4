package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-ticket-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TicketEnvelope wraps every authentication outcome. On a negative outcome
// only Authenticated and Error are populated; the ticket fields must never
// appear alongside authenticated:false.
type TicketEnvelope struct {
	Ticket        string     `json:"ticket,omitempty"`
	Issued        *time.Time `json:"issued,omitempty"`
	Expires       *time.Time `json:"expires,omitempty"`
	Authenticated bool       `json:"authenticated"`
	Error         string     `json:"error,omitempty"`
}

// VerifyEnvelope wraps 1:1 voice verification responses.
type VerifyEnvelope struct {
	Result     string  `json:"result"`
	Confidence float64 `json:"confidence"`
	TicketEnvelope
}

// ProfileEnvelope wraps profile creation responses.
type ProfileEnvelope struct {
	ProfileID        string `json:"profile_id"`
	EnrollmentStatus string `json:"enrollment_status"`
}

// EnrollmentEnvelope wraps enrollment sample responses.
type EnrollmentEnvelope struct {
	RemainingAttempts int    `json:"remaining_attempts"`
	EnrollmentStatus  string `json:"enrollment_status,omitempty"`
	Error             string `json:"error,omitempty"`
}

func ticketEnvelope(t *domain.IssuedTicket) TicketEnvelope {
	return TicketEnvelope{
		Ticket:        t.Secret,
		Issued:        &t.IssuedAt,
		Expires:       &t.ExpiresAt,
		Authenticated: true,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// statusFor maps domain sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError maps the error to a status and writes the generic envelope.
// Authentication failures instead get the uniform negative ticket envelope so
// the response shape does not leak which check failed.
func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusUnauthorized {
		writeJSON(w, status, TicketEnvelope{Authenticated: false, Error: "authentication failed"})
		return
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Infrastructure details are never echoed to clients.
		msg = "internal error"
	}
	writeError(w, status, msg)
}
