package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-ticket-auth/internal/domain"
)

// TicketChecker validates a presented bearer ticket.
type TicketChecker interface {
	Check(ctx context.Context, encodedSecret string) (bool, error)
}

// TicketAuth returns middleware that requires a valid bearer ticket in the
// Authorization header. Tickets are opaque: there are no claims to inject,
// a valid ticket simply lets the request through.
func TicketAuth(checker TicketChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			encoded := strings.TrimPrefix(authHeader, "Bearer ")
			ok, err := checker.Check(r.Context(), encoded)
			if err != nil {
				if errors.Is(err, domain.ErrBadRequest) {
					writeJSONError(w, http.StatusUnauthorized, "invalid ticket")
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired ticket")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
