package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-ticket-auth/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserStore is the external credential-check capability. This service never
// owns credential storage, it only consumes lookups.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type TicketIssuer interface {
	Issue(ctx context.Context) (*domain.IssuedTicket, error)
}

type Service interface {
	// Login validates the email/password pair and issues a ticket on success.
	// Every authentication failure collapses to the same error so the response
	// cannot reveal whether the email or the password was wrong.
	Login(ctx context.Context, req LoginRequest) (*domain.IssuedTicket, error)
}

type service struct {
	users   UserStore
	tickets TicketIssuer
}

func NewService(users UserStore, tickets TicketIssuer) Service {
	return &service{users: users, tickets: tickets}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*domain.IssuedTicket, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthenticated)
		}
		return nil, err
	}
	if !u.Enable {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthenticated)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthenticated)
	}

	issued, err := s.tickets.Issue(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ticket issued via password login", "user_id", u.UserID)
	return issued, nil
}
