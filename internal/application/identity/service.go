package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-ticket-auth/internal/domain"
	"github.com/go-ticket-auth/internal/infrastructure/sns"
	"github.com/go-ticket-auth/internal/pkg/audio"
)

// Provider is the slice of the speaker-recognition capability this
// orchestrator needs. Verify and Identify are decision calls and are never
// retried: a repeated attempt could change the authentication outcome.
type Provider interface {
	Verify(ctx context.Context, profileID string, sample []byte) (*domain.VerificationResult, error)
	Identify(ctx context.Context, sample []byte, profileIDs []string) (*domain.IdentificationResult, error)
}

type ProfileStore interface {
	Get(ctx context.Context, profileID string) (*domain.Profile, error)
	ListAll(ctx context.Context) ([]domain.Profile, error)
}

type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type TicketIssuer interface {
	Issue(ctx context.Context) (*domain.IssuedTicket, error)
}

// LoginResult is a successful voice login: the issued ticket plus the local
// identity the provider profile mapped to.
type LoginResult struct {
	Ticket     *domain.IssuedTicket
	UserID     string
	Confidence float64
}

type Service interface {
	// Verify runs a 1:1 comparison against one named profile. It does not
	// check enrollment status; login flows enforce that precondition.
	Verify(ctx context.Context, profileID string, sample []byte) (*domain.VerificationResult, error)
	// Identify runs a 1:N comparison. The candidate set is filtered to fully
	// enrolled profiles before the provider sees it; a non-enrolled candidate
	// would produce undefined confidence.
	Identify(ctx context.Context, sample []byte, candidateIDs []string) (*domain.IdentificationResult, error)
	// SpeechLogin identifies the speaker among all enrolled profiles and
	// issues a ticket when confidence clears the threshold.
	SpeechLogin(ctx context.Context, sample []byte) (*LoginResult, error)
	// VerifyLogin is the 1:1 variant against a known profile.
	VerifyLogin(ctx context.Context, profileID string, sample []byte) (*LoginResult, error)
}

type service struct {
	provider  Provider
	profiles  ProfileStore
	users     UserStore
	tickets   TicketIssuer
	alerts    sns.SMSSender // optional
	threshold float64
}

func NewService(provider Provider, profiles ProfileStore, users UserStore, tickets TicketIssuer, alerts sns.SMSSender, threshold float64) Service {
	return &service{
		provider:  provider,
		profiles:  profiles,
		users:     users,
		tickets:   tickets,
		alerts:    alerts,
		threshold: threshold,
	}
}

func (s *service) Verify(ctx context.Context, profileID string, sample []byte) (*domain.VerificationResult, error) {
	if err := audio.ValidatePCM16Mono(sample); err != nil {
		return nil, err
	}
	return s.provider.Verify(ctx, profileID, sample)
}

func (s *service) Identify(ctx context.Context, sample []byte, candidateIDs []string) (*domain.IdentificationResult, error) {
	if err := audio.ValidatePCM16Mono(sample); err != nil {
		return nil, err
	}

	enrolled := make([]string, 0, len(candidateIDs))
	for _, candidateID := range candidateIDs {
		p, err := s.profiles.Get(ctx, candidateID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if p.IsEnrolled() {
			enrolled = append(enrolled, p.ProfileID)
		}
	}
	if len(enrolled) == 0 {
		return nil, fmt.Errorf("no enrolled candidate profiles: %w", domain.ErrUnauthenticated)
	}
	return s.provider.Identify(ctx, sample, enrolled)
}

func (s *service) SpeechLogin(ctx context.Context, sample []byte) (*LoginResult, error) {
	profiles, err := s.profiles.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	candidates := make([]string, 0, len(profiles))
	for i := range profiles {
		candidates = append(candidates, profiles[i].ProfileID)
	}

	res, err := s.Identify(ctx, sample, candidates)
	if err != nil {
		return nil, err
	}
	if res.ProfileID == "" || res.Confidence < s.threshold {
		slog.Info("speech login below threshold", "confidence", res.Confidence, "threshold", s.threshold)
		return nil, fmt.Errorf("speaker not recognized: %w", domain.ErrUnauthenticated)
	}

	p, err := s.profiles.Get(ctx, res.ProfileID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, p.UserID, res.Confidence)
}

func (s *service) VerifyLogin(ctx context.Context, profileID string, sample []byte) (*LoginResult, error) {
	p, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !p.IsEnrolled() {
		return nil, fmt.Errorf("profile is not fully enrolled: %w", domain.ErrBadRequest)
	}

	res, err := s.Verify(ctx, profileID, sample)
	if err != nil {
		return nil, err
	}
	if !res.Accepted || res.Confidence < s.threshold {
		slog.Info("voice verification declined", "profile_id", profileID, "confidence", res.Confidence)
		return nil, fmt.Errorf("speaker not verified: %w", domain.ErrUnauthenticated)
	}
	return s.issue(ctx, p.UserID, res.Confidence)
}

// issue mints the ticket and fires the best-effort security alert.
func (s *service) issue(ctx context.Context, userID string, confidence float64) (*LoginResult, error) {
	issued, err := s.tickets.Issue(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ticket issued via voice login", "user_id", userID, "confidence", confidence)
	s.alert(ctx, userID)
	return &LoginResult{Ticket: issued, UserID: userID, Confidence: confidence}, nil
}

func (s *service) alert(ctx context.Context, userID string) {
	if s.alerts == nil {
		return
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil || u.Phone == nil {
		return
	}
	msg := "A sign-in to your account was completed using voice authentication. Contact support if this wasn't you."
	if err := s.alerts.SendSMS(ctx, *u.Phone, msg); err != nil {
		slog.Warn("could not send voice-login alert", "user_id", userID, "err", err)
	}
}
