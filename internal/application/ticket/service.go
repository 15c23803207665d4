package ticket

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-ticket-auth/internal/domain"
)

// secretLen is the number of random bytes in a ticket secret (1024 bits).
const secretLen = 128

// Repo is the durable store the service needs. Put and Get are single-item
// operations; the storage engine's own atomicity is all the locking required.
type Repo interface {
	Put(ctx context.Context, t *domain.Ticket) error
	Get(ctx context.Context, secretHash string) (*domain.Ticket, error)
}

type Service interface {
	// Issue mints a fresh bearer ticket: the hex-encoded plaintext secret goes
	// to the caller, only its SHA-256 hash is persisted.
	Issue(ctx context.Context) (*domain.IssuedTicket, error)
	// Check reports whether the presented secret matches an unexpired ticket.
	// A missing or expired ticket is a negative result, not an error; malformed
	// hex is a domain.ErrBadRequest.
	Check(ctx context.Context, encodedSecret string) (bool, error)
}

type service struct {
	repo Repo
	ttl  time.Duration
}

func NewService(repo Repo, ttl time.Duration) Service {
	return &service{repo: repo, ttl: ttl}
}

func (s *service) Issue(ctx context.Context) (*domain.IssuedTicket, error) {
	secret := make([]byte, secretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate ticket secret: %w", err)
	}
	sum := sha256.Sum256(secret)

	now := time.Now().UTC()
	expires := now.Add(s.ttl)
	t := &domain.Ticket{
		SecretHash: hex.EncodeToString(sum[:]),
		IssuedAt:   now,
		ExpiresAt:  expires,
		TTL:        expires.Unix(),
	}
	// The plaintext is only returned once the row is committed; a storage
	// failure must never hand out a ticket that cannot be validated later.
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	return &domain.IssuedTicket{
		Secret:    hex.EncodeToString(secret),
		IssuedAt:  now,
		ExpiresAt: expires,
	}, nil
}

func (s *service) Check(ctx context.Context, encodedSecret string) (bool, error) {
	raw, err := hex.DecodeString(encodedSecret)
	if err != nil {
		return false, fmt.Errorf("ticket is not valid hex: %w", domain.ErrBadRequest)
	}
	// Only the hash ever reaches storage or logs. The exact-match key lookup
	// is the comparison; there is no byte-prefix loop to leak timing.
	sum := sha256.Sum256(raw)
	t, err := s.repo.Get(ctx, hex.EncodeToString(sum[:]))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	// Lazy expiry: the row may outlive its validity window; check time decides.
	return time.Now().UTC().Before(t.ExpiresAt), nil
}
