package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-ticket-auth/internal/domain"
	"github.com/go-ticket-auth/internal/infrastructure/speaker"
	"github.com/go-ticket-auth/internal/pkg/audio"
	"github.com/go-ticket-auth/internal/pkg/id"
)

// Provider is the slice of the speaker-recognition capability this
// coordinator needs.
type Provider interface {
	CreateProfile(ctx context.Context, locale string) (string, error)
	Enroll(ctx context.Context, profileID string, sample []byte) (*speaker.EnrollOutcome, error)
}

type ProfileStore interface {
	Put(ctx context.Context, p *domain.Profile) error
	Get(ctx context.Context, profileID string) (*domain.Profile, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Profile, error)
	Update(ctx context.Context, profileID string, updates map[string]interface{}) error
}

// AudioRetainer keeps accepted samples for fraud review. Optional; retention
// failures never affect the enrollment outcome.
type AudioRetainer interface {
	PutAudio(ctx context.Context, key string, sample []byte) (string, error)
}

type Service interface {
	// CreateProfile allocates a provider-side profile and records it locally
	// with zero enrollments.
	CreateProfile(ctx context.Context, userID, locale string) (*domain.Profile, error)
	// Enroll submits one voice sample. It returns how many accepted samples
	// are still required; a profile transitions to enrolled on the third
	// acceptance and further calls are a conflict.
	Enroll(ctx context.Context, profileID string, sample []byte) (remaining int, err error)
	// ListProfiles returns the profiles registered for a user.
	ListProfiles(ctx context.Context, userID string) ([]domain.Profile, error)
}

type service struct {
	provider Provider
	profiles ProfileStore
	retainer AudioRetainer
	// rejectedCounts selects the strict attempt accounting: when true, a
	// provider-rejected sample burns one of the three attempts and exhausting
	// the budget restarts the enrollment from zero.
	rejectedCounts bool
}

func NewService(provider Provider, profiles ProfileStore, retainer AudioRetainer, rejectedCounts bool) Service {
	return &service{
		provider:       provider,
		profiles:       profiles,
		retainer:       retainer,
		rejectedCounts: rejectedCounts,
	}
}

func (s *service) CreateProfile(ctx context.Context, userID, locale string) (*domain.Profile, error) {
	profileID, err := s.provider.CreateProfile(ctx, locale)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &domain.Profile{
		ProfileID:        profileID,
		UserID:           userID,
		Locale:           locale,
		EnrollmentCount:  0,
		EnrollmentStatus: domain.EnrollmentNotEnrolled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.profiles.Put(ctx, p); err != nil {
		return nil, err
	}
	slog.Info("speaker profile created", "profile_id", profileID, "user_id", userID, "locale", locale)
	return p, nil
}

func (s *service) ListProfiles(ctx context.Context, userID string) ([]domain.Profile, error) {
	return s.profiles.ListByUser(ctx, userID)
}

func (s *service) Enroll(ctx context.Context, profileID string, sample []byte) (int, error) {
	if err := audio.ValidatePCM16Mono(sample); err != nil {
		return 0, err
	}
	p, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		return 0, err
	}
	if p.IsEnrolled() {
		return 0, fmt.Errorf("profile already enrolled: %w", domain.ErrConflict)
	}

	out, err := s.provider.Enroll(ctx, profileID, sample)
	if err != nil {
		return p.RemainingEnrollments(), err
	}
	if !out.Accepted {
		return s.handleRejection(ctx, p, out.Reason)
	}

	p.EnrollmentCount++
	p.AttemptsUsed++
	p.EnrollmentStatus = domain.EnrollmentEnrolling
	if p.EnrollmentCount == domain.RequiredEnrollments {
		p.EnrollmentStatus = domain.EnrollmentEnrolled
	}
	if s.rejectedCounts && p.AttemptsUsed >= domain.RequiredEnrollments && p.EnrollmentCount < domain.RequiredEnrollments {
		// Earlier rejections burned the budget; this acceptance cannot complete
		// the enrollment, so it restarts instead.
		p.EnrollmentCount = 0
		p.AttemptsUsed = 0
		p.EnrollmentStatus = domain.EnrollmentNotEnrolled
		slog.Warn("enrollment attempt budget exhausted, restarting", "profile_id", p.ProfileID)
	}
	if err := s.profiles.Update(ctx, p.ProfileID, map[string]interface{}{
		"enrollment_count":  p.EnrollmentCount,
		"attempts_used":     p.AttemptsUsed,
		"enrollment_status": p.EnrollmentStatus,
	}); err != nil {
		return p.RemainingEnrollments(), err
	}

	s.retain(ctx, p, sample)
	slog.Info("enrollment sample accepted",
		"profile_id", p.ProfileID, "count", p.EnrollmentCount, "status", p.EnrollmentStatus)
	return p.RemainingEnrollments(), nil
}

// handleRejection applies the pinned rejected-sample semantics. The default
// leaves state untouched; the attempt budget only moves when rejectedCounts
// is set.
func (s *service) handleRejection(ctx context.Context, p *domain.Profile, reason string) (int, error) {
	rejErr := fmt.Errorf("sample rejected: %s: %w", reason, domain.ErrBadRequest)
	if !s.rejectedCounts {
		return p.RemainingEnrollments(), rejErr
	}

	p.AttemptsUsed++
	updates := map[string]interface{}{"attempts_used": p.AttemptsUsed}
	if p.AttemptsUsed >= domain.RequiredEnrollments && p.EnrollmentCount < domain.RequiredEnrollments {
		// Budget exhausted without three accepted samples: enrollment restarts.
		p.EnrollmentCount = 0
		p.AttemptsUsed = 0
		p.EnrollmentStatus = domain.EnrollmentNotEnrolled
		updates = map[string]interface{}{
			"enrollment_count":  0,
			"attempts_used":     0,
			"enrollment_status": domain.EnrollmentNotEnrolled,
		}
		slog.Warn("enrollment attempt budget exhausted, restarting", "profile_id", p.ProfileID)
	}
	if err := s.profiles.Update(ctx, p.ProfileID, updates); err != nil {
		return p.RemainingEnrollments(), err
	}
	return p.RemainingEnrollments(), rejErr
}

func (s *service) retain(ctx context.Context, p *domain.Profile, sample []byte) {
	if s.retainer == nil {
		return
	}
	key := fmt.Sprintf("profiles/%s/%s.wav", p.ProfileID, id.New())
	if _, err := s.retainer.PutAudio(ctx, key, sample); err != nil {
		slog.Warn("could not retain enrollment sample", "profile_id", p.ProfileID, "err", err)
	}
}
