package enrollment

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/go-ticket-auth/internal/domain"
	"github.com/go-ticket-auth/internal/infrastructure/speaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks and fakes ---

type mockProvider struct{ mock.Mock }

func (m *mockProvider) CreateProfile(ctx context.Context, locale string) (string, error) {
	args := m.Called(ctx, locale)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) Enroll(ctx context.Context, profileID string, sample []byte) (*speaker.EnrollOutcome, error) {
	args := m.Called(ctx, profileID, sample)
	if out, _ := args.Get(0).(*speaker.EnrollOutcome); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeProfileStore keeps profile state across Enroll calls so the state
// machine can be exercised end to end.
type fakeProfileStore struct {
	profiles map[string]*domain.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*domain.Profile)}
}

func (f *fakeProfileStore) Put(_ context.Context, p *domain.Profile) error {
	cp := *p
	f.profiles[p.ProfileID] = &cp
	return nil
}

func (f *fakeProfileStore) Get(_ context.Context, profileID string) (*domain.Profile, error) {
	p, ok := f.profiles[profileID]
	if !ok {
		return nil, fmt.Errorf("profile not found: %w", domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) ListByUser(_ context.Context, userID string) ([]domain.Profile, error) {
	var out []domain.Profile
	for _, p := range f.profiles {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProfileStore) Update(_ context.Context, profileID string, updates map[string]interface{}) error {
	p, ok := f.profiles[profileID]
	if !ok {
		return fmt.Errorf("profile not found: %w", domain.ErrNotFound)
	}
	if v, ok := updates["enrollment_count"]; ok {
		p.EnrollmentCount = v.(int)
	}
	if v, ok := updates["attempts_used"]; ok {
		p.AttemptsUsed = v.(int)
	}
	if v, ok := updates["enrollment_status"]; ok {
		p.EnrollmentStatus = v.(string)
	}
	return nil
}

type mockRetainer struct{ mock.Mock }

func (m *mockRetainer) PutAudio(ctx context.Context, key string, sample []byte) (string, error) {
	args := m.Called(ctx, key, sample)
	return args.String(0), args.Error(1)
}

// --- helpers ---

// validWAV builds a minimal PCM/16k/16-bit/mono WAV sample.
func validWAV() []byte {
	var buf bytes.Buffer
	data := make([]byte, 320)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(4+8+16+8+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))     // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1))     // mono
	binary.Write(&buf, binary.LittleEndian, uint32(16000)) // 16 kHz
	binary.Write(&buf, binary.LittleEndian, uint32(32000))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // 16 bit
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func seedProfile(store *fakeProfileStore) {
	store.profiles["prof-1"] = &domain.Profile{
		ProfileID:        "prof-1",
		UserID:           "u1",
		Locale:           "en-us",
		EnrollmentStatus: domain.EnrollmentNotEnrolled,
	}
}

func acceptingProvider() *mockProvider {
	p := &mockProvider{}
	p.On("Enroll", mock.Anything, "prof-1", mock.Anything).Return(&speaker.EnrollOutcome{Accepted: true}, nil)
	return p
}

// --- CreateProfile ---

func TestCreateProfile_HappyPath(t *testing.T) {
	provider := &mockProvider{}
	provider.On("CreateProfile", mock.Anything, "en-us").Return("prof-9", nil)
	store := newFakeProfileStore()

	svc := NewService(provider, store, nil, false)
	p, err := svc.CreateProfile(context.Background(), "u1", "en-us")

	require.NoError(t, err)
	assert.Equal(t, "prof-9", p.ProfileID)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, domain.EnrollmentNotEnrolled, p.EnrollmentStatus)
	assert.Equal(t, 0, p.EnrollmentCount)
	assert.Contains(t, store.profiles, "prof-9")
}

func TestCreateProfile_ProviderFault(t *testing.T) {
	provider := &mockProvider{}
	provider.On("CreateProfile", mock.Anything, "en-us").
		Return("", fmt.Errorf("provider returned 503: %w", domain.ErrProvider))

	svc := NewService(provider, newFakeProfileStore(), nil, false)
	_, err := svc.CreateProfile(context.Background(), "u1", "en-us")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProvider))
}

// --- Enroll state machine ---

func TestEnroll_ThreeAcceptedSamples_ReachEnrolled(t *testing.T) {
	store := newFakeProfileStore()
	seedProfile(store)
	svc := NewService(acceptingProvider(), store, nil, false)

	// remaining_attempts must decrease monotonically: 2, 1, 0.
	for i, want := range []int{2, 1, 0} {
		remaining, err := svc.Enroll(context.Background(), "prof-1", validWAV())
		require.NoError(t, err, "sample %d", i+1)
		assert.Equal(t, want, remaining)
	}

	p := store.profiles["prof-1"]
	assert.Equal(t, 3, p.EnrollmentCount)
	assert.Equal(t, domain.EnrollmentEnrolled, p.EnrollmentStatus)
}

func TestEnroll_FewerThanThree_NotTerminal(t *testing.T) {
	store := newFakeProfileStore()
	seedProfile(store)
	svc := NewService(acceptingProvider(), store, nil, false)

	_, err := svc.Enroll(context.Background(), "prof-1", validWAV())
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), "prof-1", validWAV())
	require.NoError(t, err)

	p := store.profiles["prof-1"]
	assert.Equal(t, domain.EnrollmentEnrolling, p.EnrollmentStatus)
	assert.False(t, p.IsEnrolled())
}

func TestEnroll_EnrolledIsTerminal(t *testing.T) {
	store := newFakeProfileStore()
	seedProfile(store)
	store.profiles["prof-1"].EnrollmentCount = 3
	store.profiles["prof-1"].EnrollmentStatus = domain.EnrollmentEnrolled

	svc := NewService(acceptingProvider(), store, nil, false)
	_, err := svc.Enroll(context.Background(), "prof-1", validWAV())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

// --- rejected-sample semantics (pinned) ---

func TestEnroll_RejectedSample_DefaultDoesNotConsumeAttempt(t *testing.T) {
	store := newFakeProfileStore()
	seedProfile(store)
	provider := &mockProvider{}
	provider.On("Enroll", mock.Anything, "prof-1", mock.Anything).
		Return(&speaker.EnrollOutcome{Accepted: false, Reason: "too noisy"}, nil).Twice()
	provider.On("Enroll", mock.Anything, "prof-1", mock.Anything).
		Return(&speaker.EnrollOutcome{Accepted: true}, nil)

	svc := NewService(provider, store, nil, false)

	// Two rejections leave the profile untouched.
	for i := 0; i < 2; i++ {
		remaining, err := svc.Enroll(context.Background(), "prof-1", validWAV())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrBadRequest))
		assert.Equal(t, 3, remaining)
	}
	assert.Equal(t, 0, store.profiles["prof-1"].EnrollmentCount)

	// An accepted sample still counts as the first of three.
	remaining, err := svc.Enroll(context.Background(), "prof-1", validWAV())
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestEnroll_RejectedSample_FlagConsumesAttemptAndRestarts(t *testing.T) {
	store := newFakeProfileStore()
	seedProfile(store)
	provider := &mockProvider{}
	provider.On("Enroll", mock.Anything, "prof-1", mock.Anything).
		Return(&speaker.EnrollOutcome{Accepted: false, Reason: "too noisy"}, nil)

	svc := NewService(provider, store, nil, true)

	for i := 0; i < 2; i++ {
		_, err := svc.Enroll(context.Background(), "prof-1", validWAV())
		require.Error(t, err)
	}
	assert.Equal(t, 2, store.profiles["prof-1"].AttemptsUsed)

	// Third rejection exhausts the budget and restarts enrollment from zero.
	_, err := svc.Enroll(context.Background(), "prof-1", validWAV())
	require.Error(t, err)
	p := store.profiles["prof-1"]
	assert.Equal(t, 0, p.AttemptsUsed)
	assert.Equal(t, 0, p.EnrollmentCount)
	assert.Equal(t, domain.EnrollmentNotEnrolled, p.EnrollmentStatus)
}

// --- input validation and retention ---

func TestEnroll_BadAudio_ProviderNeverCalled(t *testing.T) {
	store := newFakeProfileStore()
	seedProfile(store)
	provider := &mockProvider{}

	svc := NewService(provider, store, nil, false)
	_, err := svc.Enroll(context.Background(), "prof-1", []byte("mp3 garbage"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	provider.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnroll_UnknownProfile(t *testing.T) {
	svc := NewService(&mockProvider{}, newFakeProfileStore(), nil, false)
	_, err := svc.Enroll(context.Background(), "ghost", validWAV())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestEnroll_AcceptedSampleIsRetained(t *testing.T) {
	store := newFakeProfileStore()
	seedProfile(store)
	retainer := &mockRetainer{}
	retainer.On("PutAudio", mock.Anything, mock.Anything, mock.Anything).Return("s3://bucket/key", nil)

	svc := NewService(acceptingProvider(), store, retainer, false)
	_, err := svc.Enroll(context.Background(), "prof-1", validWAV())

	require.NoError(t, err)
	retainer.AssertExpectations(t)
}

func TestEnroll_RetentionFailureDoesNotFailEnrollment(t *testing.T) {
	store := newFakeProfileStore()
	seedProfile(store)
	retainer := &mockRetainer{}
	retainer.On("PutAudio", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("bucket gone"))

	svc := NewService(acceptingProvider(), store, retainer, false)
	remaining, err := svc.Enroll(context.Background(), "prof-1", validWAV())

	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}
