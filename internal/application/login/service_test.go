package login

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-ticket-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTicketIssuer struct{ mock.Mock }

func (m *mockTicketIssuer) Issue(ctx context.Context) (*domain.IssuedTicket, error) {
	args := m.Called(ctx)
	if t, _ := args.Get(0).(*domain.IssuedTicket); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func enabledUser(t *testing.T, password string) *domain.User {
	t.Helper()
	return &domain.User{
		UserID:       "u1",
		Email:        "user@bank.com",
		PasswordHash: hashOf(t, password),
		Enable:       true,
	}
}

// --- tests ---

func TestLogin_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	ti := &mockTicketIssuer{}

	us.On("GetByEmail", mock.Anything, "user@bank.com").Return(enabledUser(t, "correct"), nil)
	issued := &domain.IssuedTicket{
		Secret:    "deadbeef",
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	}
	ti.On("Issue", mock.Anything).Return(issued, nil)

	svc := NewService(us, ti)
	got, err := svc.Login(context.Background(), LoginRequest{Email: "user@bank.com", Password: "correct"})

	require.NoError(t, err)
	assert.Equal(t, issued, got)
	ti.AssertExpectations(t)
}

func TestLogin_WrongPassword_NoTicket(t *testing.T) {
	us := &mockUserStore{}
	ti := &mockTicketIssuer{}
	us.On("GetByEmail", mock.Anything, "user@bank.com").Return(enabledUser(t, "correct"), nil)

	svc := NewService(us, ti)
	got, err := svc.Login(context.Background(), LoginRequest{Email: "user@bank.com", Password: "wrong"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
	assert.Nil(t, got)
	ti.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestLogin_UnknownEmail_SameErrorAsWrongPassword(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "nobody@bank.com").Return(nil, fmt.Errorf("user not found: %w", domain.ErrNotFound))
	us.On("GetByEmail", mock.Anything, "user@bank.com").Return(enabledUser(t, "correct"), nil)

	svc := NewService(us, &mockTicketIssuer{})
	_, errUnknown := svc.Login(context.Background(), LoginRequest{Email: "nobody@bank.com", Password: "whatever"})
	_, errWrongPw := svc.Login(context.Background(), LoginRequest{Email: "user@bank.com", Password: "wrong"})

	// Neither error may reveal which half of the pair failed.
	require.Error(t, errUnknown)
	require.Error(t, errWrongPw)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestLogin_DisabledAccount_Unauthenticated(t *testing.T) {
	us := &mockUserStore{}
	u := enabledUser(t, "correct")
	u.Enable = false
	us.On("GetByEmail", mock.Anything, "user@bank.com").Return(u, nil)

	svc := NewService(us, &mockTicketIssuer{})
	_, err := svc.Login(context.Background(), LoginRequest{Email: "user@bank.com", Password: "correct"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestLogin_StorageFault_IsNotUnauthenticated(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "user@bank.com").Return(nil, fmt.Errorf("query user: %w", domain.ErrStorage))

	svc := NewService(us, &mockTicketIssuer{})
	_, err := svc.Login(context.Background(), LoginRequest{Email: "user@bank.com", Password: "correct"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))
	assert.False(t, errors.Is(err, domain.ErrUnauthenticated))
}
