package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-ticket-auth/internal/domain"
	"github.com/stretchr/testify/assert"
)

type stubTicketService struct {
	issued *domain.IssuedTicket
	valid  bool
	err    error
}

func (s *stubTicketService) Issue(_ context.Context) (*domain.IssuedTicket, error) {
	return s.issued, s.err
}

func (s *stubTicketService) Check(_ context.Context, _ string) (bool, error) {
	return s.valid, s.err
}

func TestCheck_ValidTicket(t *testing.T) {
	h := NewCheckHandler(&stubTicketService{valid: true})
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/check?ticket=deadbeef", nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Authenticated)
}

func TestCheck_UnknownOrExpiredTicket_Is200False(t *testing.T) {
	h := NewCheckHandler(&stubTicketService{valid: false})
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/check?ticket=deadbeef", nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Authenticated)
}

func TestCheck_MalformedHexIs400(t *testing.T) {
	svc := &stubTicketService{err: fmt.Errorf("ticket is not valid hex: %w", domain.ErrBadRequest)}
	h := NewCheckHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/check?ticket=zzzz", nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheck_MissingParameter(t *testing.T) {
	h := NewCheckHandler(&stubTicketService{})
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/check", nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheck_StorageFaultIs500(t *testing.T) {
	svc := &stubTicketService{err: fmt.Errorf("get ticket: %w", domain.ErrStorage)}
	h := NewCheckHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/check?ticket=deadbeef", nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
