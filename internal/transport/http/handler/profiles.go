package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-ticket-auth/internal/application/enrollment"
	"github.com/go-ticket-auth/internal/application/identity"
	"github.com/go-ticket-auth/internal/domain"
	"github.com/go-ticket-auth/internal/pkg/validate"
)

// ProfileHandler handles speaker profile lifecycle endpoints.
type ProfileHandler struct {
	enrollment enrollment.Service
	identity   identity.Service
}

func NewProfileHandler(enrollmentSvc enrollment.Service, identitySvc identity.Service) *ProfileHandler {
	return &ProfileHandler{enrollment: enrollmentSvc, identity: identitySvc}
}

type createProfileRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Locale string `json:"locale" validate:"required"`
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.enrollment.CreateProfile(r.Context(), req.UserID, req.Locale)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ProfileEnvelope{
		ProfileID:        p.ProfileID,
		EnrollmentStatus: p.EnrollmentStatus,
	})
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id query parameter required")
		return
	}
	profiles, err := h.enrollment.ListProfiles(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *ProfileHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")
	sample, ok := readSample(w, r)
	if !ok {
		return
	}
	remaining, err := h.enrollment.Enroll(r.Context(), profileID, sample)
	if err != nil {
		// A rejected sample still reports how many attempts remain.
		if errors.Is(err, domain.ErrBadRequest) {
			writeJSON(w, http.StatusBadRequest, EnrollmentEnvelope{
				RemainingAttempts: remaining,
				Error:             err.Error(),
			})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EnrollmentEnvelope{
		RemainingAttempts: remaining,
		EnrollmentStatus:  enrollStatus(remaining),
	})
}

func (h *ProfileHandler) Verify(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")
	sample, ok := readSample(w, r)
	if !ok {
		return
	}
	result, err := h.identity.VerifyLogin(r.Context(), profileID, sample)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			writeJSON(w, http.StatusUnauthorized, VerifyEnvelope{
				Result:         "Reject",
				TicketEnvelope: TicketEnvelope{Authenticated: false},
			})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{
		Result:         "Accept",
		Confidence:     result.Confidence,
		TicketEnvelope: ticketEnvelope(result.Ticket),
	})
}

func enrollStatus(remaining int) string {
	switch remaining {
	case 0:
		return domain.EnrollmentEnrolled
	case domain.RequiredEnrollments:
		return domain.EnrollmentNotEnrolled
	default:
		return domain.EnrollmentEnrolling
	}
}
