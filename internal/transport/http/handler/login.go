package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-ticket-auth/internal/application/identity"
	"github.com/go-ticket-auth/internal/application/login"
	"github.com/go-ticket-auth/internal/pkg/validate"
)

// maxSampleBytes caps the accepted voice sample body. 10 MiB is roughly five
// minutes of PCM/16k/16-bit/mono audio, far beyond any legitimate utterance.
const maxSampleBytes = 10 << 20

// LoginHandler handles both login endpoints: text (email/password) and
// speech (voice identification).
type LoginHandler struct {
	credentials login.Service
	identity    identity.Service
}

func NewLoginHandler(credentials login.Service, identitySvc identity.Service) *LoginHandler {
	return &LoginHandler{credentials: credentials, identity: identitySvc}
}

func (h *LoginHandler) Text(w http.ResponseWriter, r *http.Request) {
	var req login.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	issued, err := h.credentials.Login(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticketEnvelope(issued))
}

func (h *LoginHandler) Speech(w http.ResponseWriter, r *http.Request) {
	sample, ok := readSample(w, r)
	if !ok {
		return
	}
	result, err := h.identity.SpeechLogin(r.Context(), sample)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticketEnvelope(result.Ticket))
}

// readSample drains the request body under the sample size cap. A false
// return means the error response has already been written.
func readSample(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	sample, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSampleBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read audio body")
		return nil, false
	}
	if len(sample) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio body")
		return nil, false
	}
	return sample, true
}
