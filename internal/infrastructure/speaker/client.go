package speaker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-ticket-auth/internal/config"
	"github.com/go-ticket-auth/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

// EnrollOutcome is the provider's verdict on a single enrollment sample.
type EnrollOutcome struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Client talks to the external speaker-recognition provider. It exchanges the
// subscription key for a short-lived JWT access token, paces outbound calls to
// stay inside the provider's request quota, and maps transport faults to
// domain.ErrProvider. Construct once at startup and pass by reference.
type Client struct {
	httpClient *http.Client
	endpoint   string
	key        string
	limiter    *rate.Limiter

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.SpeakerTimeout},
		endpoint:   strings.TrimRight(cfg.SpeakerEndpoint, "/"),
		key:        cfg.SpeakerKey,
		limiter:    rate.NewLimiter(rate.Limit(cfg.SpeakerRPS), 1),
	}
}

// CreateProfile allocates a provider-side voice profile. Safe to retry: the
// provider call is idempotent, and no authentication decision depends on it.
func (c *Client) CreateProfile(ctx context.Context, locale string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		profileID, err := c.createProfile(ctx, locale)
		if err == nil {
			return profileID, nil
		}
		lastErr = err
		slog.Warn("create profile attempt failed", "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("create profile: %v: %w", ctx.Err(), domain.ErrProvider)
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}
	return "", lastErr
}

func (c *Client) createProfile(ctx context.Context, locale string) (string, error) {
	body, _ := json.Marshal(map[string]string{"locale": locale})
	var out struct {
		ProfileID string `json:"profileId"`
	}
	if err := c.do(ctx, http.MethodPost, "/profiles", "application/json", body, &out); err != nil {
		return "", err
	}
	if out.ProfileID == "" {
		return "", fmt.Errorf("provider returned no profile id: %w", domain.ErrProvider)
	}
	return out.ProfileID, nil
}

// Enroll submits one voice sample toward a profile's enrollment.
// Never retried here: whether a retry is acceptable is the coordinator's call.
func (c *Client) Enroll(ctx context.Context, profileID string, sample []byte) (*EnrollOutcome, error) {
	var out EnrollOutcome
	path := "/profiles/" + url.PathEscape(profileID) + "/enrollments"
	if err := c.do(ctx, http.MethodPost, path, "audio/wav", sample, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify runs a 1:1 comparison of the sample against one named profile.
// Decision calls are never retried.
func (c *Client) Verify(ctx context.Context, profileID string, sample []byte) (*domain.VerificationResult, error) {
	var out struct {
		Result     string  `json:"result"` // "Accept" | "Reject"
		Confidence float64 `json:"confidence"`
	}
	path := "/profiles/" + url.PathEscape(profileID) + "/verify"
	if err := c.do(ctx, http.MethodPost, path, "audio/wav", sample, &out); err != nil {
		return nil, err
	}
	return &domain.VerificationResult{
		Accepted:   out.Result == "Accept",
		Confidence: out.Confidence,
	}, nil
}

// Identify runs a 1:N comparison of the sample against the candidate profiles.
// Decision calls are never retried.
func (c *Client) Identify(ctx context.Context, sample []byte, profileIDs []string) (*domain.IdentificationResult, error) {
	var out struct {
		IdentifiedProfileID string  `json:"identifiedProfileId"`
		Confidence          float64 `json:"confidence"`
	}
	path := "/identify?profileIds=" + url.QueryEscape(strings.Join(profileIDs, ","))
	if err := c.do(ctx, http.MethodPost, path, "audio/wav", sample, &out); err != nil {
		return nil, err
	}
	return &domain.IdentificationResult{
		ProfileID:  out.IdentifiedProfileID,
		Confidence: out.Confidence,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("provider pacing: %v: %w", err, domain.ErrProvider)
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request: %v: %w", err, domain.ErrProvider)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider rejected request: %s: %w", msg, domain.ErrBadRequest)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("provider returned %d: %w", resp.StatusCode, domain.ErrProvider)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %v: %w", err, domain.ErrProvider)
	}
	return nil
}

// accessToken returns a valid provider JWT, exchanging the subscription key
// for a fresh one when the cached token is within a minute of expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Until(c.tokenExp) > time.Minute {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/token", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider token request: %v: %w", err, domain.ErrProvider)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider token endpoint returned %d: %w", resp.StatusCode, domain.ErrProvider)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	if err != nil {
		return "", fmt.Errorf("read provider token: %v: %w", err, domain.ErrProvider)
	}

	c.token = strings.TrimSpace(string(raw))
	c.tokenExp = tokenExpiry(c.token)
	return c.token, nil
}

// tokenExpiry extracts the exp claim from the provider token. The token is
// parsed unverified: the provider is the issuer and we only need the expiry to
// schedule refresh, not to trust the claims.
func tokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	// Provider tokens are valid for 10 minutes; refresh conservatively when
	// the expiry is unreadable.
	return time.Now().Add(9 * time.Minute)
}
