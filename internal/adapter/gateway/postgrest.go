package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lionix-portal/internal/domain"
)

// ProfileGateway implements domain.ProfileRepository against the backend's
// REST data API. Requests carry the caller's access token so the service's
// row-level policies decide what each user may read or write.
type ProfileGateway struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewProfileGateway creates a new profiles-table gateway.
func NewProfileGateway(baseURL, anonKey string, timeout time.Duration) *ProfileGateway {
	return &ProfileGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// GetByID fetches the single profile row owned by userID.
func (g *ProfileGateway) GetByID(ctx context.Context, accessToken, userID string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/rest/v1/profiles?id=eq.%s&select=*", g.baseURL, userID)

	req, err := g.newRequest(ctx, http.MethodGet, url, accessToken, nil)
	if err != nil {
		return nil, err
	}
	// Single-object representation: 406 when the row does not exist.
	req.Header.Set("Accept", "application/vnd.pgrst.object+json")

	var profile domain.Profile
	if err := g.do(req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts the profile row. Called exactly once per account, after the
// owning identity has been verified.
func (g *ProfileGateway) Create(ctx context.Context, accessToken string, profile *domain.Profile) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	url := g.baseURL + "/rest/v1/profiles"

	body, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	req, err := g.newRequest(ctx, http.MethodPost, url, accessToken, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	req.Header.Set("Prefer", "return=representation")

	var created domain.Profile
	if err := g.do(req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update applies a partial field update to the caller's row and returns the
// updated record.
func (g *ProfileGateway) Update(ctx context.Context, accessToken, userID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/rest/v1/profiles?id=eq.%s", g.baseURL, userID)

	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}

	req, err := g.newRequest(ctx, http.MethodPatch, url, accessToken, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	req.Header.Set("Prefer", "return=representation")

	var updated domain.Profile
	if err := g.do(req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (g *ProfileGateway) newRequest(ctx context.Context, method, url, accessToken string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}

	req.Header.Set("apikey", g.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (g *ProfileGateway) do(req *http.Request, out *domain.Profile) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotAcceptable || resp.StatusCode == http.StatusNotFound:
		return domain.ErrProfileNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrSessionExpired
	default:
		return fmt.Errorf("%w: profiles endpoint returned status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
}
