package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"lionix-portal/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// GoTrueGateway implements domain.AuthProvider against a Supabase-style
// identity service (GoTrue wire protocol). It reports its own successful
// state-changing calls to subscribers, in call order.
type GoTrueGateway struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	timeout    time.Duration

	mu     sync.Mutex
	subs   map[int]func(domain.AuthEvent)
	order  []int
	nextID int
}

// NewGoTrueGateway creates a new gateway with tuned HTTP transport.
func NewGoTrueGateway(baseURL, anonKey string, timeout time.Duration) *GoTrueGateway {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return NewGoTrueGatewayWithClient(baseURL, anonKey, timeout, &http.Client{
		Timeout:   timeout,
		Transport: transport,
	})
}

// NewGoTrueGatewayWithClient creates a gateway over a shared HTTP client.
// Gateways are cheap and scoped per visitor — each visitor's auth events must
// only reach that visitor's subscribers — while the client and its connection
// pool are shared across all of them.
func NewGoTrueGatewayWithClient(baseURL, anonKey string, timeout time.Duration, client *http.Client) *GoTrueGateway {
	return &GoTrueGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: client,
		timeout:    timeout,
		subs:       make(map[int]func(domain.AuthEvent)),
	}
}

// sessionPayload is the token response shape shared by the password grant,
// refresh grant and OTP verification endpoints.
type sessionPayload struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         userPayload `json:"user"`
}

type userPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// errorPayload covers both error shapes the service emits.
type errorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
}

func (e errorPayload) message() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Error, e.ErrorCode} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SignInWithPassword exchanges credentials for a session. Any 4xx rejection
// maps to the single generic credential error.
func (g *GoTrueGateway) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	body := map[string]string{"email": email, "password": password}

	var payload sessionPayload
	status, err := g.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		if status >= 400 && status < 500 {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: token endpoint returned status %d", domain.ErrProviderUnavailable, status)
	}

	session := payload.toSession()
	g.emit(domain.AuthEvent{Type: domain.EventSignedIn, Session: session})
	return session, nil
}

// SignUp registers a new account pending email verification. No session is
// established and no event is emitted: the account owns nothing until the
// one-time code is verified.
func (g *GoTrueGateway) SignUp(ctx context.Context, email, password string, metadata map[string]string, emailRedirectTo string) (*domain.Identity, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	}

	path := "/auth/v1/signup"
	if emailRedirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(emailRedirectTo)
	}

	var raw json.RawMessage
	status, err := g.doJSON(ctx, http.MethodPost, path, "", body, &raw)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		var ep errorPayload
		_ = json.Unmarshal(raw, &ep)
		msg := ep.message()
		if status >= 400 && status < 500 &&
			(strings.Contains(msg, "already registered") || ep.ErrorCode == "user_already_exists") {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: signup returned status %d", domain.ErrProviderUnavailable, status)
	}

	// With email confirmation enabled the response is the pending user object.
	var user userPayload
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}

	return &domain.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// VerifyOTP confirms a signup one-time code. The resulting session is
// reported to subscribers before VerifyOTP returns. Invalid and expired codes
// map to the same generic error.
func (g *GoTrueGateway) VerifyOTP(ctx context.Context, email, code string) (*domain.Session, error) {
	body := map[string]string{"type": "signup", "email": email, "token": code}

	var payload sessionPayload
	status, err := g.doJSON(ctx, http.MethodPost, "/auth/v1/verify", "", body, &payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		if status >= 400 && status < 500 {
			return nil, domain.ErrInvalidCode
		}
		return nil, fmt.Errorf("%w: verify returned status %d", domain.ErrProviderUnavailable, status)
	}

	session := payload.toSession()
	g.emit(domain.AuthEvent{Type: domain.EventSignedIn, Session: session})
	return session, nil
}

// Resend requests a fresh signup one-time code for the given email.
func (g *GoTrueGateway) Resend(ctx context.Context, email string) error {
	body := map[string]string{"type": "signup", "email": email}

	status, err := g.doJSON(ctx, http.MethodPost, "/auth/v1/resend", "", body, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: resend returned status %d", domain.ErrProviderUnavailable, status)
	}
	return nil
}

// SignOut revokes the session remotely. A signed-out event is emitted whether
// or not the remote call succeeded: the grant is gone locally either way, and
// callers surface the error without keeping the session.
func (g *GoTrueGateway) SignOut(ctx context.Context, accessToken string) error {
	status, err := g.doJSON(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)

	g.emit(domain.AuthEvent{Type: domain.EventSignedOut})

	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return fmt.Errorf("%w: logout returned status %d", domain.ErrProviderUnavailable, status)
	}
	return nil
}

// RefreshSession exchanges a refresh token for a fresh session, used both for
// startup restore and scheduled refresh.
func (g *GoTrueGateway) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var payload sessionPayload
	status, err := g.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		if status >= 400 && status < 500 {
			return nil, domain.ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: refresh returned status %d", domain.ErrProviderUnavailable, status)
	}

	session := payload.toSession()
	g.emit(domain.AuthEvent{Type: domain.EventTokenRefreshed, Session: session})
	return session, nil
}

// Subscribe registers a listener for auth-state events. Listeners are invoked
// synchronously in registration order; emission order matches call order.
func (g *GoTrueGateway) Subscribe(fn func(domain.AuthEvent)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	g.subs[id] = fn
	g.order = append(g.order, id)

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs, id)
		for i, v := range g.order {
			if v == id {
				g.order = append(g.order[:i], g.order[i+1:]...)
				break
			}
		}
	}
}

// emit delivers an event to all subscribers. The mutex is held across the
// fan-out so event order is preserved end to end.
func (g *GoTrueGateway) emit(ev domain.AuthEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range g.order {
		if fn, ok := g.subs[id]; ok {
			fn(ev)
		}
	}
}

// doJSON performs one request against the service with the apikey header and
// an optional bearer token, decoding any response body into out when non-nil.
// Status codes are returned to the caller; transport failures map to the
// provider-unavailable error.
func (g *GoTrueGateway) doJSON(ctx context.Context, method, path, bearer string, in, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var reader io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	req.Header.Set("apikey", g.anonKey)
	if bearer == "" {
		bearer = g.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
		}
		if len(data) > 0 {
			if raw, ok := out.(*json.RawMessage); ok {
				*raw = data
			} else if resp.StatusCode == http.StatusOK {
				if err := json.Unmarshal(data, out); err != nil {
					return resp.StatusCode, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
				}
			}
		}
	}

	return resp.StatusCode, nil
}

// toSession converts a token response into a domain session, falling back to
// the access token's registered claims when the expiry field is absent. When
// no expiry is known at all, ExpiresAt stays the zero time: the session must
// not read as already expired and no refresh is scheduled for it.
func (p sessionPayload) toSession() *domain.Session {
	var expiresAt time.Time
	switch {
	case p.ExpiresAt != 0:
		expiresAt = time.Unix(p.ExpiresAt, 0)
	case p.ExpiresIn > 0:
		expiresAt = time.Now().Add(time.Duration(p.ExpiresIn) * time.Second)
	}

	user := domain.Identity{
		UserID:    p.User.ID,
		Email:     p.User.Email,
		CreatedAt: p.User.CreatedAt,
	}

	// The service signs access tokens with a key the anon client does not
	// hold, so claims are decoded without signature verification, and only
	// to fill gaps in the response body.
	if expiresAt.IsZero() || user.UserID == "" {
		if claims, err := decodeAccessClaims(p.AccessToken); err == nil {
			if expiresAt.IsZero() && claims.ExpiresAt != nil {
				expiresAt = claims.ExpiresAt.Time
			}
			if user.UserID == "" {
				user.UserID = claims.Subject
			}
			if user.Email == "" {
				user.Email = claims.Email
			}
		}
	}

	return &domain.Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresAt:    expiresAt,
		User:         user,
	}
}

// accessClaims is the claim set carried by the provider's access tokens.
type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func decodeAccessClaims(accessToken string) (*accessClaims, error) {
	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
