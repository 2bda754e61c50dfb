package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lionix-portal/internal/domain"
	"lionix-portal/internal/i18n"
	"lionix-portal/internal/infrastructure/store"
	"lionix-portal/internal/session"
	"lionix-portal/internal/signup"
	"lionix-portal/internal/usecase"
	"lionix-portal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuth implements domain.AuthProvider for handler tests, delivering
// events synchronously like the real gateway.
type stubAuth struct {
	mu   sync.Mutex
	subs []func(domain.AuthEvent)

	signInErr error
	signUpErr error
	verifyErr error
	resendErr error
}

func authSession() *domain.Session {
	return &domain.Session{
		AccessToken: "at-1",
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        domain.Identity{UserID: "user-123", Email: "new@example.com"},
	}
}

func (p *stubAuth) SignInWithPassword(_ context.Context, _, _ string) (*domain.Session, error) {
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	sess := authSession()
	p.emit(domain.AuthEvent{Type: domain.EventSignedIn, Session: sess})
	return sess, nil
}

func (p *stubAuth) SignUp(_ context.Context, email, _ string, _ map[string]string, _ string) (*domain.Identity, error) {
	if p.signUpErr != nil {
		return nil, p.signUpErr
	}
	return &domain.Identity{UserID: "user-123", Email: email}, nil
}

func (p *stubAuth) VerifyOTP(_ context.Context, _, _ string) (*domain.Session, error) {
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	sess := authSession()
	p.emit(domain.AuthEvent{Type: domain.EventSignedIn, Session: sess})
	return sess, nil
}

func (p *stubAuth) Resend(_ context.Context, _ string) error { return p.resendErr }

func (p *stubAuth) SignOut(_ context.Context, _ string) error {
	p.emit(domain.AuthEvent{Type: domain.EventSignedOut})
	return nil
}

func (p *stubAuth) RefreshSession(_ context.Context, _ string) (*domain.Session, error) {
	return nil, domain.ErrSessionExpired
}

func (p *stubAuth) Subscribe(fn func(domain.AuthEvent)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
	return func() {}
}

func (p *stubAuth) emit(ev domain.AuthEvent) {
	p.mu.Lock()
	subs := append([]func(domain.AuthEvent){}, p.subs...)
	p.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// mockProfiles implements domain.ProfileRepository for handler tests.
type mockProfiles struct {
	profile     *domain.Profile
	err         error
	createCalls int
	gotRow      *domain.Profile
}

func (m *mockProfiles) GetByID(_ context.Context, _, _ string) (*domain.Profile, error) {
	return m.profile, m.err
}

func (m *mockProfiles) Create(_ context.Context, _ string, profile *domain.Profile) (*domain.Profile, error) {
	m.createCalls++
	m.gotRow = profile
	return profile, m.err
}

func (m *mockProfiles) Update(_ context.Context, _, _ string, _ domain.ProfileUpdate) (*domain.Profile, error) {
	return m.profile, m.err
}

// authFixture wires the auth routes the way the server does, with one
// pre-created visitor.
type authFixture struct {
	e        *echo.Echo
	provider *stubAuth
	profiles *mockProfiles
	visitor  *store.Visitor
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	provider := &stubAuth{}
	profiles := &mockProfiles{}

	visitors := store.NewVisitorStore(time.Hour, func(id string) *store.Visitor {
		mgr := session.NewManager(provider, slog.Default(), time.Second)
		flow := signup.NewFlow(provider, mgr, slog.Default(), signup.Config{
			ResendCooldown: 120 * time.Second,
			JoinTimeout:    time.Second,
		})
		return &store.Visitor{ID: id, Sessions: mgr, Flow: flow}
	})

	visitor := visitors.Create()
	visitor.Sessions.Init(context.Background(), "")

	resolver := i18n.NewResolver()
	h := NewAuthHandler(usecase.NewCreateProfile(profiles, slog.Default()), resolver, slog.Default())

	e := echo.New()
	api := e.Group("/api", middleware.Visitor(visitors))
	api.POST("/auth/login", h.Login)
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/verify", h.Verify)
	api.POST("/auth/resend", h.Resend)
	api.POST("/auth/restart", h.Restart)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/session", h.Session)

	return &authFixture{e: e, provider: provider, profiles: profiles, visitor: visitor}
}

func (f *authFixture) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	req.AddCookie(&http.Cookie{Name: middleware.VisitorCookie, Value: f.visitor.ID})

	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

const signupBody = `{
	"email": "new@example.com",
	"password": "secret123",
	"confirm_password": "secret123",
	"username": "lionix_fan",
	"phone_number": "612345678",
	"phone_country_code": "+33",
	"country_of_residence": "FR",
	"sport_discipline": "football"
}`

func TestAuthHandler_LoginSuccess(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"new@example.com","password":"secret123"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"authenticated"`)
	assert.Contains(t, rec.Body.String(), `"redirect":"/profil"`)
}

func TestAuthHandler_LoginValidationFailure(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"not-an-email","password":"secret123"}`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email"`)
}

func TestAuthHandler_LoginRejectedCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.provider.signInErr = domain.ErrInvalidCredentials

	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"new@example.com","password":"wrongpass"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"idle"`, "a failed login leaves the form interactive")
}

func TestAuthHandler_SignupMovesToAwaitingCode(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/signup", signupBody, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"awaiting_code"`)
	assert.Contains(t, rec.Body.String(), `"resend_cooldown":120`)
	assert.Equal(t, 0, f.profiles.createCalls, "no profile row before verification")
}

func TestAuthHandler_SignupEmailTaken(t *testing.T) {
	f := newAuthFixture(t)
	f.provider.signUpErr = domain.ErrEmailTaken

	rec := f.do(http.MethodPost, "/api/auth/signup", signupBody, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandler_SignupPasswordMismatch(t *testing.T) {
	f := newAuthFixture(t)
	body := strings.Replace(signupBody, `"confirm_password": "secret123"`, `"confirm_password": "different1"`, 1)

	rec := f.do(http.MethodPost, "/api/auth/signup", body, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"confirmPassword"`)
}

func TestAuthHandler_VerifyCreatesProfile(t *testing.T) {
	f := newAuthFixture(t)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/auth/signup", signupBody, nil).Code)

	rec := f.do(http.MethodPost, "/api/auth/verify", `{"code":"123456"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"authenticated"`)
	assert.Contains(t, rec.Body.String(), `"redirect":"/profil"`)

	require.Equal(t, 1, f.profiles.createCalls)
	assert.Equal(t, "user-123", f.profiles.gotRow.ID)
	assert.Equal(t, "lionix_fan", f.profiles.gotRow.Username)
}

func TestAuthHandler_VerifySucceedsWhenProfileCreationFails(t *testing.T) {
	f := newAuthFixture(t)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/auth/signup", signupBody, nil).Code)
	f.profiles.err = domain.ErrProviderUnavailable

	rec := f.do(http.MethodPost, "/api/auth/verify", `{"code":"123456"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code, "the account is verified and signed in regardless")
	assert.Contains(t, rec.Body.String(), `"state":"authenticated"`)
}

func TestAuthHandler_VerifyRejectedCode(t *testing.T) {
	f := newAuthFixture(t)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/auth/signup", signupBody, nil).Code)
	f.provider.verifyErr = domain.ErrInvalidCode

	rec := f.do(http.MethodPost, "/api/auth/verify", `{"code":"000000"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"awaiting_code"`)
	assert.Equal(t, 0, f.profiles.createCalls)
}

func TestAuthHandler_ResendBlockedByCooldown(t *testing.T) {
	f := newAuthFixture(t)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/auth/signup", signupBody, nil).Code)

	rec := f.do(http.MethodPost, "/api/auth/resend", "", map[string]string{
		"Accept-Language": "en",
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Resend code in")
	assert.Contains(t, rec.Body.String(), `"state":"awaiting_code"`)
}

func TestAuthHandler_RestartReturnsFlowToIdle(t *testing.T) {
	f := newAuthFixture(t)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/auth/signup", signupBody, nil).Code)
	require.Equal(t, signup.StateAwaitingCode, f.visitor.Flow.State())

	rec := f.do(http.MethodPost, "/api/auth/restart", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"idle"`)

	// Switching to the login form after abandoning the signup works.
	rec = f.do(http.MethodPost, "/api/auth/login", `{"email":"new@example.com","password":"secret123"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"authenticated"`)
}

func TestAuthHandler_LogoutAlwaysSignsOut(t *testing.T) {
	f := newAuthFixture(t)
	require.Equal(t, http.StatusOK,
		f.do(http.MethodPost, "/api/auth/login", `{"email":"new@example.com","password":"secret123"}`, nil).Code)

	rec := f.do(http.MethodPost, "/api/auth/logout", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"signed_out"`)
	assert.Contains(t, rec.Body.String(), `"/connexion"`)

	status, _ := f.visitor.Sessions.Current()
	assert.Equal(t, domain.StatusSignedOut, status)
	assert.Equal(t, signup.StateIdle, f.visitor.Flow.State())
}

func TestAuthHandler_SessionSnapshot(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(http.MethodGet, "/api/auth/session", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"signed_out"`)
	assert.NotContains(t, rec.Body.String(), `"user"`)

	require.Equal(t, http.StatusOK,
		f.do(http.MethodPost, "/api/auth/login", `{"email":"new@example.com","password":"secret123"}`, nil).Code)

	rec = f.do(http.MethodGet, "/api/auth/session", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"signed_in"`)
	assert.Contains(t, rec.Body.String(), `"new@example.com"`)
}

func TestAuthHandler_LocalizedValidationMessages(t *testing.T) {
	f := newAuthFixture(t)

	french := f.do(http.MethodPost, "/api/auth/login", `{"email":"","password":""}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, french.Code)
	assert.Contains(t, french.Body.String(), "requis", "the default language is French")

	english := f.do(http.MethodPost, "/api/auth/login", `{"email":"","password":""}`, map[string]string{
		"Accept-Language": "en-US,en;q=0.9",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, english.Code)
	assert.Contains(t, english.Body.String(), "required")
}

func TestMapFlowError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrEmailTaken, http.StatusConflict},
		{domain.ErrInvalidCode, http.StatusBadRequest},
		{domain.ErrSessionNotSeen, http.StatusBadRequest},
		{domain.ErrCooldownActive, http.StatusTooManyRequests},
		{domain.ErrFlowBusy, http.StatusConflict},
		{domain.ErrFlowState, http.StatusConflict},
		{domain.ErrProviderUnavailable, http.StatusBadGateway},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, key := mapFlowError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.NotEmpty(t, key)
	}
}
