package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"lionix-portal/internal/domain"
	"lionix-portal/internal/i18n"
	"lionix-portal/internal/signup"
	"lionix-portal/internal/usecase"
	"lionix-portal/middleware"

	"github.com/labstack/echo/v4"
)

// AuthHandler exposes the authentication flow to the front-end: login,
// signup, code verification, code resend, logout, and the session snapshot.
type AuthHandler struct {
	createProfile *usecase.CreateProfile
	resolver      *i18n.Resolver
	logger        *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(createProfile *usecase.CreateProfile, resolver *i18n.Resolver, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{createProfile: createProfile, resolver: resolver, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	ConfirmPassword    string `json:"confirm_password"`
	Username           string `json:"username"`
	PhoneNumber        string `json:"phone_number"`
	PhoneCountryCode   string `json:"phone_country_code"`
	CountryOfResidence string `json:"country_of_residence"`
	SportDiscipline    string `json:"sport_discipline"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

// flowResponse reports the flow position after an auth action.
type flowResponse struct {
	State          string `json:"state"`
	Message        string `json:"message,omitempty"`
	ResendCooldown int    `json:"resend_cooldown,omitempty"`
	Redirect       string `json:"redirect,omitempty"`
}

// Login processes the returning-user path.
func (h *AuthHandler) Login(c echo.Context) error {
	v, ok := middleware.VisitorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "visitor state missing")
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	lang := languageFrom(c)
	if err := v.Flow.SubmitLogin(c.Request().Context(), req.Email, req.Password); err != nil {
		return h.flowError(c, lang, err)
	}

	return c.JSON(http.StatusOK, flowResponse{
		State:    v.Flow.State().String(),
		Message:  h.resolver.T(lang, "loginSuccess", nil),
		Redirect: "/profil",
	})
}

// Signup processes account creation. On success the visitor awaits the
// emailed one-time code; no profile row exists yet.
func (h *AuthHandler) Signup(c echo.Context) error {
	v, ok := middleware.VisitorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "visitor state missing")
	}

	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	details := domain.SignupDetails{
		Email:              req.Email,
		Password:           req.Password,
		Username:           req.Username,
		PhoneNumber:        req.PhoneNumber,
		PhoneCountryCode:   req.PhoneCountryCode,
		CountryOfResidence: req.CountryOfResidence,
		SportDiscipline:    req.SportDiscipline,
	}

	lang := languageFrom(c)
	if err := v.Flow.SubmitSignup(c.Request().Context(), details, req.ConfirmPassword); err != nil {
		return h.flowError(c, lang, err)
	}

	return c.JSON(http.StatusOK, flowResponse{
		State:          v.Flow.State().String(),
		Message:        h.resolver.T(lang, "signupSuccess", nil),
		ResendCooldown: v.Flow.ResendCooldown(),
	})
}

// Verify submits the one-time code. Once the flow is authenticated — which
// requires the session to have been observed, not merely the verification
// call to have returned — the profile row is created from the pending signup
// details.
func (h *AuthHandler) Verify(c echo.Context) error {
	v, ok := middleware.VisitorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "visitor state missing")
	}

	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	lang := languageFrom(c)
	if err := v.Flow.SubmitCode(ctx, req.Code); err != nil {
		return h.flowError(c, lang, err)
	}

	_, sess := v.Sessions.Current()
	if _, err := h.createProfile.Execute(ctx, sess, v.Flow.Details()); err != nil {
		// The account is verified and signed in regardless; the profile page
		// will surface the missing row.
		h.logger.ErrorContext(ctx, "profile creation failed after verification", "error", err)
	}

	return c.JSON(http.StatusOK, flowResponse{
		State:    v.Flow.State().String(),
		Message:  h.resolver.T(lang, "otpSuccess", nil),
		Redirect: "/profil",
	})
}

// Resend requests a fresh one-time code, subject to the cooldown.
func (h *AuthHandler) Resend(c echo.Context) error {
	v, ok := middleware.VisitorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "visitor state missing")
	}

	lang := languageFrom(c)
	if err := v.Flow.Resend(c.Request().Context()); err != nil {
		return h.flowError(c, lang, err)
	}

	return c.JSON(http.StatusOK, flowResponse{
		State:          v.Flow.State().String(),
		Message:        h.resolver.T(lang, "resendOtpSuccess", nil),
		ResendCooldown: v.Flow.ResendCooldown(),
	})
}

// Restart abandons the in-progress attempt and returns the flow to idle,
// destroying any pending signup state. The front-end calls this when the user
// switches between the signup and login forms.
func (h *AuthHandler) Restart(c echo.Context) error {
	v, ok := middleware.VisitorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "visitor state missing")
	}

	v.Flow.Restart()
	return c.JSON(http.StatusOK, flowResponse{State: v.Flow.State().String()})
}

// Logout terminates the session. Local state is cleared even when the remote
// call fails, so the response always reports signed-out.
func (h *AuthHandler) Logout(c echo.Context) error {
	v, ok := middleware.VisitorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "visitor state missing")
	}

	if err := v.Sessions.Logout(c.Request().Context()); err != nil {
		h.logger.WarnContext(c.Request().Context(), "logout reported an error", "error", err)
	}
	v.Flow.Restart()

	return c.JSON(http.StatusOK, map[string]string{
		"status":   domain.StatusSignedOut.String(),
		"redirect": "/connexion",
	})
}

// sessionSnapshot is the session endpoint's response.
type sessionSnapshot struct {
	Status string       `json:"status"`
	User   *sessionUser `json:"user,omitempty"`
}

type sessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session reports the visitor's current session state synchronously. Loading
// and signed-out are distinct so the front-end can hold rendering instead of
// flashing the login page during initialization.
func (h *AuthHandler) Session(c echo.Context) error {
	v, ok := middleware.VisitorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "visitor state missing")
	}

	status, sess := v.Sessions.Current()
	snapshot := sessionSnapshot{Status: status.String()}
	if status == domain.StatusSignedIn && sess != nil {
		snapshot.User = &sessionUser{ID: sess.User.UserID, Email: sess.User.Email}
	}
	return c.JSON(http.StatusOK, snapshot)
}

// flowError renders a flow failure: field-level validation messages as 422,
// everything else through the domain error mapper with a localized message.
func (h *AuthHandler) flowError(c echo.Context, lang string, err error) error {
	if fe, ok := err.(signup.FieldErrors); ok {
		fields := make(map[string]string, len(fe))
		for field, key := range fe {
			fields[field] = h.resolver.T(lang, key, nil)
		}
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"errors": fields})
	}

	status, key := mapFlowError(err)
	body := flowResponse{}
	var params map[string]string
	if v, ok := middleware.VisitorFrom(c); ok {
		body.State = v.Flow.State().String()
		body.ResendCooldown = v.Flow.ResendCooldown()
		params = map[string]string{"seconds": strconv.Itoa(body.ResendCooldown)}
	}
	body.Message = h.resolver.T(lang, key, params)
	return c.JSON(status, body)
}

// languageFrom picks the display language: preference cookie first, then the
// Accept-Language header.
func languageFrom(c echo.Context) string {
	if cookie, err := c.Cookie(LanguageCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return c.Request().Header.Get("Accept-Language")
}
