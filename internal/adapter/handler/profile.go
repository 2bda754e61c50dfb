package handler

import (
	"net/http"

	"lionix-portal/internal/domain"
	"lionix-portal/internal/usecase"
	"lionix-portal/middleware"

	"github.com/labstack/echo/v4"
)

// ProfileHandler serves the profile area: viewing and editing the caller's
// own record. Routes are behind the route guard, so a request reaching these
// handlers always carries a signed-in visitor.
type ProfileHandler struct {
	get    *usecase.GetProfile
	update *usecase.UpdateProfile
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(get *usecase.GetProfile, update *usecase.UpdateProfile) *ProfileHandler {
	return &ProfileHandler{get: get, update: update}
}

// profileResponse pairs the profile row with the identity's email, which
// lives with the identity provider rather than in the row.
type profileResponse struct {
	Profile *domain.Profile `json:"profile"`
	Email   string          `json:"email"`
}

// Get returns the caller's profile.
func (h *ProfileHandler) Get(c echo.Context) error {
	_, sess := sessionFrom(c)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	profile, err := h.get.Execute(c.Request().Context(), sess)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, profileResponse{Profile: profile, Email: sess.User.Email})
}

// Update applies a partial edit-and-save and returns the updated record.
func (h *ProfileHandler) Update(c echo.Context) error {
	_, sess := sessionFrom(c)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var update domain.ProfileUpdate
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	profile, err := h.update.Execute(c.Request().Context(), sess, update)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, profileResponse{Profile: profile, Email: sess.User.Email})
}

// sessionFrom reads the visitor's current session out of the request.
func sessionFrom(c echo.Context) (visitorID string, sess *domain.Session) {
	v, ok := middleware.VisitorFrom(c)
	if !ok {
		return "", nil
	}
	status, s := v.Sessions.Current()
	if status != domain.StatusSignedIn {
		return v.ID, nil
	}
	return v.ID, s
}
