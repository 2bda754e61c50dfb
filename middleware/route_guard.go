package middleware

import (
	"net/http"
	"strings"

	"lionix-portal/internal/domain"

	"github.com/labstack/echo/v4"
)

const identityContextKey = "identity"

// RouteGuard gates the profile area on session presence. While the session
// state is still loading it renders a placeholder and must not redirect:
// redirecting before initialization resolves would flash the login page at
// visitors who are in fact signed in. Signed-out visitors are sent to the
// login route; signed-in visitors proceed with their identity attached.
//
// The guard runs on every request into the area, so a session lost mid-visit
// redirects on the very next render.
func RouteGuard(loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, ok := VisitorFrom(c)
			if !ok {
				return redirectToLogin(c, loginPath)
			}

			status, sess := v.Sessions.Current()
			switch status {
			case domain.StatusLoading:
				return c.JSON(http.StatusOK, map[string]string{
					"status": domain.StatusLoading.String(),
				})
			case domain.StatusSignedIn:
				c.Set(identityContextKey, sess.User)
				return next(c)
			default:
				return redirectToLogin(c, loginPath)
			}
		}
	}
}

// IdentityFrom returns the user identity attached by the route guard.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityContextKey).(domain.Identity)
	return id, ok
}

// redirectToLogin answers browser navigations with a redirect and API calls
// with a 401 carrying the login route, which the front-end follows.
func redirectToLogin(c echo.Context, loginPath string) error {
	if strings.Contains(c.Request().Header.Get("Accept"), "text/html") {
		return c.Redirect(http.StatusSeeOther, loginPath)
	}
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"status":   domain.StatusSignedOut.String(),
		"redirect": loginPath,
	})
}
