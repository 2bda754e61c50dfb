package middleware

import (
	"context"
	"net/http"

	"lionix-portal/internal/infrastructure/store"

	"github.com/labstack/echo/v4"
)

// VisitorCookie names the opaque cookie binding a browser to its server-side
// auth state.
const VisitorCookie = "lionix_visitor"

const visitorContextKey = "visitor"

// Visitor resolves the request's visitor record, creating one (and setting
// the cookie) for first-time or expired visitors. A fresh visitor starts in
// the loading state; its session query resolves off the request path.
func Visitor(visitors *store.VisitorStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var v *store.Visitor

			if cookie, err := c.Cookie(VisitorCookie); err == nil {
				v, _ = visitors.Get(cookie.Value)
			}

			if v == nil {
				v = visitors.Create()
				c.SetCookie(&http.Cookie{
					Name:     VisitorCookie,
					Value:    v.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				// No stored grant to restore for a brand-new visitor; this
				// resolves loading to signed-out almost immediately, but
				// consumers still see the two as distinct states.
				go v.Sessions.Init(context.Background(), "")
			}

			c.Set(visitorContextKey, v)
			return next(c)
		}
	}
}

// VisitorFrom returns the visitor attached by the Visitor middleware.
func VisitorFrom(c echo.Context) (*store.Visitor, bool) {
	v, ok := c.Get(visitorContextKey).(*store.Visitor)
	return v, ok
}
