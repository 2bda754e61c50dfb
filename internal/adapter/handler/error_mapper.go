package handler

import (
	"errors"
	"net/http"

	"lionix-portal/internal/domain"

	"github.com/labstack/echo/v4"
)

// mapFlowError converts an auth-flow failure into an HTTP status and a
// message key. Credential and code failures stay generic on purpose: the
// message must not reveal whether an account exists or why a code was
// rejected.
func mapFlowError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "loginError"

	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "emailAlreadyExists"

	case errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrSessionNotSeen):
		return http.StatusBadRequest, "otpInvalid"

	case errors.Is(err, domain.ErrCooldownActive):
		return http.StatusTooManyRequests, "resendOtpCooldown"

	case errors.Is(err, domain.ErrFlowBusy),
		errors.Is(err, domain.ErrFlowState):
		return http.StatusConflict, "unexpectedError"

	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway, "unexpectedError"

	default:
		return http.StatusInternalServerError, "unexpectedError"
	}
}

// mapDomainError converts a profile-area domain error into an echo.HTTPError.
func mapDomainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")

	case errors.Is(err, domain.ErrProfileNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")

	case errors.Is(err, domain.ErrProviderUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "backend unavailable")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
