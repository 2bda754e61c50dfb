package domain

import "errors"

// Authentication errors. Credential and code errors are deliberately generic:
// messages built from them must never reveal whether an account exists or
// whether a code was wrong versus expired.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCode        = errors.New("verification code invalid or expired")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// External service errors.
var (
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrProfileNotFound     = errors.New("profile not found")
)

// Flow errors.
var (
	ErrCooldownActive   = errors.New("resend cooldown active")
	ErrFlowBusy         = errors.New("a submission is already in flight")
	ErrFlowState        = errors.New("action not allowed in current flow state")
	ErrSessionNotSeen   = errors.New("verified but session not observed")
	ErrNotAuthenticated = errors.New("not authenticated")
)
