package domain

import "time"

// SessionStatus describes what the session manager currently knows about a
// visitor. Loading is distinct from SignedOut: consumers must not redirect
// to the login page while the initial provider query is still in flight.
type SessionStatus int

const (
	StatusLoading SessionStatus = iota
	StatusSignedOut
	StatusSignedIn
)

// String returns the wire representation used in API responses.
func (s SessionStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSignedIn:
		return "signed_in"
	default:
		return "signed_out"
	}
}

// Identity is the minimal identity record returned by the identity provider
// alongside a session.
type Identity struct {
	UserID    string
	Email     string
	CreatedAt time.Time
}

// Session represents an active authentication grant. Token material is owned
// by the identity provider and treated as opaque here; ExpiresAt comes from
// the provider's response and is only used to schedule refreshes.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	User         Identity
}

// Expired reports whether the access token is past its provider-declared
// expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// AuthEventType identifies a transition reported by the identity-provider
// client.
type AuthEventType int

const (
	EventSignedIn AuthEventType = iota
	EventSignedOut
	EventTokenRefreshed
)

// AuthEvent is delivered to subscribers in the order the underlying auth
// state actually changed. Session is nil for EventSignedOut.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}

// Profile is the persisted per-user record in the profiles table. One row per
// identity, created only after the email has been verified.
type Profile struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	PhoneNumber        string    `json:"phone_number"`
	PhoneCountryCode   string    `json:"phone_country_code"`
	CountryOfResidence string    `json:"country_of_residence"`
	SportDiscipline    string    `json:"sport_discipline"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ProfileUpdate carries a partial edit of the mutable profile fields. Nil
// means "leave unchanged".
type ProfileUpdate struct {
	Username           *string `json:"username,omitempty"`
	PhoneNumber        *string `json:"phone_number,omitempty"`
	PhoneCountryCode   *string `json:"phone_country_code,omitempty"`
	CountryOfResidence *string `json:"country_of_residence,omitempty"`
	SportDiscipline    *string `json:"sport_discipline,omitempty"`
}

// SignupDetails is the transient pending-signup state held by a signup flow
// while verification is outstanding. Destroyed on success, flow restart, or
// visitor expiry.
type SignupDetails struct {
	Email              string
	Password           string
	Username           string
	PhoneNumber        string
	PhoneCountryCode   string
	CountryOfResidence string
	SportDiscipline    string
}

// Metadata returns the signup fields forwarded to the identity provider as
// user metadata, keyed the way the profiles table expects them.
func (d SignupDetails) Metadata() map[string]string {
	return map[string]string{
		"username":             d.Username,
		"phone_number":         d.PhoneNumber,
		"phone_country_code":   d.PhoneCountryCode,
		"country_of_residence": d.CountryOfResidence,
		"sport_discipline":     d.SportDiscipline,
	}
}
