package domain

import "context"

// AuthProvider is the contract the portal requires from the identity
// provider's client. Implementations report their own successful
// state-changing calls through Subscribe, in the order they happened.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]string, emailRedirectTo string) (*Identity, error)
	VerifyOTP(ctx context.Context, email, code string) (*Session, error)
	Resend(ctx context.Context, email string) error
	SignOut(ctx context.Context, accessToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	Subscribe(fn func(AuthEvent)) (unsubscribe func())
}

// ProfileRepository provides row-level access to the profiles table. The
// caller's access token is carried in ctx so row-level security applies.
type ProfileRepository interface {
	GetByID(ctx context.Context, accessToken, userID string) (*Profile, error)
	Create(ctx context.Context, accessToken string, profile *Profile) (*Profile, error)
	Update(ctx context.Context, accessToken, userID string, update ProfileUpdate) (*Profile, error)
}
