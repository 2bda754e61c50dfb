package usecase

import (
	"context"
	"log/slog"

	"lionix-portal/internal/domain"
)

// CreateProfile writes the profile row for a freshly verified account. It
// runs exactly once per signup, after the one-time code has been verified and
// the session observed; a profile must never exist for an unconfirmed
// identity.
type CreateProfile struct {
	profiles domain.ProfileRepository
	logger   *slog.Logger
}

// NewCreateProfile creates a new CreateProfile usecase.
func NewCreateProfile(p domain.ProfileRepository, l *slog.Logger) *CreateProfile {
	return &CreateProfile{profiles: p, logger: l}
}

// Execute builds the row from the pending signup details and the verified
// identity's ID.
func (uc *CreateProfile) Execute(ctx context.Context, sess *domain.Session, details domain.SignupDetails) (*domain.Profile, error) {
	if sess == nil {
		return nil, domain.ErrNotAuthenticated
	}

	profile := &domain.Profile{
		ID:                 sess.User.UserID,
		Username:           details.Username,
		PhoneNumber:        details.PhoneNumber,
		PhoneCountryCode:   details.PhoneCountryCode,
		CountryOfResidence: details.CountryOfResidence,
		SportDiscipline:    details.SportDiscipline,
	}

	created, err := uc.profiles.Create(ctx, sess.AccessToken, profile)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to create profile after verification",
			"user_id", sess.User.UserID, "error", err)
		return nil, err
	}
	return created, nil
}
