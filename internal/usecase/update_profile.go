package usecase

import (
	"context"
	"log/slog"

	"lionix-portal/internal/domain"
)

// UpdateProfile applies an explicit edit-and-save from the profile area.
type UpdateProfile struct {
	profiles domain.ProfileRepository
	logger   *slog.Logger
}

// NewUpdateProfile creates a new UpdateProfile usecase.
func NewUpdateProfile(p domain.ProfileRepository, l *slog.Logger) *UpdateProfile {
	return &UpdateProfile{profiles: p, logger: l}
}

// Execute partially updates the caller's own row and returns the updated
// record. Ownership is enforced twice: the row filter targets the session's
// user ID, and the backend's row policies check the access token.
func (uc *UpdateProfile) Execute(ctx context.Context, sess *domain.Session, update domain.ProfileUpdate) (*domain.Profile, error) {
	if sess == nil {
		return nil, domain.ErrNotAuthenticated
	}

	profile, err := uc.profiles.Update(ctx, sess.AccessToken, sess.User.UserID, update)
	if err != nil {
		uc.logger.WarnContext(ctx, "failed to update profile", "user_id", sess.User.UserID, "error", err)
		return nil, err
	}
	return profile, nil
}
