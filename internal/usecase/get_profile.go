package usecase

import (
	"context"
	"log/slog"

	"lionix-portal/internal/domain"
)

// GetProfile loads the caller's profile record.
type GetProfile struct {
	profiles domain.ProfileRepository
	logger   *slog.Logger
}

// NewGetProfile creates a new GetProfile usecase.
func NewGetProfile(p domain.ProfileRepository, l *slog.Logger) *GetProfile {
	return &GetProfile{profiles: p, logger: l}
}

// Execute fetches the profile row owned by the session's user.
func (uc *GetProfile) Execute(ctx context.Context, sess *domain.Session) (*domain.Profile, error) {
	if sess == nil {
		return nil, domain.ErrNotAuthenticated
	}

	profile, err := uc.profiles.GetByID(ctx, sess.AccessToken, sess.User.UserID)
	if err != nil {
		uc.logger.WarnContext(ctx, "failed to load profile", "user_id", sess.User.UserID, "error", err)
		return nil, err
	}
	return profile, nil
}
