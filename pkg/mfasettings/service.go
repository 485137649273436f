package mfasettings

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tendant/simple-auth/pkg/errors"
)

// Store exposes the per-user MFA flags to the rest of the service. Every
// persistence failure crosses this boundary as a typed persistence error.
type Store struct {
	repo MfaSettingsRepository
}

func NewStore(repo MfaSettingsRepository) *Store {
	return &Store{repo: repo}
}

// Get returns the user's current flags, defaulting to all-disabled for users
// who never touched MFA.
func (s *Store) Get(ctx context.Context, userID uuid.UUID) (MfaSettings, error) {
	settings, err := s.repo.GetSettings(ctx, userID)
	if err != nil {
		slog.Error("Failed to get MFA settings", "userID", userID, "err", err)
		return MfaSettings{}, errors.Persistence(err, "failed to get MFA settings")
	}
	return settings, nil
}

// SetEmail toggles the email factor, the master two-factor flag.
func (s *Store) SetEmail(ctx context.Context, userID uuid.UUID, enabled bool) error {
	if err := s.repo.SetEmailEnabled(ctx, userID, enabled); err != nil {
		slog.Error("Failed to update email MFA flag", "userID", userID, "err", err)
		return errors.Persistence(err, "failed to update MFA settings")
	}
	return nil
}

// SetAuthenticator toggles the authenticator-app factor.
func (s *Store) SetAuthenticator(ctx context.Context, userID uuid.UUID, enabled bool) error {
	if err := s.repo.SetAuthenticatorEnabled(ctx, userID, enabled); err != nil {
		slog.Error("Failed to update authenticator MFA flag", "userID", userID, "err", err)
		return errors.Persistence(err, "failed to update MFA settings")
	}
	return nil
}

// SetPasskeys toggles the passkeys factor.
func (s *Store) SetPasskeys(ctx context.Context, userID uuid.UUID, enabled bool) error {
	if err := s.repo.SetPasskeysEnabled(ctx, userID, enabled); err != nil {
		slog.Error("Failed to update passkeys MFA flag", "userID", userID, "err", err)
		return errors.Persistence(err, "failed to update MFA settings")
	}
	return nil
}

// Delete drops the settings row, used when a user account is removed.
func (s *Store) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteSettings(ctx, userID); err != nil {
		slog.Error("Failed to delete MFA settings", "userID", userID, "err", err)
		return errors.Persistence(err, "failed to delete MFA settings")
	}
	return nil
}
