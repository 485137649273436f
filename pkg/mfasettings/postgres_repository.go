package mfasettings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresMfaSettingsRepository implements MfaSettingsRepository using
// PostgreSQL
type PostgresMfaSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresMfaSettingsRepository creates a new PostgreSQL-based MFA settings
// repository
func NewPostgresMfaSettingsRepository(pool *pgxpool.Pool) *PostgresMfaSettingsRepository {
	return &PostgresMfaSettingsRepository{pool: pool}
}

// GetSettings returns the stored flags, or all-disabled defaults when no row
// exists yet.
func (r *PostgresMfaSettingsRepository) GetSettings(ctx context.Context, userID uuid.UUID) (MfaSettings, error) {
	var s MfaSettings
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, email_enabled, authenticator_enabled, passkeys_enabled, updated_at
		FROM mfa_settings
		WHERE user_id = $1`, userID).
		Scan(&s.UserID, &s.EmailEnabled, &s.AuthenticatorEnabled, &s.PasskeysEnabled, &s.UpdatedAt)
	if err == pgx.ErrNoRows {
		return MfaSettings{UserID: userID}, nil
	}
	if err != nil {
		return MfaSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

// SetEmailEnabled updates only the email flag, creating the row if needed
func (r *PostgresMfaSettingsRepository) SetEmailEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return r.setFlag(ctx, "email_enabled", userID, enabled)
}

// SetAuthenticatorEnabled updates only the authenticator flag, creating the row if needed
func (r *PostgresMfaSettingsRepository) SetAuthenticatorEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return r.setFlag(ctx, "authenticator_enabled", userID, enabled)
}

// SetPasskeysEnabled updates only the passkeys flag, creating the row if needed
func (r *PostgresMfaSettingsRepository) SetPasskeysEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return r.setFlag(ctx, "passkeys_enabled", userID, enabled)
}

// DeleteSettings removes the row for a user
func (r *PostgresMfaSettingsRepository) DeleteSettings(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM mfa_settings WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}
	return nil
}

// setFlag writes a single column with an upsert so the row is created lazily
// on the first call. The column name is restricted to the three known flags,
// never caller input.
func (r *PostgresMfaSettingsRepository) setFlag(ctx context.Context, column string, userID uuid.UUID, enabled bool) error {
	query := fmt.Sprintf(`
		INSERT INTO mfa_settings (user_id, %[1]s, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id)
		DO UPDATE SET %[1]s = $2, updated_at = now()`, column)
	if _, err := r.pool.Exec(ctx, query, userID, enabled); err != nil {
		return fmt.Errorf("failed to set %s: %w", column, err)
	}
	return nil
}
