package mfasettings

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MfaSettings holds the per-user multi-factor flags. One row per user,
// created lazily on the first MFA-management call.
type MfaSettings struct {
	UserID               uuid.UUID `json:"user_id"`
	EmailEnabled         bool      `json:"email_enabled"`
	AuthenticatorEnabled bool      `json:"authenticator_enabled"`
	PasskeysEnabled      bool      `json:"passkeys_enabled"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// AnyEnabled reports whether at least one factor is turned on.
func (s MfaSettings) AnyEnabled() bool {
	return s.EmailEnabled || s.AuthenticatorEnabled || s.PasskeysEnabled
}

// MfaSettingsRepository persists the per-user flags. Set* operations are
// targeted single-field updates: an implementation must not read-modify-write
// the whole row, and must create the row when it does not exist yet.
type MfaSettingsRepository interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (MfaSettings, error)
	SetEmailEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error
	SetAuthenticatorEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error
	SetPasskeysEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error
	DeleteSettings(ctx context.Context, userID uuid.UUID) error
}
