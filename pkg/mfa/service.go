package mfa

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tendant/simple-auth/pkg/errors"
	"github.com/tendant/simple-auth/pkg/mfasettings"
	"github.com/tendant/simple-auth/pkg/recoverycodes"
	"github.com/tendant/simple-auth/pkg/totp"
	"github.com/tendant/simple-auth/pkg/user"
)

// FactorKind identifies one of the second-factor methods a user can enable.
type FactorKind string

const (
	// FactorEmail is the master factor: emailed one-time passcodes. The
	// other factors require it to be enabled first.
	FactorEmail FactorKind = "email"
	// FactorAuthenticator is TOTP via an authenticator app.
	FactorAuthenticator FactorKind = "authenticator"
	// FactorPasskey is a stored preference flag; credential verification
	// happens elsewhere.
	FactorPasskey FactorKind = "passkey"
)

// EnrollmentDetails carries what the user needs to finish authenticator
// enrollment. Nil for factors with no enrollment step.
type EnrollmentDetails struct {
	FormattedKey string `json:"formatted_key"`
	QRCodeURI    string `json:"qr_code_uri"`
}

// UserDirectory is the slice of the user service the orchestrator needs.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (user.User, error)
}

// KeyProvider generates and exposes authenticator keys for enrollment.
type KeyProvider interface {
	EnsureKey(ctx context.Context, userID uuid.UUID) (string, error)
	GenerateQRCodeURI(ctx context.Context, userID uuid.UUID) (string, error)
}

// Orchestrator coordinates factor enable/disable across the settings store,
// the key provider and the recovery code manager.
type Orchestrator struct {
	users    UserDirectory
	settings *mfasettings.Store
	keys     KeyProvider
	recovery *recoverycodes.Manager
}

func NewOrchestrator(users UserDirectory, settings *mfasettings.Store, keys KeyProvider, recovery *recoverycodes.Manager) *Orchestrator {
	return &Orchestrator{
		users:    users,
		settings: settings,
		keys:     keys,
		recovery: recovery,
	}
}

// EnableFactor turns a factor on for the user. Enabling the authenticator
// factor requires the email factor to be enabled already and returns the
// enrollment details for the (possibly freshly generated) key.
func (o *Orchestrator) EnableFactor(ctx context.Context, userID uuid.UUID, kind FactorKind) (*EnrollmentDetails, error) {
	if _, err := o.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	switch kind {
	case FactorEmail:
		if err := o.settings.SetEmail(ctx, userID, true); err != nil {
			return nil, err
		}
		slog.Info("Enabled email factor", "userID", userID)
		return nil, nil

	case FactorAuthenticator:
		settings, err := o.settings.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !settings.EmailEnabled {
			return nil, errors.BadPrecondition("user does not have two factor enabled")
		}

		key, err := o.keys.EnsureKey(ctx, userID)
		if err != nil {
			return nil, err
		}
		uri, err := o.keys.GenerateQRCodeURI(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := o.settings.SetAuthenticator(ctx, userID, true); err != nil {
			return nil, err
		}
		slog.Info("Enabled authenticator factor", "userID", userID)
		return &EnrollmentDetails{
			FormattedKey: totp.FormatKey(key),
			QRCodeURI:    uri,
		}, nil

	case FactorPasskey:
		if err := o.settings.SetPasskeys(ctx, userID, true); err != nil {
			return nil, err
		}
		slog.Info("Enabled passkey factor", "userID", userID)
		return nil, nil

	default:
		return nil, errors.Newf(errors.ErrCodeInvalidInput, "unknown factor kind: %s", kind)
	}
}

// DisableFactor turns a factor off. Keys and recovery codes stay in place so
// the factor can be re-enabled without re-enrollment, and disabling the email
// factor does not touch the other flags.
func (o *Orchestrator) DisableFactor(ctx context.Context, userID uuid.UUID, kind FactorKind) error {
	if _, err := o.users.FindByID(ctx, userID); err != nil {
		return err
	}

	switch kind {
	case FactorEmail:
		if err := o.settings.SetEmail(ctx, userID, false); err != nil {
			return err
		}
	case FactorAuthenticator:
		if err := o.settings.SetAuthenticator(ctx, userID, false); err != nil {
			return err
		}
	case FactorPasskey:
		if err := o.settings.SetPasskeys(ctx, userID, false); err != nil {
			return err
		}
	default:
		return errors.Newf(errors.ErrCodeInvalidInput, "unknown factor kind: %s", kind)
	}

	slog.Info("Disabled factor", "userID", userID, "factor", kind)
	return nil
}

// Status reports the user's current flags and how many recovery codes remain.
func (o *Orchestrator) Status(ctx context.Context, userID uuid.UUID) (mfasettings.MfaSettings, int, error) {
	if _, err := o.users.FindByID(ctx, userID); err != nil {
		return mfasettings.MfaSettings{}, 0, err
	}

	settings, err := o.settings.Get(ctx, userID)
	if err != nil {
		return mfasettings.MfaSettings{}, 0, err
	}
	remaining, err := o.recovery.RemainingCodes(ctx, userID)
	if err != nil {
		return mfasettings.MfaSettings{}, 0, err
	}
	return settings, remaining, nil
}

// RegenerateRecoveryCodes replaces the user's recovery codes with a fresh
// batch and returns the plaintext codes, shown to the user this one time.
func (o *Orchestrator) RegenerateRecoveryCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if _, err := o.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return o.recovery.GenerateCodes(ctx, userID, recoverycodes.DefaultCodeCount)
}
