package totp

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/tendant/simple-auth/pkg/errors"
	"github.com/tendant/simple-auth/pkg/user"
)

const (
	// AUTHENTICATOR_PERIOD is the standard authenticator-app code window
	AUTHENTICATOR_PERIOD = 30
	// EMAIL_PERIOD is the validity window for emailed one-time passcodes
	EMAIL_PERIOD = 300
	SKEW         = 1
)

// UserStore is the slice of the user directory the provider needs: the
// authenticator secret persists through the user-record update path.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
}

// KeyProvider generates and validates TOTP shared secrets for users.
type KeyProvider struct {
	users  UserStore
	issuer string
}

// NewKeyProvider creates a new KeyProvider
func NewKeyProvider(users UserStore, issuer string) *KeyProvider {
	return &KeyProvider{users: users, issuer: issuer}
}

// GenerateKey produces a new random shared secret for the user and persists
// it. Any previously generated key (and QR codes bound to it) is invalidated.
func (p *KeyProvider) GenerateKey(ctx context.Context, userID uuid.UUID) (string, error) {
	u, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      p.issuer,
		AccountName: u.Email,
	})
	if err != nil {
		slog.Error("Failed to generate totp secret", "userId", userID, "issuer", p.issuer, "err", err)
		return "", fmt.Errorf("failed to generate totp secret: %w", err)
	}

	u.AuthenticatorSecret = key.Secret()
	if _, err := p.users.Update(ctx, u); err != nil {
		return "", fmt.Errorf("failed to persist totp secret: %w", err)
	}

	slog.Info("Generated new totp secret", "userId", userID)
	return key.Secret(), nil
}

// EnsureKey returns the user's existing secret, generating one if absent.
func (p *KeyProvider) EnsureKey(ctx context.Context, userID uuid.UUID) (string, error) {
	u, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if u.AuthenticatorSecret != "" {
		return u.AuthenticatorSecret, nil
	}
	return p.GenerateKey(ctx, userID)
}

// GenerateQRCodeURI composes the otpauth provisioning URI for the user's
// stored key. The key must have been generated first.
func (p *KeyProvider) GenerateQRCodeURI(ctx context.Context, userID uuid.UUID) (string, error) {
	u, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if u.AuthenticatorSecret == "" {
		return "", errors.New(errors.ErrCodeInvalidState, "no authenticator key exists for user, generate one first")
	}

	uri := fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s&digits=6",
		p.issuer, url.QueryEscape(u.Email), u.AuthenticatorSecret, p.issuer)
	return uri, nil
}

// Validate checks a submitted authenticator code against the user's stored
// key. A mismatch or expired window returns false, not an error.
func (p *KeyProvider) Validate(ctx context.Context, code string, userID uuid.UUID) (bool, error) {
	u, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to find user: %w", err)
	}
	if u.AuthenticatorSecret == "" {
		return false, errors.New(errors.ErrCodeInvalidState, "no authenticator key exists for user")
	}
	return ValidatePasscode(u.AuthenticatorSecret, code, AUTHENTICATOR_PERIOD)
}

// FormatKey groups the raw key into space-separated 4-character uppercase
// chunks for display. The key must be non-empty.
func FormatKey(rawKey string) string {
	key := strings.ToUpper(strings.ReplaceAll(rawKey, " ", ""))
	var b strings.Builder
	for i, r := range key {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GeneratePasscode derives the current passcode for a secret over the given
// period. Used for the email one-time passcode channel.
func GeneratePasscode(secret string, period uint) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    period,
		Skew:      SKEW,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		slog.Error("Failed to generate passcode", "err", err)
		return "", err
	}
	return code, nil
}

// ValidatePasscode checks a passcode against a secret over the given period.
func ValidatePasscode(secret, passcode string, period uint) (bool, error) {
	valid, err := totp.ValidateCustom(passcode, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    period,
		Skew:      SKEW,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		slog.Error("Failed to validate passcode", "err", err)
		return false, err
	}
	return valid, nil
}
