package tokenverifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-auth/pkg/errors"
	"github.com/tendant/simple-auth/pkg/utils"
)

const tokenLength = 32

// DefaultTTL is the validity window when no explicit TTL is given.
const DefaultTTL = 24 * time.Hour

// Verifier issues and checks purpose-scoped single-use tokens, the shared
// primitive behind email confirmation and password reset links.
type Verifier struct {
	repo TokenRepository
}

func NewVerifier(repo TokenRepository) *Verifier {
	return &Verifier{repo: repo}
}

// Generate issues a token for the user scoped to one purpose. A non-positive
// ttl falls back to DefaultTTL.
func (v *Verifier) Generate(ctx context.Context, userID uuid.UUID, purpose TokenPurpose, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now().UTC()
	entity := TokenEntity{
		Token:     utils.GenerateRandomString(tokenLength),
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if err := v.repo.SaveToken(ctx, entity); err != nil {
		slog.Error("Failed to save one-time token", "userID", userID, "purpose", purpose, "err", err)
		return "", errors.Persistence(err, "failed to save token")
	}
	return entity.Token, nil
}

// Verify consumes a token and returns the user it was issued for. A token
// verifies at most once; expired, already used, wrong-purpose and unknown
// tokens all fail.
func (v *Verifier) Verify(ctx context.Context, token string, purpose TokenPurpose) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, errors.New(errors.ErrCodeInvalidInput, "token is required")
	}

	entity, err := v.repo.GetToken(ctx, token)
	if err != nil {
		return uuid.Nil, errors.New(errors.ErrCodeTokenInvalid, "invalid token")
	}
	if entity.Purpose != purpose {
		return uuid.Nil, errors.New(errors.ErrCodeTokenInvalid, "invalid token")
	}
	if time.Now().UTC().After(entity.ExpiresAt) {
		return uuid.Nil, errors.New(errors.ErrCodeTokenExpired, "token has expired")
	}

	used, err := v.repo.MarkUsed(ctx, token)
	if err != nil {
		return uuid.Nil, errors.Persistence(err, "failed to consume token")
	}
	if !used {
		return uuid.Nil, errors.New(errors.ErrCodeTokenInvalid, "invalid token")
	}

	return entity.UserID, nil
}
