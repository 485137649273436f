package tokenverifier

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenPurpose scopes a one-time token to the flow that issued it. A token
// generated for one purpose never verifies for another.
type TokenPurpose string

const (
	PurposeEmailConfirmation TokenPurpose = "email_confirmation"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// TokenEntity is one issued token. Tokens are single use: UsedAt is set on
// the first successful verification.
type TokenEntity struct {
	Token     string       `json:"token"`
	UserID    uuid.UUID    `json:"user_id"`
	Purpose   TokenPurpose `json:"purpose"`
	ExpiresAt time.Time    `json:"expires_at"`
	UsedAt    *time.Time   `json:"used_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// TokenRepository persists issued tokens. MarkUsed must be a conditional
// update so a token verifies at most once under concurrent attempts.
type TokenRepository interface {
	SaveToken(ctx context.Context, entity TokenEntity) error
	GetToken(ctx context.Context, token string) (TokenEntity, error)
	MarkUsed(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) error
}
