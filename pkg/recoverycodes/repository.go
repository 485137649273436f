package recoverycodes

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecoveryCodeEntity represents one stored recovery code. Only the SHA-256
// fingerprint of the code is persisted; the plaintext exists only in the
// generation response.
type RecoveryCodeEntity struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	CodeHash    string     `json:"code_hash"`
	Consumed    bool       `json:"consumed"`
	CreatedAt   time.Time  `json:"created_at"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty"`
}

// RecoveryCodeRepository defines the persistence operations for recovery
// codes.
//
// ConsumeCode must be implemented as a single conditional update ("mark
// consumed where hash matches and consumed is false") so that concurrent
// redemption attempts of the same code succeed at most once.
type RecoveryCodeRepository interface {
	// ReplaceCodes atomically deletes every code for the user and stores the
	// new batch of fingerprints.
	ReplaceCodes(ctx context.Context, userID uuid.UUID, codeHashes []string) error

	// ConsumeCode marks the matching unconsumed code as consumed. Returns
	// false when no unconsumed code matches (unknown or already consumed).
	ConsumeCode(ctx context.Context, userID uuid.UUID, codeHash string) (bool, error)

	// CountUnconsumed returns the number of still-redeemable codes.
	CountUnconsumed(ctx context.Context, userID uuid.UUID) (int, error)

	// DeleteCodes removes every code for the user.
	DeleteCodes(ctx context.Context, userID uuid.UUID) error
}
