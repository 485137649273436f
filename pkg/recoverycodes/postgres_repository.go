package recoverycodes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecoveryCodeRepository implements RecoveryCodeRepository using
// PostgreSQL
type PostgresRecoveryCodeRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRecoveryCodeRepository creates a new PostgreSQL-based recovery
// code repository
func NewPostgresRecoveryCodeRepository(pool *pgxpool.Pool) *PostgresRecoveryCodeRepository {
	return &PostgresRecoveryCodeRepository{pool: pool}
}

// ReplaceCodes deletes the user's previous batch and inserts the new one in a
// single transaction
func (r *PostgresRecoveryCodeRepository) ReplaceCodes(ctx context.Context, userID uuid.UUID, codeHashes []string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM recovery_codes WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to delete old codes: %w", err)
		}
		for _, hash := range codeHashes {
			_, err := tx.Exec(ctx, `
				INSERT INTO recovery_codes (id, user_id, code_hash, consumed, created_at)
				VALUES ($1, $2, $3, false, now())`,
				uuid.New(), userID, hash)
			if err != nil {
				return fmt.Errorf("failed to insert code: %w", err)
			}
		}
		return nil
	})
}

// ConsumeCode marks the matching unconsumed code as consumed with one
// conditional update, guaranteeing at-most-once redemption under concurrent
// attempts.
func (r *PostgresRecoveryCodeRepository) ConsumeCode(ctx context.Context, userID uuid.UUID, codeHash string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE recovery_codes
		SET consumed = true, consumed_at = now()
		WHERE user_id = $1 AND code_hash = $2 AND consumed = false`,
		userID, codeHash)
	if err != nil {
		return false, fmt.Errorf("failed to consume code: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountUnconsumed returns the number of still-redeemable codes
func (r *PostgresRecoveryCodeRepository) CountUnconsumed(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM recovery_codes
		WHERE user_id = $1 AND consumed = false`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count codes: %w", err)
	}
	return count, nil
}

// DeleteCodes removes every code for the user
func (r *PostgresRecoveryCodeRepository) DeleteCodes(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM recovery_codes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete codes: %w", err)
	}
	return nil
}
