package tokenverifier

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTokenRepository implements TokenRepository using PostgreSQL
type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTokenRepository creates a new PostgreSQL-based token repository
func NewPostgresTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

// SaveToken stores a newly issued token
func (r *PostgresTokenRepository) SaveToken(ctx context.Context, entity TokenEntity) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO one_time_tokens (token, user_id, purpose, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entity.Token, entity.UserID, entity.Purpose, entity.ExpiresAt, entity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetToken retrieves a token by value
func (r *PostgresTokenRepository) GetToken(ctx context.Context, token string) (TokenEntity, error) {
	var e TokenEntity
	err := r.pool.QueryRow(ctx, `
		SELECT token, user_id, purpose, expires_at, used_at, created_at
		FROM one_time_tokens
		WHERE token = $1`, token).
		Scan(&e.Token, &e.UserID, &e.Purpose, &e.ExpiresAt, &e.UsedAt, &e.CreatedAt)
	if err == pgx.ErrNoRows {
		return TokenEntity{}, fmt.Errorf("token not found")
	}
	if err != nil {
		return TokenEntity{}, fmt.Errorf("failed to get token: %w", err)
	}
	return e, nil
}

// MarkUsed marks the token used with one conditional update so only the
// first caller gets true.
func (r *PostgresTokenRepository) MarkUsed(ctx context.Context, token string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE one_time_tokens
		SET used_at = now()
		WHERE token = $1 AND used_at IS NULL`, token)
	if err != nil {
		return false, fmt.Errorf("failed to mark token used: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteExpired removes tokens that expired before the given time
func (r *PostgresTokenRepository) DeleteExpired(ctx context.Context, before time.Time) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM one_time_tokens WHERE expires_at < $1`, before); err != nil {
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return nil
}
