package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgreSQL-based user repository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, email, name, phone, address, password_hash, authenticator_secret, email_verified, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Address, &u.PasswordHash,
		&u.AuthenticatorSecret, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	return u, err
}

// CreateUser inserts a new user record
func (r *PostgresUserRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING `+userColumns,
		uuid.New(), strings.ToLower(params.Email), params.Name, params.PasswordHash)

	user, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID, excluding soft-deleted records
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id = $1 AND deleted_at IS NULL`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user not found: %s", id)
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, excluding soft-deleted records
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE email = $1 AND deleted_at IS NULL`, strings.ToLower(email))

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user not found: %s", email)
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUser replaces the mutable fields of the stored user record
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user User) (User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET email = $2, name = $3, phone = $4, address = $5, password_hash = $6,
		    authenticator_secret = $7, email_verified = $8, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+userColumns,
		user.ID, strings.ToLower(user.Email), user.Name, user.Phone, user.Address,
		user.PasswordHash, user.AuthenticatorSecret, user.EmailVerified)

	updated, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user not found: %s", user.ID)
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// SoftDeleteUser marks a user record as deleted
func (r *PostgresUserRepository) SoftDeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}
