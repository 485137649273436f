package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a user account. The authenticator secret is opaque to
// everything except the TOTP provider; recovery codes and MFA settings live in
// their own stores keyed by the user ID.
type User struct {
	ID                  uuid.UUID  `json:"id"`
	Email               string     `json:"email"`
	Name                string     `json:"name,omitempty"`
	Phone               string     `json:"phone,omitempty"`
	Address             string     `json:"address,omitempty"`
	PasswordHash        []byte     `json:"password_hash,omitempty"`
	AuthenticatorSecret string     `json:"authenticator_secret,omitempty"`
	EmailVerified       bool       `json:"email_verified"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
}

// CreateUserParams represents parameters for creating a user record
type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash []byte
}

// UserRepository defines the persistence operations for user records.
// Soft-deleted users are invisible to the Find operations.
type UserRepository interface {
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	SoftDeleteUser(ctx context.Context, id uuid.UUID) error
}
