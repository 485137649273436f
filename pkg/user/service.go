package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/simple-auth/pkg/errors"
)

// UserService handles registration, credential verification and account
// lifecycle operations over a UserRepository.
type UserService struct {
	repo UserRepository
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// RegisterParams represents parameters for registering a user
type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

// Register creates a user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (User, error) {
	if strings.TrimSpace(params.Email) == "" {
		return User{}, errors.New(errors.ErrCodeInvalidInput, "email cannot be empty")
	}
	if params.Password == "" {
		return User{}, errors.New(errors.ErrCodeInvalidInput, "password cannot be empty")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.repo.CreateUser(ctx, CreateUserParams{
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: hashed,
	})
	if err != nil {
		slog.Error("Failed to create user", "email", params.Email, "err", err)
		return User{}, errors.Persistence(err, "failed to create user")
	}

	slog.Info("Registered user", "userId", created.ID)
	return created, nil
}

// FindByEmail looks up an active user by email address.
func (s *UserService) FindByEmail(ctx context.Context, email string) (User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, errors.UserNotFound(email)
	}
	return user, nil
}

// FindByID looks up an active user by ID.
func (s *UserService) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, errors.UserNotFound(id.String())
	}
	return user, nil
}

// Update replaces the mutable fields of the stored user record.
func (s *UserService) Update(ctx context.Context, user User) (User, error) {
	updated, err := s.repo.UpdateUser(ctx, user)
	if err != nil {
		slog.Error("Failed to update user", "userId", user.ID, "err", err)
		return User{}, errors.Persistence(err, "failed to update user")
	}
	return updated, nil
}

// VerifyPassword checks the supplied password against the stored hash.
// A mismatch returns false, not an error.
func (s *UserService) VerifyPassword(ctx context.Context, id uuid.UUID, password string) (bool, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return false, errors.UserNotFound(id.String())
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

// UpdateEmail changes the user's email address and clears the verified flag.
func (s *UserService) UpdateEmail(ctx context.Context, id uuid.UUID, email string) (User, error) {
	if strings.TrimSpace(email) == "" {
		return User{}, errors.New(errors.ErrCodeInvalidInput, "email cannot be empty")
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, errors.UserNotFound(id.String())
	}

	user.Email = strings.ToLower(email)
	user.EmailVerified = false
	return s.Update(ctx, user)
}

// UpdatePassword replaces the user's password hash.
func (s *UserService) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	if password == "" {
		return errors.New(errors.ErrCodeInvalidInput, "password cannot be empty")
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return errors.UserNotFound(id.String())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hashed
	if _, err := s.Update(ctx, user); err != nil {
		return err
	}
	slog.Info("Updated password", "userId", id)
	return nil
}

// MarkEmailVerified sets the verified flag on the user's current email.
func (s *UserService) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return errors.UserNotFound(id.String())
	}

	user.EmailVerified = true
	_, err = s.Update(ctx, user)
	return err
}

// UpdatePhone changes the user's phone number.
func (s *UserService) UpdatePhone(ctx context.Context, id uuid.UUID, phone string) (User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, errors.UserNotFound(id.String())
	}

	user.Phone = phone
	return s.Update(ctx, user)
}

// UpdateAddress changes the user's address.
func (s *UserService) UpdateAddress(ctx context.Context, id uuid.UUID, address string) (User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, errors.UserNotFound(id.String())
	}

	user.Address = address
	return s.Update(ctx, user)
}

// Delete soft-deletes the user; MFA settings and recovery codes cascade with
// the user record at the persistence layer.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDeleteUser(ctx, id); err != nil {
		slog.Error("Failed to delete user", "userId", id, "err", err)
		return errors.Persistence(err, "failed to delete user")
	}
	slog.Info("Soft-deleted user", "userId", id)
	return nil
}
