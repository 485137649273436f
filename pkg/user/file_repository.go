package user

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileUserRepository implements UserRepository using file-based storage
type FileUserRepository struct {
	dataDir string
	users   map[uuid.UUID]User
	mutex   sync.RWMutex
}

// NewFileUserRepository creates a new file-based user repository
func NewFileUserRepository(dataDir string) (*FileUserRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileUserRepository{
		dataDir: dataDir,
		users:   make(map[uuid.UUID]User),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// CreateUser creates a new user record
func (r *FileUserRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	email := strings.ToLower(params.Email)
	for _, u := range r.users {
		if u.Email == email && u.DeletedAt == nil {
			return User{}, fmt.Errorf("user already exists: %s", email)
		}
	}

	now := time.Now().UTC()
	user := User{
		ID:           uuid.New(),
		Email:        email,
		Name:         params.Name,
		PasswordHash: params.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[user.ID] = user

	if err := r.save(); err != nil {
		delete(r.users, user.ID)
		return User{}, fmt.Errorf("failed to save: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *FileUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, exists := r.users[id]
	if !exists || user.DeletedAt != nil {
		return User{}, fmt.Errorf("user not found: %s", id)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email
func (r *FileUserRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	email = strings.ToLower(email)
	for _, user := range r.users {
		if user.Email == email && user.DeletedAt == nil {
			return user, nil
		}
	}
	return User{}, fmt.Errorf("user not found: %s", email)
}

// UpdateUser replaces the stored user record
func (r *FileUserRepository) UpdateUser(ctx context.Context, user User) (User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.users[user.ID]
	if !exists || existing.DeletedAt != nil {
		return User{}, fmt.Errorf("user not found: %s", user.ID)
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = user

	if err := r.save(); err != nil {
		r.users[user.ID] = existing
		return User{}, fmt.Errorf("failed to save: %w", err)
	}

	return user, nil
}

// SoftDeleteUser marks a user record as deleted
func (r *FileUserRepository) SoftDeleteUser(ctx context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.users[id]
	if !exists || user.DeletedAt != nil {
		return fmt.Errorf("user not found: %s", id)
	}

	now := time.Now().UTC()
	user.DeletedAt = &now
	user.UpdatedAt = now
	r.users[id] = user

	if err := r.save(); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

func (r *FileUserRepository) load() error {
	filePath := filepath.Join(r.dataDir, "users.json")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.users = make(map[uuid.UUID]User)
	for _, u := range users {
		r.users[u.ID] = u
	}
	return nil
}

func (r *FileUserRepository) save() error {
	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "users.json.tmp")
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "users.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
