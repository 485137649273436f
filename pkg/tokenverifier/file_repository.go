package tokenverifier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileTokenRepository implements TokenRepository using file-based storage
type FileTokenRepository struct {
	dataDir string
	tokens  map[string]TokenEntity
	mutex   sync.Mutex
}

// NewFileTokenRepository creates a new file-based token repository
func NewFileTokenRepository(dataDir string) (*FileTokenRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileTokenRepository{
		dataDir: dataDir,
		tokens:  make(map[string]TokenEntity),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// SaveToken stores a newly issued token
func (r *FileTokenRepository) SaveToken(ctx context.Context, entity TokenEntity) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.tokens[entity.Token] = entity
	if err := r.save(); err != nil {
		delete(r.tokens, entity.Token)
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// GetToken retrieves a token by value
func (r *FileTokenRepository) GetToken(ctx context.Context, token string) (TokenEntity, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entity, exists := r.tokens[token]
	if !exists {
		return TokenEntity{}, fmt.Errorf("token not found")
	}
	return entity, nil
}

// MarkUsed marks the token used. The check and the mark happen under one
// lock so only the first caller gets true.
func (r *FileTokenRepository) MarkUsed(ctx context.Context, token string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entity, exists := r.tokens[token]
	if !exists || entity.UsedAt != nil {
		return false, nil
	}

	now := time.Now().UTC()
	entity.UsedAt = &now
	r.tokens[token] = entity

	if err := r.save(); err != nil {
		entity.UsedAt = nil
		r.tokens[token] = entity
		return false, fmt.Errorf("failed to save: %w", err)
	}
	return true, nil
}

// DeleteExpired removes tokens that expired before the given time
func (r *FileTokenRepository) DeleteExpired(ctx context.Context, before time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for token, entity := range r.tokens {
		if entity.ExpiresAt.Before(before) {
			delete(r.tokens, token)
		}
	}
	if err := r.save(); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

func (r *FileTokenRepository) load() error {
	filePath := filepath.Join(r.dataDir, "one_time_tokens.json")

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

	var entities []TokenEntity
	if err := json.Unmarshal(data, &entities); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.tokens = make(map[string]TokenEntity)
	for _, e := range entities {
		r.tokens[e.Token] = e
	}
	return nil
}

func (r *FileTokenRepository) save() error {
	entities := make([]TokenEntity, 0, len(r.tokens))
	for _, e := range r.tokens {
		entities = append(entities, e)
	}

	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "one_time_tokens.json.tmp")
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "one_time_tokens.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
