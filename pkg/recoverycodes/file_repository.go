package recoverycodes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileRecoveryCodeRepository implements RecoveryCodeRepository using
// file-based storage
type FileRecoveryCodeRepository struct {
	dataDir string
	codes   map[uuid.UUID][]RecoveryCodeEntity // keyed by user ID
	mutex   sync.Mutex
}

// NewFileRecoveryCodeRepository creates a new file-based recovery code
// repository
func NewFileRecoveryCodeRepository(dataDir string) (*FileRecoveryCodeRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRecoveryCodeRepository{
		dataDir: dataDir,
		codes:   make(map[uuid.UUID][]RecoveryCodeEntity),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// ReplaceCodes atomically replaces the user's batch with new fingerprints
func (r *FileRecoveryCodeRepository) ReplaceCodes(ctx context.Context, userID uuid.UUID, codeHashes []string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	previous := r.codes[userID]

	now := time.Now().UTC()
	batch := make([]RecoveryCodeEntity, 0, len(codeHashes))
	for _, hash := range codeHashes {
		batch = append(batch, RecoveryCodeEntity{
			ID:        uuid.New(),
			UserID:    userID,
			CodeHash:  hash,
			CreatedAt: now,
		})
	}
	r.codes[userID] = batch

	if err := r.save(); err != nil {
		r.codes[userID] = previous
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// ConsumeCode marks the matching unconsumed code as consumed. The check and
// the mark happen under one lock, so a given code is consumable at most once.
func (r *FileRecoveryCodeRepository) ConsumeCode(ctx context.Context, userID uuid.UUID, codeHash string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	batch := r.codes[userID]
	for i := range batch {
		if batch[i].CodeHash == codeHash && !batch[i].Consumed {
			now := time.Now().UTC()
			batch[i].Consumed = true
			batch[i].ConsumedAt = &now

			if err := r.save(); err != nil {
				batch[i].Consumed = false
				batch[i].ConsumedAt = nil
				return false, fmt.Errorf("failed to save: %w", err)
			}
			return true, nil
		}
	}
	return false, nil
}

// CountUnconsumed returns the number of still-redeemable codes
func (r *FileRecoveryCodeRepository) CountUnconsumed(ctx context.Context, userID uuid.UUID) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	count := 0
	for _, c := range r.codes[userID] {
		if !c.Consumed {
			count++
		}
	}
	return count, nil
}

// DeleteCodes removes every code for the user
func (r *FileRecoveryCodeRepository) DeleteCodes(ctx context.Context, userID uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	previous, exists := r.codes[userID]
	if !exists {
		return nil
	}
	delete(r.codes, userID)

	if err := r.save(); err != nil {
		r.codes[userID] = previous
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

func (r *FileRecoveryCodeRepository) load() error {
	filePath := filepath.Join(r.dataDir, "recovery_codes.json")

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

	var entities []RecoveryCodeEntity
	if err := json.Unmarshal(data, &entities); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.codes = make(map[uuid.UUID][]RecoveryCodeEntity)
	for _, e := range entities {
		r.codes[e.UserID] = append(r.codes[e.UserID], e)
	}
	return nil
}

func (r *FileRecoveryCodeRepository) save() error {
	var entities []RecoveryCodeEntity
	for _, batch := range r.codes {
		entities = append(entities, batch...)
	}

	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "recovery_codes.json.tmp")
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "recovery_codes.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
