package mfasettings

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

// FileMfaSettingsRepository implements MfaSettingsRepository using file-based storage
type FileMfaSettingsRepository struct {
	dataDir  string
	settings map[uuid.UUID]MfaSettings
	mutex    sync.RWMutex
}

// NewFileMfaSettingsRepository creates a new file-based MFA settings repository
func NewFileMfaSettingsRepository(dataDir string) (*FileMfaSettingsRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileMfaSettingsRepository{
		dataDir:  dataDir,
		settings: make(map[uuid.UUID]MfaSettings),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// GetSettings returns the stored flags, or all-disabled defaults when no row
// exists yet.
func (r *FileMfaSettingsRepository) GetSettings(ctx context.Context, userID uuid.UUID) (MfaSettings, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	settings, exists := r.settings[userID]
	if !exists {
		return MfaSettings{UserID: userID}, nil
	}
	return settings, nil
}

// SetEmailEnabled updates only the email flag, creating the row if needed
func (r *FileMfaSettingsRepository) SetEmailEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return r.update(userID, func(s *MfaSettings) {
		s.EmailEnabled = enabled
	})
}

// SetAuthenticatorEnabled updates only the authenticator flag, creating the row if needed
func (r *FileMfaSettingsRepository) SetAuthenticatorEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return r.update(userID, func(s *MfaSettings) {
		s.AuthenticatorEnabled = enabled
	})
}

// SetPasskeysEnabled updates only the passkeys flag, creating the row if needed
func (r *FileMfaSettingsRepository) SetPasskeysEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return r.update(userID, func(s *MfaSettings) {
		s.PasskeysEnabled = enabled
	})
}

// DeleteSettings removes the row for a user
func (r *FileMfaSettingsRepository) DeleteSettings(ctx context.Context, userID uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.settings[userID]
	if !exists {
		return nil
	}
	delete(r.settings, userID)

	if err := r.save(); err != nil {
		r.settings[userID] = existing
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

func (r *FileMfaSettingsRepository) update(userID uuid.UUID, apply func(*MfaSettings)) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.settings[userID]
	settings := existing
	if !exists {
		settings = MfaSettings{UserID: userID}
	}
	apply(&settings)
	settings.UpdatedAt = time.Now().UTC()
	r.settings[userID] = settings

	if err := r.save(); err != nil {
		if exists {
			r.settings[userID] = existing
		} else {
			delete(r.settings, userID)
		}
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

func (r *FileMfaSettingsRepository) load() error {
	filePath := filepath.Join(r.dataDir, "mfa_settings.json")

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

	var rows []MfaSettings
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.settings = make(map[uuid.UUID]MfaSettings)
	for _, s := range rows {
		r.settings[s.UserID] = s
	}
	return nil
}

func (r *FileMfaSettingsRepository) save() error {
	rows := make([]MfaSettings, 0, len(r.settings))
	for _, s := range r.settings {
		rows = append(rows, s)
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "mfa_settings.json.tmp")
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "mfa_settings.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
