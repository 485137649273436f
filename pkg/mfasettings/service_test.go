package mfasettings

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-auth/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	repo, err := NewFileMfaSettingsRepository(t.TempDir())
	require.NoError(t, err)
	return NewStore(repo)
}

func TestGetDefaultsToDisabled(t *testing.T) {
	store := newTestStore(t)
	userID := uuid.New()

	settings, err := store.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, settings.UserID)
	assert.False(t, settings.AnyEnabled())
}

func TestSetFlagsAreIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.SetEmail(ctx, userID, true))
	require.NoError(t, store.SetAuthenticator(ctx, userID, true))

	settings, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, settings.EmailEnabled)
	assert.True(t, settings.AuthenticatorEnabled)
	assert.False(t, settings.PasskeysEnabled)

	// flipping one flag leaves the others untouched
	require.NoError(t, store.SetEmail(ctx, userID, false))

	settings, err = store.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, settings.EmailEnabled)
	assert.True(t, settings.AuthenticatorEnabled)
}

func TestDeleteSettings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.SetPasskeys(ctx, userID, true))
	require.NoError(t, store.Delete(ctx, userID))

	settings, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, settings.AnyEnabled())
}

type failingRepo struct{}

func (failingRepo) GetSettings(ctx context.Context, userID uuid.UUID) (MfaSettings, error) {
	return MfaSettings{}, fmt.Errorf("connection refused")
}
func (failingRepo) SetEmailEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return fmt.Errorf("connection refused")
}
func (failingRepo) SetAuthenticatorEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return fmt.Errorf("connection refused")
}
func (failingRepo) SetPasskeysEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return fmt.Errorf("connection refused")
}
func (failingRepo) DeleteSettings(ctx context.Context, userID uuid.UUID) error {
	return fmt.Errorf("connection refused")
}

func TestPersistenceFailuresAreTyped(t *testing.T) {
	store := NewStore(failingRepo{})
	ctx := context.Background()
	userID := uuid.New()

	_, err := store.Get(ctx, userID)
	assert.True(t, errors.IsCode(err, errors.ErrCodePersistence))

	assert.True(t, errors.IsCode(store.SetEmail(ctx, userID, true), errors.ErrCodePersistence))
	assert.True(t, errors.IsCode(store.SetAuthenticator(ctx, userID, true), errors.ErrCodePersistence))
	assert.True(t, errors.IsCode(store.SetPasskeys(ctx, userID, true), errors.ErrCodePersistence))
	assert.True(t, errors.IsCode(store.Delete(ctx, userID), errors.ErrCodePersistence))
}
