package tokenverifier

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-auth/pkg/errors"
)

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	repo, err := NewFileTokenRepository(t.TempDir())
	require.NoError(t, err)
	return NewVerifier(repo)
}

func TestGenerateAndVerify(t *testing.T) {
	v := newTestVerifier(t)
	ctx := context.Background()
	userID := uuid.New()

	token, err := v.Generate(ctx, userID, PurposeEmailConfirmation, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := v.Verify(ctx, token, PurposeEmailConfirmation)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyIsSingleUse(t *testing.T) {
	v := newTestVerifier(t)
	ctx := context.Background()

	token, err := v.Generate(ctx, uuid.New(), PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(ctx, token, PurposePasswordReset)
	require.NoError(t, err)

	_, err = v.Verify(ctx, token, PurposePasswordReset)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenInvalid))
}

func TestVerifyRejectsWrongPurpose(t *testing.T) {
	v := newTestVerifier(t)
	ctx := context.Background()

	token, err := v.Generate(ctx, uuid.New(), PurposeEmailConfirmation, time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(ctx, token, PurposePasswordReset)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenInvalid))

	// a failed purpose check does not consume the token
	_, err = v.Verify(ctx, token, PurposeEmailConfirmation)
	assert.NoError(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := newTestVerifier(t)
	ctx := context.Background()

	token, err := v.Generate(ctx, uuid.New(), PurposePasswordReset, time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = v.Verify(ctx, token, PurposePasswordReset)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenExpired))
}

func TestVerifyRejectsUnknownAndEmptyTokens(t *testing.T) {
	v := newTestVerifier(t)
	ctx := context.Background()

	_, err := v.Verify(ctx, "no-such-token", PurposePasswordReset)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenInvalid))

	_, err = v.Verify(ctx, "", PurposePasswordReset)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

func TestDeleteExpired(t *testing.T) {
	repo, err := NewFileTokenRepository(t.TempDir())
	require.NoError(t, err)
	v := NewVerifier(repo)
	ctx := context.Background()

	expired, err := v.Generate(ctx, uuid.New(), PurposeEmailConfirmation, time.Millisecond)
	require.NoError(t, err)
	live, err := v.Generate(ctx, uuid.New(), PurposeEmailConfirmation, time.Hour)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.DeleteExpired(ctx, time.Now().UTC()))

	_, err = repo.GetToken(ctx, expired)
	assert.Error(t, err)
	_, err = repo.GetToken(ctx, live)
	assert.NoError(t, err)
}
