package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-auth/pkg/errors"
)

func newTestService(t *testing.T) *UserService {
	t.Helper()
	repo, err := NewFileUserRepository(t.TempDir())
	require.NoError(t, err)
	return NewUserService(repo)
}

func TestRegisterAndVerifyPassword(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterParams{
		Email:    "Alice@Example.com",
		Name:     "Alice",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	valid, err := service.VerifyPassword(ctx, user.ID, "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = service.VerifyPassword(ctx, user.ID, "wrong-pass")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestRegisterRejectsEmptyInput(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterParams{Email: "", Password: "pw"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))

	_, err = service.Register(ctx, RegisterParams{Email: "a@example.com", Password: ""})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterParams{Email: "a@example.com", Password: "pw1"})
	require.NoError(t, err)

	_, err = service.Register(ctx, RegisterParams{Email: "a@example.com", Password: "pw2"})
	assert.True(t, errors.IsCode(err, errors.ErrCodePersistence))
}

func TestUpdateEmailClearsVerified(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterParams{Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)

	user.EmailVerified = true
	user, err = service.Update(ctx, user)
	require.NoError(t, err)
	require.True(t, user.EmailVerified)

	updated, err := service.UpdateEmail(ctx, user.ID, "New@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.False(t, updated.EmailVerified)
}

func TestSoftDeleteHidesUser(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterParams{Email: "gone@example.com", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, user.ID))

	_, err = service.FindByID(ctx, user.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUserNotFound))

	_, err = service.FindByEmail(ctx, "gone@example.com")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUserNotFound))
}

func TestUpdatePassword(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterParams{Email: "a@example.com", Password: "old-pw"})
	require.NoError(t, err)

	require.NoError(t, service.UpdatePassword(ctx, user.ID, "new-pw"))

	valid, err := service.VerifyPassword(ctx, user.ID, "new-pw")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = service.VerifyPassword(ctx, user.ID, "old-pw")
	require.NoError(t, err)
	assert.False(t, valid)

	err = service.UpdatePassword(ctx, user.ID, "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))

	err = service.UpdatePassword(ctx, uuid.New(), "whatever")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUserNotFound))
}

func TestMarkEmailVerified(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterParams{Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)
	require.False(t, user.EmailVerified)

	require.NoError(t, service.MarkEmailVerified(ctx, user.ID))

	updated, err := service.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, updated.EmailVerified)

	err = service.MarkEmailVerified(ctx, uuid.New())
	assert.True(t, errors.IsCode(err, errors.ErrCodeUserNotFound))
}
