package totp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-auth/pkg/errors"
	"github.com/tendant/simple-auth/pkg/user"
)

func newTestProvider(t *testing.T) (*KeyProvider, *user.UserService, user.User) {
	t.Helper()
	repo, err := user.NewFileUserRepository(t.TempDir())
	require.NoError(t, err)
	users := user.NewUserService(repo)

	u, err := users.Register(context.Background(), user.RegisterParams{
		Email:    "alice@example.com",
		Password: "pw",
	})
	require.NoError(t, err)

	return NewKeyProvider(users, "simple-auth"), users, u
}

func TestFormatKey(t *testing.T) {
	assert.Equal(t, "ABCD EFGH IJKL MNOP", FormatKey("ABCDEFGHIJKLMNOP"))
	assert.Equal(t, "ABCD EFGH IJKL MNOP", FormatKey("abcdefghijklmnop"))
	// uneven tail stays as a short final group
	assert.Equal(t, "ABCD EF", FormatKey("ABCDEF"))
}

func TestGenerateKeyPersists(t *testing.T) {
	provider, users, u := newTestProvider(t)
	ctx := context.Background()

	key, err := provider.GenerateKey(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, key)

	stored, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, key, stored.AuthenticatorSecret)
}

func TestQRCodeURIRequiresKey(t *testing.T) {
	provider, _, u := newTestProvider(t)
	ctx := context.Background()

	_, err := provider.GenerateQRCodeURI(ctx, u.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidState))
}

func TestQRCodeURIIdempotentWithoutReset(t *testing.T) {
	provider, _, u := newTestProvider(t)
	ctx := context.Background()

	key, err := provider.GenerateKey(ctx, u.ID)
	require.NoError(t, err)

	uri1, err := provider.GenerateQRCodeURI(ctx, u.ID)
	require.NoError(t, err)
	uri2, err := provider.GenerateQRCodeURI(ctx, u.ID)
	require.NoError(t, err)

	assert.Equal(t, uri1, uri2)
	assert.True(t, strings.HasPrefix(uri1, "otpauth://totp/simple-auth:"))
	assert.Contains(t, uri1, "secret="+key)
	assert.Contains(t, uri1, "issuer=simple-auth")
	assert.Contains(t, uri1, "digits=6")
	assert.Contains(t, uri1, "alice%40example.com")
}

func TestEnsureKeyReusesExisting(t *testing.T) {
	provider, _, u := newTestProvider(t)
	ctx := context.Background()

	key1, err := provider.EnsureKey(ctx, u.ID)
	require.NoError(t, err)
	key2, err := provider.EnsureKey(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, key1, key2)

	// explicit regenerate invalidates the old key
	key3, err := provider.GenerateKey(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key3)
}

func TestValidate(t *testing.T) {
	provider, _, u := newTestProvider(t)
	ctx := context.Background()

	key, err := provider.GenerateKey(ctx, u.ID)
	require.NoError(t, err)

	code, err := pqtotp.GenerateCodeCustom(key, time.Now().UTC(), pqtotp.ValidateOpts{
		Period:    AUTHENTICATOR_PERIOD,
		Skew:      SKEW,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)

	valid, err := provider.Validate(ctx, code, u.ID)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = provider.Validate(ctx, "000000", u.ID)
	require.NoError(t, err)
	assert.False(t, valid, "wrong code returns false, not an error")
}

func TestEmailPasscodeRoundTrip(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"

	code, err := GeneratePasscode(secret, EMAIL_PERIOD)
	require.NoError(t, err)

	valid, err := ValidatePasscode(secret, code, EMAIL_PERIOD)
	require.NoError(t, err)
	assert.True(t, valid)

	// a code for the email period is not valid in the authenticator window
	valid, err = ValidatePasscode(secret, "123456", EMAIL_PERIOD)
	require.NoError(t, err)
	assert.False(t, valid)
}
