package tokengenerator

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JwtService {
	generator := NewJwtTokenGenerator("test-secret", "simple-auth", "simple-auth")
	return NewJwtService(generator,
		WithAccessTokenExpiry(5*time.Minute),
		WithRefreshTokenExpiry(15*time.Minute),
		WithTempTokenExpiry(10*time.Minute),
	)
}

func TestGenerateTokens(t *testing.T) {
	service := newTestService()

	tokens, err := service.GenerateTokens("user-1", map[string]interface{}{"email": "a@example.com"})
	require.NoError(t, err)
	require.Contains(t, tokens, ACCESS_TOKEN_NAME)
	require.Contains(t, tokens, REFRESH_TOKEN_NAME)
	assert.NotEqual(t, tokens[ACCESS_TOKEN_NAME].Token, tokens[REFRESH_TOKEN_NAME].Token)

	claims, err := service.ParseTokenClaims(ACCESS_TOKEN_NAME, tokens[ACCESS_TOKEN_NAME].Token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", claims["email"])
}

func TestGenerateTempToken(t *testing.T) {
	service := newTestService()

	tokens, err := service.GenerateTempToken("user-1", map[string]interface{}{"user_id": "user-1"})
	require.NoError(t, err)
	require.Contains(t, tokens, TEMP_TOKEN_NAME)

	claims, err := service.ParseTokenClaims(TEMP_TOKEN_NAME, tokens[TEMP_TOKEN_NAME].Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
}

func TestParseRejectsWrongSecret(t *testing.T) {
	service := newTestService()
	tokens, err := service.GenerateTempToken("user-1", map[string]interface{}{"user_id": "user-1"})
	require.NoError(t, err)

	other := NewJwtService(NewJwtTokenGenerator("other-secret", "simple-auth", "simple-auth"))
	_, err = other.ParseTokenClaims(TEMP_TOKEN_NAME, tokens[TEMP_TOKEN_NAME].Token)
	assert.Error(t, err)
}

func TestSetTokensCookie(t *testing.T) {
	service := newTestService()
	tokens, err := service.GenerateTokens("user-1", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	setter := NewCookieSetter(true, false)
	require.NoError(t, SetTokensCookie(setter, w, tokens))

	cookies := w.Result().Cookies()
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
		assert.True(t, c.HttpOnly)
	}
	assert.ElementsMatch(t, []string{ACCESS_TOKEN_NAME, REFRESH_TOKEN_NAME}, names)
}
