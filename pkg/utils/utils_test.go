package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomString(t *testing.T) {
	s := GenerateRandomString(32)
	assert.Len(t, s, 32)

	// two draws must differ
	assert.NotEqual(t, s, GenerateRandomString(32))

	assert.Empty(t, GenerateRandomString(0))
}

func TestGenerateBase32Secret(t *testing.T) {
	secret, err := GenerateBase32Secret(20)
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.NotContains(t, secret, "=")
}

func TestHashEmail(t *testing.T) {
	h1 := HashEmail("Admin@Example.com")
	h2 := HashEmail("admin@example.com")
	assert.Equal(t, h1, h2, "hash is case-insensitive on the address")
	assert.Len(t, h1, 64)
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j****h@example.com", MaskEmail("jsmith@example.com"))
	assert.Equal(t, "**@example.com", MaskEmail("ab@example.com"))
	assert.Equal(t, "not-an-email", MaskEmail("not-an-email"))
}
