package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"strings"
)

const randomAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateRandomString returns a random string of the given length drawn from
// a URL-safe alphanumeric alphabet.
func GenerateRandomString(length int) string {
	if length <= 0 {
		return ""
	}
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing means the platform RNG is broken
		panic(err)
	}
	for i, b := range bytes {
		bytes[i] = randomAlphabet[int(b)%len(randomAlphabet)]
	}
	return string(bytes)
}

// GenerateBase32Secret returns a random Base32 secret of numBytes entropy,
// suitable for authenticator shared secrets.
func GenerateBase32Secret(numBytes int) (string, error) {
	bytes := make([]byte, numBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(bytes), nil
}

// HashEmail returns a hex SHA-256 fingerprint of the lowercased email,
// used to reference delivery options without exposing the address.
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

// MaskEmail masks the local part of an email for display, keeping the first
// and last character: "jsmith@example.com" -> "j****h@example.com".
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	local := email[:at]
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + email[at:]
	}
	return local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:] + email[at:]
}
