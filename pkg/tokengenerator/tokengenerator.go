package tokengenerator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token name constants
const (
	ACCESS_TOKEN_NAME  = "access_token"
	REFRESH_TOKEN_NAME = "refresh_token"
	TEMP_TOKEN_NAME    = "temp_token"
)

// TokenGenerator interface defines methods for token operations
type TokenGenerator interface {
	// GenerateToken generates a token with the given subject, expiry and extra claims
	GenerateToken(subject string, expiry time.Duration, extraClaims map[string]interface{}) (string, time.Time, error)

	// ParseToken parses and validates a token
	ParseToken(tokenStr string) (*jwt.Token, error)
}

// Claims struct for JWT claims
type Claims struct {
	ExtraClaims interface{} `json:"extra_claims,omitempty"`
	jwt.RegisteredClaims
}

// JwtTokenGenerator implements TokenGenerator using HS256-signed JWTs
type JwtTokenGenerator struct {
	Secret   string
	Issuer   string
	Audience string
}

// NewJwtTokenGenerator creates a new JwtTokenGenerator
func NewJwtTokenGenerator(secret, issuer, audience string) *JwtTokenGenerator {
	return &JwtTokenGenerator{
		Secret:   secret,
		Issuer:   issuer,
		Audience: audience,
	}
}

// GenerateToken creates a new token with the given subject and claims
func (g *JwtTokenGenerator) GenerateToken(subject string, expiry time.Duration, extraClaims map[string]interface{}) (string, time.Time, error) {
	now := time.Now().UTC()
	claims := Claims{
		ExtraClaims: extraClaims,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Minute)),
			Issuer:    g.Issuer,
			Subject:   subject,
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{g.Audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(g.Secret))
	if err != nil {
		slog.Error("Failed to sign JWT claims", "err", err)
		return "", time.Time{}, err
	}
	return ss, claims.ExpiresAt.Time, nil
}

// ParseToken parses and validates a token string
func (g *JwtTokenGenerator) ParseToken(tokenStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(g.Secret), nil
	})
	if err != nil {
		slog.Error("Failed to parse JWT string", "err", err)
		return token, err
	}
	if !token.Valid {
		return token, fmt.Errorf("invalid token")
	}
	return token, nil
}

// GetExtraClaims extracts the extra_claims map from a parsed token
func GetExtraClaims(token *jwt.Token) (map[string]interface{}, error) {
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims format")
	}
	extraRaw, ok := mapClaims["extra_claims"]
	if !ok {
		return nil, fmt.Errorf("extra_claims not found in token")
	}
	extra, ok := extraRaw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("extra_claims has invalid format")
	}
	return extra, nil
}
