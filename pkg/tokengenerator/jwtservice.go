package tokengenerator

import (
	"fmt"
	"time"
)

// Default token expiry durations
const (
	DefaultAccessTokenExpiry  = 15 * time.Minute
	DefaultRefreshTokenExpiry = 24 * time.Hour
	DefaultTempTokenExpiry    = 5 * time.Minute
)

// TokenValue holds a generated token and its expiry
type TokenValue struct {
	Name   string
	Token  string
	Expiry time.Time
}

// TokenService defines the token issuance operations used by the sign-in flow
type TokenService interface {
	// GenerateTokens issues the access/refresh pair for a fully authenticated user
	GenerateTokens(subject string, extraClaims map[string]interface{}) (map[string]TokenValue, error)

	// GenerateTempToken issues the short-lived token that carries the
	// two-factor-pending state between login and verification
	GenerateTempToken(subject string, extraClaims map[string]interface{}) (map[string]TokenValue, error)

	// ParseTokenClaims parses a token by name and returns its extra claims
	ParseTokenClaims(tokenName, tokenStr string) (map[string]interface{}, error)
}

// JwtService implements TokenService on top of a TokenGenerator
type JwtService struct {
	generator TokenGenerator

	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	tempTokenExpiry    time.Duration
}

// JwtServiceOption configures a JwtService
type JwtServiceOption func(*JwtService)

// WithAccessTokenExpiry sets the access token expiry duration
func WithAccessTokenExpiry(expiry time.Duration) JwtServiceOption {
	return func(s *JwtService) {
		if expiry > 0 {
			s.accessTokenExpiry = expiry
		}
	}
}

// WithRefreshTokenExpiry sets the refresh token expiry duration
func WithRefreshTokenExpiry(expiry time.Duration) JwtServiceOption {
	return func(s *JwtService) {
		if expiry > 0 {
			s.refreshTokenExpiry = expiry
		}
	}
}

// WithTempTokenExpiry sets the temporary token expiry duration
func WithTempTokenExpiry(expiry time.Duration) JwtServiceOption {
	return func(s *JwtService) {
		if expiry > 0 {
			s.tempTokenExpiry = expiry
		}
	}
}

// NewJwtService creates a new JwtService
func NewJwtService(generator TokenGenerator, options ...JwtServiceOption) *JwtService {
	s := &JwtService{
		generator:          generator,
		accessTokenExpiry:  DefaultAccessTokenExpiry,
		refreshTokenExpiry: DefaultRefreshTokenExpiry,
		tempTokenExpiry:    DefaultTempTokenExpiry,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// GenerateTokens issues the access/refresh token pair
func (s *JwtService) GenerateTokens(subject string, extraClaims map[string]interface{}) (map[string]TokenValue, error) {
	tokens := make(map[string]TokenValue, 2)

	accessToken, accessExpiry, err := s.generator.GenerateToken(subject, s.accessTokenExpiry, extraClaims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	tokens[ACCESS_TOKEN_NAME] = TokenValue{Name: ACCESS_TOKEN_NAME, Token: accessToken, Expiry: accessExpiry}

	refreshToken, refreshExpiry, err := s.generator.GenerateToken(subject, s.refreshTokenExpiry, extraClaims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	tokens[REFRESH_TOKEN_NAME] = TokenValue{Name: REFRESH_TOKEN_NAME, Token: refreshToken, Expiry: refreshExpiry}

	return tokens, nil
}

// GenerateTempToken issues the short-lived two-factor-pending token
func (s *JwtService) GenerateTempToken(subject string, extraClaims map[string]interface{}) (map[string]TokenValue, error) {
	tempToken, expiry, err := s.generator.GenerateToken(subject, s.tempTokenExpiry, extraClaims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate temp token: %w", err)
	}
	return map[string]TokenValue{
		TEMP_TOKEN_NAME: {Name: TEMP_TOKEN_NAME, Token: tempToken, Expiry: expiry},
	}, nil
}

// ParseTokenClaims parses a token and returns its extra claims
func (s *JwtService) ParseTokenClaims(tokenName, tokenStr string) (map[string]interface{}, error) {
	token, err := s.generator.ParseToken(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", tokenName, err)
	}
	return GetExtraClaims(token)
}
