package config

import (
	"fmt"
)

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Host     string `env:"AUTH_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"AUTH_PG_PORT" env-default:"5432"`
	Database string `env:"AUTH_PG_DATABASE" env-default:"auth_db"`
	User     string `env:"AUTH_PG_USER" env-default:"auth"`
	Password string `env:"AUTH_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"AUTH_PG_SCHEMA" env-default:"public"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// EmailConfig holds SMTP email configuration
type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME" env-default:"noreply@example.com"`
	Password string `env:"EMAIL_PASSWORD" env-default:"pwd"`
	From     string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
}

// JwtConfig holds token signing and cookie configuration
type JwtConfig struct {
	Secret             string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer             string `env:"JWT_ISSUER" env-default:"simple-auth"`
	Audience           string `env:"JWT_AUDIENCE" env-default:"simple-auth"`
	AccessTokenExpiry  string `env:"ACCESS_TOKEN_EXPIRY" env-default:"5m"`
	RefreshTokenExpiry string `env:"REFRESH_TOKEN_EXPIRY" env-default:"15m"`
	TempTokenExpiry    string `env:"TEMP_TOKEN_EXPIRY" env-default:"10m"`
	CookieHttpOnly     bool   `env:"COOKIE_HTTP_ONLY" env-default:"true"`
	CookieSecure       bool   `env:"COOKIE_SECURE" env-default:"true"`
}

// TotpConfig holds authenticator provisioning configuration
type TotpConfig struct {
	Issuer string `env:"TOTP_ISSUER" env-default:"simple-auth"`
}

// AppConfig is the top-level configuration for the auth service
type AppConfig struct {
	Host            string `env:"AUTH_HOST" env-default:"localhost"`
	Port            uint16 `env:"AUTH_PORT" env-default:"4000"`
	PersistenceType string `env:"AUTH_PERSISTENCE" env-default:"file"`
	DataDir         string `env:"AUTH_DATA_DIR" env-default:"./data"`
	BaseURL         string `env:"AUTH_BASE_URL" env-default:"http://localhost:4000"`

	Database DatabaseConfig
	Email    EmailConfig
	Jwt      JwtConfig
	Totp     TotpConfig
}
