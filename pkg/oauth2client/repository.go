package oauth2client

import (
	"context"
	"time"
)

// Client is a registered application allowed to call the token endpoints.
// The secret is stored as a bcrypt hash; the plaintext is shown once at
// registration.
type Client struct {
	ClientID     string    `json:"client_id"`
	SecretHash   []byte    `json:"secret_hash"`
	Name         string    `json:"name"`
	RedirectURIs []string  `json:"redirect_uris"`
	Scopes       []string  `json:"scopes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClientRepository defines the persistence operations for registered clients.
type ClientRepository interface {
	CreateClient(ctx context.Context, client Client) (Client, error)
	GetClient(ctx context.Context, clientID string) (Client, error)
	UpdateClient(ctx context.Context, client Client) (Client, error)
	DeleteClient(ctx context.Context, clientID string) error
	ListClients(ctx context.Context) ([]Client, error)
}
