package oauth2client

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/simple-auth/pkg/errors"
	"github.com/tendant/simple-auth/pkg/utils"
)

const clientSecretLength = 40

// RegisterClientParams are the inputs for registering a client application.
type RegisterClientParams struct {
	Name         string
	RedirectURIs []string
	Scopes       []string
}

// RegisteredClient is the registration result. Secret is the plaintext
// client secret, returned this one time only.
type RegisteredClient struct {
	Client Client
	Secret string
}

// ClientService manages client applications and validates their credentials.
type ClientService struct {
	repo ClientRepository
}

func NewClientService(repo ClientRepository) *ClientService {
	return &ClientService{repo: repo}
}

// Register creates a client with a generated ID and secret.
func (s *ClientService) Register(ctx context.Context, params RegisterClientParams) (RegisteredClient, error) {
	if strings.TrimSpace(params.Name) == "" {
		return RegisteredClient{}, errors.New(errors.ErrCodeInvalidInput, "client name is required")
	}

	secret := utils.GenerateRandomString(clientSecretLength)
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return RegisteredClient{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to hash client secret")
	}

	client, err := s.repo.CreateClient(ctx, Client{
		ClientID:     utils.GenerateRandomString(24),
		SecretHash:   hash,
		Name:         params.Name,
		RedirectURIs: params.RedirectURIs,
		Scopes:       params.Scopes,
	})
	if err != nil {
		slog.Error("Failed to create client", "name", params.Name, "err", err)
		return RegisteredClient{}, errors.Persistence(err, "failed to create client")
	}

	slog.Info("Registered client application", "clientID", client.ClientID, "name", client.Name)
	return RegisteredClient{Client: client, Secret: secret}, nil
}

// ValidateCredentials checks a client ID and secret pair. Unknown clients and
// wrong secrets return the same error.
func (s *ClientService) ValidateCredentials(ctx context.Context, clientID, clientSecret string) (Client, error) {
	client, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		return Client{}, errors.New(errors.ErrCodeInvalidCredentials, "invalid client credentials")
	}
	if bcrypt.CompareHashAndPassword(client.SecretHash, []byte(clientSecret)) != nil {
		return Client{}, errors.New(errors.ErrCodeInvalidCredentials, "invalid client credentials")
	}
	return client, nil
}

// Get returns a client by ID.
func (s *ClientService) Get(ctx context.Context, clientID string) (Client, error) {
	client, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		return Client{}, errors.Wrap(err, errors.ErrCodeNotFound, "client not found")
	}
	return client, nil
}

// List returns every registered client.
func (s *ClientService) List(ctx context.Context) ([]Client, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, errors.Persistence(err, "failed to list clients")
	}
	return clients, nil
}

// Delete removes a client registration.
func (s *ClientService) Delete(ctx context.Context, clientID string) error {
	if err := s.repo.DeleteClient(ctx, clientID); err != nil {
		return errors.Wrap(err, errors.ErrCodeNotFound, "client not found")
	}
	return nil
}
