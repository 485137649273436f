package oauth2client

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// InMemoryClientRepository implements ClientRepository with a map, suitable
// for tests and single-node deployments without a database.
type InMemoryClientRepository struct {
	clients map[string]Client
	mutex   sync.RWMutex
}

// NewInMemoryClientRepository creates a new in-memory client repository
func NewInMemoryClientRepository() *InMemoryClientRepository {
	return &InMemoryClientRepository{clients: make(map[string]Client)}
}

// CreateClient stores a new client
func (r *InMemoryClientRepository) CreateClient(ctx context.Context, client Client) (Client, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.clients[client.ClientID]; exists {
		return Client{}, fmt.Errorf("client already exists: %s", client.ClientID)
	}

	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now
	r.clients[client.ClientID] = client
	return client, nil
}

// GetClient retrieves a client by ID
func (r *InMemoryClientRepository) GetClient(ctx context.Context, clientID string) (Client, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	client, exists := r.clients[clientID]
	if !exists {
		return Client{}, fmt.Errorf("client not found: %s", clientID)
	}
	return client, nil
}

// UpdateClient replaces the stored client record
func (r *InMemoryClientRepository) UpdateClient(ctx context.Context, client Client) (Client, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.clients[client.ClientID]
	if !exists {
		return Client{}, fmt.Errorf("client not found: %s", client.ClientID)
	}

	client.CreatedAt = existing.CreatedAt
	client.UpdatedAt = time.Now().UTC()
	r.clients[client.ClientID] = client
	return client, nil
}

// DeleteClient removes a client
func (r *InMemoryClientRepository) DeleteClient(ctx context.Context, clientID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.clients[clientID]; !exists {
		return fmt.Errorf("client not found: %s", clientID)
	}
	delete(r.clients, clientID)
	return nil
}

// ListClients returns all registered clients ordered by ID
func (r *InMemoryClientRepository) ListClients(ctx context.Context) ([]Client, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	clients := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].ClientID < clients[j].ClientID
	})
	return clients, nil
}
