package oauth2client

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresClientRepository implements ClientRepository using PostgreSQL
type PostgresClientRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresClientRepository creates a new PostgreSQL-based client repository
func NewPostgresClientRepository(pool *pgxpool.Pool) *PostgresClientRepository {
	return &PostgresClientRepository{pool: pool}
}

const clientColumns = `client_id, secret_hash, name, redirect_uris, scopes, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ClientID, &c.SecretHash, &c.Name, &c.RedirectURIs, &c.Scopes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateClient stores a new client
func (r *PostgresClientRepository) CreateClient(ctx context.Context, client Client) (Client, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO oauth2_clients (client_id, secret_hash, name, redirect_uris, scopes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING `+clientColumns,
		client.ClientID, client.SecretHash, client.Name, client.RedirectURIs, client.Scopes)
	created, err := scanClient(row)
	if err != nil {
		return Client{}, fmt.Errorf("failed to create client: %w", err)
	}
	return created, nil
}

// GetClient retrieves a client by ID
func (r *PostgresClientRepository) GetClient(ctx context.Context, clientID string) (Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+clientColumns+` FROM oauth2_clients WHERE client_id = $1`, clientID)
	client, err := scanClient(row)
	if err == pgx.ErrNoRows {
		return Client{}, fmt.Errorf("client not found: %s", clientID)
	}
	if err != nil {
		return Client{}, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// UpdateClient replaces the stored client record
func (r *PostgresClientRepository) UpdateClient(ctx context.Context, client Client) (Client, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE oauth2_clients
		SET secret_hash = $2, name = $3, redirect_uris = $4, scopes = $5, updated_at = now()
		WHERE client_id = $1
		RETURNING `+clientColumns,
		client.ClientID, client.SecretHash, client.Name, client.RedirectURIs, client.Scopes)
	updated, err := scanClient(row)
	if err == pgx.ErrNoRows {
		return Client{}, fmt.Errorf("client not found: %s", client.ClientID)
	}
	if err != nil {
		return Client{}, fmt.Errorf("failed to update client: %w", err)
	}
	return updated, nil
}

// DeleteClient removes a client
func (r *PostgresClientRepository) DeleteClient(ctx context.Context, clientID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM oauth2_clients WHERE client_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client not found: %s", clientID)
	}
	return nil
}

// ListClients returns all registered clients ordered by ID
func (r *PostgresClientRepository) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+clientColumns+` FROM oauth2_clients ORDER BY client_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}
