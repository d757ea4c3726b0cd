package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProvider authenticates against the users table by API token.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

func (p *PostgresProvider) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrAuthFailed
	}
	var id uuid.UUID
	err := p.pool.QueryRow(ctx, `SELECT id FROM users WHERE api_token = $1`, token).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrAuthFailed
		}
		return uuid.Nil, fmt.Errorf("authenticate: %w", err)
	}
	return id, nil
}
