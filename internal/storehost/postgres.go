package storehost

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the document in a single-row table, for
// deployments that want the roster in the same database as everything
// else instead of a file on disk.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Load reads the stored document, or ErrNoDocument when absent.
func (s *PostgresStore) Load(ctx context.Context) ([]byte, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM roster_documents WHERE id = 1`).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoDocument
		}
		return nil, err
	}
	return body, nil
}

// Save upserts the single document row.
func (s *PostgresStore) Save(ctx context.Context, body []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO roster_documents (id, body, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()
	`, body)
	return err
}
