package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend stores sessions in Postgres so several console replicas can
// share them
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend expects the pool's database to be migrated already
// (see database.NewConnection)
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) Get(ctx context.Context, scope, key string) (string, bool, error) {
	var value string
	err := b.pool.QueryRow(ctx,
		`SELECT value FROM session_values WHERE scope = $1 AND key = $2`,
		scope, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select session value: %w", err)
	}
	return value, true, nil
}

func (b *PostgresBackend) Set(ctx context.Context, scope, key, value string) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO session_values (scope, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, scope, key, value)
	if err != nil {
		return fmt.Errorf("upsert session value: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := b.pool.Exec(ctx,
		`DELETE FROM session_values WHERE scope = $1 AND key = ANY($2)`,
		scope, keys,
	)
	if err != nil {
		return fmt.Errorf("delete session values: %w", err)
	}
	return nil
}
