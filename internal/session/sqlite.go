package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLiteBackend stores sessions in the session_values table of a SQLite database
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend expects db to be migrated already (see database.OpenSQLite)
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

func (b *SQLiteBackend) Get(ctx context.Context, scope, key string) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM session_values WHERE scope = ? AND key = ?`,
		scope, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select session value: %w", err)
	}
	return value, true, nil
}

func (b *SQLiteBackend) Set(ctx context.Context, scope, key, value string) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO session_values (scope, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, scope, key, value)
	if err != nil {
		return fmt.Errorf("upsert session value: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	args := make([]any, 0, len(keys)+1)
	args = append(args, scope)
	for _, key := range keys {
		args = append(args, key)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")

	_, err := b.db.ExecContext(ctx,
		`DELETE FROM session_values WHERE scope = ? AND key IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("delete session values: %w", err)
	}
	return nil
}
