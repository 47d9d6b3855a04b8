// Package session persists the login state of each console client.
//
// Values are stored per scope (one scope per browser client) under the same
// keys the dashboard pages have always used, so a reload or a process restart
// finds the session exactly where the login left it.
package session

import (
	"context"
	"fmt"

	"github.com/apollotyres/console/internal/models"
)

// Persisted keys
const (
	KeyToken     = "authToken"
	KeyEmail     = "userEmail"
	KeyName      = "userName"
	KeyRole      = "userRole"
	KeyCreatedAt = "userCreatedAt"
	KeyLastLogin = "userLastLogin"
)

// AllKeys lists every key owned by the session
var AllKeys = []string{KeyToken, KeyEmail, KeyName, KeyRole, KeyCreatedAt, KeyLastLogin}

// Backend is a scoped key-value persistence engine
type Backend interface {
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value string) error
	Delete(ctx context.Context, scope string, keys ...string) error
}

// Store is the session of a single client.
//
// Only the login flow calls Set. Any component that receives an
// authentication rejection may call Clear.
type Store struct {
	backend Backend
	scope   string
}

// NewStore binds backend to the given client scope
func NewStore(backend Backend, scope string) *Store {
	return &Store{backend: backend, scope: scope}
}

// Scope returns the client the store belongs to
func (s *Store) Scope() string {
	return s.scope
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.backend.Get(ctx, s.scope, key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read session %s: %w", key, err)
	}
	return v, ok, nil
}

// Set writes a value. Empty values are ignored so optional attributes never
// overwrite what is already stored with nothing.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if value == "" {
		return nil
	}
	if err := s.backend.Set(ctx, s.scope, key, value); err != nil {
		return fmt.Errorf("failed to write session %s: %w", key, err)
	}
	return nil
}

// Clear removes every session key
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.scope, AllKeys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Token returns the session credential. A read failure counts as logged out.
func (s *Store) Token(ctx context.Context) string {
	v, ok, err := s.Get(ctx, KeyToken)
	if err != nil || !ok {
		return ""
	}
	return v
}

// Profile reads the whole session
func (s *Store) Profile(ctx context.Context) (models.Session, error) {
	values := make(map[string]string, len(AllKeys))
	for _, key := range AllKeys {
		v, ok, err := s.Get(ctx, key)
		if err != nil {
			return models.Session{}, err
		}
		if ok {
			values[key] = v
		}
	}

	return models.Session{
		Token:     values[KeyToken],
		Role:      models.ParseRole(values[KeyRole]),
		Email:     values[KeyEmail],
		Name:      values[KeyName],
		CreatedAt: models.ParseTimestamp(values[KeyCreatedAt]),
		LastLogin: models.ParseTimestamp(values[KeyLastLogin]),
	}, nil
}
