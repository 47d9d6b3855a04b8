package session

import (
	"context"
	"sync"
)

// MemoryBackend keeps sessions in process memory
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]map[string]string)}
}

func (b *MemoryBackend) Get(_ context.Context, scope, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[scope][key]
	return v, ok, nil
}

func (b *MemoryBackend) Set(_ context.Context, scope, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.values[scope] == nil {
		b.values[scope] = make(map[string]string)
	}
	b.values[scope][key] = value
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, scope string, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, key := range keys {
		delete(b.values[scope], key)
	}
	if len(b.values[scope]) == 0 {
		delete(b.values, scope)
	}
	return nil
}
