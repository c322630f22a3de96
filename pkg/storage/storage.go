// Package storage persists the small set of client state keys that must
// survive a restart, mirroring what the browser build keeps in
// localStorage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lumenmarket/storefront-client/pkg/config"
)

const (
	// KeyAccessToken holds the bearer credential string.
	KeyAccessToken = "access_token"
	// KeyUser holds the serialized identity JSON.
	KeyUser = "user"
)

// ErrNotFound is returned when a key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Store is the persisted key-value surface shared by all backends.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by configuration.
func Open(ctx context.Context, cfg config.StorageConfig, redisCfg config.RedisConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.StorageBackendMemory:
		return NewMemory(), nil
	case config.StorageBackendSQLite:
		return NewSQLite(cfg.SQLitePath)
	case config.StorageBackendRedis:
		return NewRedis(ctx, redisCfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Memory is an in-process store used by tests and ephemeral embeddings.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
