// Package secretstore persists the small set of secrets the client needs between runs:
// the stored credentials and the serialized cookie jar.
package secretstore

import (
	"context"
	"sync"
)

const (
	KeyCredentials = "credentials"
	KeyCookieJar   = "cookieJar"
)

// Store is a plain key-value store. Reads must reflect the most recent write made by the
// same process, nothing else (transactions, watches) is required.
type Store interface {
	// Get returns the value under key, ok is false when the key has never been set
	// or has been deleted.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Delete is a no-op for keys that do not exist.
	Delete(ctx context.Context, key string) error
}

// Memory is a Store kept in process memory.
type Memory struct {
	mutex  sync.Mutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.values, key)
	return nil
}

// Keys returns the keys currently set, in no particular order.
func (m *Memory) Keys() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys
}
