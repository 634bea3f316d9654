package store

import (
	"context"
	"sync"
)

// Backend is a synchronous key/value medium holding raw bytes.
type Backend interface {
	// Get returns the value stored under key. ok is false when the key has
	// never been written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
}

// MemoryBackend is an in-memory Backend for tests and throwaway sessions.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Get implements Backend.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set implements Backend.
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	b.data[key] = v
	return nil
}
