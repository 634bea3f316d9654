package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/eternal/internal/store"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewMemoryStore returns a Record Store over a fresh in-memory backend with
// logging suppressed. Extra options are applied after the defaults.
func NewMemoryStore(opts ...store.Option) (*store.Store, *store.MemoryBackend) {
	backend := store.NewMemoryBackend()
	opts = append([]store.Option{store.WithLogger(DiscardLogger())}, opts...)
	return store.New(backend, opts...), backend
}
