package flat

import (
	"sync"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

var _ driven.VectorIndexProvider = (*Registry)(nil)

// Loader warms a freshly created index with a session's stored vectors.
// It runs once, on first access of the session.
type Loader func(sessionID string, index *Index) error

// Registry hands out one Index per session so that sessions never see
// each other's vectors.
type Registry struct {
	mu        sync.Mutex
	dimension int
	loader    Loader
	indexes   map[string]*Index
}

// RegistryOption configures the registry.
type RegistryOption func(*Registry)

// WithLoader sets the warm-up loader for newly created indexes.
func WithLoader(loader Loader) RegistryOption {
	return func(r *Registry) {
		r.loader = loader
	}
}

// NewRegistry creates a provider whose indexes share a fixed
// dimensionality. Pass 0 to let each index learn its dimension from
// its first insert.
func NewRegistry(dimension int, opts ...RegistryOption) *Registry {
	r := &Registry{
		dimension: dimension,
		indexes:   make(map[string]*Index),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ForSession returns the session's index, creating it on first use.
// A loader failure leaves the index empty rather than unusable.
func (r *Registry) ForSession(sessionID string) driven.VectorIndex {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.indexes[sessionID]
	if !ok {
		idx = New(r.dimension)
		if r.loader != nil {
			if err := r.loader(sessionID, idx); err != nil {
				logger.Warn("Warming index for session %s failed: %v", sessionID, err)
			}
		}
		r.indexes[sessionID] = idx
	}
	return idx
}

// DropSession discards the session's index, if any.
func (r *Registry) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.indexes[sessionID]; ok {
		_ = idx.Close()
		delete(r.indexes, sessionID)
	}
}

// Close releases every index held by the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, idx := range r.indexes {
		_ = idx.Close()
		delete(r.indexes, id)
	}
	return nil
}
