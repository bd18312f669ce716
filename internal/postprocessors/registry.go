package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// BuilderFunc creates a PostProcessor from chunking settings. Builders
// that need no tunables ignore the argument.
type BuilderFunc func(settings domain.ChunkingSettings) (driven.PostProcessor, error)

// Registry holds named processor builders in registration order, so a
// pipeline assembled from it always chunks before anything that
// annotates the chunks.
type Registry struct {
	builders map[string]BuilderFunc
	order    []string
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a processor builder under the given name. Re-registering
// a name replaces the builder but keeps its original position.
func (r *Registry) Register(name string, builder BuilderFunc) {
	if _, exists := r.builders[name]; !exists {
		r.order = append(r.order, name)
	}
	r.builders[name] = builder
}

// Build creates a single processor by name.
func (r *Registry) Build(name string, settings domain.ChunkingSettings) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown processor: %s", name)
	}
	return builder(settings)
}

// Pipeline builds every registered processor in registration order and
// chains them.
func (r *Registry) Pipeline(settings domain.ChunkingSettings) (*Pipeline, error) {
	pipeline := NewPipeline()
	for _, name := range r.order {
		proc, err := r.builders[name](settings)
		if err != nil {
			return nil, fmt.Errorf("building processor %s: %w", name, err)
		}
		pipeline.Add(proc)
	}
	return pipeline, nil
}

// Has reports whether a processor with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered processor names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
