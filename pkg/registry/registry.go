// Package registry maps step names to factories so pipelines can be declared
// in data and compiled into graphs.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/relay/pkg/domain"
)

// ErrStepNotFound is returned when a step name has no factory.
var ErrStepNotFound = errors.New("step not found")

// Factory builds a step from its declared parameters.
type Factory func(params map[string]any) (domain.Step, error)

// Registry manages the available steps.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Factory),
	}
}

// Register adds a factory to the registry.
// If a step with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[name] = fn
}

// RegisterStep adds a step that takes no parameters.
func (r *Registry) RegisterStep(name string, step domain.Step) {
	r.Register(name, func(map[string]any) (domain.Step, error) {
		return step, nil
	})
}

// Resolve looks up a step by name and builds it with params.
func (r *Registry) Resolve(name string, params map[string]any) (domain.Step, error) {
	r.mu.RLock()
	fn, ok := r.steps[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, name)
	}
	step, err := fn(params)
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", name, err)
	}
	return step, nil
}

// Names lists the registered step names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
