package henry

import (
	"sort"
	"sync"

	"github.com/burugo/henry/common"
)

// Registry maps driver identifiers to explorer factories. Nothing is
// registered by default; engine packages expose a Register helper.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ExplorerFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ExplorerFactory)}
}

// Register binds driver to factory, replacing any previous binding.
func (r *Registry) Register(driver string, factory ExplorerFactory) error {
	if factory == nil {
		return common.ErrNilFactory
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[driver] = factory
	return nil
}

// Unregister removes the binding for driver. Removing an unknown driver is a no-op.
func (r *Registry) Unregister(driver string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, driver)
}

// Create returns a new Explorer for driver. Identifiers are case-sensitive.
func (r *Registry) Create(driver string) (Explorer, error) {
	r.mu.RLock()
	factory, ok := r.factories[driver]
	r.mu.RUnlock()
	if !ok {
		return nil, &common.UnknownDriverError{Driver: driver}
	}
	return factory(), nil
}

// Drivers lists the registered driver identifiers in sorted order.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
