package internal

import (
	"slices"
	"sync"
)

// Registry maps identifiers to values of one kind, such as middleware
// factories or session drivers. It is safe for concurrent use.
type Registry[T any] struct {
	items map[string]T
	kind  string
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry. kind names it in lookup errors.
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, items: make(map[string]T)}
}

// Register binds name to v, replacing any previous binding.
func (r *Registry[T]) Register(name string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = v
}

// Get returns the value bound to name or an *UnknownServiceError.
func (r *Registry[T]) Get(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[name]
	if !ok {
		var zero T
		return zero, &UnknownServiceError{Kind: r.kind, Name: name}
	}
	return v, nil
}

// Has reports whether name is bound.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[name]
	return ok
}

// Names returns the registered identifiers in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
