package registry

import (
	"fmt"
	"slices"
	"sync"

	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// Registry is a thread-safe store of values indexed by key.
// Keys are kept in registration order and cannot be rebound.
type Registry[K comparable, V any] struct {
	mu      sync.RWMutex
	scope   string
	entries map[K]V
	order   []K
}

// New creates an empty registry. The scope names the registry in
// DuplicateNameError messages.
func New[K comparable, V any](scope string) *Registry[K, V] {
	return &Registry[K, V]{
		scope:   scope,
		entries: make(map[K]V),
	}
}

// Scope returns the scope label given to New.
func (r *Registry[K, V]) Scope() string {
	return r.scope
}

// Register binds key to value. It fails with a DuplicateNameError if key is
// already bound.
func (r *Registry[K, V]) Register(key K, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; ok {
		return &eferrors.DuplicateNameError{Name: fmt.Sprint(key), Scope: r.scope}
	}
	r.entries[key] = value
	r.order = append(r.order, key)
	return nil
}

// Replace rebinds an existing key, or binds a new one.
// Used for entries whose instance is rebuilt at a lifetime boundary.
func (r *Registry[K, V]) Replace(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; !ok {
		r.order = append(r.order, key)
	}
	r.entries[key] = value
}

// Get returns the value for a key and whether it exists.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Has returns true if the key exists in the registry.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Delete removes a key from the registry.
func (r *Registry[K, V]) Delete(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; !ok {
		return
	}
	delete(r.entries, key)
	r.order = slices.DeleteFunc(r.order, func(k K) bool { return k == key })
}

// Keys returns all keys in registration order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of entries in the registry.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Range calls fn for every entry in registration order until fn returns false.
//
// Range iterates over a snapshot, so fn may call Register or Delete.
func (r *Registry[K, V]) Range(fn func(K, V) bool) {
	r.mu.RLock()
	keys := slices.Clone(r.order)
	values := make([]V, len(keys))
	for i, k := range keys {
		values[i] = r.entries[k]
	}
	r.mu.RUnlock()

	for i, k := range keys {
		if !fn(k, values[i]) {
			return
		}
	}
}

// Clear removes every entry.
func (r *Registry[K, V]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
	r.order = r.order[:0]
}
