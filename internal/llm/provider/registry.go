package provider

import (
	"fmt"
	"sync"
)

// Registry is an ordered set of providers. Registration order is the
// tie-break order used when ranking, so it is preserved exactly.
type Registry struct {
	providers []Provider
	index     map[string]int
	mu        sync.RWMutex
}

// NewRegistry creates a registry holding providers in the given order.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{index: make(map[string]int)}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a provider. IDs must be unique and quality within [0,1].
func (r *Registry) Register(p Provider) error {
	d := p.Descriptor()
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[d.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, d.ID)
	}
	r.index[d.ID] = len(r.providers)
	r.providers = append(r.providers, p)
	return nil
}

// Get retrieves a provider by id
func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return r.providers[i], nil
}

// Providers returns the providers in registration order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Descriptors returns the descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	providers := r.Providers()
	out := make([]Descriptor, len(providers))
	for i, p := range providers {
		out[i] = p.Descriptor()
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
