package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a provider for a driver config
type Factory func(config ProviderConfig) (UserProviderContract, error)

// Registry maps driver names to provider factories. Build one at
// process start and hand it to whatever resolves providers.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry will create an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under driver
func (r *Registry) Register(driver string, factory Factory) error {
	if driver == "" || factory == nil {
		return fmt.Errorf("register provider: driver name and factory are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[driver]; ok {
		return fmt.Errorf("%w: %s", ErrDriverExists, driver)
	}

	r.factories[driver] = factory
	return nil
}

// Provider builds the provider registered for config.Driver
func (r *Registry) Provider(config ProviderConfig) (UserProviderContract, error) {
	r.mu.RLock()
	factory, ok := r.factories[config.Driver]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, config.Driver)
	}

	return factory(config)
}

// Drivers lists the registered driver names
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewProviderFactory returns a Factory creating a Provider. When model
// is not nil it replaces the config's resolver, so drivers can bind
// their own store.
func NewProviderFactory(hasher PasswordHasher, model ModelResolver, logger Logger) Factory {
	return func(config ProviderConfig) (UserProviderContract, error) {
		if model != nil {
			config.Model = model
		}

		p, err := NewProvider(config, hasher)
		if err != nil {
			return nil, err
		}

		return p.WithLogger(logger), nil
	}
}
