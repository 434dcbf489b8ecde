package providers

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProvider is returned when a lookup names a tag that was never
// registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Defaults holds the per-provider default voice and style settings used to
// build synthesis payloads when the caller does not override them.
type Defaults struct {
	VoiceID  string
	Settings Settings
}

// Registry maps provider tags to implementations and their defaults. Adding
// a backend means registering it here; the scheduler never changes.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	defaults  map[string]Defaults
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		defaults:  make(map[string]Defaults),
	}
}

// Register adds a provider under its own name. Registering the same name
// twice is an error.
func (r *Registry) Register(p Provider, d Defaults) error {
	if p == nil {
		return errors.New("nil provider")
	}
	name := p.Name()
	if name == "" {
		return errors.New("provider has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.providers[name] = p
	r.defaults[name] = d
	return nil
}

// Lookup returns the provider registered under the tag.
func (r *Registry) Lookup(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Defaults returns the default voice and settings for the tag.
func (r *Registry) Defaults(name string) (Defaults, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.defaults[name]
	if !ok {
		return Defaults{}, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return d, nil
}

// Names returns the registered provider tags in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
