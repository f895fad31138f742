// Package llm: model registry.
// The Registry resolves a ModelSpec to a configured Provider instance. It is
// the single source of truth for which backend answers a request.
package llm

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrUnknownModel is returned by Resolve when no constructor is registered
// for the spec's provider name.
var ErrUnknownModel = errors.New("llm: unknown model")

// Constructor builds a Provider for a given spec. Registered once per
// provider name at startup.
type Constructor func(spec ModelSpec) (Provider, error)

// Registry maps provider names to constructors and caches constructed
// adapters per ModelSpec key. Adapters hold no conversation state, so a
// cached instance is safe to share across requests for the process lifetime.
type Registry struct {
	constructors map[string]Constructor

	mu    sync.RWMutex
	cache map[string]Provider

	group singleflight.Group
}

// NewRegistry creates a Registry with the given constructor set.
// The map is copied so the caller cannot mutate registry internals.
func NewRegistry(constructors map[string]Constructor) *Registry {
	cs := make(map[string]Constructor, len(constructors))
	for k, v := range constructors {
		cs[k] = v
	}
	return &Registry{
		constructors: cs,
		cache:        make(map[string]Provider),
	}
}

// Resolve returns the adapter for spec, constructing it on first use.
// Concurrent first-use of the same spec collapses to a single construction;
// later callers share the cached instance. Safe for concurrent use.
func (r *Registry) Resolve(spec ModelSpec) (Provider, error) {
	ctor, ok := r.constructors[spec.Provider]
	if !ok {
		return nil, fmt.Errorf("provider %q not registered (available: %v): %w",
			spec.Provider, r.keys(), ErrUnknownModel)
	}

	key := spec.Key()

	r.mu.RLock()
	p, hit := r.cache[key]
	r.mu.RUnlock()
	if hit {
		return p, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		// Re-check under the group: a racing caller may have populated
		// the cache between the RLock and Do.
		r.mu.RLock()
		cached, ok := r.cache[key]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		built, buildErr := ctor(spec)
		if buildErr != nil {
			return nil, fmt.Errorf("construct %s: %w", key, buildErr)
		}

		r.mu.Lock()
		r.cache[key] = built
		r.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Provider), nil
}

// keys returns the registered provider names (for error messages).
func (r *Registry) keys() []string {
	out := make([]string, 0, len(r.constructors))
	for k := range r.constructors {
		out = append(out, k)
	}
	return out
}
