package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Aleph-Alpha/polystore/v1/index"
	"github.com/Aleph-Alpha/polystore/v1/observability"
)

// Options are passed to an adapter factory when a database is opened.
type Options struct {
	// Alias the database will be registered under.
	Alias string

	Parent   Parent
	Logger   Logger
	Observer observability.Observer

	// Tracer records a span per collection operation. Nil disables spans.
	Tracer Tracer

	// Embedder backs the database's index. Nil selects the n-gram embedder.
	Embedder index.Embedder
}

// Factory opens a database for a parsed locator.
type Factory func(ctx context.Context, loc Locator, opts Options) (Database, error)

// Registry maps schemes to adapter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register associates scheme with f, replacing any previous factory.
func (r *Registry) Register(scheme string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[scheme] = f
}

// Lookup returns the factory for scheme.
func (r *Registry) Lookup(scheme string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[scheme]
	return f, ok
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for s := range r.factories {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Open parses handle and opens it with the factory registered for its
// scheme. Nothing is constructed for an unknown scheme.
func (r *Registry) Open(ctx context.Context, handle string, opts Options) (Database, error) {
	loc, err := ParseLocator(handle)
	if err != nil {
		return nil, err
	}
	f, ok := r.Lookup(loc.Scheme)
	if !ok {
		return nil, fmt.Errorf("scheme %q (known: %v): %w", loc.Scheme, r.Schemes(), ErrUnknownScheme)
	}
	if opts.Alias == "" {
		opts.Alias = DefaultAlias(loc)
	}
	return f(ctx, loc, opts)
}

// DefaultAlias is the scheme for bare handles and the handle itself otherwise.
func DefaultAlias(loc Locator) string {
	if loc.Bare {
		return loc.Scheme
	}
	return loc.Raw
}
