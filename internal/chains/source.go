// Package chains defines the Chain Source contract and the registry
// of sources by slug.
package chains

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/kosarica/pricehist/internal/domain"
)

// Source is the one operation every chain integration exposes: fetch
// the day's Stores-with-Products, or an empty slice on failure. A
// Source must not let an error escape fetch's own boundary — it logs
// and returns empty instead. The Driver never retries; a Source owns
// its own retry policy (see internal/http/ratelimit).
type Source interface {
	// Slug is the lowercase, alphanumeric-plus-underscore identity
	// this source is registered under.
	Slug() string
	Fetch(ctx context.Context, date time.Time) []domain.Store
}

var slugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Registry holds the fixed, read-only-after-startup set of registered
// chain sources, keyed by slug.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source under its own slug. It panics on a malformed
// slug or a duplicate registration — both are startup-time programmer
// errors, not runtime conditions.
func (r *Registry) Register(s Source) {
	slug := s.Slug()
	if !slugPattern.MatchString(slug) {
		panic(fmt.Sprintf("chains: invalid slug %q", slug))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[slug]; exists {
		panic(fmt.Sprintf("chains: slug %q already registered", slug))
	}
	r.sources[slug] = s
}

// Get returns the source registered under slug, if any.
func (r *Registry) Get(slug string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[slug]
	return s, ok
}

// Slugs returns the registered slugs in sorted order.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sources))
	for slug := range r.sources {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// IsRegistered reports whether slug names a registered source.
func (r *Registry) IsRegistered(slug string) bool {
	_, ok := r.Get(slug)
	return ok
}
