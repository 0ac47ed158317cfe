package lifetable

import (
	"context"
	"fmt"

	"memento/internal/platform/cache"
	"memento/internal/profile"
)

// Provider fronts a Store with a read-through cache keyed by
// (table version, sex, age). Population is single-flight: concurrent requests
// for an unpopulated key share one store lookup.
type Provider struct {
	store Store
	cache *cache.Cache[BaselineRisk]
}

// NewProvider wraps a store.
func NewProvider(store Store) *Provider {
	return &Provider{store: store, cache: cache.New[BaselineRisk]()}
}

// Baseline returns the cached baseline for (age, sex). Range violations are
// rejected before touching the cache so invalid keys are never populated.
func (p *Provider) Baseline(ctx context.Context, age int, sex profile.Sex) (BaselineRisk, error) {
	if age < MinAge || age > MaxAge {
		return BaselineRisk{}, ErrOutOfRange(age)
	}

	key := fmt.Sprintf("%s:%s:%d", p.store.Version(), sex, age)
	return p.cache.GetOrPopulate(ctx, key, func(ctx context.Context) (BaselineRisk, error) {
		return p.store.Lookup(ctx, age, sex)
	})
}

// Version exposes the backing table version for provenance metadata.
func (p *Provider) Version() string { return p.store.Version() }
