package causes

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"memento/internal/platform/cache"
	"memento/internal/profile"
	dErrors "memento/pkg/domain-errors"
)

// Provider wraps a Store with the sum-to-1 integrity check and a
// single-flight cache so each (band, sex) row is fetched and verified once.
type Provider struct {
	store  Store
	cache  *cache.Cache[FractionSet]
	logger *slog.Logger

	// strict rejects rows whose fractions drift outside SumTolerance of 1.0
	// instead of renormalizing them.
	strict bool
}

func NewProvider(store Store, logger *slog.Logger, strict bool) *Provider {
	return &Provider{
		store:  store,
		cache:  cache.New[FractionSet](),
		logger: logger,
		strict: strict,
	}
}

// Allocation returns the verified cause distribution for an exact age and sex.
func (p *Provider) Allocation(ctx context.Context, age int, sex profile.Sex) (FractionSet, error) {
	band, err := BandFor(age)
	if err != nil {
		return FractionSet{}, err
	}
	key := fmt.Sprintf("%s:%s:%s", p.store.Version(), band, sex)
	return p.cache.GetOrPopulate(ctx, key, func(ctx context.Context) (FractionSet, error) {
		raw, err := p.store.Fractions(ctx, band, sex)
		if err != nil {
			return FractionSet{}, err
		}
		return p.verify(raw)
	})
}

// Version reports the underlying table snapshot.
func (p *Provider) Version() string { return p.store.Version() }

func (p *Provider) verify(set FractionSet) (FractionSet, error) {
	sum := set.Sum()
	if math.Abs(sum-1.0) <= SumTolerance {
		return set, nil
	}
	if p.strict || sum <= 0 {
		return FractionSet{}, dErrors.Newf(dErrors.CodeDataIntegrity,
			"cause fractions for %s/%s sum to %.4f", set.Band, set.Sex, sum)
	}
	p.logger.Warn("renormalizing cause fractions",
		"band", set.Band, "sex", set.Sex, "sum", sum, "table_version", set.TableVersion)
	normalized := make(map[Cause]float64, len(set.Fractions))
	for cause, v := range set.Fractions {
		normalized[cause] = v / sum
	}
	set.Fractions = normalized
	set.Renormalized = true
	return set, nil
}
