// Package lifetable provides the baseline mortality provider: one-year death
// probability (qx) and residual life expectancy (ex) by age and sex, backed
// by a period life table or a Gompertz-Makeham parametric approximation.
package lifetable

import (
	"context"

	dErrors "memento/pkg/domain-errors"

	"memento/internal/profile"
)

// Supported integer-age coverage. Requests outside this window fail with an
// out_of_range error rather than extrapolating.
const (
	MinAge = 0
	MaxAge = 119
)

// BaselineRisk is the derived baseline for one (age, sex) pair. Immutable
// after creation and safe to share across concurrent requests.
type BaselineRisk struct {
	Qx           float64 `json:"qx"` // one-year death probability, (0, 0.5]
	Ex           float64 `json:"ex"` // residual life expectancy in years, >= 0
	TableVersion string  `json:"table_version"`
}

// Store is the life-table lookup collaborator.
type Store interface {
	// Lookup returns the row for an exact integer age. Implementations
	// must not interpolate; the provider handles range checking.
	Lookup(ctx context.Context, age int, sex profile.Sex) (BaselineRisk, error)

	// Version identifies the table snapshot for provenance and cache keys.
	Version() string
}

// ErrOutOfRange builds the fatal error for unsupported ages.
func ErrOutOfRange(age int) error {
	return dErrors.Newf(dErrors.CodeOutOfRange, "age %d outside supported life table range %d-%d", age, MinAge, MaxAge)
}
