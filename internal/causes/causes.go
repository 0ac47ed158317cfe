// Package causes allocates baseline mortality across a fixed set of cause
// categories per age band and sex.
package causes

import (
	"context"
	"math"
	"sort"

	"memento/internal/profile"
	dErrors "memento/pkg/domain-errors"
)

// Cause identifies one of the fixed, mutually exclusive cause categories.
type Cause string

const (
	CauseHeartDisease Cause = "heart_disease"
	CauseCancer       Cause = "cancer"
	CauseStroke       Cause = "stroke"
	CauseAccidents    Cause = "accidents"
	CauseRespiratory  Cause = "respiratory_disease"
	CauseDiabetes     Cause = "diabetes"
	CauseAlzheimers   Cause = "alzheimers"
	CauseKidney       Cause = "kidney_disease"
	CauseOther        Cause = "other"
)

// All lists every category in a stable order, used wherever deterministic
// iteration matters (idempotent output, tests).
func All() []Cause {
	return []Cause{
		CauseHeartDisease, CauseCancer, CauseStroke, CauseAccidents,
		CauseRespiratory, CauseDiabetes, CauseAlzheimers, CauseKidney,
		CauseOther,
	}
}

// Band is an age band label, e.g. "45-59" or "75+".
type Band string

// Bands in ascending order. The allocator buckets exact ages into these and
// never interpolates between them.
var bands = []struct {
	label Band
	lo    int
	hi    int // inclusive; math.MaxInt32 for the open-ended band
}{
	{"0-17", 0, 17},
	{"18-29", 18, 29},
	{"30-44", 30, 44},
	{"45-59", 45, 59},
	{"60-74", 60, 74},
	{"75+", 75, math.MaxInt32},
}

// BandFor buckets an exact age.
func BandFor(age int) (Band, error) {
	for _, b := range bands {
		if age >= b.lo && age <= b.hi {
			return b.label, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeOutOfRange, "age %d has no cause band", age)
}

// FractionSet is the normalized cause distribution for one (band, sex) pair.
// Immutable after creation; safe to share across concurrent requests.
type FractionSet struct {
	Band         Band              `json:"band"`
	Sex          profile.Sex       `json:"sex"`
	Fractions    map[Cause]float64 `json:"fractions"`
	TableVersion string            `json:"table_version"`

	// Renormalized records that the raw row failed the sum-to-1 check and
	// was explicitly rescaled. Strict deployments reject instead.
	Renormalized bool `json:"renormalized,omitempty"`
}

// SumTolerance bounds acceptable drift of a fraction row from 1.0.
const SumTolerance = 0.01

// Ordered returns the set's causes in the stable All() order, with any key
// outside the fixed categories appended in name order. Float accumulation is
// not associative, so every loop that sums over the set must use this order
// for identical inputs to yield identical bits.
func (f FractionSet) Ordered() []Cause {
	out := make([]Cause, 0, len(f.Fractions))
	known := make(map[Cause]bool, len(f.Fractions))
	for _, c := range All() {
		known[c] = true
		if _, ok := f.Fractions[c]; ok {
			out = append(out, c)
		}
	}
	var extras []Cause
	for c := range f.Fractions {
		if !known[c] {
			extras = append(extras, c)
		}
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	return append(out, extras...)
}

// Sum returns the total of all fractions.
func (f FractionSet) Sum() float64 {
	total := 0.0
	for _, c := range f.Ordered() {
		total += f.Fractions[c]
	}
	return total
}

// Store is the cause-fraction lookup collaborator.
type Store interface {
	// Fractions returns the raw row for a band and sex, or a no_data error.
	Fractions(ctx context.Context, band Band, sex profile.Sex) (FractionSet, error)

	// Version identifies the table snapshot.
	Version() string
}

// ErrNoData builds the error for a missing band/sex row.
func ErrNoData(band Band, sex profile.Sex) error {
	return dErrors.Newf(dErrors.CodeNoData, "no cause fractions for band %s sex %s", band, sex)
}
