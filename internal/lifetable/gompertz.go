package lifetable

import (
	"context"
	"math"

	"memento/internal/profile"
)

// GompertzMakehamParams parameterize the hazard mu(x) = A + B*exp(C*x).
type GompertzMakehamParams struct {
	A float64 // age-independent (Makeham) term
	B float64 // Gompertz scale
	C float64 // Gompertz slope
}

// Sex-specific parameters fitted against the ssa-2021 snapshot, used when a
// deployment runs without a table backend.
var (
	DefaultMaleParams   = GompertzMakehamParams{A: 0.00022, B: 2.7e-5, C: 0.101}
	DefaultFemaleParams = GompertzMakehamParams{A: 0.00016, B: 1.15e-5, C: 0.108}
)

// GompertzStore derives baseline mortality from the parametric hazard instead
// of a table. It satisfies Store so the provider treats both backends alike.
type GompertzStore struct {
	male    GompertzMakehamParams
	female  GompertzMakehamParams
	version string
}

// NewGompertzStore builds the parametric provider with the default fits.
func NewGompertzStore() *GompertzStore {
	return &GompertzStore{
		male:    DefaultMaleParams,
		female:  DefaultFemaleParams,
		version: "gompertz-makeham-v1",
	}
}

// Lookup evaluates the hazard and converts it to an annual probability via
// qx = 1 - exp(-integral of mu over [age, age+1]). Probabilities are capped
// at 0.5 to match the table convention for extreme ages.
func (s *GompertzStore) Lookup(_ context.Context, age int, sex profile.Sex) (BaselineRisk, error) {
	if age < MinAge || age > MaxAge {
		return BaselineRisk{}, ErrOutOfRange(age)
	}

	p := s.params(sex)
	return BaselineRisk{
		Qx:           s.annualProbability(p, age),
		Ex:           s.lifeExpectancy(p, age),
		TableVersion: s.version,
	}, nil
}

// Version identifies the parametric model.
func (s *GompertzStore) Version() string { return s.version }

func (s *GompertzStore) params(sex profile.Sex) GompertzMakehamParams {
	if sex == profile.SexMale {
		return s.male
	}
	return s.female
}

func (s *GompertzStore) annualProbability(p GompertzMakehamParams, age int) float64 {
	x := float64(age)
	// Closed-form integral of A + B*exp(C*x) over one year of age.
	cumulative := p.A + (p.B/p.C)*(math.Exp(p.C*(x+1))-math.Exp(p.C*x))
	qx := 1 - math.Exp(-cumulative)
	return math.Min(qx, 0.5)
}

// lifeExpectancy accumulates person-years from the annual probabilities,
// assuming deaths are uniform within each year and a flat qx=0.5 tail past
// the supported range.
func (s *GompertzStore) lifeExpectancy(p GompertzMakehamParams, age int) float64 {
	surviving := 1.0
	years := 0.0
	for a := age; a <= MaxAge; a++ {
		q := s.annualProbability(p, a)
		years += surviving * (1 - q/2)
		surviving *= 1 - q
	}
	years += surviving * 1.5 // geometric tail at qx = 0.5
	return years
}
