package riskfactor

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/causes"
	"memento/internal/profile"
	dErrors "memento/pkg/domain-errors"
)

func ptr[T any](v T) *T { return &v }

func TestCurveEvaluate(t *testing.T) {
	t.Run("exponential blood pressure curve", func(t *testing.T) {
		c := Curve{Kind: CurveExponential, Ref: 120, Scale: 20, Base: 1.8, Min: 120, Max: 250}

		assert.InDelta(t, 1.0, c.Evaluate(120), 1e-9)
		assert.InDelta(t, 1.8, c.Evaluate(140), 1e-9)
		assert.InDelta(t, 1.8*1.8, c.Evaluate(160), 1e-9)
		// Below the reference the exposure clamps to neutral.
		assert.InDelta(t, 1.0, c.Evaluate(100), 1e-9)
		// Above the domain ceiling evaluation stops growing.
		assert.Equal(t, c.Evaluate(250), c.Evaluate(400))
	})

	t.Run("folded exponential is a J curve", func(t *testing.T) {
		c := Curve{Kind: CurveExponential, Ref: 22, Scale: 5, Base: 1.15, Min: 15, Max: 60, Folded: true}

		assert.InDelta(t, 1.0, c.Evaluate(22), 1e-9)
		assert.InDelta(t, 1.15, c.Evaluate(27), 1e-9)
		// Underweight carries excess risk too.
		assert.Greater(t, c.Evaluate(16), 1.0)
		assert.InDelta(t, c.Evaluate(17), c.Evaluate(27), 1e-9)
	})

	t.Run("linear cessation decay", func(t *testing.T) {
		c := Curve{Kind: CurveLinear, Ref: 15, Scale: 15, Slope: -0.2, Min: 0, Max: 15}

		assert.InDelta(t, 1.2, c.Evaluate(0), 1e-9)
		assert.InDelta(t, 1.1, c.Evaluate(7.5), 1e-9)
		assert.InDelta(t, 1.0, c.Evaluate(15), 1e-9)
		assert.InDelta(t, 1.0, c.Evaluate(40), 1e-9)
	})

	t.Run("log linear and quadratic shapes", func(t *testing.T) {
		ll := Curve{Kind: CurveLogLinear, Ref: 0, Scale: 1, Slope: 0.1, Min: 0, Max: 10}
		assert.InDelta(t, math.Exp(0.5), ll.Evaluate(5), 1e-9)

		q := Curve{Kind: CurveQuadratic, Ref: 0, Scale: 1, Slope: 0.02, Min: 0, Max: 10}
		assert.InDelta(t, 1.0+0.02*9, q.Evaluate(3), 1e-9)
	})

	t.Run("never negative", func(t *testing.T) {
		c := Curve{Kind: CurveLinear, Ref: 0, Scale: 1, Slope: -2, Min: 0, Max: 10}
		assert.Equal(t, 0.0, c.Evaluate(10))
	})
}

func TestResolver(t *testing.T) {
	r := NewResolver(NewMemoryStore())
	ctx := context.Background()

	t.Run("empty profile resolves to no exposures", func(t *testing.T) {
		exposures, err := r.Resolve(ctx, profile.RiskProfile{Age: 70, Sex: profile.SexMale})
		require.NoError(t, err)
		assert.Empty(t, exposures)
	})

	t.Run("current smoker", func(t *testing.T) {
		exposures, err := r.Resolve(ctx, profile.RiskProfile{
			Age: 55, Sex: profile.SexFemale,
			Smoking: ptr(profile.SmokingCurrent),
		})
		require.NoError(t, err)
		require.Len(t, exposures, 1)
		assert.Equal(t, FactorSmoking, exposures[0].FactorID)
		assert.InDelta(t, 2.3, exposures[0].RelativeRisk, 1e-9)
		assert.Nil(t, exposures[0].AppliesTo, "smoking adjusts all causes")
		assert.Contains(t, exposures[0].Citation.Source, "Jha")
	})

	t.Run("former smoker risk decays with years since quitting", func(t *testing.T) {
		rrAt := func(years int) float64 {
			exposures, err := r.Resolve(ctx, profile.RiskProfile{
				Age: 55, Sex: profile.SexFemale,
				Smoking:        ptr(profile.SmokingFormer),
				YearsSinceQuit: ptr(years),
			})
			require.NoError(t, err)
			require.Len(t, exposures, 1)
			return exposures[0].RelativeRisk
		}

		assert.InDelta(t, 1.2, rrAt(0), 1e-9)
		assert.Greater(t, rrAt(5), rrAt(10))
		assert.InDelta(t, 1.0, rrAt(15), 1e-9)
		assert.InDelta(t, 1.0, rrAt(30), 1e-9)
	})

	t.Run("treated hypertension scales down the curve", func(t *testing.T) {
		resolve := func(treated bool) float64 {
			exposures, err := r.Resolve(ctx, profile.RiskProfile{
				Age: 60, Sex: profile.SexMale,
				SystolicBP: ptr(160.0),
				BPTreated:  ptr(treated),
			})
			require.NoError(t, err)
			require.Len(t, exposures, 1)
			return exposures[0].RelativeRisk
		}

		untreated := resolve(false)
		treated := resolve(true)
		assert.InDelta(t, 1.8*1.8, untreated, 1e-9)
		assert.InDelta(t, untreated*0.7, treated, 1e-9)
	})

	t.Run("blood pressure applies only to cardiovascular causes", func(t *testing.T) {
		exposures, err := r.Resolve(ctx, profile.RiskProfile{
			Age: 60, Sex: profile.SexMale, SystolicBP: ptr(150.0),
		})
		require.NoError(t, err)
		require.Len(t, exposures, 1)
		assert.ElementsMatch(t, cardiovascular, exposures[0].AppliesTo)
	})

	t.Run("bmi is neutral at the optimum and rises both ways", func(t *testing.T) {
		rrAt := func(bmi float64) float64 {
			exposures, err := r.Resolve(ctx, profile.RiskProfile{
				Age: 50, Sex: profile.SexFemale, BMI: ptr(bmi),
			})
			require.NoError(t, err)
			require.Len(t, exposures, 1)
			return exposures[0].RelativeRisk
		}

		assert.InDelta(t, 1.0, rrAt(22), 1e-9)
		assert.InDelta(t, 1.15, rrAt(27), 1e-9)
		assert.Greater(t, rrAt(17), 1.0)
	})

	t.Run("activity and alcohol categorical levels", func(t *testing.T) {
		exposures, err := r.Resolve(ctx, profile.RiskProfile{
			Age: 45, Sex: profile.SexMale,
			Activity: ptr(profile.ActivitySedentary),
			Alcohol:  ptr(profile.AlcoholHeavy),
		})
		require.NoError(t, err)
		require.Len(t, exposures, 2)

		byID := map[FactorID]Exposure{}
		for _, e := range exposures {
			byID[e.FactorID] = e
		}
		assert.InDelta(t, 1.4, byID[FactorActivity].RelativeRisk, 1e-9)
		assert.InDelta(t, 1.3, byID[FactorAlcohol].RelativeRisk, 1e-9)
	})

	t.Run("moderate activity and moderate alcohol are neutral but present", func(t *testing.T) {
		exposures, err := r.Resolve(ctx, profile.RiskProfile{
			Age: 45, Sex: profile.SexMale,
			Activity: ptr(profile.ActivityModerate),
			Alcohol:  ptr(profile.AlcoholModerate),
		})
		require.NoError(t, err)
		require.Len(t, exposures, 2)
		for _, e := range exposures {
			assert.InDelta(t, 1.0, e.RelativeRisk, 1e-9)
		}
	})

	t.Run("cholesterol curve with statin multiplier", func(t *testing.T) {
		resolve := func(onStatin bool) float64 {
			exposures, err := r.Resolve(ctx, profile.RiskProfile{
				Age: 60, Sex: profile.SexMale,
				TotalCholesterol: ptr(240.0),
				OnStatin:         ptr(onStatin),
			})
			require.NoError(t, err)
			require.Len(t, exposures, 1)
			return exposures[0].RelativeRisk
		}

		untreated := resolve(false)
		assert.InDelta(t, 1.25, untreated, 1e-9)
		assert.InDelta(t, untreated*0.75, resolve(true), 1e-9)
	})

	t.Run("diabetes flag resolves present and absent", func(t *testing.T) {
		rrAt := func(diabetic bool) Exposure {
			exposures, err := r.Resolve(ctx, profile.RiskProfile{
				Age: 60, Sex: profile.SexMale,
				Diabetes: ptr(diabetic),
			})
			require.NoError(t, err)
			require.Len(t, exposures, 1)
			return exposures[0]
		}

		present := rrAt(true)
		assert.InDelta(t, 1.8, present.RelativeRisk, 1e-9)
		assert.Contains(t, present.AppliesTo, causes.CauseKidney)
		assert.InDelta(t, 1.0, rrAt(false).RelativeRisk, 1e-9)
	})

	t.Run("resolution order is stable", func(t *testing.T) {
		p := profile.RiskProfile{
			Age: 58, Sex: profile.SexMale,
			Smoking:          ptr(profile.SmokingCurrent),
			SystolicBP:       ptr(145.0),
			TotalCholesterol: ptr(225.0),
			Diabetes:         ptr(true),
			BMI:              ptr(31.0),
			Activity:         ptr(profile.ActivitySedentary),
			Alcohol:          ptr(profile.AlcoholBinge),
		}
		first, err := r.Resolve(ctx, p)
		require.NoError(t, err)
		second, err := r.Resolve(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		ids := make([]FactorID, 0, len(first))
		for _, e := range first {
			ids = append(ids, e.FactorID)
		}
		assert.Equal(t, []FactorID{
			FactorSmoking, FactorBloodPressure, FactorCholesterol, FactorDiabetes,
			FactorBMI, FactorActivity, FactorAlcohol,
		}, ids)
	})
}

func TestMemoryStoreAll(t *testing.T) {
	store := NewMemoryStore()

	defs, err := store.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, 7)
	for _, def := range defs {
		assert.NotEmpty(t, def.Citation.Source, "factor %s must cite a source", def.ID)
		assert.NotEmpty(t, def.Citation.URL, "factor %s must cite a URL", def.ID)
	}

	_, err = store.Definition(context.Background(), FactorID("genetics"))
	require.Error(t, err)
}

// partialStore serves a trimmed definition set, standing in for a database
// row whose categorical table is missing a level.
type partialStore struct {
	defs map[FactorID]Definition
}

func (s partialStore) Definition(_ context.Context, id FactorID) (Definition, error) {
	def, ok := s.defs[id]
	if !ok {
		return Definition{}, ErrUnknownFactor(id)
	}
	return def, nil
}

func (s partialStore) All(context.Context) ([]Definition, error) {
	out := make([]Definition, 0, len(s.defs))
	for _, def := range s.defs {
		out = append(out, def)
	}
	return out, nil
}

func (s partialStore) Version() string { return "partial" }

func TestResolveSmokingMissingCategoryIsAnError(t *testing.T) {
	r := NewResolver(partialStore{defs: map[FactorID]Definition{
		FactorSmoking: {
			ID:          FactorSmoking,
			Categorical: map[string]float64{LevelNever: 1.0},
		},
	}})

	// A definition without the profile's status must fail loudly, never
	// resolve to RR 0 and silently erase the factor's cause risks.
	_, err := r.Resolve(context.Background(), profile.RiskProfile{
		Age: 55, Sex: profile.SexFemale,
		Smoking: ptr(profile.SmokingCurrent),
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}
