package reference

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/profile"
)

func ptr[T any](v T) *T { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lipidProfile(age int, sex profile.Sex) profile.RiskProfile {
	return profile.RiskProfile{
		Age: age, Sex: sex,
		TotalCholesterol: ptr(213.0),
		HDLCholesterol:   ptr(50.0),
		SystolicBP:       ptr(120.0),
	}
}

func TestLeeIndex(t *testing.T) {
	lee := NewLeeIndex()

	t.Run("applies from age 65", func(t *testing.T) {
		assert.False(t, lee.Applicable(profile.RiskProfile{Age: 64, Sex: profile.SexMale}))
		assert.True(t, lee.Applicable(profile.RiskProfile{Age: 65, Sex: profile.SexMale}))
	})

	t.Run("healthy 70 year old male scores the lowest risk group", func(t *testing.T) {
		// 3 age points + 2 male points = 5, the 4% four-year group.
		pred, err := lee.Predict(profile.RiskProfile{Age: 70, Sex: profile.SexMale})
		require.NoError(t, err)
		assert.Equal(t, 5.0, pred.Detail["points"])
		assert.InDelta(t, 0.04, pred.Detail["risk_4_year"], 1e-9)
		assert.InDelta(t, 0.01015, pred.AnnualRisk, 1e-4)
	})

	t.Run("comorbid elderly smoker scores a high risk group", func(t *testing.T) {
		pred, err := lee.Predict(profile.RiskProfile{
			Age: 86, Sex: profile.SexMale,
			Smoking:  ptr(profile.SmokingCurrent),
			Diabetes: ptr(true),
			BMI:      ptr(23.0),
		})
		require.NoError(t, err)
		// 7 + 2 + 2 + 1 + 1 = 13 points.
		assert.Equal(t, 13.0, pred.Detail["points"])
		assert.InDelta(t, 0.42, pred.Detail["risk_4_year"], 1e-9)
	})

	t.Run("female scores below male at the same age", func(t *testing.T) {
		male, err := lee.Predict(profile.RiskProfile{Age: 75, Sex: profile.SexMale})
		require.NoError(t, err)
		female, err := lee.Predict(profile.RiskProfile{Age: 75, Sex: profile.SexFemale})
		require.NoError(t, err)
		assert.LessOrEqual(t, female.AnnualRisk, male.AnnualRisk)
	})
}

func TestPooledCohort(t *testing.T) {
	pce := NewPooledCohort()

	t.Run("applicability needs age window and lipids", func(t *testing.T) {
		assert.True(t, pce.Applicable(lipidProfile(55, profile.SexMale)))
		assert.False(t, pce.Applicable(lipidProfile(39, profile.SexMale)))
		assert.False(t, pce.Applicable(lipidProfile(80, profile.SexMale)))

		noLipids := profile.RiskProfile{Age: 55, Sex: profile.SexMale, SystolicBP: ptr(120.0)}
		assert.False(t, pce.Applicable(noLipids))
	})

	t.Run("reproduces the published worked example", func(t *testing.T) {
		// Goff et al. 2013: 55 year old white male, TC 213, HDL 50,
		// SBP 120 untreated, non-smoker, no diabetes: 5.3% ten-year risk.
		pred, err := pce.Predict(lipidProfile(55, profile.SexMale))
		require.NoError(t, err)
		assert.InDelta(t, 0.053, pred.Detail["risk_10_year"], 0.01)
		assert.InDelta(t, 0.00552, pred.AnnualRisk, 1e-4)
	})

	t.Run("female coefficients give lower risk for the same inputs", func(t *testing.T) {
		male, err := pce.Predict(lipidProfile(55, profile.SexMale))
		require.NoError(t, err)
		female, err := pce.Predict(lipidProfile(55, profile.SexFemale))
		require.NoError(t, err)
		assert.Less(t, female.Detail["risk_10_year"], male.Detail["risk_10_year"])
		assert.InDelta(t, 0.0205, female.Detail["risk_10_year"], 1e-3)
	})

	t.Run("smoking raises the prediction", func(t *testing.T) {
		p := lipidProfile(55, profile.SexMale)
		p.Smoking = ptr(profile.SmokingCurrent)
		smoker, err := pce.Predict(p)
		require.NoError(t, err)
		assert.InDelta(t, 0.100, smoker.Detail["risk_10_year"], 1e-3)
	})

	t.Run("outside the window prediction errors", func(t *testing.T) {
		_, err := pce.Predict(lipidProfile(30, profile.SexMale))
		require.Error(t, err)
	})
}

func TestPrevent(t *testing.T) {
	prevent := NewPrevent()

	base := profile.RiskProfile{
		Age: 45, Sex: profile.SexFemale,
		TotalCholesterol: ptr(200.0),
		HDLCholesterol:   ptr(60.0),
		SystolicBP:       ptr(120.0),
		Diabetes:         ptr(true),
		EGFR:             ptr(95.0),
	}

	t.Run("applicability needs pressure, lipids, and kidney function", func(t *testing.T) {
		assert.True(t, prevent.Applicable(base))

		noEGFR := base
		noEGFR.EGFR = nil
		assert.False(t, prevent.Applicable(noEGFR))

		young := base
		young.Age = 29
		assert.False(t, prevent.Applicable(young))

		hypotensive := base
		hypotensive.SystolicBP = ptr(85.0)
		assert.False(t, prevent.Applicable(hypotensive))
	})

	t.Run("matches the ported base equation for a diabetic woman", func(t *testing.T) {
		pred, err := prevent.Predict(base)
		require.NoError(t, err)
		assert.InDelta(t, 0.0338, pred.Detail["risk_10_year_cvd"], 1e-3)
		assert.InDelta(t, 0.0210, pred.Detail["risk_10_year_ascvd"], 1e-3)
		assert.InDelta(t, 0.00343, pred.AnnualRisk, 1e-4)
	})

	t.Run("diabetes and smoking both raise risk", func(t *testing.T) {
		noDM := base
		noDM.Diabetes = ptr(false)
		lower, err := prevent.Predict(noDM)
		require.NoError(t, err)

		withDM, err := prevent.Predict(base)
		require.NoError(t, err)
		assert.Greater(t, withDM.AnnualRisk, lower.AnnualRisk)

		smoker := base
		smoker.Smoking = ptr(profile.SmokingCurrent)
		smoking, err := prevent.Predict(smoker)
		require.NoError(t, err)
		assert.Greater(t, smoking.AnnualRisk, withDM.AnnualRisk)
	})
}

func TestValidator(t *testing.T) {
	v := DefaultValidator(discardLogger())

	t.Run("age 30 profile produces no geriatric outcome", func(t *testing.T) {
		outcomes := v.Validate(0.002, profile.RiskProfile{Age: 30, Sex: profile.SexMale})
		for _, o := range outcomes {
			assert.NotEqual(t, "lee_2006", o.ModelID)
		}
	})

	t.Run("age 45 without labs yields no outcomes at all", func(t *testing.T) {
		outcomes := v.Validate(0.004, profile.RiskProfile{Age: 45, Sex: profile.SexFemale})
		assert.Empty(t, outcomes)
	})

	t.Run("elderly profile with labs runs all three models", func(t *testing.T) {
		p := lipidProfile(70, profile.SexMale)
		p.EGFR = ptr(80.0)
		outcomes := v.Validate(0.02, p)

		ids := make([]string, 0, len(outcomes))
		for _, o := range outcomes {
			ids = append(ids, o.ModelID)
		}
		assert.ElementsMatch(t, []string{"lee_2006", "pce_2013", "prevent_2024"}, ids)
	})

	t.Run("agreement is measured against the fixed tolerance", func(t *testing.T) {
		outcomes := v.Validate(0.02, profile.RiskProfile{Age: 70, Sex: profile.SexMale})
		require.Len(t, outcomes, 1)

		o := outcomes[0]
		assert.Equal(t, "lee_2006", o.ModelID)
		assert.InDelta(t, 0.02-o.ReferencePrediction, o.AbsoluteDifference, 1e-9)
		assert.True(t, o.WithinTolerance)

		far := v.Validate(0.30, profile.RiskProfile{Age: 70, Sex: profile.SexMale})
		require.Len(t, far, 1)
		assert.False(t, far[0].WithinTolerance)
	})
}
