package intervention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/causes"
	"memento/internal/profile"
)

func ptr[T any](v T) *T { return &v }

func fractions() causes.FractionSet {
	return causes.FractionSet{
		Band: "45-59", Sex: "female", TableVersion: "test",
		Fractions: map[causes.Cause]float64{
			causes.CauseHeartDisease: 0.3,
			causes.CauseCancer:       0.3,
			causes.CauseStroke:       0.1,
			causes.CauseOther:        0.3,
		},
	}
}

func TestSimulateApplicability(t *testing.T) {
	s := NewSimulator()

	t.Run("no factors means no candidates", func(t *testing.T) {
		results := s.Simulate(0.02, fractions(), profile.RiskProfile{Age: 70, Sex: profile.SexMale})
		assert.Empty(t, results)
	})

	t.Run("quit smoking is only offered to current smokers", func(t *testing.T) {
		former := profile.RiskProfile{Age: 55, Sex: profile.SexFemale, Smoking: ptr(profile.SmokingFormer)}
		for _, r := range s.Simulate(0.02, fractions(), former) {
			assert.NotEqual(t, "quit_smoking", r.Intervention.ID)
		}

		current := profile.RiskProfile{Age: 55, Sex: profile.SexFemale, Smoking: ptr(profile.SmokingCurrent)}
		results := s.Simulate(0.02, fractions(), current)
		require.Len(t, results, 1)
		assert.Equal(t, "quit_smoking", results[0].Intervention.ID)
	})

	t.Run("normotensive profiles get no blood pressure advice", func(t *testing.T) {
		p := profile.RiskProfile{Age: 50, Sex: profile.SexMale, SystolicBP: ptr(124.0)}
		assert.Empty(t, s.Simulate(0.01, fractions(), p))
	})

	t.Run("high activity and moderate alcohol have nothing to improve", func(t *testing.T) {
		p := profile.RiskProfile{
			Age: 50, Sex: profile.SexMale,
			Activity: ptr(profile.ActivityHigh),
			Alcohol:  ptr(profile.AlcoholModerate),
		}
		assert.Empty(t, s.Simulate(0.01, fractions(), p))
	})
}

func TestSimulateEffects(t *testing.T) {
	s := NewSimulator()
	totalRisk := 0.05

	t.Run("quitting smoking strictly reduces risk", func(t *testing.T) {
		p := profile.RiskProfile{Age: 55, Sex: profile.SexFemale, Smoking: ptr(profile.SmokingCurrent)}
		results := s.Simulate(totalRisk, fractions(), p)
		require.Len(t, results, 1)

		r := results[0]
		assert.InDelta(t, totalRisk*0.8, r.AdjustedRisk, 1e-12)
		assert.InDelta(t, totalRisk*0.2, r.AbsoluteReduction, 1e-12)
		assert.InDelta(t, 0.2, r.RelativeReduction, 1e-12)
		assert.Less(t, r.AdjustedRisk, totalRisk)
	})

	t.Run("blood pressure effect scales with the drop", func(t *testing.T) {
		mild := profile.RiskProfile{Age: 60, Sex: profile.SexMale, SystolicBP: ptr(140.0)}
		severe := profile.RiskProfile{Age: 60, Sex: profile.SexMale, SystolicBP: ptr(180.0)}

		mildRes := s.Simulate(totalRisk, fractions(), mild)
		severeRes := s.Simulate(totalRisk, fractions(), severe)
		require.Len(t, mildRes, 1)
		require.Len(t, severeRes, 1)
		assert.Greater(t, severeRes[0].AbsoluteReduction, mildRes[0].AbsoluteReduction)
	})

	t.Run("cause reductions sum to the absolute reduction", func(t *testing.T) {
		p := profile.RiskProfile{Age: 55, Sex: profile.SexFemale, Smoking: ptr(profile.SmokingCurrent)}
		results := s.Simulate(totalRisk, fractions(), p)
		require.Len(t, results, 1)

		sum := 0.0
		for _, v := range results[0].CauseReductions {
			sum += v
		}
		assert.InDelta(t, results[0].AbsoluteReduction, sum, 1e-12)
	})
}

func fullRiskProfile() profile.RiskProfile {
	return profile.RiskProfile{
		Age: 58, Sex: profile.SexMale,
		Smoking:    ptr(profile.SmokingCurrent),
		SystolicBP: ptr(165.0),
		BMI:        ptr(33.0),
		Activity:   ptr(profile.ActivitySedentary),
		Alcohol:    ptr(profile.AlcoholHeavy),
	}
}

func TestRanking(t *testing.T) {
	s := NewSimulator()
	results := s.Simulate(0.05, fractions(), fullRiskProfile())
	require.Len(t, results, 5)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t,
			results[i-1].AbsoluteReduction, results[i].AbsoluteReduction,
			"ranking must be descending by absolute reduction")
	}

	// The 45 mmHg blood pressure drop compounds to the strongest single
	// multiplier here, ahead of sedentary-to-moderate activity.
	assert.Equal(t, "reduce_bp", results[0].Intervention.ID)
	assert.Equal(t, "improve_fitness", results[1].Intervention.ID)
}

func TestSimulateTop(t *testing.T) {
	s := NewSimulator()
	totalRisk := 0.05

	t.Run("limits to k and combines multiplicatively", func(t *testing.T) {
		top := s.SimulateTop(totalRisk, fractions(), fullRiskProfile(), 3)
		require.Len(t, top.Ranked, 3)
		require.NotNil(t, top.Combined)

		expected := 1.0
		for _, r := range top.Ranked {
			expected *= r.Intervention.Multiplier
		}
		assert.InDelta(t, expected, top.Combined.Multiplier, 1e-12)
		assert.InDelta(t, totalRisk*expected, top.Combined.AdjustedRisk, 1e-12)
		assert.Len(t, top.Combined.InterventionIDs, 3)

		// Combined must beat any single intervention.
		assert.Greater(t, top.Combined.AbsoluteReduction, top.Ranked[0].AbsoluteReduction)
	})

	t.Run("empty candidate set yields no combined entry", func(t *testing.T) {
		top := s.SimulateTop(totalRisk, fractions(), profile.RiskProfile{Age: 70, Sex: profile.SexMale}, 3)
		assert.Empty(t, top.Ranked)
		assert.Nil(t, top.Combined)
	})

	t.Run("k larger than the candidate set returns everything", func(t *testing.T) {
		top := s.SimulateTop(totalRisk, fractions(), fullRiskProfile(), 10)
		assert.Len(t, top.Ranked, 5)
	})
}
