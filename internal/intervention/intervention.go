// Package intervention evaluates counterfactual lifestyle changes against an
// adjusted risk estimate and ranks them by absolute risk reduction.
package intervention

import (
	"fmt"
	"math"
	"sort"

	"memento/internal/causes"
	"memento/internal/profile"
	"memento/internal/riskfactor"
)

// Difficulty orders interventions for tie-breaking, easiest first.
type Difficulty int

const (
	DifficultyLow Difficulty = iota
	DifficultyModerate
	DifficultyHigh
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyLow:
		return "low"
	case DifficultyModerate:
		return "moderate"
	case DifficultyHigh:
		return "high"
	default:
		return "unknown"
	}
}

func (d Difficulty) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Intervention is one named counterfactual change with its modeled effect.
type Intervention struct {
	ID           string              `json:"id"`
	Category     riskfactor.FactorID `json:"category"`
	Description  string              `json:"description"`
	Multiplier   float64             `json:"multiplier"`
	Difficulty   Difficulty          `json:"difficulty"`
	TimeToEffect string              `json:"time_to_effect"`
}

// Result is the projected effect of applying one intervention to the
// current adjusted risk.
type Result struct {
	Intervention      Intervention             `json:"intervention"`
	BaselineRisk      float64                  `json:"baseline_risk"`
	AdjustedRisk      float64                  `json:"adjusted_risk"`
	AbsoluteReduction float64                  `json:"absolute_reduction"`
	RelativeReduction float64                  `json:"relative_reduction"`
	CauseReductions   map[causes.Cause]float64 `json:"cause_reductions"`
}

// Combined is the joint effect of a set of interventions, composed
// multiplicatively. Composition assumes independence; overlapping effects
// are not re-corrected here.
type Combined struct {
	InterventionIDs   []string `json:"intervention_ids"`
	Multiplier        float64  `json:"multiplier"`
	AdjustedRisk      float64  `json:"adjusted_risk"`
	AbsoluteReduction float64  `json:"absolute_reduction"`
	RelativeReduction float64  `json:"relative_reduction"`
}

// TopResult is the ranked recommendation list plus the combined top-k set.
type TopResult struct {
	Ranked   []Result  `json:"ranked"`
	Combined *Combined `json:"combined,omitempty"`
}

// Simulator generates candidates fresh from each profile; nothing is stored
// between requests.
type Simulator struct{}

func NewSimulator() *Simulator { return &Simulator{} }

// Simulate returns every applicable intervention, ranked by absolute risk
// reduction descending with declared difficulty (easiest first) and then id
// as tiebreaks.
func (s *Simulator) Simulate(totalRisk float64, fractions causes.FractionSet, p profile.RiskProfile) []Result {
	candidates := s.candidates(p)

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		adjusted := totalRisk * c.Multiplier
		r := Result{
			Intervention:      c,
			BaselineRisk:      totalRisk,
			AdjustedRisk:      adjusted,
			AbsoluteReduction: totalRisk - adjusted,
			CauseReductions:   make(map[causes.Cause]float64, len(fractions.Fractions)),
		}
		if totalRisk > 0 {
			r.RelativeReduction = r.AbsoluteReduction / totalRisk
		}
		for cause, f := range fractions.Fractions {
			r.CauseReductions[cause] = totalRisk * f * (1 - c.Multiplier)
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].AbsoluteReduction != results[j].AbsoluteReduction {
			return results[i].AbsoluteReduction > results[j].AbsoluteReduction
		}
		if results[i].Intervention.Difficulty != results[j].Intervention.Difficulty {
			return results[i].Intervention.Difficulty < results[j].Intervention.Difficulty
		}
		return results[i].Intervention.ID < results[j].Intervention.ID
	})
	return results
}

// SimulateTop returns the top k interventions and their combined effect.
func (s *Simulator) SimulateTop(totalRisk float64, fractions causes.FractionSet, p profile.RiskProfile, k int) TopResult {
	ranked := s.Simulate(totalRisk, fractions, p)
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}

	out := TopResult{Ranked: ranked}
	if len(ranked) == 0 {
		return out
	}

	multiplier := 1.0
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		multiplier *= r.Intervention.Multiplier
		ids = append(ids, r.Intervention.ID)
	}
	adjusted := totalRisk * multiplier
	combined := Combined{
		InterventionIDs:   ids,
		Multiplier:        multiplier,
		AdjustedRisk:      adjusted,
		AbsoluteReduction: totalRisk - adjusted,
	}
	if totalRisk > 0 {
		combined.RelativeReduction = combined.AbsoluteReduction / totalRisk
	}
	out.Combined = &combined
	return out
}

// Effect anchors from the intervention trial literature.
const (
	quitSmokingMultiplier = 0.8
	bpPer10mmHg           = 0.85
	weightPer5BMI         = 0.9
	fitnessStepUp         = 0.9
	sedentaryRR           = 1.4
)

func (s *Simulator) candidates(p profile.RiskProfile) []Intervention {
	var out []Intervention

	if p.IsCurrentSmoker() {
		out = append(out, Intervention{
			ID:           "quit_smoking",
			Category:     riskfactor.FactorSmoking,
			Description:  "Quit smoking",
			Multiplier:   quitSmokingMultiplier,
			Difficulty:   DifficultyHigh,
			TimeToEffect: "weeks to months",
		})
	}

	if p.SystolicBP != nil && *p.SystolicBP > riskfactor.OptimalSystolic+10 {
		drop := *p.SystolicBP - riskfactor.OptimalSystolic
		out = append(out, Intervention{
			ID:           "reduce_bp",
			Category:     riskfactor.FactorBloodPressure,
			Description:  fmt.Sprintf("Lower systolic blood pressure by %.0f mmHg", drop),
			Multiplier:   math.Pow(bpPer10mmHg, drop/10),
			Difficulty:   DifficultyModerate,
			TimeToEffect: "months",
		})
	}

	if p.Activity != nil {
		switch *p.Activity {
		case profile.ActivitySedentary:
			out = append(out, Intervention{
				ID:           "improve_fitness",
				Category:     riskfactor.FactorActivity,
				Description:  "Move from sedentary to moderate activity",
				Multiplier:   1 / sedentaryRR,
				Difficulty:   DifficultyModerate,
				TimeToEffect: "months",
			})
		case profile.ActivityModerate:
			out = append(out, Intervention{
				ID:           "improve_fitness",
				Category:     riskfactor.FactorActivity,
				Description:  "Move from moderate to high activity",
				Multiplier:   fitnessStepUp,
				Difficulty:   DifficultyModerate,
				TimeToEffect: "months",
			})
		}
	}

	if p.BMI != nil && *p.BMI > 27 {
		loss := *p.BMI - 25
		out = append(out, Intervention{
			ID:           "lose_weight",
			Category:     riskfactor.FactorBMI,
			Description:  fmt.Sprintf("Reduce BMI by %.1f units", loss),
			Multiplier:   math.Pow(weightPer5BMI, loss/5),
			Difficulty:   DifficultyHigh,
			TimeToEffect: "months to years",
		})
	}

	if p.Alcohol != nil {
		// Moving to a moderate pattern removes the pattern's excess RR.
		switch *p.Alcohol {
		case profile.AlcoholHeavy:
			out = append(out, Intervention{
				ID:           "moderate_alcohol",
				Category:     riskfactor.FactorAlcohol,
				Description:  "Reduce heavy drinking to a moderate pattern",
				Multiplier:   1.0 / 1.3,
				Difficulty:   DifficultyModerate,
				TimeToEffect: "weeks",
			})
		case profile.AlcoholBinge:
			out = append(out, Intervention{
				ID:           "moderate_alcohol",
				Category:     riskfactor.FactorAlcohol,
				Description:  "Replace binge drinking with a moderate pattern",
				Multiplier:   1.0 / 1.2,
				Difficulty:   DifficultyModerate,
				TimeToEffect: "weeks",
			})
		}
	}

	return out
}
