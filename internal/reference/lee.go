package reference

import (
	"math"

	"memento/internal/profile"
	"memento/internal/riskfactor"
)

// LeeIndex is the Lee four-year mortality index for older adults: an
// additive point score mapped to a published four-year mortality rate, then
// annualized under a constant-hazard assumption.
//
// Comorbidity and functional-status items the profile does not carry score
// zero points, so the index reflects only what was assessed. Validated for
// ages 50 and up; applied here from 65 where the development cohort is
// densest.
type LeeIndex struct{}

func NewLeeIndex() *LeeIndex { return &LeeIndex{} }

func (l *LeeIndex) ID() string { return "lee_2006" }

func (l *LeeIndex) Applicable(p profile.RiskProfile) bool {
	return p.Age >= 65
}

func (l *LeeIndex) Predict(p profile.RiskProfile) (Prediction, error) {
	points := agePoints(p.Age)
	if p.Sex == profile.SexMale {
		points += 2
	}
	if p.BMI != nil && *p.BMI < 25 {
		points++
	}
	if p.Diabetes != nil && *p.Diabetes {
		points++
	}
	if p.IsCurrentSmoker() {
		points += 2
	}

	fourYear := fourYearMortality(points)
	annual := 1 - math.Pow(1-fourYear, 0.25)

	return Prediction{
		AnnualRisk: annual,
		Detail: map[string]float64{
			"points":        float64(points),
			"risk_4_year":   fourYear,
			"horizon_years": 4,
		},
	}, nil
}

func (l *LeeIndex) Citation() riskfactor.Citation {
	return riskfactor.Citation{
		Source:             "Lee SJ, Lindquist K, Segal MR, Covinsky KE. Development and validation of a prognostic index for 4-year mortality in older adults. JAMA 2006",
		URL:                "https://jamanetwork.com/journals/jama/fullarticle/202382",
		StudyType:          "prospective cohort",
		SampleSize:         "11,701 adults over 50",
		ConfidenceInterval: "c-statistic 0.82-0.84",
	}
}

func agePoints(age int) int {
	switch {
	case age < 60:
		return 0
	case age < 65:
		return 1
	case age < 70:
		return 2
	case age < 75:
		return 3
	case age < 80:
		return 4
	case age < 85:
		return 5
	default:
		return 7
	}
}

// fourYearMortality maps the total point score to the published four-year
// mortality of the development cohort's risk groups.
func fourYearMortality(points int) float64 {
	switch {
	case points <= 5:
		return 0.04
	case points <= 9:
		return 0.15
	case points <= 13:
		return 0.42
	default:
		return 0.64
	}
}
