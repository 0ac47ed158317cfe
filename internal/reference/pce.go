package reference

import (
	"math"

	dErrors "memento/pkg/domain-errors"

	"memento/internal/profile"
	"memento/internal/riskfactor"
)

// PooledCohort implements the 2013 ACC/AHA Pooled Cohort Equations for
// 10-year ASCVD risk, using the published Table A coefficients. Validated
// for ages 40-79 with a lipid panel and a systolic pressure reading. The
// profile does not carry race, so the white-population coefficients are used
// throughout, matching the published default for other groups.
type PooledCohort struct{}

func NewPooledCohort() *PooledCohort { return &PooledCohort{} }

// pceCoefficients holds one race-sex group's Table A column. Zero-valued
// terms are absent from the published equation for that group.
type pceCoefficients struct {
	lnAge           float64
	lnAgeSquared    float64
	lnTC            float64
	lnAgeLnTC       float64
	lnHDL           float64
	lnAgeLnHDL      float64
	lnSBPTreated    float64
	lnSBPUntreated  float64
	smoker          float64
	lnAgeSmoker     float64
	diabetes        float64
	meanSum         float64
	baselineSurvive float64
}

var pceWhiteMale = pceCoefficients{
	lnAge:           12.344,
	lnTC:            11.853,
	lnAgeLnTC:       -2.664,
	lnHDL:           -7.990,
	lnAgeLnHDL:      1.769,
	lnSBPTreated:    1.797,
	lnSBPUntreated:  1.764,
	smoker:          7.837,
	lnAgeSmoker:     -1.795,
	diabetes:        0.658,
	meanSum:         61.18,
	baselineSurvive: 0.9144,
}

var pceWhiteFemale = pceCoefficients{
	lnAge:           -29.799,
	lnAgeSquared:    4.884,
	lnTC:            13.540,
	lnAgeLnTC:       -3.114,
	lnHDL:           -13.578,
	lnAgeLnHDL:      3.149,
	lnSBPTreated:    2.019,
	lnSBPUntreated:  1.957,
	smoker:          7.574,
	lnAgeSmoker:     -1.665,
	diabetes:        0.661,
	meanSum:         -29.18,
	baselineSurvive: 0.9665,
}

func (c *PooledCohort) ID() string { return "pce_2013" }

func (c *PooledCohort) Applicable(p profile.RiskProfile) bool {
	return p.Age >= 40 && p.Age <= 79 && p.HasLipidPanel() && p.SystolicBP != nil
}

func (c *PooledCohort) Predict(p profile.RiskProfile) (Prediction, error) {
	if !c.Applicable(p) {
		return Prediction{}, dErrors.New(dErrors.CodeOutOfRange, "profile outside PCE applicability window")
	}

	coeff := pceWhiteMale
	if p.Sex == profile.SexFemale {
		coeff = pceWhiteFemale
	}

	lnAge := math.Log(float64(p.Age))
	lnTC := math.Log(*p.TotalCholesterol)
	lnHDL := math.Log(*p.HDLCholesterol)
	lnSBP := math.Log(*p.SystolicBP)

	smoker := 0.0
	if p.IsCurrentSmoker() {
		smoker = 1
	}
	diabetes := 0.0
	if p.Diabetes != nil && *p.Diabetes {
		diabetes = 1
	}

	sum := coeff.lnAge * lnAge
	sum += coeff.lnAgeSquared * lnAge * lnAge
	sum += coeff.lnTC * lnTC
	sum += coeff.lnAgeLnTC * lnAge * lnTC
	sum += coeff.lnHDL * lnHDL
	sum += coeff.lnAgeLnHDL * lnAge * lnHDL
	if p.BPTreated != nil && *p.BPTreated {
		sum += coeff.lnSBPTreated * lnSBP
	} else {
		sum += coeff.lnSBPUntreated * lnSBP
	}
	sum += coeff.smoker * smoker
	sum += coeff.lnAgeSmoker * lnAge * smoker
	sum += coeff.diabetes * diabetes

	// Table B: risk = 1 - S10^exp(sum - group mean).
	tenYear := 1 - math.Pow(coeff.baselineSurvive, math.Exp(sum-coeff.meanSum))

	// Constant-hazard annualization of the 10-year figure.
	annual := 1 - math.Pow(1-tenYear, 0.1)

	return Prediction{
		AnnualRisk: annual,
		Detail: map[string]float64{
			"risk_10_year":  tenYear,
			"horizon_years": 10,
		},
	}, nil
}

func (c *PooledCohort) Citation() riskfactor.Citation {
	return riskfactor.Citation{
		Source:             "Goff DC, Lloyd-Jones DM, Bennett G, et al. 2013 ACC/AHA Guideline on the Assessment of Cardiovascular Risk. Circulation 2013",
		URL:                "https://doi.org/10.1161/01.cir.0000437741.48606.98",
		StudyType:          "pooled prospective cohorts",
		SampleSize:         "24,626 adults",
		ConfidenceInterval: "c-statistic 0.71-0.82",
	}
}
