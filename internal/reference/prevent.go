package reference

import (
	"math"

	dErrors "memento/pkg/domain-errors"

	"memento/internal/profile"
	"memento/internal/riskfactor"
)

// Prevent implements the AHA PREVENT base equations (Khan et al. 2024) for
// 10-year total CVD and ASCVD, ported from the official coefficient set.
// Validated for ages 30-79 with systolic pressure 90-200 mmHg, cholesterol
// in range, and a kidney function estimate. The heart failure and 30-year
// submodels are not evaluated here; the validator compares annual totals
// only.
type Prevent struct{}

func NewPrevent() *Prevent { return &Prevent{} }

// preventCoefficients is one sex's coefficient column for a single
// endpoint. Terms follow the published base equation: centered age decades,
// non-HDL and HDL in mmol/L, hinged systolic pressure and eGFR splines, and
// age interactions.
type preventCoefficients struct {
	intercept      float64
	age            float64
	nonHDL         float64
	hdl            float64
	sbpLow         float64
	sbpHigh        float64
	dm             float64
	smoking        float64
	egfrLow        float64
	egfrHigh       float64
	bpTreat        float64
	statin         float64
	bpTreatSbpHigh float64
	statinNonHDL   float64
	ageNonHDL      float64
	ageHDL         float64
	ageSbpHigh     float64
	ageDM          float64
	ageSmoking     float64
	ageEgfrLow     float64
}

var preventCVDFemale = preventCoefficients{
	intercept: -3.307728, age: 0.7939329, nonHDL: 0.0305239, hdl: -0.1606857,
	sbpLow: -0.2394003, sbpHigh: 0.360078, dm: 0.8667604, smoking: 0.5360739,
	egfrLow: 0.6045917, egfrHigh: 0.0433769, bpTreat: 0.3151672, statin: -0.1477655,
	bpTreatSbpHigh: -0.0663612, statinNonHDL: 0.1197879,
	ageNonHDL: -0.0819715, ageHDL: 0.0306769, ageSbpHigh: -0.0946348,
	ageDM: -0.27057, ageSmoking: -0.078715, ageEgfrLow: -0.1637806,
}

var preventCVDMale = preventCoefficients{
	intercept: -3.031168, age: 0.7688528, nonHDL: 0.0736174, hdl: -0.0954431,
	sbpLow: -0.4347345, sbpHigh: 0.3362658, dm: 0.7692857, smoking: 0.4386871,
	egfrLow: 0.5378979, egfrHigh: 0.0164827, bpTreat: 0.288879, statin: -0.1337349,
	bpTreatSbpHigh: -0.0475924, statinNonHDL: 0.150273,
	ageNonHDL: -0.0517874, ageHDL: 0.0191169, ageSbpHigh: -0.1049477,
	ageDM: -0.2251948, ageSmoking: -0.0895067, ageEgfrLow: -0.1543702,
}

var preventASCVDFemale = preventCoefficients{
	intercept: -3.819975, age: 0.719883, nonHDL: 0.1176967, hdl: -0.151185,
	sbpLow: -0.0835358, sbpHigh: 0.3592852, dm: 0.8348585, smoking: 0.4831078,
	egfrLow: 0.4864619, egfrHigh: 0.0397779, bpTreat: 0.2265309, statin: -0.0592374,
	bpTreatSbpHigh: -0.0395762, statinNonHDL: 0.0844423,
	ageNonHDL: -0.0567839, ageHDL: 0.0325692, ageSbpHigh: -0.1035985,
	ageDM: -0.2417542, ageSmoking: -0.0791142, ageEgfrLow: -0.1671492,
}

var preventASCVDMale = preventCoefficients{
	intercept: -3.500655, age: 0.7099847, nonHDL: 0.1658663, hdl: -0.1144285,
	sbpLow: -0.2837212, sbpHigh: 0.3239977, dm: 0.7189597, smoking: 0.3956973,
	egfrLow: 0.3690075, egfrHigh: 0.0203619, bpTreat: 0.2036522, statin: -0.0865581,
	bpTreatSbpHigh: -0.0322916, statinNonHDL: 0.114563,
	ageNonHDL: -0.0300005, ageHDL: 0.0232747, ageSbpHigh: -0.0927024,
	ageDM: -0.2018525, ageSmoking: -0.0970527, ageEgfrLow: -0.1217081,
}

func (m *Prevent) ID() string { return "prevent_2024" }

func (m *Prevent) Applicable(p profile.RiskProfile) bool {
	if p.Age < 30 || p.Age > 79 {
		return false
	}
	if p.SystolicBP == nil || *p.SystolicBP < 90 || *p.SystolicBP > 200 {
		return false
	}
	if !p.HasLipidPanel() || *p.TotalCholesterol < 130 || *p.TotalCholesterol > 320 {
		return false
	}
	if *p.HDLCholesterol < 20 || *p.HDLCholesterol > 100 {
		return false
	}
	return p.EGFR != nil && *p.EGFR > 0
}

func (m *Prevent) Predict(p profile.RiskProfile) (Prediction, error) {
	if !m.Applicable(p) {
		return Prediction{}, dErrors.New(dErrors.CodeOutOfRange, "profile outside PREVENT applicability window")
	}

	cvd, ascvd := preventCVDMale, preventASCVDMale
	if p.Sex == profile.SexFemale {
		cvd, ascvd = preventCVDFemale, preventASCVDFemale
	}

	in := preventInputs(p)
	tenYearCVD := logistic(in.logOdds(cvd))
	tenYearASCVD := logistic(in.logOdds(ascvd))

	annual := 1 - math.Pow(1-tenYearCVD, 0.1)

	return Prediction{
		AnnualRisk: annual,
		Detail: map[string]float64{
			"risk_10_year_cvd":   tenYearCVD,
			"risk_10_year_ascvd": tenYearASCVD,
			"horizon_years":      10,
		},
	}, nil
}

func (m *Prevent) Citation() riskfactor.Citation {
	return riskfactor.Citation{
		Source:             "Khan SS, Matsushita K, Sang Y, et al. Development and Validation of the American Heart Association PREVENT Equations. Circulation 2024",
		URL:                "https://doi.org/10.1161/CIRCULATIONAHA.123.067626",
		StudyType:          "pooled prospective cohorts",
		SampleSize:         "6,612,004 adults",
		ConfidenceInterval: "c-statistic 0.73-0.79",
	}
}

// mg/dL to mmol/L for cholesterol.
const mmolPerMgDl = 0.02586

type preventTerms struct {
	age      float64
	nonHDL   float64
	hdl      float64
	sbpLow   float64
	sbpHigh  float64
	dm       float64
	smoking  float64
	egfrLow  float64
	egfrHigh float64
	bpTreat  float64
	statin   float64
}

func preventInputs(p profile.RiskProfile) preventTerms {
	sbp := *p.SystolicBP
	egfr := *p.EGFR
	tc := *p.TotalCholesterol
	hdl := *p.HDLCholesterol

	t := preventTerms{
		age:      (float64(p.Age) - 55) / 10,
		nonHDL:   mmolPerMgDl*(tc-hdl) - 3.5,
		hdl:      (mmolPerMgDl*hdl - 1.3) / 0.3,
		sbpLow:   (math.Min(sbp, 110) - 110) / 20,
		sbpHigh:  (math.Max(sbp, 110) - 130) / 20,
		egfrLow:  (math.Min(egfr, 60) - 60) / -15,
		egfrHigh: (math.Max(egfr, 60) - 90) / -15,
	}
	if p.Diabetes != nil && *p.Diabetes {
		t.dm = 1
	}
	if p.IsCurrentSmoker() {
		t.smoking = 1
	}
	if p.BPTreated != nil && *p.BPTreated {
		t.bpTreat = 1
	}
	if p.OnStatin != nil && *p.OnStatin {
		t.statin = 1
	}
	return t
}

func (t preventTerms) logOdds(c preventCoefficients) float64 {
	sum := c.intercept
	sum += c.age * t.age
	sum += c.nonHDL * t.nonHDL
	sum += c.hdl * t.hdl
	sum += c.sbpLow * t.sbpLow
	sum += c.sbpHigh * t.sbpHigh
	sum += c.dm * t.dm
	sum += c.smoking * t.smoking
	sum += c.egfrLow * t.egfrLow
	sum += c.egfrHigh * t.egfrHigh
	sum += c.bpTreat * t.bpTreat
	sum += c.statin * t.statin
	sum += c.bpTreatSbpHigh * t.bpTreat * t.sbpHigh
	sum += c.statinNonHDL * t.statin * t.nonHDL
	sum += c.ageNonHDL * t.age * t.nonHDL
	sum += c.ageHDL * t.age * t.hdl
	sum += c.ageSbpHigh * t.age * t.sbpHigh
	sum += c.ageDM * t.age * t.dm
	sum += c.ageSmoking * t.age * t.smoking
	sum += c.ageEgfrLow * t.age * t.egfrLow
	return sum
}

func logistic(logOdds float64) float64 {
	return math.Exp(logOdds) / (1 + math.Exp(logOdds))
}
