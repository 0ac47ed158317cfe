package riskfactor

import (
	"context"
	"math"
	"sort"

	"memento/internal/causes"
)

const memoryVersion = "literature-2024.1"

// Level keys used by categorical definitions. The blood pressure definition
// also carries the antihypertensive treatment multiplier under
// LevelTreatment since it modifies the curve output rather than replacing it.
const (
	LevelCurrent   = "current"
	LevelFormer    = "former"
	LevelNever     = "never"
	LevelSedentary = "sedentary"
	LevelModerate  = "moderate"
	LevelHigh      = "high"
	LevelNone      = "none"
	LevelHeavy     = "heavy"
	LevelBinge     = "binge"
	LevelPresent   = "present"
	LevelAbsent    = "absent"
	LevelTreatment = "treatment"
)

// Shared dose-response anchors.
const (
	FormerSmokerRR     = 1.2
	YearsToNeverRR     = 15.0
	OptimalSystolic    = 120.0
	OptimalBMI         = 22.0
	OptimalCholesterol = 200.0
)

var cardiovascular = []causes.Cause{causes.CauseHeartDisease, causes.CauseStroke}

var cardiometabolic = []causes.Cause{
	causes.CauseHeartDisease, causes.CauseStroke, causes.CauseDiabetes,
	causes.CauseKidney,
}

// MemoryStore serves the literature-derived factor definitions. The seed
// values come from the meta-analyses cited on each definition and change
// only with a reviewed data update.
type MemoryStore struct {
	defs map[FactorID]Definition
}

func NewMemoryStore() *MemoryStore {
	defs := map[FactorID]Definition{
		FactorSmoking: {
			ID:          FactorSmoking,
			Description: "Smoking status relative to never smokers, all-cause mortality",
			Categorical: map[string]float64{
				LevelCurrent: 2.3,
				LevelFormer:  FormerSmokerRR,
				LevelNever:   1.0,
			},
			// Former-smoker excess decays linearly to never-smoker levels
			// over 15 years since quitting.
			Curve: &Curve{
				Kind:  CurveLinear,
				Ref:   YearsToNeverRR,
				Scale: YearsToNeverRR,
				Slope: -(FormerSmokerRR - 1.0),
				Min:   0,
				Max:   YearsToNeverRR,
			},
			Citation: Citation{
				Source:             "Jha P, Ramasundarahettige C, Landsman V, et al. 21st-century hazards of smoking and benefits of cessation in the United States. NEJM 2013",
				URL:                "https://www.nejm.org/doi/full/10.1056/NEJMsa1211128",
				StudyType:          "prospective cohort",
				SampleSize:         "216,917 U.S. adults",
				ConfidenceInterval: "2.1-2.5",
			},
		},
		FactorBloodPressure: {
			ID:          FactorBloodPressure,
			Description: "Systolic blood pressure above 120 mmHg, cardiovascular mortality",
			Units:       "mmHg",
			AppliesTo:   cardiovascular,
			Curve: &Curve{
				Kind:  CurveExponential,
				Ref:   OptimalSystolic,
				Scale: 20,
				Base:  1.8,
				Min:   OptimalSystolic,
				Max:   250,
			},
			Categorical: map[string]float64{
				LevelTreatment: 0.7,
			},
			Citation: Citation{
				Source:             "Lewington S, Clarke R, Qizilbash N, et al. Age-specific relevance of usual blood pressure to vascular mortality. Lancet 2002",
				URL:                "https://www.thelancet.com/journals/lancet/article/PIIS0140-6736(02)11911-8/fulltext",
				StudyType:          "meta-analysis",
				SampleSize:         "1,000,000 adults",
				ConfidenceInterval: "1.7-1.9",
			},
		},
		FactorCholesterol: {
			ID:          FactorCholesterol,
			Description: "Total cholesterol above 200 mg/dL, ischaemic heart disease mortality",
			Units:       "mg/dL",
			AppliesTo:   []causes.Cause{causes.CauseHeartDisease},
			Curve: &Curve{
				Kind:  CurveExponential,
				Ref:   OptimalCholesterol,
				Scale: 40,
				Base:  1.25,
				Min:   OptimalCholesterol,
				Max:   400,
			},
			Categorical: map[string]float64{
				LevelTreatment: 0.75,
			},
			Citation: Citation{
				Source:             "Prospective Studies Collaboration. Blood cholesterol and vascular mortality by age, sex, and blood pressure: a meta-analysis of individual data from 61 prospective studies. Lancet 2007",
				URL:                "https://www.thelancet.com/journals/lancet/article/PIIS0140-6736(07)61778-4/fulltext",
				StudyType:          "meta-analysis",
				SampleSize:         "892,337 adults",
				ConfidenceInterval: "1.2-1.3",
			},
		},
		FactorDiabetes: {
			ID:          FactorDiabetes,
			Description: "Diagnosed diabetes mellitus, cardiometabolic mortality",
			AppliesTo:   cardiometabolic,
			Categorical: map[string]float64{
				LevelPresent: 1.8,
				LevelAbsent:  1.0,
			},
			Citation: Citation{
				Source:             "Emerging Risk Factors Collaboration. Diabetes mellitus, fasting glucose, and risk of cause-specific death. NEJM 2011",
				URL:                "https://www.nejm.org/doi/full/10.1056/NEJMoa1008862",
				StudyType:          "meta-analysis",
				SampleSize:         "820,900 adults",
				ConfidenceInterval: "1.71-1.90",
			},
		},
		FactorBMI: {
			ID:          FactorBMI,
			Description: "Body mass index distance from the optimal range, all-cause mortality",
			Units:       "kg/m2",
			AppliesTo:   cardiometabolic,
			Curve: &Curve{
				Kind:   CurveExponential,
				Ref:    OptimalBMI,
				Scale:  5,
				Base:   1.15,
				Min:    15,
				Max:    60,
				Folded: true,
			},
			Citation: Citation{
				Source:             "Global BMI Mortality Collaboration. Body-mass index and all-cause mortality: individual-participant-data meta-analysis of 239 prospective studies. Lancet 2016",
				URL:                "https://www.thelancet.com/journals/lancet/article/PIIS0140-6736(16)30175-1/fulltext",
				StudyType:          "meta-analysis",
				SampleSize:         "10,625,411 adults",
				ConfidenceInterval: "1.13-1.17",
			},
		},
		FactorActivity: {
			ID:          FactorActivity,
			Description: "Physical activity level relative to moderately active adults, all-cause mortality",
			Categorical: map[string]float64{
				LevelSedentary: 1.4,
				LevelModerate:  1.0,
				LevelHigh:      1.0 / math.Sqrt(1.4),
			},
			Citation: Citation{
				Source:             "Warburton DE, Nicol CW, Bredin SS. Health benefits of physical activity: the evidence. CMAJ 2006",
				URL:                "https://www.cmaj.ca/content/174/6/801",
				StudyType:          "systematic review",
				SampleSize:         "Multiple studies",
				ConfidenceInterval: "1.3-1.5",
			},
		},
		FactorAlcohol: {
			ID:          FactorAlcohol,
			Description: "Alcohol consumption pattern relative to non-drinkers, cardiovascular mortality",
			AppliesTo:   cardiovascular,
			Categorical: map[string]float64{
				LevelNone:     1.0,
				LevelModerate: 1.0,
				LevelHeavy:    1.3,
				LevelBinge:    1.2,
			},
			Citation: Citation{
				Source:             "GBD 2016 Alcohol Collaborators. Alcohol use and burden for 195 countries and territories, 1990-2016. Lancet 2018",
				URL:                "https://www.thelancet.com/journals/lancet/article/PIIS0140-6736(18)31310-2/fulltext",
				StudyType:          "systematic review + Mendelian randomization",
				SampleSize:         "Global population",
				ConfidenceInterval: "0.95-1.05",
			},
		},
	}
	return &MemoryStore{defs: defs}
}

func (s *MemoryStore) Definition(_ context.Context, id FactorID) (Definition, error) {
	def, ok := s.defs[id]
	if !ok {
		return Definition{}, ErrUnknownFactor(id)
	}
	return def, nil
}

func (s *MemoryStore) All(_ context.Context) ([]Definition, error) {
	out := make([]Definition, 0, len(s.defs))
	for _, def := range s.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Version() string { return memoryVersion }
