package engine

import (
	"time"

	"memento/internal/attribution"
	"memento/internal/causes"
	"memento/internal/intervention"
	"memento/internal/lifetable"
	"memento/internal/profile"
	"memento/internal/reference"
	"memento/internal/riskfactor"
)

// RiskLevel is the qualitative classification of an annual risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// ClassifyRisk buckets an annual probability into a risk level.
func ClassifyRisk(annual float64) RiskLevel {
	switch {
	case annual < 0.01:
		return RiskLow
	case annual < 0.05:
		return RiskModerate
	case annual < 0.15:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// Baseline is the unadjusted mortality picture for the profile's age and sex.
type Baseline struct {
	Qx           float64 `json:"qx"`
	Ex           float64 `json:"ex"`
	SixMonthRisk float64 `json:"six_month_risk"`
	FiveYearRisk float64 `json:"five_year_risk"`
}

// Adjusted is the factor-adjusted totals across the supported horizons.
type Adjusted struct {
	TotalRisk         float64   `json:"total_risk"`
	SixMonthRisk      float64   `json:"six_month_risk"`
	FiveYearRisk      float64   `json:"five_year_risk"`
	TotalRelativeRisk float64   `json:"total_relative_risk"`
	RiskLevel         RiskLevel `json:"risk_level"`

	// LifeExpectancy is the baseline expectancy deflated by the risk
	// ratio, floored at one year.
	LifeExpectancy float64 `json:"life_expectancy"`
}

// TopCause is one entry of the ranked cause breakdown.
type TopCause struct {
	Cause      causes.Cause `json:"cause"`
	Risk       float64      `json:"risk"`
	Percentage float64      `json:"percentage"`
}

// Provenance names the data behind a result.
type Provenance struct {
	SchemaVersion      string            `json:"schema_version"`
	TableVersions      map[string]string `json:"table_versions"`
	ProfileFingerprint string            `json:"profile_fingerprint"`

	// ComputedAt is the request clock, not part of the computed result:
	// identical profiles yield identical risks but distinct timestamps.
	ComputedAt time.Time `json:"computed_at"`

	CauseRenormalized bool `json:"cause_renormalized,omitempty"`
}

// Assessment is the full result of one risk computation.
type Assessment struct {
	Age int         `json:"age"`
	Sex profile.Sex `json:"sex"`

	Baseline Baseline `json:"baseline"`
	Adjusted Adjusted `json:"adjusted"`

	CauseRisks map[causes.Cause]float64 `json:"cause_risks"`
	TopCauses  []TopCause               `json:"top_causes"`

	Exposures     []riskfactor.Exposure           `json:"exposures,omitempty"`
	Contributions map[riskfactor.FactorID]float64 `json:"contributions,omitempty"`

	Validations   []reference.Outcome    `json:"validations,omitempty"`
	Interventions intervention.TopResult `json:"interventions"`

	Warnings   []attribution.Warning `json:"warnings,omitempty"`
	Provenance Provenance            `json:"provenance"`
}

func newBaseline(b lifetable.BaselineRisk) Baseline {
	return Baseline{
		Qx:           b.Qx,
		Ex:           b.Ex,
		SixMonthRisk: lifetable.ConvertHorizon(b.Qx, lifetable.HorizonSixMonth),
		FiveYearRisk: lifetable.ConvertHorizon(b.Qx, lifetable.HorizonFiveYear),
	}
}
