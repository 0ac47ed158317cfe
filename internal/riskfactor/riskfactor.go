// Package riskfactor maps self-reported exposures to relative risk values
// with full source attribution.
package riskfactor

import (
	"context"

	"memento/internal/causes"
	dErrors "memento/pkg/domain-errors"
)

// FactorID identifies one adjustable risk factor.
type FactorID string

const (
	FactorSmoking       FactorID = "smoking"
	FactorBloodPressure FactorID = "blood_pressure"
	FactorCholesterol   FactorID = "cholesterol"
	FactorDiabetes      FactorID = "diabetes"
	FactorBMI           FactorID = "bmi"
	FactorActivity      FactorID = "activity"
	FactorAlcohol       FactorID = "alcohol"
)

// Citation records where a relative risk estimate comes from. Every factor
// definition carries one; estimates without a published source do not ship.
type Citation struct {
	Source             string `json:"source"`
	URL                string `json:"url"`
	StudyType          string `json:"study_type"`
	SampleSize         string `json:"sample_size"`
	ConfidenceInterval string `json:"confidence_interval"`
}

// Definition is the stored description of one factor: either a fixed
// categorical RR table, a dose-response curve, or both (blood pressure pairs
// a curve with a treatment multiplier).
type Definition struct {
	ID          FactorID `json:"id"`
	Description string   `json:"description"`
	Units       string   `json:"units,omitempty"`

	// AppliesTo lists the cause categories this factor adjusts. Nil means
	// the factor applies to all-cause mortality.
	AppliesTo []causes.Cause `json:"applies_to,omitempty"`

	Categorical map[string]float64 `json:"categorical,omitempty"`
	Curve       *Curve             `json:"curve,omitempty"`

	Citation Citation `json:"citation"`
}

// Exposure is one resolved (factor, RR) pair for a specific profile. A
// profile field that is absent produces no Exposure at all; "not assessed"
// and "assessed as neutral" stay distinguishable downstream.
type Exposure struct {
	FactorID     FactorID       `json:"factor_id"`
	Level        string         `json:"level"`
	RelativeRisk float64        `json:"relative_risk"`
	Units        string         `json:"units,omitempty"`
	AppliesTo    []causes.Cause `json:"applies_to,omitempty"`
	Citation     Citation       `json:"citation"`
}

// Store is the factor definition lookup collaborator.
type Store interface {
	Definition(ctx context.Context, id FactorID) (Definition, error)
	All(ctx context.Context) ([]Definition, error)
	Version() string
}

// ErrUnknownFactor builds the error for a factor id with no definition.
func ErrUnknownFactor(id FactorID) error {
	return dErrors.Newf(dErrors.CodeNotFound, "no definition for risk factor %q", id)
}
