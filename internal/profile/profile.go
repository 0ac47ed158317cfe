// Package profile defines the closed, versioned risk-profile schema.
//
// Age and sex are always present; every other field is optional and modeled
// as a pointer so "not assessed" stays distinguishable from "assessed as
// average". Absent fields are excluded from risk adjustment, never silently
// defaulted.
package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	dErrors "memento/pkg/domain-errors"
)

// SchemaVersion tags the profile wire format.
const SchemaVersion = "1"

// Sex is the biological sex used for table lookups.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Valid reports whether s is a recognized value.
func (s Sex) Valid() bool { return s == SexMale || s == SexFemale }

// SmokingStatus covers the three assessed smoking categories.
type SmokingStatus string

const (
	SmokingNever   SmokingStatus = "never"
	SmokingFormer  SmokingStatus = "former"
	SmokingCurrent SmokingStatus = "current"
)

func (s SmokingStatus) Valid() bool {
	return s == SmokingNever || s == SmokingFormer || s == SmokingCurrent
}

// ActivityLevel is self-reported physical activity.
type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityHigh      ActivityLevel = "high"
)

func (a ActivityLevel) Valid() bool {
	return a == ActivitySedentary || a == ActivityModerate || a == ActivityHigh
}

// AlcoholPattern is self-reported drinking pattern.
type AlcoholPattern string

const (
	AlcoholNone     AlcoholPattern = "none"
	AlcoholModerate AlcoholPattern = "moderate"
	AlcoholHeavy    AlcoholPattern = "heavy"
	AlcoholBinge    AlcoholPattern = "binge"
)

func (a AlcoholPattern) Valid() bool {
	return a == AlcoholNone || a == AlcoholModerate || a == AlcoholHeavy || a == AlcoholBinge
}

// RiskProfile is the immutable input to the engine.
type RiskProfile struct {
	Age int `json:"age"`
	Sex Sex `json:"sex"`

	Smoking        *SmokingStatus `json:"smoking_status,omitempty"`
	YearsSinceQuit *int           `json:"years_since_quit,omitempty"`

	SystolicBP  *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP *float64 `json:"diastolic_bp,omitempty"`
	BPTreated   *bool    `json:"bp_treated,omitempty"`

	BMI      *float64 `json:"bmi,omitempty"`
	Diabetes *bool    `json:"diabetes,omitempty"`

	TotalCholesterol *float64 `json:"total_cholesterol,omitempty"`
	HDLCholesterol   *float64 `json:"hdl_cholesterol,omitempty"`
	OnStatin         *bool    `json:"on_statin,omitempty"`
	EGFR             *float64 `json:"egfr,omitempty"`

	Activity *ActivityLevel  `json:"activity_level,omitempty"`
	Alcohol  *AlcoholPattern `json:"alcohol_pattern,omitempty"`
}

// Validate checks structural invariants: age/sex presence and enum values.
// Range checks on optional numeric fields live in the schema validator; the
// resolver clamps dose-response domains regardless.
func (p RiskProfile) Validate() error {
	if p.Age < 0 || p.Age > 120 {
		return dErrors.Newf(dErrors.CodeBadRequest, "age %d outside accepted range 0-120", p.Age)
	}
	if !p.Sex.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "sex must be 'male' or 'female'")
	}
	if p.Smoking != nil && !p.Smoking.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "smoking_status must be 'never', 'former', or 'current'")
	}
	if p.Activity != nil && !p.Activity.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "activity_level must be 'sedentary', 'moderate', or 'high'")
	}
	if p.Alcohol != nil && !p.Alcohol.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "alcohol_pattern must be 'none', 'moderate', 'heavy', or 'binge'")
	}
	if p.YearsSinceQuit != nil && *p.YearsSinceQuit < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "years_since_quit must be >= 0")
	}
	return nil
}

// IsCurrentSmoker reports whether the profile records active smoking.
func (p RiskProfile) IsCurrentSmoker() bool {
	return p.Smoking != nil && *p.Smoking == SmokingCurrent
}

// HasLipidPanel reports whether both cholesterol values are present, which
// gates the cardiovascular reference models.
func (p RiskProfile) HasLipidPanel() bool {
	return p.TotalCholesterol != nil && p.HDLCholesterol != nil
}

// Fingerprint returns a deterministic digest of the profile for use as an
// idempotent-replay cache key. Identical profiles always produce identical
// fingerprints because the JSON encoding of a struct is field-ordered.
func (p RiskProfile) Fingerprint() string {
	raw, _ := json.Marshal(p)
	sum := sha256.Sum256(append([]byte("v"+SchemaVersion+":"), raw...))
	return hex.EncodeToString(sum[:])
}
