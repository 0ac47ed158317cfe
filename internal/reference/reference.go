// Package reference cross-checks the engine's own estimate against
// independently published clinical risk models. Each model declares its own
// applicability window; profiles outside the window are omitted from the
// outcome list, never extrapolated.
package reference

import (
	"log/slog"

	"memento/internal/profile"
	"memento/internal/riskfactor"
)

// Tolerance is the absolute agreement band between the engine's annual risk
// and a reference model's annualized prediction. Disagreement is reported as
// data, never raised as an error.
const Tolerance = 0.05

// Prediction is one reference model's annualized estimate plus the raw
// horizon figures it was derived from.
type Prediction struct {
	AnnualRisk float64            `json:"annual_risk"`
	Detail     map[string]float64 `json:"detail,omitempty"`
}

// Model is a self-contained published scoring function.
type Model interface {
	ID() string
	// Applicable reports whether the profile falls inside the model's
	// documented validity window (age bounds, required measurements).
	Applicable(p profile.RiskProfile) bool
	Predict(p profile.RiskProfile) (Prediction, error)
	Citation() riskfactor.Citation
}

// Outcome compares the engine's estimate with one applicable model.
type Outcome struct {
	ModelID             string              `json:"model_id"`
	OwnPrediction       float64             `json:"own_prediction"`
	ReferencePrediction float64             `json:"reference_prediction"`
	AbsoluteDifference  float64             `json:"absolute_difference"`
	WithinTolerance     bool                `json:"within_tolerance"`
	Detail              map[string]float64  `json:"detail,omitempty"`
	Citation            riskfactor.Citation `json:"citation"`
}

// Validator runs every registered model that applies to a profile.
type Validator struct {
	models []Model
	logger *slog.Logger
}

func NewValidator(logger *slog.Logger, models ...Model) *Validator {
	return &Validator{models: models, logger: logger}
}

// DefaultValidator wires the standard model set.
func DefaultValidator(logger *slog.Logger) *Validator {
	return NewValidator(logger, NewLeeIndex(), NewPooledCohort(), NewPrevent())
}

// Validate returns one Outcome per applicable model. A model that fails to
// evaluate is dropped with a warning; partial validation is a normal result.
func (v *Validator) Validate(own float64, p profile.RiskProfile) []Outcome {
	var outcomes []Outcome
	for _, m := range v.models {
		if !m.Applicable(p) {
			continue
		}
		pred, err := m.Predict(p)
		if err != nil {
			v.logger.Warn("reference model failed, omitting from validation",
				"model", m.ID(), "error", err)
			continue
		}
		diff := own - pred.AnnualRisk
		if diff < 0 {
			diff = -diff
		}
		outcomes = append(outcomes, Outcome{
			ModelID:             m.ID(),
			OwnPrediction:       own,
			ReferencePrediction: pred.AnnualRisk,
			AbsoluteDifference:  diff,
			WithinTolerance:     diff < Tolerance,
			Detail:              pred.Detail,
			Citation:            m.Citation(),
		})
	}
	return outcomes
}
