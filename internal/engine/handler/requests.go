package handler

import (
	"memento/internal/profile"
	dErrors "memento/pkg/domain-errors"
)

// AssessmentRequest is the HTTP request body for POST /v1/assessments.
// The body is the risk profile itself; there is no wrapper object.
type AssessmentRequest struct {
	profile.RiskProfile
}

func (r *AssessmentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return r.RiskProfile.Validate()
}

// InterventionRequest is the HTTP request body for POST /v1/interventions.
type InterventionRequest struct {
	profile.RiskProfile

	// TopK sizes the combined intervention set. Zero means the default.
	TopK int `json:"top_k,omitempty"`
}

func (r *InterventionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.TopK < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "top_k must be >= 0")
	}
	if r.TopK > 10 {
		return dErrors.New(dErrors.CodeBadRequest, "top_k must be at most 10")
	}
	return r.RiskProfile.Validate()
}

// ValidationRequest is the HTTP request body for POST /v1/schema/validation.
// Unlike the assessment endpoints it accepts structurally broken profiles;
// findings come back in the response instead of an error envelope.
type ValidationRequest struct {
	profile.RiskProfile
}
