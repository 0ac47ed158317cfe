// Package handler wires the risk engine to HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"memento/internal/engine"
	"memento/internal/intervention"
	"memento/internal/profile"
	"memento/internal/riskfactor"
	"memento/pkg/platform/httputil"
	"memento/pkg/requestcontext"
)

// Service defines the engine operations the handler depends on.
type Service interface {
	ComputeRisk(ctx context.Context, p profile.RiskProfile) (*engine.Assessment, error)
	SimulateInterventions(ctx context.Context, p profile.RiskProfile, k int) (*intervention.TopResult, error)
	ValidateProfile(ctx context.Context, p profile.RiskProfile) profile.ValidationResult
}

// Handler exposes assessments, interventions, and the profile schema.
type Handler struct {
	service Service
	factors riskfactor.Store
	logger  *slog.Logger
}

func New(service Service, factors riskfactor.Store, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		factors: factors,
		logger:  logger,
	}
}

// Register mounts engine endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/assessments", h.HandleAssess)
	r.Post("/v1/interventions", h.HandleInterventions)
	r.Get("/v1/factors", h.HandleFactors)
	r.Get("/v1/schema", h.HandleSchema)
	r.Post("/v1/schema/validation", h.HandleValidation)
}

// HandleAssess handles POST /v1/assessments requests.
func (h *Handler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[AssessmentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ComputeRisk(ctx, req.RiskProfile)
	if err != nil {
		h.logger.ErrorContext(ctx, "assessment failed",
			"request_id", requestID,
			"age", req.Age,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "assessment served",
		"request_id", requestID,
		"risk_level", result.Adjusted.RiskLevel,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleInterventions handles POST /v1/interventions requests.
func (h *Handler) HandleInterventions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InterventionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.SimulateInterventions(ctx, req.RiskProfile, req.TopK)
	if err != nil {
		h.logger.ErrorContext(ctx, "intervention simulation failed",
			"request_id", requestID,
			"age", req.Age,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleFactors handles GET /v1/factors requests. The catalog is public
// reference data: definitions, dose-response parameters, and citations.
func (h *Handler) HandleFactors(w http.ResponseWriter, r *http.Request) {
	defs, err := h.factors.All(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"version": h.factors.Version(),
		"factors": defs,
	})
}

// HandleSchema handles GET /v1/schema requests.
func (h *Handler) HandleSchema(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"version": profile.SchemaVersion,
		"fields":  profile.Schema(),
	})
}

// HandleValidation handles POST /v1/schema/validation requests. A profile
// that fails validation is still a 200; the findings are the payload.
func (h *Handler) HandleValidation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ValidationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result := h.service.ValidateProfile(ctx, req.RiskProfile)
	httputil.WriteJSON(w, http.StatusOK, result)
}
