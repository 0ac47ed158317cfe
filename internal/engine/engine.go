// Package engine orchestrates the full risk computation: baseline lookup,
// cause allocation, risk factor resolution, joint attribution, reference
// validation, and intervention simulation. Each step lives in its own
// package; the engine owns the ordering, the caching, and the audit trail.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"memento/internal/attribution"
	"memento/internal/causes"
	"memento/internal/engine/metrics"
	"memento/internal/intervention"
	"memento/internal/lifetable"
	"memento/internal/profile"
	"memento/internal/reference"
	"memento/internal/riskfactor"
	"memento/pkg/platform/audit"
	"memento/pkg/requestcontext"
)

const (
	// evidenceTimeout bounds the parallel reference-table lookups.
	evidenceTimeout = 5 * time.Second

	// topCauseCount is how many leading causes a result names.
	topCauseCount = 3

	// defaultInterventionCount is the top-k for the combined set when the
	// caller leaves k unset.
	defaultInterventionCount = 3
)

// BaselineSource supplies age- and sex-specific baseline mortality.
type BaselineSource interface {
	Baseline(ctx context.Context, age int, sex profile.Sex) (lifetable.BaselineRisk, error)
	Version() string
}

// CauseSource supplies cause-of-death fractions for an age band and sex.
type CauseSource interface {
	Allocation(ctx context.Context, age int, sex profile.Sex) (causes.FractionSet, error)
	Version() string
}

// Service is the risk engine. Construct with NewService; the zero value is
// not usable.
type Service struct {
	baseline  BaselineSource
	causes    CauseSource
	resolver  *riskfactor.Resolver
	factors   riskfactor.Store
	validator *reference.Validator
	simulator *intervention.Simulator

	cache   *AssessmentCache
	auditCh chan<- audit.Event
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option customizes optional service collaborators.
type Option func(*Service)

// WithCache enables idempotent replay of assessments for equal inputs.
func WithCache(cache *AssessmentCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithAudit routes calculation provenance events to the given channel.
// Emission never blocks; if the channel is full the event is dropped with
// a warning.
func WithAudit(ch chan<- audit.Event) Option {
	return func(s *Service) { s.auditCh = ch }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(
	baseline BaselineSource,
	causeSource CauseSource,
	factors riskfactor.Store,
	validator *reference.Validator,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		baseline:  baseline,
		causes:    causeSource,
		resolver:  riskfactor.NewResolver(factors),
		factors:   factors,
		validator: validator,
		simulator: intervention.NewSimulator(),
		logger:    logger,
		tracer:    otel.Tracer("memento/engine"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// evidence is the result of the parallel reference-table lookups.
type evidence struct {
	baseline  lifetable.BaselineRisk
	fractions causes.FractionSet
}

// ComputeRisk runs the full assessment pipeline for one profile. Identical
// profiles (same fingerprint) replay the cached result when a cache is
// configured.
func (s *Service) ComputeRisk(ctx context.Context, p profile.RiskProfile) (*Assessment, error) {
	ctx, span := s.tracer.Start(ctx, "engine.ComputeRisk",
		trace.WithAttributes(attribute.Int("profile.age", p.Age)))
	defer span.End()

	start := time.Now()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	fingerprint := p.Fingerprint()
	cacheKey := s.cacheKey(fingerprint)

	if cached := s.cache.Get(ctx, cacheKey); cached != nil {
		s.metrics.IncrementCache("hit")
		s.logger.DebugContext(ctx, "assessment cache hit", "fingerprint", fingerprint)
		s.emitAudit(ctx, audit.Event{
			Action:             audit.ActionAssessmentComputed,
			ProfileFingerprint: fingerprint,
			TableVersions:      s.tableVersions(),
			ResultSummary:      resultSummary(cached),
			Cached:             true,
		})
		return cached, nil
	}
	s.metrics.IncrementCache("miss")

	ev, err := s.gatherEvidence(ctx, p)
	if err != nil {
		return nil, err
	}

	exposures, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}

	attributed := attribution.Attribute(ev.baseline.Qx, ev.fractions, exposures)

	assessment := s.assemble(ctx, p, ev, exposures, attributed)

	assessment.Validations = s.validator.Validate(attributed.TotalRisk, p)
	assessment.Interventions = s.simulator.SimulateTop(
		attributed.TotalRisk, ev.fractions, p, defaultInterventionCount)

	for _, w := range assessment.Warnings {
		s.metrics.IncrementWarning(w.Code)
	}
	s.metrics.IncrementAssessments(string(assessment.Adjusted.RiskLevel))
	s.metrics.ObserveComputeLatency(time.Since(start))

	s.cache.Set(ctx, cacheKey, assessment)

	s.emitAudit(ctx, audit.Event{
		Action:             audit.ActionAssessmentComputed,
		ProfileFingerprint: fingerprint,
		TableVersions:      s.tableVersions(),
		ResultSummary:      resultSummary(assessment),
	})

	s.logger.InfoContext(ctx, "assessment computed",
		"fingerprint", fingerprint,
		"risk_level", assessment.Adjusted.RiskLevel,
		"total_risk", assessment.Adjusted.TotalRisk,
		"exposures", len(exposures),
		"duration", time.Since(start),
	)

	return assessment, nil
}

// SimulateInterventions re-runs the assessment pipeline and returns the
// intervention ranking with a caller-chosen top-k. k <= 0 falls back to the
// default.
func (s *Service) SimulateInterventions(ctx context.Context, p profile.RiskProfile, k int) (*intervention.TopResult, error) {
	ctx, span := s.tracer.Start(ctx, "engine.SimulateInterventions",
		trace.WithAttributes(attribute.Int("top_k", k)))
	defer span.End()

	if k <= 0 {
		k = defaultInterventionCount
	}

	assessment, err := s.ComputeRisk(ctx, p)
	if err != nil {
		return nil, err
	}

	result := assessment.Interventions
	if k != defaultInterventionCount {
		ev, err := s.gatherEvidence(ctx, p)
		if err != nil {
			return nil, err
		}
		result = s.simulator.SimulateTop(assessment.Adjusted.TotalRisk, ev.fractions, p, k)
	}

	s.emitAudit(ctx, audit.Event{
		Action:             audit.ActionInterventionSimulated,
		ProfileFingerprint: p.Fingerprint(),
		TableVersions:      s.tableVersions(),
		ResultSummary:      fmt.Sprintf("ranked=%d top_k=%d", len(result.Ranked), k),
	})

	return &result, nil
}

// ValidateProfile checks a profile against the schema without computing
// anything. Validation-only calls still leave an audit record; downstream
// forms rely on the trail to show what was checked.
func (s *Service) ValidateProfile(ctx context.Context, p profile.RiskProfile) profile.ValidationResult {
	result := profile.ValidateAgainstSchema(p)

	s.emitAudit(ctx, audit.Event{
		Action:             audit.ActionProfileValidated,
		ProfileFingerprint: p.Fingerprint(),
		TableVersions:      s.tableVersions(),
		ResultSummary:      fmt.Sprintf("valid=%t errors=%d warnings=%d", result.Valid, len(result.Errors), len(result.Warnings)),
	})

	return result
}

// gatherEvidence runs the baseline and cause-fraction lookups in parallel
// with shared cancellation.
func (s *Service) gatherEvidence(ctx context.Context, p profile.RiskProfile) (evidence, error) {
	ctx, span := s.tracer.Start(ctx, "engine.gatherEvidence")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, evidenceTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	var ev evidence

	g.Go(func() error {
		start := time.Now()
		baseline, err := s.baseline.Baseline(ctx, p.Age, p.Sex)
		s.metrics.ObserveLookupLatency("baseline", time.Since(start))
		if err != nil {
			return err
		}
		ev.baseline = baseline
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		fractions, err := s.causes.Allocation(ctx, p.Age, p.Sex)
		s.metrics.ObserveLookupLatency("causes", time.Since(start))
		if err != nil {
			return err
		}
		ev.fractions = fractions
		return nil
	})

	if err := g.Wait(); err != nil {
		return evidence{}, err
	}
	return ev, nil
}

func (s *Service) assemble(
	ctx context.Context,
	p profile.RiskProfile,
	ev evidence,
	exposures []riskfactor.Exposure,
	attributed attribution.Result,
) *Assessment {
	level := ClassifyRisk(attributed.TotalRisk)

	a := &Assessment{
		Age:      p.Age,
		Sex:      p.Sex,
		Baseline: newBaseline(ev.baseline),
		Adjusted: Adjusted{
			TotalRisk:         attributed.TotalRisk,
			SixMonthRisk:      lifetable.ConvertHorizon(attributed.TotalRisk, lifetable.HorizonSixMonth),
			FiveYearRisk:      lifetable.ConvertHorizon(attributed.TotalRisk, lifetable.HorizonFiveYear),
			TotalRelativeRisk: attributed.TotalRelativeRisk,
			RiskLevel:         level,
			LifeExpectancy:    adjustedLifeExpectancy(ev.baseline, attributed),
		},
		CauseRisks:    attributed.CauseRisks,
		TopCauses:     topCauses(attributed, topCauseCount),
		Exposures:     exposures,
		Contributions: attributed.Contributions,
		Warnings:      attributed.Warnings,
		Provenance: Provenance{
			SchemaVersion:      profile.SchemaVersion,
			TableVersions:      s.tableVersions(),
			ProfileFingerprint: p.Fingerprint(),
			ComputedAt:         requestcontext.Now(ctx),
			CauseRenormalized:  ev.fractions.Renormalized,
		},
	}
	return a
}

// adjustedLifeExpectancy deflates the baseline expectancy by the realized
// risk ratio. The result never drops below one year; the deflation is a
// first-order approximation, not a full recomputed survival curve.
func adjustedLifeExpectancy(baseline lifetable.BaselineRisk, attributed attribution.Result) float64 {
	if baseline.Qx <= 0 {
		return baseline.Ex
	}
	ratio := attributed.TotalRisk / baseline.Qx
	if ratio <= 0 {
		return baseline.Ex
	}
	ex := baseline.Ex / ratio
	if ex < 1 {
		return 1
	}
	return ex
}

// topCauses ranks cause risks descending and reports each share of the
// total as a percentage.
func topCauses(attributed attribution.Result, n int) []TopCause {
	ordered := attributed.SortedCauses()
	if len(ordered) > n {
		ordered = ordered[:n]
	}

	top := make([]TopCause, 0, len(ordered))
	for _, c := range ordered {
		risk := attributed.CauseRisks[c]
		pct := 0.0
		if attributed.TotalRisk > 0 {
			pct = risk / attributed.TotalRisk * 100
		}
		top = append(top, TopCause{Cause: c, Risk: risk, Percentage: pct})
	}
	return top
}

// cacheKey binds a cached assessment to the exact profile and table versions
// it was computed from. A table upgrade changes the key, so stale entries age
// out instead of replaying.
func (s *Service) cacheKey(fingerprint string) string {
	return fmt.Sprintf("%s|lt=%s|cf=%s|rf=%s",
		fingerprint, s.baseline.Version(), s.causes.Version(), s.factors.Version())
}

func (s *Service) tableVersions() map[string]string {
	return map[string]string{
		"life_table":      s.baseline.Version(),
		"cause_fractions": s.causes.Version(),
		"risk_factors":    s.factors.Version(),
	}
}

func resultSummary(a *Assessment) string {
	return fmt.Sprintf("risk_level=%s total_risk=%.6f warnings=%d",
		a.Adjusted.RiskLevel, a.Adjusted.TotalRisk, len(a.Warnings))
}

// emitAudit hands the event to the audit worker without blocking the
// request path. A full inbox drops the event; the calculation result is
// never held hostage to the trail.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditCh == nil {
		return
	}

	event.ID = uuid.NewString()
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.ClientAgent = requestcontext.UserAgent(ctx)
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	select {
	case s.auditCh <- event:
	default:
		s.logger.Warn("audit inbox full, dropping event", "action", event.Action)
	}
}
