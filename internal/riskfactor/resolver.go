package riskfactor

import (
	"context"
	"fmt"

	"memento/internal/profile"
)

// Resolver converts a risk profile into the set of resolved exposures. Only
// fields present on the profile produce entries; everything else is "not
// assessed" and contributes nothing downstream.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns one Exposure per assessed factor, in a stable order.
func (r *Resolver) Resolve(ctx context.Context, p profile.RiskProfile) ([]Exposure, error) {
	var exposures []Exposure

	if p.Smoking != nil {
		exp, err := r.resolveSmoking(ctx, p)
		if err != nil {
			return nil, err
		}
		exposures = append(exposures, exp)
	}
	if p.SystolicBP != nil {
		exp, err := r.resolveBloodPressure(ctx, p)
		if err != nil {
			return nil, err
		}
		exposures = append(exposures, exp)
	}
	if p.TotalCholesterol != nil {
		exp, err := r.resolveCholesterol(ctx, p)
		if err != nil {
			return nil, err
		}
		exposures = append(exposures, exp)
	}
	if p.Diabetes != nil {
		level := LevelAbsent
		if *p.Diabetes {
			level = LevelPresent
		}
		exp, err := r.resolveCategorical(ctx, FactorDiabetes, level)
		if err != nil {
			return nil, err
		}
		exposures = append(exposures, exp)
	}
	if p.BMI != nil {
		exp, err := r.resolveBMI(ctx, *p.BMI)
		if err != nil {
			return nil, err
		}
		exposures = append(exposures, exp)
	}
	if p.Activity != nil {
		exp, err := r.resolveCategorical(ctx, FactorActivity, string(*p.Activity))
		if err != nil {
			return nil, err
		}
		exposures = append(exposures, exp)
	}
	if p.Alcohol != nil {
		exp, err := r.resolveCategorical(ctx, FactorAlcohol, string(*p.Alcohol))
		if err != nil {
			return nil, err
		}
		exposures = append(exposures, exp)
	}
	return exposures, nil
}

func (r *Resolver) resolveSmoking(ctx context.Context, p profile.RiskProfile) (Exposure, error) {
	def, err := r.store.Definition(ctx, FactorSmoking)
	if err != nil {
		return Exposure{}, err
	}

	status := *p.Smoking
	rr, ok := def.Categorical[string(status)]
	if !ok {
		return Exposure{}, ErrUnknownFactor(FactorID(fmt.Sprintf("%s.%s", def.ID, status)))
	}
	level := string(status)

	// Former smokers decay toward never-smoker risk along the definition's
	// cessation curve; without a quit year the full former-smoker RR holds.
	if status == profile.SmokingFormer && p.YearsSinceQuit != nil && def.Curve != nil {
		rr = def.Curve.Evaluate(float64(*p.YearsSinceQuit))
		level = fmt.Sprintf("former (%d years since quitting)", *p.YearsSinceQuit)
	}

	return Exposure{
		FactorID:     def.ID,
		Level:        level,
		RelativeRisk: rr,
		AppliesTo:    def.AppliesTo,
		Citation:     def.Citation,
	}, nil
}

func (r *Resolver) resolveBloodPressure(ctx context.Context, p profile.RiskProfile) (Exposure, error) {
	def, err := r.store.Definition(ctx, FactorBloodPressure)
	if err != nil {
		return Exposure{}, err
	}

	sbp := *p.SystolicBP
	rr := def.Curve.Evaluate(sbp)
	level := fmt.Sprintf("%.0f mmHg", sbp)

	if p.BPTreated != nil && *p.BPTreated {
		rr *= def.Categorical[LevelTreatment]
		level += " (treated)"
	}

	return Exposure{
		FactorID:     def.ID,
		Level:        level,
		RelativeRisk: rr,
		Units:        def.Units,
		AppliesTo:    def.AppliesTo,
		Citation:     def.Citation,
	}, nil
}

func (r *Resolver) resolveCholesterol(ctx context.Context, p profile.RiskProfile) (Exposure, error) {
	def, err := r.store.Definition(ctx, FactorCholesterol)
	if err != nil {
		return Exposure{}, err
	}

	tc := *p.TotalCholesterol
	rr := def.Curve.Evaluate(tc)
	level := fmt.Sprintf("%.0f mg/dL", tc)

	if p.OnStatin != nil && *p.OnStatin {
		rr *= def.Categorical[LevelTreatment]
		level += " (on statin)"
	}

	return Exposure{
		FactorID:     def.ID,
		Level:        level,
		RelativeRisk: rr,
		Units:        def.Units,
		AppliesTo:    def.AppliesTo,
		Citation:     def.Citation,
	}, nil
}

func (r *Resolver) resolveBMI(ctx context.Context, bmi float64) (Exposure, error) {
	def, err := r.store.Definition(ctx, FactorBMI)
	if err != nil {
		return Exposure{}, err
	}
	return Exposure{
		FactorID:     def.ID,
		Level:        fmt.Sprintf("%.1f kg/m2", bmi),
		RelativeRisk: def.Curve.Evaluate(bmi),
		Units:        def.Units,
		AppliesTo:    def.AppliesTo,
		Citation:     def.Citation,
	}, nil
}

func (r *Resolver) resolveCategorical(ctx context.Context, id FactorID, level string) (Exposure, error) {
	def, err := r.store.Definition(ctx, id)
	if err != nil {
		return Exposure{}, err
	}
	rr, ok := def.Categorical[level]
	if !ok {
		return Exposure{}, ErrUnknownFactor(FactorID(fmt.Sprintf("%s.%s", id, level)))
	}
	return Exposure{
		FactorID:     def.ID,
		Level:        level,
		RelativeRisk: rr,
		AppliesTo:    def.AppliesTo,
		Citation:     def.Citation,
	}, nil
}
