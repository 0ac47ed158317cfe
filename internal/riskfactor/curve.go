package riskfactor

import "math"

// CurveKind names the supported dose-response shapes.
type CurveKind string

const (
	CurveLinear      CurveKind = "linear"
	CurveLogLinear   CurveKind = "log_linear"
	CurveQuadratic   CurveKind = "quadratic"
	CurveExponential CurveKind = "exponential"
)

// Curve maps a continuous exposure to a relative risk. The exposure is
// clamped to [Min, Max] before evaluation, then reduced to a dimensionless
// distance d = (x - Ref) / Scale (|x - Ref| / Scale when Folded, for J-shaped
// relationships with a risk nadir at Ref).
//
// Shapes:
//
//	linear:      RR = 1 + Slope*d
//	log_linear:  RR = exp(Slope*d)
//	quadratic:   RR = 1 + Slope*d^2
//	exponential: RR = Base^d
type Curve struct {
	Kind   CurveKind `json:"kind"`
	Ref    float64   `json:"ref"`
	Scale  float64   `json:"scale"`
	Slope  float64   `json:"slope,omitempty"`
	Base   float64   `json:"base,omitempty"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Folded bool      `json:"folded,omitempty"`
}

// Evaluate returns the relative risk at exposure x. Results are floored at 0;
// RR is a multiplier and can never be negative.
func (c Curve) Evaluate(x float64) float64 {
	if x < c.Min {
		x = c.Min
	}
	if x > c.Max {
		x = c.Max
	}
	d := (x - c.Ref) / c.Scale
	if c.Folded {
		d = math.Abs(d)
	}

	var rr float64
	switch c.Kind {
	case CurveLinear:
		rr = 1 + c.Slope*d
	case CurveLogLinear:
		rr = math.Exp(c.Slope * d)
	case CurveQuadratic:
		rr = 1 + c.Slope*d*d
	case CurveExponential:
		rr = math.Pow(c.Base, d)
	default:
		rr = 1
	}
	if rr < 0 {
		return 0
	}
	return rr
}
