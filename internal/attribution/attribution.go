// Package attribution combines baseline risk, cause fractions, and resolved
// relative risks into an adjusted risk estimate, correcting for overlap
// between correlated risk factors so their attributed contributions do not
// double-count shared effect.
package attribution

import (
	"math"
	"sort"

	"memento/internal/causes"
	"memento/internal/riskfactor"
)

// Warning is a non-fatal irregularity attached to a result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WarningRiskOverflow signals that the adjusted risk exceeded 1.0 and was
// clamped. The result remains usable.
const WarningRiskOverflow = "risk_overflow"

// Result is the adjusted risk picture for one profile.
type Result struct {
	BaselineRisk      float64                         `json:"baseline_risk"`
	TotalRisk         float64                         `json:"total_risk"`
	TotalRelativeRisk float64                         `json:"total_relative_risk"`
	CauseRisks        map[causes.Cause]float64        `json:"cause_risks"`
	Contributions     map[riskfactor.FactorID]float64 `json:"contributions"`
	Warnings          []Warning                       `json:"warnings,omitempty"`
}

// correlatedPair names two factors whose effects overlap. overlap is the
// share of the smaller factor's excess risk already carried by the other;
// their joint excess is shrunk accordingly before totals are formed.
type correlatedPair struct {
	a, b    riskfactor.FactorID
	overlap float64
}

// Elevated blood pressure is partly a consequence of elevated BMI, and low
// activity travels with smoking in cohort data. Coefficients are modest on
// purpose; overcorrecting hides real risk.
var correlatedPairs = []correlatedPair{
	{a: riskfactor.FactorBMI, b: riskfactor.FactorBloodPressure, overlap: 0.30},
	{a: riskfactor.FactorSmoking, b: riskfactor.FactorActivity, overlap: 0.20},
}

// Attribute computes the adjusted total and cause-specific risks.
//
// Per cause, applicable relative risks combine multiplicatively, then each
// correlated pair's joint excess is shrunk by its overlap share. The total is
// the fraction-weighted mean of the corrected cause relative risks applied to
// baseline; with no exposures it equals baseline exactly. Contributions are
// each factor's solo excess rescaled so the set sums exactly to the realized
// risk delta, which keeps the attribution symmetric in factor order and
// bounded by the joint effect.
func Attribute(baseline float64, fractions causes.FractionSet, exposures []riskfactor.Exposure) Result {
	res := Result{
		BaselineRisk:  baseline,
		CauseRisks:    make(map[causes.Cause]float64, len(fractions.Fractions)),
		Contributions: make(map[riskfactor.FactorID]float64, len(exposures)),
	}

	// All accumulation below walks the stable Ordered() sequence: float
	// addition is order-sensitive, and identical inputs must yield
	// identical bits.
	ordered := fractions.Ordered()

	causeRR := make(map[causes.Cause]float64, len(fractions.Fractions))
	for _, cause := range ordered {
		rr := 1.0
		for _, exp := range exposures {
			if appliesTo(exp, cause) {
				rr *= exp.RelativeRisk
			}
		}
		causeRR[cause] = rr * correlationCorrection(cause, exposures)
	}

	// Fraction-weighted mean RR. Normalizing by the fraction sum makes the
	// no-exposure case reproduce baseline bit for bit even when the row
	// drifted inside tolerance.
	fractionSum := fractions.Sum()
	weightedRR := 1.0
	if fractionSum > 0 {
		acc := 0.0
		for _, cause := range ordered {
			acc += fractions.Fractions[cause] * causeRR[cause]
		}
		weightedRR = acc / fractionSum
	}
	res.TotalRelativeRisk = weightedRR

	total := baseline * weightedRR
	if total > 1.0 {
		res.Warnings = append(res.Warnings, Warning{
			Code:    WarningRiskOverflow,
			Message: "adjusted total risk exceeded 1.0 and was clamped",
		})
		total = 1.0
	}
	res.TotalRisk = total

	// Cause shares are re-derived from the corrected cause RRs so they sum
	// to the (possibly clamped) total.
	denom := 0.0
	for _, cause := range ordered {
		denom += fractions.Fractions[cause] * causeRR[cause]
	}
	for _, cause := range ordered {
		share := 0.0
		if denom > 0 {
			share = fractions.Fractions[cause] * causeRR[cause] / denom
		}
		res.CauseRisks[cause] = total * share
	}

	attributeContributions(&res, fractions, exposures)
	return res
}

// appliesTo reports whether an exposure adjusts the given cause. A nil
// AppliesTo list means the factor acts on all-cause mortality.
func appliesTo(exp riskfactor.Exposure, cause causes.Cause) bool {
	if len(exp.AppliesTo) == 0 {
		return true
	}
	for _, c := range exp.AppliesTo {
		if c == cause {
			return true
		}
	}
	return false
}

// correlationCorrection returns the multiplicative shrink applied to a
// cause's combined RR for each correlated pair active on that cause. For a
// pair with relative risks p and q, the independent product p*q is replaced
// by 1 + (p-1) + (q-1) + (1-overlap)*(p-1)*(q-1); the returned factor is the
// ratio of corrected to independent. Symmetric by construction.
func correlationCorrection(cause causes.Cause, exposures []riskfactor.Exposure) float64 {
	correction := 1.0
	for _, pair := range correlatedPairs {
		a, okA := findExposure(exposures, pair.a)
		b, okB := findExposure(exposures, pair.b)
		if !okA || !okB || !appliesTo(a, cause) || !appliesTo(b, cause) {
			continue
		}
		p, q := a.RelativeRisk, b.RelativeRisk
		if p <= 1 || q <= 1 {
			continue
		}
		independent := p * q
		corrected := 1 + (p - 1) + (q - 1) + (1-pair.overlap)*(p-1)*(q-1)
		correction *= corrected / independent
	}
	return correction
}

func findExposure(exposures []riskfactor.Exposure, id riskfactor.FactorID) (riskfactor.Exposure, bool) {
	for _, exp := range exposures {
		if exp.FactorID == id {
			return exp, true
		}
	}
	return riskfactor.Exposure{}, false
}

// attributeContributions splits the realized risk delta across factors in
// proportion to each factor's solo effect, so the parts always sum to the
// whole regardless of interaction terms.
func attributeContributions(res *Result, fractions causes.FractionSet, exposures []riskfactor.Exposure) {
	if len(exposures) == 0 {
		return
	}
	fractionSum := fractions.Sum()
	if fractionSum <= 0 {
		return
	}

	delta := res.TotalRisk - res.BaselineRisk

	solo := make(map[riskfactor.FactorID]float64, len(exposures))
	soloSum := 0.0
	for _, exp := range exposures {
		// Effective all-cause RR of this factor alone, weighting its
		// cause-specific reach by the fraction set.
		acc := 0.0
		for _, cause := range fractions.Ordered() {
			rr := 1.0
			if appliesTo(exp, cause) {
				rr = exp.RelativeRisk
			}
			acc += fractions.Fractions[cause] * rr
		}
		excess := res.BaselineRisk * (acc/fractionSum - 1)
		solo[exp.FactorID] = excess
		soloSum += excess
	}

	for id, excess := range solo {
		if math.Abs(soloSum) < 1e-12 {
			res.Contributions[id] = 0
			continue
		}
		res.Contributions[id] = excess * delta / soloSum
	}
}

// SortedCauses returns cause risks ordered by descending risk with a stable
// name tiebreak, for deterministic top-cause reporting.
func (r Result) SortedCauses() []causes.Cause {
	out := make([]causes.Cause, 0, len(r.CauseRisks))
	for cause := range r.CauseRisks {
		out = append(out, cause)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := r.CauseRisks[out[i]], r.CauseRisks[out[j]]
		if ri != rj {
			return ri > rj
		}
		return out[i] < out[j]
	})
	return out
}
