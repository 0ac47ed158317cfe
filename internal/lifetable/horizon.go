package lifetable

import "math"

// Horizon is a supported projection window in years.
type Horizon float64

const (
	HorizonSixMonth Horizon = 0.5
	HorizonOneYear  Horizon = 1
	HorizonFiveYear Horizon = 5
)

// ConvertHorizon converts a one-year death probability to the probability of
// dying within T years assuming a constant hazard inside the window:
//
//	qx_T = 1 - (1 - qx)^T
//
// Pure function; inputs outside [0, 1) are clamped to the valid domain so a
// capped table row cannot produce a probability above 1.
func ConvertHorizon(qx float64, t Horizon) float64 {
	if qx <= 0 {
		return 0
	}
	if qx >= 1 {
		return 1
	}
	return 1 - math.Pow(1-qx, float64(t))
}
