// Package insurance holds the position insurance fee and the static pool
// figures shown to users. Nothing here moves funds.
package insurance

import "math"

// DefaultFeeRate is the flat insurance premium as a share of position amount.
const DefaultFeeRate = 0.10

// Fee returns the premium for amount at rate. Non-positive or non-finite
// inputs yield zero.
func Fee(amount, rate float64) float64 {
	if amount <= 0 || rate <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return amount * rate
}
