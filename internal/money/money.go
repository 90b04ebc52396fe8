package money

import "math"

// Round2 rounds to two decimal places, half away from zero. All derived fee
// and payout amounts go through this so the split is deterministic.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MinorUnits converts a major-unit amount to integral minor units (paise).
func MinorUnits(v float64) int64 {
	return int64(math.Round(v * 100))
}

// FromMinorUnits converts integral minor units back to major units.
func FromMinorUnits(n int64) float64 {
	return float64(n) / 100
}
