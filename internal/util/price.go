// Package util provides common utility functions for price calculations.
package util

import "math"

// epsilon absorbs float division wobble so 100.0/5 lands on 20, not 19.999...
const epsilon = 1e-9

// RoundToTick rounds x to the nearest tick increment.
// For example, with tick=0.01, 1.2345 becomes 1.23 or 1.24 depending on rounding.
func RoundToTick(x, tick float64) float64 {
	if tick <= 0 {
		return x
	}
	return math.Round(x/tick) * tick
}

// FloorToIncrement rounds x down to the nearest multiple of inc.
func FloorToIncrement(x, inc float64) float64 {
	if inc <= 0 {
		return x
	}
	return math.Floor(x/inc+epsilon) * inc
}

// CeilToIncrement rounds x up to the nearest multiple of inc.
func CeilToIncrement(x, inc float64) float64 {
	if inc <= 0 {
		return x
	}
	return math.Ceil(x/inc-epsilon) * inc
}
