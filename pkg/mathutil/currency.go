// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/budget-allocation/pkg/constants"
)

// RoundTo rounds a value to the given number of decimals, half away from zero.
func RoundTo(val float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(val*scale) / scale
}

// AmountFor returns round(totalCents * percent / 100) in minor currency units.
func AmountFor(totalCents int64, percent float64) int64 {
	return int64(math.Round(float64(totalCents) * percent / constants.PercentageMultiplier))
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Ratio returns part/whole, or 0 when whole is zero.
func Ratio(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole
}
