package util

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Coerce returns the given value, limited to the range [min, max]
func Coerce[T constraints.Ordered](value T, min T, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Abs returns the absolute value of an integer
func Abs[T constraints.Signed](value T) T {
	if value < 0 {
		return -value
	}
	return value
}

// Sign returns -1, 0 or 1 depending on the sign of the given value
func Sign[T constraints.Signed](value T) int {
	switch {
	case value > 0:
		return 1
	case value < 0:
		return -1
	default:
		return 0
	}
}

// IsFinite reports whether the given value is neither NaN nor +/-Inf
func IsFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// RoundTo rounds the given value to the given number of decimal places
func RoundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
