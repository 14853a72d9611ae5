package pacing

import (
	"math"

	"github.com/markusressel/pace2go/internal/util"
)

// resolution is the grid (in units per 1.0) all step sizes are multiples of.
// Snapping is done on this integer grid so float drift never accumulates.
const resolution = 100.0

// Clamp limits value to the given range
func Clamp(value float64, limits Limits) float64 {
	return util.Coerce(value, limits.Min, limits.Max)
}

// Snap rounds value to the nearest multiple of step
func Snap(value float64, step float64) float64 {
	if step <= 0 {
		return value
	}
	units := math.Round(value * resolution)
	stepUnits := math.Round(step * resolution)
	if stepUnits <= 0 {
		return util.RoundTo(value, 2)
	}
	return math.Round(units/stepUnits) * stepUnits / resolution
}

// Normalize clamps value into limits and snaps it to the step size
// that applies at the clamped value.
func Normalize(value float64, limits Limits, step StepFunc) float64 {
	clamped := Clamp(value, limits)
	return Clamp(Snap(clamped, step(clamped)), limits)
}

// ApplyTick moves current by exactly one step in the direction of delta.
// The step size is computed from current, before the move. A delta whose
// magnitude exceeds threshold is considered a hardware glitch and current is
// returned unchanged together with an ErrGlitch error. A threshold <= 0
// disables the check.
func ApplyTick(current float64, delta int, threshold int, limits Limits, step StepFunc) (float64, error) {
	if delta == 0 {
		return current, nil
	}
	if threshold > 0 && util.Abs(delta) > threshold {
		return current, GlitchError(delta)
	}

	size := step(current)
	next := current + float64(DirectionOf(delta))*size
	next = Clamp(next, limits)
	next = Snap(next, size)
	// snapping may push a value just outside of a bound that is not on the grid of size
	return Clamp(next, limits), nil
}
