package sensitivity

import (
	"github.com/markusressel/pace2go/internal/pacing"
)

// Step computes the value of a sensitivity channel after one tick.
//
// Clockwise decreases the mV threshold (more sensitive), counter-clockwise
// increases it. One clockwise tick at the minimum disables sensing (ASYNC),
// one counter-clockwise tick at ASYNC returns to exactly the minimum.
func Step(def pacing.Definition, current float64, direction pacing.Direction) float64 {
	switch direction {
	case pacing.Clockwise:
		if current == pacing.AsyncValue || current <= def.Limits.Min {
			return pacing.AsyncValue
		}
	case pacing.CounterClockwise:
		if current == pacing.AsyncValue {
			return def.Limits.Min
		}
	default:
		return current
	}

	// quantizer deltas are in mV direction, which is the inverse of the knob
	next, _ := pacing.ApplyTick(current, -int(direction), 0, def.Limits, def.Step)
	return next
}
