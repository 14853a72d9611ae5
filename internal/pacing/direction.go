package pacing

import "github.com/markusressel/pace2go/internal/util"

// Direction of a single encoder tick
type Direction int

const (
	CounterClockwise Direction = -1
	Clockwise        Direction = 1
)

// DirectionOf returns the direction of a signed tick delta, or 0 for no movement
func DirectionOf(delta int) Direction {
	return Direction(util.Sign(delta))
}

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "clockwise"
	case CounterClockwise:
		return "counter-clockwise"
	default:
		return "none"
	}
}
