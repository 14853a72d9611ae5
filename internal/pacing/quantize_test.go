package pacing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnap_RoundsToNearestStep(t *testing.T) {
	// GIVEN
	value := 0.3

	// WHEN
	result := Snap(value, 0.2)

	// THEN
	assert.Equal(t, 0.4, result)
}

func TestSnap_AbsorbsFloatDrift(t *testing.T) {
	// GIVEN
	value := 0.1 + 0.2

	// WHEN
	result := Snap(value, 0.1)

	// THEN
	assert.Equal(t, 0.3, result)
}

func TestSnap_Idempotent(t *testing.T) {
	for _, def := range []Definition{MustLookup(AOutput), MustLookup(VOutput), MustLookup(ASensitivity), MustLookup(VSensitivity)} {
		for value := def.Limits.Min; value <= def.Limits.Max; value += 0.07 {
			step := def.Step(value)
			once := Snap(value, step)
			twice := Snap(once, step)
			assert.Equal(t, once, twice, "%s: snapping %v twice changed the value", def.Parameter, value)
		}
	}
}

func TestNormalize_ClampsAndSnaps(t *testing.T) {
	// GIVEN
	def := MustLookup(AOutput)

	// WHEN
	high := Normalize(27.3, def.Limits, def.Step)
	low := Normalize(-1, def.Limits, def.Step)
	mid := Normalize(3.74, def.Limits, def.Step)

	// THEN
	assert.Equal(t, 20.0, high)
	assert.Equal(t, 0.0, low)
	assert.Equal(t, 3.5, mid)
}

func TestApplyTick_SingleStepPerEvent(t *testing.T) {
	// GIVEN
	def := MustLookup(AOutput)

	// WHEN
	result, err := ApplyTick(10.0, 3, 10, def.Limits, def.Step)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 11.0, result)
}

func TestApplyTick_GlitchIsDiscarded(t *testing.T) {
	// GIVEN
	def := MustLookup(Rate)

	// WHEN
	result, err := ApplyTick(80, 11, 10, def.Limits, def.Step)

	// THEN
	assert.True(t, errors.Is(err, ErrGlitch))
	assert.Equal(t, 80.0, result)
}

func TestApplyTick_ZeroDelta(t *testing.T) {
	// GIVEN
	def := MustLookup(Rate)

	// WHEN
	result, err := ApplyTick(80, 0, 10, def.Limits, def.Step)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 80.0, result)
}

func TestApplyTick_ClampsAtBounds(t *testing.T) {
	// GIVEN
	def := MustLookup(VOutput)

	// WHEN
	upper, err1 := ApplyTick(25.0, 1, 10, def.Limits, def.Step)
	lower, err2 := ApplyTick(0.0, -1, 10, def.Limits, def.Step)

	// THEN
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, 25.0, upper)
	assert.Equal(t, 0.0, lower)
}

func TestApplyTick_UsesPreTickStep(t *testing.T) {
	// GIVEN
	def := MustLookup(AOutput)
	value := 10.0
	var err error

	// WHEN
	value, err = ApplyTick(value, 1, 10, def.Limits, def.Step)
	assert.NoError(t, err)
	assert.Equal(t, 11.0, value)

	expected := []float64{10, 9, 8, 7, 6, 5, 4, 3.5, 3.0}
	for _, e := range expected {
		value, err = ApplyTick(value, -1, 10, def.Limits, def.Step)
		assert.NoError(t, err)
		assert.Equal(t, e, value)
	}

	// THEN
	assert.Equal(t, 3.0, value)
}

func TestApplyTick_StaysInBounds(t *testing.T) {
	for _, p := range []Parameter{Rate, AOutput, VOutput} {
		def := MustLookup(p)
		value := def.Default
		deltas := []int{1, 1, 1, -1, 5, -3, 7, -10, 10, 2, -2}
		for i := 0; i < 400; i++ {
			next, err := ApplyTick(value, deltas[i%len(deltas)], 10, def.Limits, def.Step)
			assert.NoError(t, err)
			assert.True(t, def.Limits.Contains(next), "%s: %v out of bounds", p, next)
			assert.False(t, math.IsNaN(next))
			value = next
		}
	}
}
