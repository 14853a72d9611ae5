package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	// GIVEN
	expectedInputOutput := map[float64]float64{
		-5.0: 0.0,
		0.0:  0.0,
		12.5: 12.5,
		25.0: 25.0,
		40.0: 25.0,
	}

	for input, output := range expectedInputOutput {
		// WHEN
		result := Coerce(input, 0.0, 25.0)

		// THEN
		assert.Equal(t, output, result)
	}
}

func TestCoerce_Int(t *testing.T) {
	// WHEN
	result := Coerce(250, 30, 200)

	// THEN
	assert.Equal(t, 200, result)
}

func TestAbs(t *testing.T) {
	assert.Equal(t, 11, Abs(-11))
	assert.Equal(t, 3, Abs(3))
	assert.Equal(t, 0, Abs(0))
}

func TestSign(t *testing.T) {
	assert.Equal(t, 1, Sign(7))
	assert.Equal(t, -1, Sign(-2))
	assert.Equal(t, 0, Sign(0))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(1.5))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(1)))
	assert.False(t, IsFinite(math.Inf(-1)))
}

func TestRoundTo(t *testing.T) {
	// GIVEN
	value := 0.1 + 0.2

	// WHEN
	result := RoundTo(value, 2)

	// THEN
	assert.Equal(t, 0.3, result)
}
