package encoders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecoder_Clockwise(t *testing.T) {
	// GIVEN
	d := NewDecoder(80)

	// WHEN CLK falls while DT is still high
	position, changed := d.Update(0, 1)

	// THEN
	assert.True(t, changed)
	assert.Equal(t, 81, position)
}

func TestDecoder_CounterClockwise(t *testing.T) {
	// GIVEN
	d := NewDecoder(80)

	// WHEN CLK falls after DT
	position, changed := d.Update(0, 0)

	// THEN
	assert.True(t, changed)
	assert.Equal(t, 79, position)
}

func TestDecoder_IgnoresRisingEdgeAndRepeats(t *testing.T) {
	// GIVEN
	d := NewDecoder(0)

	// WHEN
	_, rising := d.Update(1, 0)
	_, falling := d.Update(0, 1)
	_, repeated := d.Update(0, 1)
	_, rising2 := d.Update(1, 1)

	// THEN
	assert.False(t, rising)
	assert.True(t, falling)
	assert.False(t, repeated)
	assert.False(t, rising2)
	assert.Equal(t, 1, d.Position())
}

func TestDebouncer(t *testing.T) {
	// GIVEN
	d := NewDebouncer(300 * time.Millisecond)
	t0 := time.Unix(1000, 0)

	// THEN
	assert.True(t, d.Allow(ButtonLock, t0))
	assert.False(t, d.Allow(ButtonLock, t0.Add(100*time.Millisecond)))
	assert.True(t, d.Allow(ButtonUp, t0.Add(100*time.Millisecond)))
	assert.False(t, d.Allow(ButtonLock, t0.Add(300*time.Millisecond)))
	assert.True(t, d.Allow(ButtonLock, t0.Add(301*time.Millisecond)))
}

func TestParseSource(t *testing.T) {
	for input, expected := range map[string]Source{
		"rate":        SourceRate,
		"a_output":    SourceAOutput,
		"a-output":    SourceAOutput,
		"aOutput":     SourceAOutput,
		"v_output":    SourceVOutput,
		"mode":        SourceSensitivity,
		"sensitivity": SourceSensitivity,
	} {
		source, err := ParseSource(input)
		assert.NoError(t, err, input)
		assert.Equal(t, expected, source, input)
	}

	_, err := ParseSource("volume")
	assert.Error(t, err)
}
