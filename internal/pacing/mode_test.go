package pacing

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("5")
	assert.NoError(t, err)
	assert.Equal(t, ModeEmergency, mode)
	assert.True(t, mode.IsEmergency())

	mode, err = ParseMode("vvi")
	assert.NoError(t, err)
	assert.Equal(t, ModeVVI, mode)
	assert.Equal(t, "VVI", mode.String())
}

func TestParseMode_Invalid(t *testing.T) {
	_, err := ParseMode("8")
	assert.True(t, errors.Is(err, ErrInvalidMode))

	_, err = ParseMode("XYZ")
	assert.True(t, errors.Is(err, ErrInvalidMode))

	assert.False(t, Mode(-1).Valid())
	assert.Equal(t, "Mode(9)", Mode(9).String())
}

func TestRejectedError_Message(t *testing.T) {
	err := Reject(ReasonLocked, "cannot set %s", Rate)
	assert.Equal(t, "device locked: cannot set rate", err.Error())
	assert.True(t, errors.Is(err, ErrLocked))
	assert.False(t, errors.Is(err, ErrEmergency))
}

func TestCursor(t *testing.T) {
	// GIVEN
	start := time.Unix(1000, 0)
	c := NewCursor(5, start)

	// WHEN
	delta := c.Delta(7)
	c.Advance(7, start.Add(time.Second))

	// THEN
	assert.Equal(t, 2, delta)
	assert.Equal(t, 7, c.Position())
	assert.False(t, c.Stale(start.Add(5*time.Second), 7, 3*time.Second))
	assert.True(t, c.Stale(start.Add(5*time.Second), 9, 3*time.Second))
	assert.False(t, c.Stale(start.Add(2*time.Second), 9, 3*time.Second))

	c.Resync(9)
	assert.Equal(t, 0, c.Delta(9))
}

func TestMode_UnmarshalJSON(t *testing.T) {
	// GIVEN
	var byNumber, byName Mode

	// WHEN
	errNumber := json.Unmarshal([]byte(`5`), &byNumber)
	errName := json.Unmarshal([]byte(`"ddi"`), &byName)
	errInvalid := json.Unmarshal([]byte(`9`), &byNumber)

	// THEN
	assert.NoError(t, errNumber)
	assert.NoError(t, errName)
	assert.Equal(t, ModeDOO, byNumber)
	assert.Equal(t, ModeDDI, byName)
	assert.ErrorIs(t, errInvalid, ErrInvalidMode)
}
