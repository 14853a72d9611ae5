package pacing

import "time"

// Cursor remembers the last raw encoder position that was consumed, so that
// absolute positions reported by the hardware can be turned into deltas.
type Cursor struct {
	position     int
	lastActivity time.Time
}

func NewCursor(position int, now time.Time) *Cursor {
	return &Cursor{
		position:     position,
		lastActivity: now,
	}
}

func (c *Cursor) Position() int {
	return c.position
}

func (c *Cursor) LastActivity() time.Time {
	return c.lastActivity
}

// Delta returns the movement between the anchored position and raw
func (c *Cursor) Delta(raw int) int {
	return raw - c.position
}

// Advance consumes the movement up to raw and records activity
func (c *Cursor) Advance(raw int, now time.Time) {
	c.position = raw
	c.lastActivity = now
}

// Resync re-anchors the cursor to raw without recording activity
func (c *Cursor) Resync(raw int) {
	c.position = raw
}

// Stale reports whether the cursor lags behind raw and has seen no activity for longer than timeout
func (c *Cursor) Stale(now time.Time, raw int, timeout time.Duration) bool {
	return c.position != raw && now.Sub(c.lastActivity) > timeout
}
