package sensitivity

import (
	"time"

	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/markusressel/pace2go/internal/store"
)

// Arbiter multiplexes the single sensitivity encoder between the atrial and
// ventricular sensitivity channels. It owns the tracking cursor of that
// encoder and the ASYNC transitions of both channels.
type Arbiter struct {
	store  *store.Store
	cursor *pacing.Cursor
}

// NewArbiter creates an arbiter whose cursor is anchored at raw
func NewArbiter(s *store.Store, raw int, now time.Time) *Arbiter {
	return &Arbiter{
		store:  s,
		cursor: pacing.NewCursor(raw, now),
	}
}

// Active returns the channel currently driven by the encoder
func (a *Arbiter) Active() pacing.Channel {
	return a.store.State().ActiveSensitivityControl
}

// Cursor returns the tracking cursor of the shared encoder
func (a *Arbiter) Cursor() *pacing.Cursor {
	return a.cursor
}

// Select switches the active channel. The cursor is always re-anchored at
// the current raw position so movement that happened while another channel
// was active is never replayed onto the new one.
func (a *Arbiter) Select(channel pacing.Channel, raw int, source store.UpdateSource, now time.Time) bool {
	a.cursor.Advance(raw, now)
	return a.store.SetActiveSensitivityControl(channel, source, now)
}

// Tick applies one step in direction to channel. Ticks for a channel other
// than the active one are ignored.
func (a *Arbiter) Tick(channel pacing.Channel, direction pacing.Direction, source store.UpdateSource, now time.Time) (float64, bool) {
	p, ok := channel.Parameter()
	if !ok || channel != a.Active() {
		return 0, false
	}
	def := pacing.MustLookup(p)
	current := a.store.Get(p)
	next := Step(def, current, direction)
	a.store.Set(p, next, source, now)
	return next, true
}

// ResetCursor re-anchors the cursor at raw without touching any value
func (a *Arbiter) ResetCursor(raw int) {
	a.cursor.Resync(raw)
}

// Watchdog resynchronizes the cursor if it has been lagging behind raw
// without any activity for longer than timeout. It only acts while a
// channel is selected.
func (a *Arbiter) Watchdog(now time.Time, raw int, timeout time.Duration) bool {
	if a.Active() == pacing.ChannelNone {
		return false
	}
	if !a.cursor.Stale(now, raw, timeout) {
		return false
	}
	a.cursor.Resync(raw)
	return true
}
