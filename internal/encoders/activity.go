package encoders

import (
	"sync"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/markusressel/pace2go/internal/util"
)

// Activity is a Sink decorator that keeps track of recent encoder movement
// and button presses before forwarding events.
type Activity struct {
	next       Sink
	windowSize int

	mu        sync.Mutex
	windows   map[Source]*rolling.PointPolicy
	positions map[Source]int
	lastSeen  map[Source]time.Time
	presses   map[Button]int64
	now       func() time.Time
}

// SourceActivity summarizes recent movement of one encoder
type SourceActivity struct {
	Source   Source    `json:"source"`
	Position int       `json:"position"`
	Recent   float64   `json:"recent_steps"`
	Peak     float64   `json:"peak_delta"`
	LastSeen time.Time `json:"last_seen"`
}

func NewActivity(next Sink, windowSize int, positions map[Source]int) *Activity {
	a := &Activity{
		next:       next,
		windowSize: windowSize,
		windows:    map[Source]*rolling.PointPolicy{},
		positions:  map[Source]int{},
		lastSeen:   map[Source]time.Time{},
		presses:    map[Button]int64{},
		now:        time.Now,
	}
	for _, source := range Sources {
		a.windows[source] = util.CreateRollingWindow(windowSize)
		a.positions[source] = positions[source]
	}
	return a
}

func (a *Activity) OnPosition(source Source, position int) {
	a.mu.Lock()
	delta := util.Abs(position - a.positions[source])
	a.positions[source] = position
	a.windows[source].Append(float64(delta))
	a.lastSeen[source] = a.now()
	a.mu.Unlock()

	a.next.OnPosition(source, position)
}

func (a *Activity) OnButtonEdge(button Button) {
	a.mu.Lock()
	a.presses[button]++
	a.mu.Unlock()

	a.next.OnButtonEdge(button)
}

// Sources returns the activity of every encoder
func (a *Activity) Sources() []SourceActivity {
	a.mu.Lock()
	defer a.mu.Unlock()
	var result []SourceActivity
	for _, source := range Sources {
		window := a.windows[source]
		result = append(result, SourceActivity{
			Source:   source,
			Position: a.positions[source],
			Recent:   util.GetWindowSum(window),
			Peak:     util.GetWindowMax(window),
			LastSeen: a.lastSeen[source],
		})
	}
	return result
}

// Active reports whether any encoder moved within the last window
func (a *Activity) Active(within time.Duration) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	for _, seen := range a.lastSeen {
		if now.Sub(seen) <= within {
			return true
		}
	}
	return false
}

// Presses returns the total number of presses per button
func (a *Activity) Presses() map[Button]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	result := make(map[Button]int64, len(a.presses))
	for button, count := range a.presses {
		result[button] = count
	}
	return result
}
