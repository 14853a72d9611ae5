package encoders

import (
	"sync"
	"time"
)

// Debouncer suppresses repeated button edges within a fixed interval
type Debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	last     map[Button]time.Time
}

func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		last:     map[Button]time.Time{},
	}
}

// Allow reports whether an edge of button at now counts as a new press
func (d *Debouncer) Allow(button Button, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	last, ok := d.last[button]
	if ok && now.Sub(last) <= d.interval {
		return false
	}
	d.last[button] = now
	return true
}
