package publisher

import (
	"context"
	"sync"
	"time"

	"github.com/markusressel/pace2go/internal/store"
	"github.com/markusressel/pace2go/internal/ui"
)

// Sink delivers snapshots to some external listener
type Sink interface {
	Name() string
	Send(snapshot store.Snapshot) error
}

type registeredSink struct {
	sink     Sink
	periodic bool
}

// Hub fans out device snapshots to all registered sinks. Publish never
// blocks: only the newest pending snapshot is kept. Periodic sinks
// additionally receive the current snapshot on every tick.
type Hub struct {
	rate    time.Duration
	current func() store.Snapshot
	pending chan store.Snapshot

	mu            sync.Mutex
	sinks         []registeredSink
	lastDelivered uint64
}

// NewHub creates a hub that ticks at rate, reading the current state from current
func NewHub(rate time.Duration, current func() store.Snapshot) *Hub {
	return &Hub{
		rate:    rate,
		current: current,
		pending: make(chan store.Snapshot, 1),
	}
}

// AddSink registers sink. Periodic sinks receive every tick, the others
// only snapshots that carry a new revision.
func (h *Hub) AddSink(sink Sink, periodic bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, registeredSink{sink: sink, periodic: periodic})
}

// Publish queues snapshot for delivery, replacing any older pending one
func (h *Hub) Publish(snapshot store.Snapshot) {
	for {
		select {
		case h.pending <- snapshot:
			return
		default:
		}
		select {
		case old := <-h.pending:
			if old.Revision > snapshot.Revision {
				snapshot = old
			}
		default:
		}
	}
}

func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot := <-h.pending:
			h.deliver(snapshot, false)
		case <-ticker.C:
			if h.current != nil {
				h.deliver(h.current(), true)
			}
		}
	}
}

// deliver sends snapshot to all sinks if it is newer than the last
// delivered one, or to the periodic sinks only if tick is set.
func (h *Hub) deliver(snapshot store.Snapshot, tick bool) {
	h.mu.Lock()
	fresh := snapshot.Revision > h.lastDelivered
	if fresh {
		h.lastDelivered = snapshot.Revision
	}
	sinks := make([]registeredSink, len(h.sinks))
	copy(sinks, h.sinks)
	h.mu.Unlock()

	if !fresh && !tick {
		return
	}

	for _, s := range sinks {
		if !fresh && !s.periodic {
			continue
		}
		if err := s.sink.Send(snapshot); err != nil {
			ui.Warning("Unable to publish state to %s: %v", s.sink.Name(), err)
		}
	}
}
