package encoders

import (
	"context"
	"sync"
	"time"

	"github.com/markusressel/pace2go/internal/ui"
)

// SimulatedDriver is a Driver without hardware. Movement and presses are
// injected by callers, e.g. tests or a host without GPIO.
type SimulatedDriver struct {
	mu       sync.Mutex
	decoders map[Source]*Decoder
	events   chan event
	closed   bool
}

func NewSimulatedDriver(positions map[Source]int) *SimulatedDriver {
	d := &SimulatedDriver{
		decoders: map[Source]*Decoder{},
		events:   make(chan event, 64),
	}
	for _, source := range Sources {
		d.decoders[source] = NewDecoder(positions[source])
	}
	return d
}

func (d *SimulatedDriver) Run(ctx context.Context, sink Sink) error {
	return dispatch(ctx, d.events, sink)
}

// Turn moves source by delta steps and emits the new position
func (d *SimulatedDriver) Turn(source Source, delta int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	position := d.decoders[source].Move(delta)
	d.emit(event{kind: eventPosition, source: source, position: position, time: time.Now()})
}

// Press emits a single button press
func (d *SimulatedDriver) Press(button Button) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.emit(event{kind: eventButton, button: button, time: time.Now()})
}

// emit must be called with d.mu held, a full queue drops the event
func (d *SimulatedDriver) emit(e event) {
	select {
	case d.events <- e:
	default:
		ui.Warning("Simulated input queue full, dropping %v event", e.kind)
	}
}

func (d *SimulatedDriver) Positions() map[Source]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := map[Source]int{}
	for source, decoder := range d.decoders {
		result[source] = decoder.Position()
	}
	return result
}

func (d *SimulatedDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	return nil
}
