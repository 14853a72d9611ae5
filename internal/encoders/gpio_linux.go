//go:build linux

package encoders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/markusressel/pace2go/internal/configuration"
	"github.com/markusressel/pace2go/internal/ui"
	"github.com/warthog618/go-gpiocdev"
)

const consumer = "pace2go"

// GpioDriver reads encoders and buttons from the GPIO character device
type GpioDriver struct {
	chip      *gpiocdev.Chip
	lines     []*gpiocdev.Line
	debouncer *Debouncer

	mu       sync.Mutex
	decoders map[Source]*Decoder
	dtLines  map[Source]*gpiocdev.Line
	events   chan event
	closed   bool
}

// NewGpioDriver requests all configured lines. Encoder positions start at
// the given values so restored cursors line up with the decoders.
func NewGpioDriver(config configuration.HardwareConfig, positions map[Source]int) (*GpioDriver, error) {
	chip, err := gpiocdev.NewChip(config.Chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", config.Chip, err)
	}

	d := &GpioDriver{
		chip:      chip,
		debouncer: NewDebouncer(config.Debounce),
		decoders:  map[Source]*Decoder{},
		dtLines:   map[Source]*gpiocdev.Line{},
		events:    make(chan event, 256),
	}

	for _, source := range Sources {
		pins := encoderPins(config)[source]
		d.decoders[source] = NewDecoder(positions[source])

		dt, err := chip.RequestLine(pins.Dt, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("request %s dt pin %d: %w", source, pins.Dt, err)
		}
		d.lines = append(d.lines, dt)
		d.dtLines[source] = dt

		clk, err := chip.RequestLine(pins.Clk,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(d.encoderHandler(source)),
		)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("request %s clk pin %d: %w", source, pins.Clk, err)
		}
		d.lines = append(d.lines, clk)
	}

	for button, offset := range buttonPins(config) {
		line, err := chip.RequestLine(offset,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithEventHandler(d.buttonHandler(button)),
		)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("request %s button pin %d: %w", button, offset, err)
		}
		d.lines = append(d.lines, line)
	}

	return d, nil
}

func (d *GpioDriver) encoderHandler(source Source) func(gpiocdev.LineEvent) {
	return func(evt gpiocdev.LineEvent) {
		clk := 1
		if evt.Type == gpiocdev.LineEventFallingEdge {
			clk = 0
		}

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.closed {
			return
		}
		dt, err := d.dtLines[source].Value()
		if err != nil {
			ui.Warning("Unable to read dt line of %s encoder: %v", source, err)
			return
		}
		position, changed := d.decoders[source].Update(clk, dt)
		if !changed {
			return
		}
		d.emit(event{kind: eventPosition, source: source, position: position, time: time.Now()})
	}
}

func (d *GpioDriver) buttonHandler(button Button) func(gpiocdev.LineEvent) {
	return func(evt gpiocdev.LineEvent) {
		now := time.Now()
		if !d.debouncer.Allow(button, now) {
			return
		}

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.closed {
			return
		}
		d.emit(event{kind: eventButton, button: button, time: now})
	}
}

// emit must be called with d.mu held. Events are dropped rather than
// blocking the gpiocdev event goroutine.
func (d *GpioDriver) emit(e event) {
	select {
	case d.events <- e:
	default:
		ui.Warning("Input event queue full, dropping %v event", e.kind)
	}
}

func (d *GpioDriver) Run(ctx context.Context, sink Sink) error {
	return dispatch(ctx, d.events, sink)
}

func (d *GpioDriver) Positions() map[Source]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := map[Source]int{}
	for source, decoder := range d.decoders {
		result[source] = decoder.Position()
	}
	return result
}

func (d *GpioDriver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	var errs []error
	for _, line := range d.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", line.Offset(), err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}

// DetectChips lists all GPIO chips and their lines
func DetectChips() ([]ChipInfo, error) {
	var result []ChipInfo
	for _, name := range gpiocdev.Chips() {
		chip, err := gpiocdev.NewChip(name)
		if err != nil {
			ui.Warning("Unable to open gpio chip %s: %v", name, err)
			continue
		}

		info := ChipInfo{
			Name:  chip.Name,
			Label: chip.Label,
		}
		for offset := 0; offset < chip.Lines(); offset++ {
			lineInfo, err := chip.LineInfo(offset)
			if err != nil {
				ui.Warning("Unable to read line %d of %s: %v", offset, name, err)
				continue
			}
			info.Lines = append(info.Lines, LineInfo{
				Offset:   lineInfo.Offset,
				Name:     lineInfo.Name,
				Consumer: lineInfo.Consumer,
				Used:     lineInfo.Used,
			})
		}
		_ = chip.Close()
		result = append(result, info)
	}
	return result, nil
}
