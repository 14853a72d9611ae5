// Package encoders turns rotary encoder and push button input into
// position and button events for the device core. The linux implementation
// reads the GPIO character device, the simulated one is driven by callers.
package encoders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/markusressel/pace2go/internal/pacing"
)

// Source identifies one of the rotary encoders
type Source string

const (
	SourceRate        Source = "rate"
	SourceAOutput     Source = "a_output"
	SourceVOutput     Source = "v_output"
	SourceSensitivity Source = "sensitivity"
)

var Sources = []Source{SourceRate, SourceAOutput, SourceVOutput, SourceSensitivity}

// Parameter returns the parameter directly driven by this source. The
// sensitivity source has no fixed parameter.
func (s Source) Parameter() (pacing.Parameter, bool) {
	switch s {
	case SourceRate:
		return pacing.Rate, true
	case SourceAOutput:
		return pacing.AOutput, true
	case SourceVOutput:
		return pacing.VOutput, true
	default:
		return "", false
	}
}

func ParseSource(value string) (Source, error) {
	normalized := strings.ToLower(strings.ReplaceAll(value, "-", "_"))
	switch normalized {
	case "mode", "sens", "a_sensitivity", "v_sensitivity":
		// the sensitivity knob is labelled "mode" on the front panel
		return SourceSensitivity, nil
	case "aoutput":
		return SourceAOutput, nil
	case "voutput":
		return SourceVOutput, nil
	}
	for _, s := range Sources {
		if string(s) == normalized {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown encoder '%s', use one of: rate | a_output | v_output | sensitivity", value)
}

// Button identifies one of the front panel push buttons
type Button string

const (
	ButtonLock      Button = "lock"
	ButtonUp        Button = "up"
	ButtonDown      Button = "down"
	ButtonLeft      Button = "left"
	ButtonEmergency Button = "emergency"
)

var Buttons = []Button{ButtonLock, ButtonUp, ButtonDown, ButtonLeft, ButtonEmergency}

// Sink receives decoded input events. Positions are absolute, it is up to
// the sink to track deltas.
type Sink interface {
	OnPosition(source Source, position int)
	OnButtonEdge(button Button)
}

// Driver produces input events until its context is cancelled
type Driver interface {
	// Run blocks and forwards all events to sink until ctx is done
	Run(ctx context.Context, sink Sink) error
	// Positions returns the current raw position of every encoder
	Positions() map[Source]int
	Close() error
}

type eventKind int

const (
	eventPosition eventKind = iota
	eventButton
)

func (k eventKind) String() string {
	if k == eventButton {
		return "button"
	}
	return "position"
}

type event struct {
	kind     eventKind
	source   Source
	position int
	button   Button
	time     time.Time
}

// dispatch serializes all events onto the calling goroutine, so the sink
// never sees two events concurrently from the same driver.
func dispatch(ctx context.Context, events <-chan event, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			switch e.kind {
			case eventPosition:
				sink.OnPosition(e.source, e.position)
			case eventButton:
				sink.OnButtonEdge(e.button)
			}
		}
	}
}
