package store

import (
	"time"

	"github.com/markusressel/pace2go/internal/pacing"
)

// Snapshot is an immutable copy of the device state, safe to hand out to
// publishers, persistence and API clients.
type Snapshot struct {
	Revision         uint64         `json:"revision" yaml:"revision"`
	Rate             int            `json:"rate" yaml:"rate"`
	AOutput          float64        `json:"a_output" yaml:"a_output"`
	VOutput          float64        `json:"v_output" yaml:"v_output"`
	ASensitivity     float64        `json:"a_sensitivity" yaml:"a_sensitivity"`
	VSensitivity     float64        `json:"v_sensitivity" yaml:"v_sensitivity"`
	Mode             pacing.Mode    `json:"mode" yaml:"mode"`
	ModeName         string         `json:"mode_name" yaml:"mode_name"`
	Locked           bool           `json:"locked" yaml:"locked"`
	Emergency        bool           `json:"emergency" yaml:"emergency"`
	ActiveControl    pacing.Channel `json:"active_control" yaml:"active_control"`
	LastUpdate       time.Time      `json:"last_update" yaml:"last_update"`
	LastUpdateSource UpdateSource   `json:"last_update_source" yaml:"last_update_source"`
}

// Value returns the value of the given parameter
func (s Snapshot) Value(p pacing.Parameter) float64 {
	switch p {
	case pacing.Rate:
		return float64(s.Rate)
	case pacing.AOutput:
		return s.AOutput
	case pacing.VOutput:
		return s.VOutput
	case pacing.ASensitivity:
		return s.ASensitivity
	case pacing.VSensitivity:
		return s.VSensitivity
	default:
		return 0
	}
}
