package configuration

import (
	"time"

	"github.com/markusressel/pace2go/internal/pacing"
)

type EncoderConfig struct {
	// GlitchThreshold is the largest plausible delta of a single encoder event
	GlitchThreshold int `json:"glitchThreshold"`
	// WatchdogTimeout after which a lagging cursor is resynchronized
	WatchdogTimeout time.Duration `json:"watchdogTimeout"`
	WatchdogRate    time.Duration `json:"watchdogRate"`
	// ActivityWindow is the number of recent events kept per encoder
	ActivityWindow int `json:"activityWindow"`
}

type EmergencyConfig struct {
	// ExitMode is the mode entered when leaving emergency mode without an explicit target
	ExitMode pacing.Mode `json:"exitMode"`
}
