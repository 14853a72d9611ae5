package encoders

import (
	"github.com/markusressel/pace2go/internal/configuration"
)

// encoderPins maps the configured pins to encoder sources
func encoderPins(config configuration.HardwareConfig) map[Source]configuration.EncoderPinConfig {
	return map[Source]configuration.EncoderPinConfig{
		SourceRate:        config.Encoders.Rate,
		SourceAOutput:     config.Encoders.AOutput,
		SourceVOutput:     config.Encoders.VOutput,
		SourceSensitivity: config.Encoders.Sensitivity,
	}
}

// buttonPins maps the configured pins to buttons
func buttonPins(config configuration.HardwareConfig) map[Button]int {
	return map[Button]int{
		ButtonLock:      config.Buttons.Lock,
		ButtonUp:        config.Buttons.Up,
		ButtonDown:      config.Buttons.Down,
		ButtonLeft:      config.Buttons.Left,
		ButtonEmergency: config.Buttons.Emergency,
	}
}

// ChipInfo describes a GPIO chip found on the system
type ChipInfo struct {
	Name  string
	Label string
	Lines []LineInfo
}

type LineInfo struct {
	Offset   int
	Name     string
	Consumer string
	Used     bool
}
