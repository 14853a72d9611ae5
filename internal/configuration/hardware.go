package configuration

import "time"

type HardwareConfig struct {
	Enabled  bool                 `json:"enabled"`
	Chip     string               `json:"chip"`
	Debounce time.Duration        `json:"debounce"`
	Encoders HardwareEncoderPins  `json:"encoders"`
	Buttons  HardwareButtonConfig `json:"buttons"`
}

// EncoderPinConfig holds the line offsets of a quadrature encoder
type EncoderPinConfig struct {
	Clk int `json:"clk"`
	Dt  int `json:"dt"`
}

type HardwareEncoderPins struct {
	Rate        EncoderPinConfig `json:"rate"`
	AOutput     EncoderPinConfig `json:"aOutput"`
	VOutput     EncoderPinConfig `json:"vOutput"`
	Sensitivity EncoderPinConfig `json:"sensitivity"`
}

type HardwareButtonConfig struct {
	Lock      int `json:"lock"`
	Up        int `json:"up"`
	Down      int `json:"down"`
	Left      int `json:"left"`
	Emergency int `json:"emergency"`
}
