package pacing

import (
	"strings"
)

// Parameter identifies one of the pacing parameters controlled by the device
type Parameter string

const (
	Rate         Parameter = "rate"
	AOutput      Parameter = "a_output"
	VOutput      Parameter = "v_output"
	ASensitivity Parameter = "a_sensitivity"
	VSensitivity Parameter = "v_sensitivity"
)

// AsyncValue is the sentinel value of a sensitivity channel with sensing disabled
const AsyncValue = 0.0

// Parameters lists all parameters in display order
var Parameters = []Parameter{Rate, AOutput, VOutput, ASensitivity, VSensitivity}

// Limits is an inclusive value range
type Limits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether value lies within [Min, Max]
func (l Limits) Contains(value float64) bool {
	return value >= l.Min && value <= l.Max
}

// Definition describes the limits, quantization and default of a parameter
type Definition struct {
	Parameter Parameter
	Unit      string
	Limits    Limits
	Step      StepFunc
	Default   float64
	// Async marks channels that accept AsyncValue outside of Limits
	Async bool
}

// Contains reports whether the given value is a legal value of this parameter
func (s Definition) Contains(value float64) bool {
	if s.Async && value == AsyncValue {
		return true
	}
	return s.Limits.Contains(value)
}

var definitions = map[Parameter]Definition{
	Rate: {
		Parameter: Rate,
		Unit:      "ppm",
		Limits:    Limits{Min: 30, Max: 200},
		Step:      RateStep,
		Default:   80,
	},
	AOutput: {
		Parameter: AOutput,
		Unit:      "mA",
		Limits:    Limits{Min: 0.0, Max: 20.0},
		Step:      OutputStep,
		Default:   10.0,
	},
	VOutput: {
		Parameter: VOutput,
		Unit:      "mA",
		Limits:    Limits{Min: 0.0, Max: 25.0},
		Step:      OutputStep,
		Default:   10.0,
	},
	ASensitivity: {
		Parameter: ASensitivity,
		Unit:      "mV",
		Limits:    Limits{Min: 0.4, Max: 10.0},
		Step:      ASensitivityStep,
		Default:   0.5,
		Async:     true,
	},
	VSensitivity: {
		Parameter: VSensitivity,
		Unit:      "mV",
		Limits:    Limits{Min: 0.8, Max: 20.0},
		Step:      VSensitivityStep,
		Default:   2.0,
		Async:     true,
	},
}

// Lookup returns the Definition of the given parameter
func Lookup(p Parameter) (Definition, bool) {
	def, ok := definitions[p]
	return def, ok
}

// MustLookup is like Lookup but panics for unknown parameters
func MustLookup(p Parameter) Definition {
	def, ok := definitions[p]
	if !ok {
		panic("unknown parameter: " + string(p))
	}
	return def
}

// ParseParameter accepts the canonical snake_case name as well as
// camelCase and dashed variants ("aOutput", "a-output").
func ParseParameter(name string) (Parameter, error) {
	normalized := strings.ToLower(name)
	normalized = strings.NewReplacer("_", "", "-", "", ".", "", " ", "").Replace(normalized)
	for _, p := range Parameters {
		if strings.ReplaceAll(string(p), "_", "") == normalized {
			return p, nil
		}
	}
	return "", Reject(ReasonInvalidParameter, "unknown parameter '%s'", name)
}
