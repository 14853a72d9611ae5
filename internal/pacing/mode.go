package pacing

import (
	"strconv"
	"strings"
)

// Mode is the pacing mode of the device
type Mode int

const (
	ModeVOO Mode = iota
	ModeVVI
	ModeVVT
	ModeAOO
	ModeAAI
	ModeDOO
	ModeDDD
	ModeDDI
)

// ModeEmergency is the fixed-parameter failsafe mode
const ModeEmergency = ModeDOO

var modeNames = []string{"VOO", "VVI", "VVT", "AOO", "AAI", "DOO", "DDD", "DDI"}

// Modes lists all valid modes
var Modes = []Mode{ModeVOO, ModeVVI, ModeVVT, ModeAOO, ModeAAI, ModeDOO, ModeDDD, ModeDDI}

func (m Mode) Valid() bool {
	return m >= ModeVOO && m <= ModeDDI
}

func (m Mode) IsEmergency() bool {
	return m == ModeEmergency
}

func (m Mode) String() string {
	if !m.Valid() {
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
	return modeNames[m]
}

// ParseMode accepts either the numeric mode (0..7) or its name (e.g. "DOO")
func ParseMode(value string) (Mode, error) {
	trimmed := strings.TrimSpace(value)
	if number, err := strconv.Atoi(trimmed); err == nil {
		mode := Mode(number)
		if !mode.Valid() {
			return 0, Reject(ReasonInvalidMode, "mode %d is not in range 0..%d", number, len(modeNames)-1)
		}
		return mode, nil
	}
	for i, name := range modeNames {
		if strings.EqualFold(name, trimmed) {
			return Mode(i), nil
		}
	}
	return 0, Reject(ReasonInvalidMode, "unknown mode '%s', use one of: %s", value, strings.Join(modeNames, " | "))
}

// UnmarshalJSON accepts the numeric mode as well as its name
func (m *Mode) UnmarshalJSON(data []byte) error {
	value := string(data)
	if unquoted, err := strconv.Unquote(value); err == nil {
		value = unquoted
	}
	mode, err := ParseMode(value)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
