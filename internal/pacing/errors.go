package pacing

import (
	"errors"
	"fmt"
)

// Reason describes why a mutation request was rejected
type Reason string

const (
	ReasonLocked           Reason = "locked"
	ReasonEmergency        Reason = "emergency"
	ReasonOutOfRange       Reason = "out_of_range"
	ReasonInvalidParameter Reason = "invalid_parameter"
	ReasonInvalidMode      Reason = "invalid_mode"
)

var (
	ErrLocked           = errors.New("device locked")
	ErrEmergency        = errors.New("device in emergency mode")
	ErrOutOfRange       = errors.New("value out of range")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidMode      = errors.New("invalid mode")

	// ErrGlitch marks an implausibly large encoder delta that was discarded
	ErrGlitch = errors.New("implausible encoder delta")
)

var reasonErrors = map[Reason]error{
	ReasonLocked:           ErrLocked,
	ReasonEmergency:        ErrEmergency,
	ReasonOutOfRange:       ErrOutOfRange,
	ReasonInvalidParameter: ErrInvalidParameter,
	ReasonInvalidMode:      ErrInvalidMode,
}

// Reasons lists all possible rejection reasons
var Reasons = []Reason{
	ReasonLocked,
	ReasonEmergency,
	ReasonOutOfRange,
	ReasonInvalidParameter,
	ReasonInvalidMode,
}

// RejectedError is returned whenever the interlock or the parameter limits
// refuse a mutation. It unwraps to the sentinel error of its Reason.
type RejectedError struct {
	Reason Reason
	Detail string
}

func (e *RejectedError) Error() string {
	if len(e.Detail) <= 0 {
		return e.Unwrap().Error()
	}
	return fmt.Sprintf("%s: %s", e.Unwrap().Error(), e.Detail)
}

func (e *RejectedError) Unwrap() error {
	if err, ok := reasonErrors[e.Reason]; ok {
		return err
	}
	return errors.New(string(e.Reason))
}

// Reject creates a new RejectedError with a formatted detail message
func Reject(reason Reason, format string, a ...interface{}) *RejectedError {
	return &RejectedError{
		Reason: reason,
		Detail: fmt.Sprintf(format, a...),
	}
}

// ReasonOf extracts the rejection reason of the given error, if any
func ReasonOf(err error) (Reason, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason, true
	}
	return "", false
}

// GlitchError wraps ErrGlitch with the offending delta
func GlitchError(delta int) error {
	return fmt.Errorf("%w: %d steps", ErrGlitch, delta)
}
