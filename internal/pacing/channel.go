package pacing

import "strings"

// Channel selects which sensitivity parameter the shared rotary source drives
type Channel string

const (
	ChannelNone         Channel = "none"
	ChannelASensitivity Channel = Channel(ASensitivity)
	ChannelVSensitivity Channel = Channel(VSensitivity)
)

var Channels = []Channel{ChannelNone, ChannelASensitivity, ChannelVSensitivity}

// Parameter returns the sensitivity parameter driven by this channel
func (c Channel) Parameter() (Parameter, bool) {
	switch c {
	case ChannelASensitivity:
		return ASensitivity, true
	case ChannelVSensitivity:
		return VSensitivity, true
	default:
		return "", false
	}
}

func ParseChannel(value string) (Channel, error) {
	if len(strings.TrimSpace(value)) <= 0 || strings.EqualFold(value, string(ChannelNone)) {
		return ChannelNone, nil
	}
	p, err := ParseParameter(value)
	if err == nil {
		switch p {
		case ASensitivity:
			return ChannelASensitivity, nil
		case VSensitivity:
			return ChannelVSensitivity, nil
		}
	}
	return "", Reject(ReasonInvalidParameter, "unknown sensitivity control '%s', use one of: none | a_sensitivity | v_sensitivity", value)
}
