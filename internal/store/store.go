package store

import (
	"time"

	"github.com/markusressel/pace2go/internal/pacing"
)

// UpdateSource describes which path last mutated the store
type UpdateSource string

const (
	SourceInit     UpdateSource = "init"
	SourceHardware UpdateSource = "hardware"
	SourceAPI      UpdateSource = "api"
	SourceRestore  UpdateSource = "restore"
)

// DeviceState holds the device wide flags next to the parameter values
type DeviceState struct {
	Locked                   bool
	Mode                     pacing.Mode
	ActiveSensitivityControl pacing.Channel
}

// Store is the canonical holder of all parameter values and device flags.
// It does no locking and no permission checks of its own, callers must hold
// the device mutex and go through the interlock before calling a mutator.
type Store struct {
	values     map[pacing.Parameter]float64
	state      DeviceState
	lastUpdate time.Time
	lastSource UpdateSource
	revision   uint64
	latched    map[string]bool
}

// New creates a store populated with the power-on defaults
func New(now time.Time) *Store {
	s := &Store{
		values: map[pacing.Parameter]float64{},
		state: DeviceState{
			Locked:                   false,
			Mode:                     pacing.ModeVOO,
			ActiveSensitivityControl: pacing.ChannelNone,
		},
		lastUpdate: now,
		lastSource: SourceInit,
		revision:   1,
		latched:    map[string]bool{},
	}
	for _, p := range pacing.Parameters {
		s.values[p] = pacing.MustLookup(p).Default
	}
	return s
}

func (s *Store) Get(p pacing.Parameter) float64 {
	return s.values[p]
}

// Set stores value for p and returns whether the stored value changed
func (s *Store) Set(p pacing.Parameter, value float64, source UpdateSource, now time.Time) bool {
	if current, ok := s.values[p]; ok && current == value {
		return false
	}
	s.values[p] = value
	s.Touch(source, now)
	return true
}

func (s *Store) State() DeviceState {
	return s.state
}

func (s *Store) SetLocked(locked bool, source UpdateSource, now time.Time) bool {
	if s.state.Locked == locked {
		return false
	}
	s.state.Locked = locked
	s.Touch(source, now)
	return true
}

func (s *Store) SetMode(mode pacing.Mode, source UpdateSource, now time.Time) bool {
	if s.state.Mode == mode {
		return false
	}
	s.state.Mode = mode
	s.Touch(source, now)
	return true
}

func (s *Store) SetActiveSensitivityControl(channel pacing.Channel, source UpdateSource, now time.Time) bool {
	if s.state.ActiveSensitivityControl == channel {
		return false
	}
	s.state.ActiveSensitivityControl = channel
	s.Touch(source, now)
	return true
}

// Touch records a mutation without changing any value
func (s *Store) Touch(source UpdateSource, now time.Time) {
	s.revision++
	s.lastUpdate = now
	s.lastSource = source
}

func (s *Store) Revision() uint64 {
	return s.revision
}

// Latch remembers a button press until it is consumed
func (s *Store) Latch(button string) {
	s.latched[button] = true
}

// ConsumeLatched returns all latched button presses and clears them
func (s *Store) ConsumeLatched() map[string]bool {
	result := s.latched
	s.latched = map[string]bool{}
	return result
}

// Snapshot returns a value copy of the current state
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Revision:         s.revision,
		Rate:             int(s.values[pacing.Rate]),
		AOutput:          s.values[pacing.AOutput],
		VOutput:          s.values[pacing.VOutput],
		ASensitivity:     s.values[pacing.ASensitivity],
		VSensitivity:     s.values[pacing.VSensitivity],
		Mode:             s.state.Mode,
		ModeName:         s.state.Mode.String(),
		Locked:           s.state.Locked,
		Emergency:        s.state.Mode.IsEmergency(),
		ActiveControl:    s.state.ActiveSensitivityControl,
		LastUpdate:       s.lastUpdate,
		LastUpdateSource: s.lastSource,
	}
}

// Restore replaces values and flags with the given snapshot. Values are
// taken as-is, callers are responsible for normalizing them first.
func (s *Store) Restore(snapshot Snapshot, now time.Time) {
	for _, p := range pacing.Parameters {
		s.values[p] = snapshot.Value(p)
	}
	s.state = DeviceState{
		Locked:                   snapshot.Locked,
		Mode:                     snapshot.Mode,
		ActiveSensitivityControl: snapshot.ActiveControl,
	}
	s.Touch(SourceRestore, now)
}
