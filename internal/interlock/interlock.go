package interlock

import (
	"time"

	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/markusressel/pace2go/internal/store"
)

// Path describes where a mutation request originates from
type Path int

const (
	PathHardware Path = iota
	PathAPI
	// PathEmergency is used by the dedicated emergency trigger, it is never blocked by the lock
	PathEmergency
)

func (p Path) Source() store.UpdateSource {
	switch p {
	case PathHardware, PathEmergency:
		return store.SourceHardware
	default:
		return store.SourceAPI
	}
}

// Values forced while the device is in emergency mode
const (
	EmergencyRate    = 80
	EmergencyAOutput = 20.0
	EmergencyVOutput = 25.0
)

var pinned = map[pacing.Parameter]float64{
	pacing.Rate:    EmergencyRate,
	pacing.AOutput: EmergencyAOutput,
	pacing.VOutput: EmergencyVOutput,
}

// Pinned reports whether p is forced to a fixed value in emergency mode
func Pinned(p pacing.Parameter) bool {
	_, ok := pinned[p]
	return ok
}

// Interlock gates every mutation against the lock and emergency flags
type Interlock struct {
	store *store.Store
}

func New(s *store.Store) *Interlock {
	return &Interlock{store: s}
}

func (i *Interlock) Locked() bool {
	return i.store.State().Locked
}

func (i *Interlock) Mode() pacing.Mode {
	return i.store.State().Mode
}

func (i *Interlock) InEmergency() bool {
	return i.Mode().IsEmergency()
}

// Check returns a RejectedError if p may not be mutated via path right now.
// The emergency pin takes precedence over the lock.
func (i *Interlock) Check(p pacing.Parameter, path Path) error {
	if i.InEmergency() && Pinned(p) {
		return pacing.Reject(pacing.ReasonEmergency, "%s is pinned to %v while in %s", p, pinned[p], pacing.ModeEmergency)
	}
	if i.Locked() && path != PathEmergency {
		return pacing.Reject(pacing.ReasonLocked, "cannot change %s", p)
	}
	return nil
}

// CheckControl returns a RejectedError if device controls other than
// parameter values (e.g. the active sensitivity channel) may not be changed.
func (i *Interlock) CheckControl(what string, path Path) error {
	if i.Locked() && path != PathEmergency {
		return pacing.Reject(pacing.ReasonLocked, "cannot change %s", what)
	}
	return nil
}

// CheckModeChange validates a transition to target. Entering emergency
// mode is always permitted.
func (i *Interlock) CheckModeChange(target pacing.Mode, path Path) error {
	if !target.Valid() {
		return pacing.Reject(pacing.ReasonInvalidMode, "mode %d is not in range 0..%d", int(target), len(pacing.Modes)-1)
	}
	if target.IsEmergency() {
		return nil
	}
	if i.Locked() && path != PathEmergency {
		return pacing.Reject(pacing.ReasonLocked, "cannot change mode to %s", target)
	}
	return nil
}

// EnterEmergency switches to emergency mode and forces the pinned values.
// It returns the parameters whose value was changed by the pin.
func (i *Interlock) EnterEmergency(path Path, now time.Time) []pacing.Parameter {
	source := path.Source()
	i.store.SetMode(pacing.ModeEmergency, source, now)
	var changed []pacing.Parameter
	for _, p := range pacing.Parameters {
		value, ok := pinned[p]
		if !ok {
			continue
		}
		if i.store.Set(p, value, source, now) {
			changed = append(changed, p)
		}
	}
	// entering is always observable, even if everything was already pinned
	i.store.Touch(source, now)
	return changed
}

// ExitEmergency leaves emergency mode for target. Calling it outside of
// emergency mode is a no-op.
func (i *Interlock) ExitEmergency(target pacing.Mode, path Path, now time.Time) (pacing.Mode, error) {
	if !i.InEmergency() {
		return i.Mode(), nil
	}
	if !target.Valid() || target.IsEmergency() {
		return i.Mode(), pacing.Reject(pacing.ReasonInvalidMode, "cannot exit emergency mode to %s", target)
	}
	if i.Locked() && path != PathEmergency {
		return i.Mode(), pacing.Reject(pacing.ReasonLocked, "cannot exit emergency mode")
	}
	i.store.SetMode(target, path.Source(), now)
	return target, nil
}

// SetMode performs a checked transition to target, entering or leaving
// emergency mode as needed.
func (i *Interlock) SetMode(target pacing.Mode, path Path, now time.Time) (pacing.Mode, error) {
	err := i.CheckModeChange(target, path)
	if err != nil {
		return i.Mode(), err
	}
	if target.IsEmergency() {
		i.EnterEmergency(path, now)
		return target, nil
	}
	if i.InEmergency() {
		return i.ExitEmergency(target, path, now)
	}
	i.store.SetMode(target, path.Source(), now)
	return target, nil
}

// ToggleLock flips the lock flag and returns the new value
func (i *Interlock) ToggleLock(path Path, now time.Time) bool {
	locked := !i.Locked()
	i.store.SetLocked(locked, path.Source(), now)
	return locked
}

func (i *Interlock) SetLocked(locked bool, path Path, now time.Time) bool {
	return i.store.SetLocked(locked, path.Source(), now)
}
