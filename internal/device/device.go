package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/markusressel/pace2go/internal/encoders"
	"github.com/markusressel/pace2go/internal/interlock"
	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/markusressel/pace2go/internal/sensitivity"
	"github.com/markusressel/pace2go/internal/store"
	"github.com/markusressel/pace2go/internal/ui"
	"github.com/markusressel/pace2go/internal/util"
	"github.com/qdm12/reprint"
)

// Publisher receives a snapshot after every state change
type Publisher interface {
	Publish(snapshot store.Snapshot)
}

type Options struct {
	// GlitchThreshold is the largest encoder delta that is still applied
	GlitchThreshold int
	// WatchdogTimeout after which a lagging cursor is resynchronized
	WatchdogTimeout time.Duration
	// ExitMode is used when leaving emergency mode without an explicit target
	ExitMode pacing.Mode
	// Positions are the raw encoder positions at startup
	Positions map[encoders.Source]int
	Publisher Publisher
	Now       func() time.Time
}

// ParameterInfo is the read view of a single parameter
type ParameterInfo struct {
	Parameter pacing.Parameter `json:"parameter" yaml:"parameter"`
	Value     float64          `json:"value" yaml:"value"`
	Min       float64          `json:"min" yaml:"min"`
	Max       float64          `json:"max" yaml:"max"`
	Unit      string           `json:"unit" yaml:"unit"`
	Async     bool             `json:"async,omitempty" yaml:"async,omitempty"`
}

type Statistics struct {
	TicksApplied    int64                   `json:"ticks_applied"`
	TicksDropped    int64                   `json:"ticks_dropped"`
	Glitches        int64                   `json:"glitches"`
	WatchdogResyncs int64                   `json:"watchdog_resyncs"`
	Rejections      map[pacing.Reason]int64 `json:"rejections"`
}

// Device is the pacing core. All operations are safe for concurrent use,
// every read-modify-write happens under a single mutex.
type Device struct {
	mu        sync.Mutex
	store     *store.Store
	interlock *interlock.Interlock
	arbiter   *sensitivity.Arbiter
	cursors   map[encoders.Source]*pacing.Cursor
	positions map[encoders.Source]int
	stats     Statistics

	glitchThreshold int
	watchdogTimeout time.Duration
	exitMode        pacing.Mode
	publisher       Publisher
	now             func() time.Time
}

func New(options Options) *Device {
	now := options.Now
	if now == nil {
		now = time.Now
	}
	exitMode := options.ExitMode
	if !exitMode.Valid() || exitMode.IsEmergency() {
		exitMode = pacing.ModeVVI
	}

	start := now()
	s := store.New(start)
	d := &Device{
		store:     s,
		interlock: interlock.New(s),
		cursors:   map[encoders.Source]*pacing.Cursor{},
		positions: map[encoders.Source]int{},
		stats: Statistics{
			Rejections: map[pacing.Reason]int64{},
		},
		glitchThreshold: options.GlitchThreshold,
		watchdogTimeout: options.WatchdogTimeout,
		exitMode:        exitMode,
		publisher:       options.Publisher,
		now:             now,
	}
	for _, source := range encoders.Sources {
		d.positions[source] = options.Positions[source]
	}
	for _, source := range []encoders.Source{encoders.SourceRate, encoders.SourceAOutput, encoders.SourceVOutput} {
		d.cursors[source] = pacing.NewCursor(d.positions[source], start)
	}
	d.arbiter = sensitivity.NewArbiter(s, d.positions[encoders.SourceSensitivity], start)
	return d
}

// SetPublisher replaces the publisher notified on changes
func (d *Device) SetPublisher(publisher Publisher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.publisher = publisher
}

// mutate runs fn under the device lock and publishes the resulting
// snapshot outside of it, if anything changed.
func (d *Device) mutate(fn func(now time.Time) error) (store.Snapshot, error) {
	d.mu.Lock()
	before := d.store.Revision()
	err := fn(d.now())
	changed := d.store.Revision() != before
	snapshot := d.store.Snapshot()
	publisher := d.publisher
	d.mu.Unlock()

	if changed && publisher != nil {
		publisher.Publish(snapshot)
	}
	return snapshot, err
}

// reject records a rejection and returns err unchanged, must be called with d.mu held
func (d *Device) reject(err error) error {
	if reason, ok := pacing.ReasonOf(err); ok {
		d.stats.Rejections[reason]++
	}
	return err
}

func (d *Device) cursorOf(source encoders.Source) *pacing.Cursor {
	if source == encoders.SourceSensitivity {
		return d.arbiter.Cursor()
	}
	return d.cursors[source]
}

// OnPosition handles a new absolute position reported by an encoder.
// Rejections on this path are only logged, there is no caller to notify.
func (d *Device) OnPosition(source encoders.Source, raw int) {
	_, _ = d.mutate(func(now time.Time) error {
		d.positions[source] = raw
		d.applyPosition(source, raw, now)
		return nil
	})
}

// OnTick applies delta steps of source without moving the anchor of its
// cursor, so injected ticks never shift the tracking of the hardware position.
func (d *Device) OnTick(source encoders.Source, delta int) {
	_, _ = d.mutate(func(now time.Time) error {
		cursor := d.cursorOf(source)
		if cursor == nil {
			ui.Warning("Ignoring tick of unknown encoder '%s'", source)
			return nil
		}
		d.applyDelta(source, cursor, delta, cursor.Position(), now)
		return nil
	})
}

func (d *Device) applyPosition(source encoders.Source, raw int, now time.Time) {
	cursor := d.cursorOf(source)
	if cursor == nil {
		ui.Warning("Ignoring position of unknown encoder '%s'", source)
		return
	}
	d.applyDelta(source, cursor, cursor.Delta(raw), raw, now)
}

// applyDelta consumes the movement up to raw. Rejected movement is dropped
// by re-anchoring the cursor, it is never replayed onto a later tick.
func (d *Device) applyDelta(source encoders.Source, cursor *pacing.Cursor, delta int, raw int, now time.Time) {
	if delta == 0 {
		return
	}
	if d.glitchThreshold > 0 && util.Abs(delta) > d.glitchThreshold {
		d.stats.Glitches++
		ui.Warning("Ignoring implausible jump of %s encoder: %d steps", source, delta)
		cursor.Resync(raw)
		return
	}

	if source == encoders.SourceSensitivity {
		d.applySensitivity(cursor, delta, raw, now)
		return
	}

	p, _ := source.Parameter()
	if err := d.interlock.Check(p, interlock.PathHardware); err != nil {
		cursor.Resync(raw)
		d.stats.TicksDropped++
		ui.Debug("Dropping %s tick: %v", source, d.reject(err))
		return
	}

	def := pacing.MustLookup(p)
	current := d.store.Get(p)
	next, err := pacing.ApplyTick(current, delta, d.glitchThreshold, def.Limits, def.Step)
	if err != nil {
		d.stats.Glitches++
		cursor.Resync(raw)
		return
	}
	cursor.Advance(raw, now)
	d.stats.TicksApplied++
	if d.store.Set(p, next, store.SourceHardware, now) {
		ui.Debug("%s updated: %v %s", p, next, def.Unit)
	}
}

func (d *Device) applySensitivity(cursor *pacing.Cursor, delta int, raw int, now time.Time) {
	channel := d.arbiter.Active()
	p, ok := channel.Parameter()
	if !ok {
		// nothing selected, movement is consumed without effect
		cursor.Resync(raw)
		d.stats.TicksDropped++
		return
	}
	if err := d.interlock.Check(p, interlock.PathHardware); err != nil {
		cursor.Resync(raw)
		d.stats.TicksDropped++
		ui.Debug("Dropping sensitivity tick: %v", d.reject(err))
		return
	}

	cursor.Advance(raw, now)
	value, applied := d.arbiter.Tick(channel, pacing.DirectionOf(delta), store.SourceHardware, now)
	if applied {
		d.stats.TicksApplied++
		ui.Debug("%s updated: %s", p, formatSensitivity(value))
	}
}

// OnButtonEdge handles a single debounced button press
func (d *Device) OnButtonEdge(button encoders.Button) {
	_, _ = d.mutate(func(now time.Time) error {
		d.store.Latch(string(button))
		d.store.Touch(store.SourceHardware, now)

		switch button {
		case encoders.ButtonLock:
			locked := d.interlock.ToggleLock(interlock.PathHardware, now)
			ui.Info("Device %s", lockLabel(locked))
		case encoders.ButtonEmergency:
			d.enterEmergency(interlock.PathEmergency, now)
		default:
			ui.Debug("%s button pressed", button)
		}
		return nil
	})
}

// enterEmergency must be called with d.mu held
func (d *Device) enterEmergency(path interlock.Path, now time.Time) {
	d.interlock.EnterEmergency(path, now)
	for source, cursor := range d.cursors {
		cursor.Resync(d.positions[source])
	}
	ui.Warning("Emergency mode active: rate %d ppm, A output %.1f mA, V output %.1f mA",
		interlock.EmergencyRate, interlock.EmergencyAOutput, interlock.EmergencyVOutput)
}

// GetParameter returns the current value and limits of p
func (d *Device) GetParameter(p pacing.Parameter) (ParameterInfo, error) {
	def, ok := pacing.Lookup(p)
	if !ok {
		return ParameterInfo{}, pacing.Reject(pacing.ReasonInvalidParameter, "unknown parameter '%s'", p)
	}

	d.mu.Lock()
	value := d.store.Get(p)
	d.mu.Unlock()

	if !def.Contains(value) {
		clamped := pacing.Normalize(value, def.Limits, def.Step)
		ui.Error("%s holds illegal value %v, reporting %v", p, value, clamped)
		value = clamped
	}

	return ParameterInfo{
		Parameter: p,
		Value:     value,
		Min:       def.Limits.Min,
		Max:       def.Limits.Max,
		Unit:      def.Unit,
		Async:     def.Async && value == pacing.AsyncValue,
	}, nil
}

// Parameters returns the read view of all parameters
func (d *Device) Parameters() []ParameterInfo {
	var result []ParameterInfo
	for _, p := range pacing.Parameters {
		info, err := d.GetParameter(p)
		if err == nil {
			result = append(result, info)
		}
	}
	return result
}

// SetParameter sets p to value. Values outside the limits are clamped,
// except for sensitivities where only ASYNC (0) is accepted outside of them.
func (d *Device) SetParameter(p pacing.Parameter, value float64) (float64, error) {
	def, ok := pacing.Lookup(p)
	if !ok {
		return 0, pacing.Reject(pacing.ReasonInvalidParameter, "unknown parameter '%s'", p)
	}

	var result float64
	_, err := d.mutate(func(now time.Time) error {
		result = d.store.Get(p)
		if err := d.interlock.Check(p, interlock.PathAPI); err != nil {
			return d.reject(err)
		}
		normalized, err := normalizeRequest(def, value)
		if err != nil {
			return d.reject(err)
		}
		if d.store.Set(p, normalized, store.SourceAPI, now) {
			ui.Info("%s set to %v %s", p, normalized, def.Unit)
		}
		result = normalized
		return nil
	})
	return result, err
}

func normalizeRequest(def pacing.Definition, value float64) (float64, error) {
	if !util.IsFinite(value) {
		return 0, pacing.Reject(pacing.ReasonOutOfRange, "%s must be a finite number", def.Parameter)
	}
	if def.Async {
		if value == pacing.AsyncValue {
			return pacing.AsyncValue, nil
		}
		if !def.Limits.Contains(value) {
			return 0, pacing.Reject(pacing.ReasonOutOfRange, "%s must be 0 (ASYNC) or within %v..%v %s",
				def.Parameter, def.Limits.Min, def.Limits.Max, def.Unit)
		}
	}
	return pacing.Normalize(value, def.Limits, def.Step), nil
}

// ResetParameter restores the power-on default of p
func (d *Device) ResetParameter(p pacing.Parameter) (float64, error) {
	def, ok := pacing.Lookup(p)
	if !ok {
		return 0, pacing.Reject(pacing.ReasonInvalidParameter, "unknown parameter '%s'", p)
	}
	return d.SetParameter(p, def.Default)
}

// SetMode changes the pacing mode. Entering emergency mode bypasses the lock.
func (d *Device) SetMode(mode pacing.Mode) (pacing.Mode, error) {
	var result pacing.Mode
	_, err := d.mutate(func(now time.Time) error {
		if mode.IsEmergency() {
			d.enterEmergency(interlock.PathAPI, now)
			result = mode
			return nil
		}
		wasEmergency := d.interlock.InEmergency()
		var err error
		result, err = d.interlock.SetMode(mode, interlock.PathAPI, now)
		if err != nil {
			return d.reject(err)
		}
		if wasEmergency {
			ui.Info("Left emergency mode, now in %s", result)
		} else {
			ui.Info("Mode set to %s", result)
		}
		return nil
	})
	return result, err
}

// ExitMode returns the mode used when leaving emergency without an explicit target
func (d *Device) ExitMode() pacing.Mode {
	return d.exitMode
}

// ExitEmergency leaves emergency mode for target
func (d *Device) ExitEmergency(target pacing.Mode) (pacing.Mode, error) {
	var result pacing.Mode
	_, err := d.mutate(func(now time.Time) error {
		wasEmergency := d.interlock.InEmergency()
		var err error
		result, err = d.interlock.ExitEmergency(target, interlock.PathAPI, now)
		if err != nil {
			return d.reject(err)
		}
		if wasEmergency {
			ui.Info("Left emergency mode, now in %s", result)
		}
		return nil
	})
	return result, err
}

// TriggerEmergency enters emergency mode, it always succeeds
func (d *Device) TriggerEmergency() store.Snapshot {
	snapshot, _ := d.mutate(func(now time.Time) error {
		d.enterEmergency(interlock.PathEmergency, now)
		return nil
	})
	return snapshot
}

func (d *Device) SetActiveSensitivityControl(channel pacing.Channel) (pacing.Channel, error) {
	var result pacing.Channel
	_, err := d.mutate(func(now time.Time) error {
		result = d.arbiter.Active()
		if _, ok := channel.Parameter(); !ok && channel != pacing.ChannelNone {
			return d.reject(pacing.Reject(pacing.ReasonInvalidParameter, "unknown sensitivity control '%s'", channel))
		}
		if err := d.interlock.CheckControl("active sensitivity control", interlock.PathAPI); err != nil {
			return d.reject(err)
		}
		if d.arbiter.Select(channel, d.positions[encoders.SourceSensitivity], store.SourceAPI, now) {
			ui.Info("Active sensitivity control changed to: %s", channel)
		}
		result = channel
		return nil
	})
	return result, err
}

func (d *Device) ToggleLock() bool {
	var locked bool
	_, _ = d.mutate(func(now time.Time) error {
		locked = d.interlock.ToggleLock(interlock.PathAPI, now)
		ui.Info("Device %s", lockLabel(locked))
		return nil
	})
	return locked
}

func (d *Device) SetLocked(locked bool) bool {
	_, _ = d.mutate(func(now time.Time) error {
		if d.interlock.SetLocked(locked, interlock.PathAPI, now) {
			ui.Info("Device %s", lockLabel(locked))
		}
		return nil
	})
	return locked
}

// ResetEncoder re-anchors the cursor of source at its current raw position
func (d *Device) ResetEncoder(source encoders.Source) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw := d.positions[source]
	cursor := d.cursorOf(source)
	if cursor != nil {
		ui.Info("Resetting %s encoder: %d -> %d", source, cursor.Position(), raw)
		cursor.Resync(raw)
	}
	return raw
}

// CheckWatchdog resynchronizes every cursor that lags behind its encoder
// without activity for longer than the watchdog timeout. It returns the
// number of resynchronized cursors.
func (d *Device) CheckWatchdog() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	count := 0
	for source, cursor := range d.cursors {
		raw := d.positions[source]
		if cursor.Stale(now, raw, d.watchdogTimeout) {
			ui.Debug("Resetting stuck %s encoder: %d -> %d", source, cursor.Position(), raw)
			cursor.Resync(raw)
			count++
		}
	}
	if d.arbiter.Watchdog(now, d.positions[encoders.SourceSensitivity], d.watchdogTimeout) {
		ui.Debug("Resetting stuck sensitivity encoder to %d", d.positions[encoders.SourceSensitivity])
		count++
	}
	d.stats.WatchdogResyncs += int64(count)
	return count
}

// Snapshot returns a value copy of the current state
func (d *Device) Snapshot() store.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Snapshot()
}

// ConsumeButtons returns the buttons pressed since the last call
func (d *Device) ConsumeButtons() map[string]bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.ConsumeLatched()
}

// Positions returns the last known raw position of every encoder
func (d *Device) Positions() map[encoders.Source]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make(map[encoders.Source]int, len(d.positions))
	for source, position := range d.positions {
		result[source] = position
	}
	return result
}

// Statistics returns a copy of the event counters
func (d *Device) Statistics() Statistics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return reprint.This(d.stats).(Statistics)
}

// Restore loads a previously persisted snapshot. Illegal values are
// normalized and an emergency snapshot re-applies the pinned values.
func (d *Device) Restore(snapshot store.Snapshot) store.Snapshot {
	restored, _ := d.mutate(func(now time.Time) error {
		for _, p := range pacing.Parameters {
			def := pacing.MustLookup(p)
			value := snapshot.Value(p)
			if !util.IsFinite(value) {
				ui.Warning("Restored %s value %v is not a number, using default %v", p, value, def.Default)
				value = def.Default
			} else if !def.Contains(value) {
				normalized := pacing.Normalize(value, def.Limits, def.Step)
				ui.Warning("Restored %s value %v is illegal, using %v", p, value, normalized)
				value = normalized
			}
			switch p {
			case pacing.Rate:
				snapshot.Rate = int(value)
			case pacing.AOutput:
				snapshot.AOutput = value
			case pacing.VOutput:
				snapshot.VOutput = value
			case pacing.ASensitivity:
				snapshot.ASensitivity = value
			case pacing.VSensitivity:
				snapshot.VSensitivity = value
			}
		}
		if !snapshot.Mode.Valid() {
			ui.Warning("Restored mode %d is invalid, using %s", int(snapshot.Mode), pacing.ModeVOO)
			snapshot.Mode = pacing.ModeVOO
		}
		if _, ok := snapshot.ActiveControl.Parameter(); !ok {
			snapshot.ActiveControl = pacing.ChannelNone
		}

		d.store.Restore(snapshot, now)
		if snapshot.Mode.IsEmergency() {
			d.enterEmergency(interlock.PathEmergency, now)
		}
		d.arbiter.ResetCursor(d.positions[encoders.SourceSensitivity])
		return nil
	})
	return restored
}

func lockLabel(locked bool) string {
	if locked {
		return "LOCKED"
	}
	return "UNLOCKED"
}

func formatSensitivity(value float64) string {
	if value == pacing.AsyncValue {
		return "ASYNC"
	}
	return fmt.Sprintf("%v mV", value)
}
