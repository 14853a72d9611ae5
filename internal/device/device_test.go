package device

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/markusressel/pace2go/internal/encoders"
	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/markusressel/pace2go/internal/store"
	"github.com/stretchr/testify/assert"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu        sync.Mutex
	snapshots []store.Snapshot
}

func (p *recordingPublisher) Publish(snapshot store.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snapshot)
}

func (p *recordingPublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.snapshots)
}

func createDevice() (*Device, *mockClock, *recordingPublisher) {
	clock := &mockClock{now: time.Unix(1700000000, 0)}
	publisher := &recordingPublisher{}
	d := New(Options{
		GlitchThreshold: 10,
		WatchdogTimeout: 3 * time.Second,
		ExitMode:        pacing.ModeVVI,
		Positions: map[encoders.Source]int{
			encoders.SourceRate:        80,
			encoders.SourceAOutput:     100,
			encoders.SourceVOutput:     100,
			encoders.SourceSensitivity: 50,
		},
		Publisher: publisher,
		Now:       clock.Now,
	})
	return d, clock, publisher
}

// lagBehind records a raw position that the cursor of source has not consumed
func lagBehind(d *Device, source encoders.Source, raw int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.positions[source] = raw
}

func TestOnPosition_AppliesSingleStep(t *testing.T) {
	// GIVEN
	d, _, publisher := createDevice()

	// WHEN
	d.OnPosition(encoders.SourceRate, 83)

	// THEN
	assert.Equal(t, 81, d.Snapshot().Rate)
	assert.Equal(t, store.SourceHardware, d.Snapshot().LastUpdateSource)
	assert.Equal(t, 1, publisher.Count())
	assert.Equal(t, int64(1), d.Statistics().TicksApplied)
}

func TestOnPosition_GlitchIsDiscarded(t *testing.T) {
	// GIVEN
	d, _, publisher := createDevice()

	// WHEN
	d.OnPosition(encoders.SourceAOutput, 150)
	d.OnPosition(encoders.SourceAOutput, 151)

	// THEN the cursor was resynchronized at 150, so only one step is applied
	assert.Equal(t, 11.0, d.Snapshot().AOutput)
	assert.Equal(t, int64(1), d.Statistics().Glitches)
	assert.Equal(t, 1, publisher.Count())
}

func TestOnTick_AOutputScenario(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()

	// WHEN
	d.OnTick(encoders.SourceAOutput, 1)
	assert.Equal(t, 11.0, d.Snapshot().AOutput)
	for i := 0; i < 9; i++ {
		d.OnTick(encoders.SourceAOutput, -1)
	}

	// THEN 11 -> 10 -> 9 -> 8 -> 7 -> 6 -> 5 -> 4 -> 3.5 -> 3.0
	assert.Equal(t, 3.0, d.Snapshot().AOutput)
}

func TestOnTick_KeepsHardwareAnchor(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()

	// WHEN
	d.OnTick(encoders.SourceRate, 1)
	d.OnPosition(encoders.SourceRate, 81)

	// THEN the detent after the injected tick is applied as well
	assert.Equal(t, 82, d.Snapshot().Rate)
	assert.Equal(t, 81, d.Positions()[encoders.SourceRate])
}

func TestOnPosition_MovementWhileLockedIsDropped(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	d.SetLocked(true)
	for raw := 101; raw <= 103; raw++ {
		d.OnPosition(encoders.SourceAOutput, raw)
	}
	d.SetLocked(false)

	// WHEN
	d.OnPosition(encoders.SourceAOutput, 102)

	// THEN the counter-clockwise detent lowers the output
	assert.Equal(t, 9.0, d.Snapshot().AOutput)
	assert.Equal(t, int64(3), d.Statistics().TicksDropped)
}

func TestOnPosition_MovementWhilePinnedIsDropped(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	d.TriggerEmergency()
	for raw := 81; raw <= 84; raw++ {
		d.OnPosition(encoders.SourceRate, raw)
	}
	_, err := d.ExitEmergency(pacing.ModeVVI)
	assert.NoError(t, err)

	// WHEN
	d.OnPosition(encoders.SourceRate, 83)

	// THEN
	assert.Equal(t, 79, d.Snapshot().Rate)
}

func TestSensitivity_MovementWhileLockedIsDropped(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	_, _ = d.SetActiveSensitivityControl(pacing.ChannelVSensitivity)
	d.SetLocked(true)
	for raw := 51; raw <= 53; raw++ {
		d.OnPosition(encoders.SourceSensitivity, raw)
	}
	d.SetLocked(false)

	// WHEN
	d.OnPosition(encoders.SourceSensitivity, 52)

	// THEN counter-clockwise raises the threshold 2.0 -> 2.5
	assert.Equal(t, 2.5, d.Snapshot().VSensitivity)
}

func TestSetParameter_RateClamps(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()

	// WHEN
	value, err := d.SetParameter(pacing.Rate, 250)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 200.0, value)
	assert.Equal(t, 200, d.Snapshot().Rate)
}

func TestSetParameter_Snaps(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()

	// WHEN
	value, err := d.SetParameter(pacing.VOutput, 3.3)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 3.5, value)
}

func TestSetParameter_Sensitivity(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()

	// WHEN
	async, err1 := d.SetParameter(pacing.ASensitivity, 0)
	_, err2 := d.SetParameter(pacing.ASensitivity, 0.2)
	_, err3 := d.SetParameter(pacing.VSensitivity, 25)

	// THEN
	assert.NoError(t, err1)
	assert.Equal(t, 0.0, async)
	assert.True(t, errors.Is(err2, pacing.ErrOutOfRange))
	assert.True(t, errors.Is(err3, pacing.ErrOutOfRange))
	assert.Equal(t, 0.0, d.Snapshot().ASensitivity)
	assert.Equal(t, 2.0, d.Snapshot().VSensitivity)
}

func TestSetParameter_InvalidParameter(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()

	// WHEN
	_, err := d.SetParameter(pacing.Parameter("amplitude"), 1)

	// THEN
	assert.True(t, errors.Is(err, pacing.ErrInvalidParameter))
}

func TestLock_BlocksMutation(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	_, _ = d.SetActiveSensitivityControl(pacing.ChannelASensitivity)
	d.SetLocked(true)
	before := d.Snapshot()

	// WHEN
	d.OnTick(encoders.SourceRate, 1)
	d.OnTick(encoders.SourceAOutput, -1)
	d.OnTick(encoders.SourceVOutput, 1)
	d.OnTick(encoders.SourceSensitivity, 1)
	_, rateErr := d.SetParameter(pacing.Rate, 100)
	_, sensErr := d.SetParameter(pacing.VSensitivity, 4)
	_, modeErr := d.SetMode(pacing.ModeDDD)
	_, channelErr := d.SetActiveSensitivityControl(pacing.ChannelVSensitivity)

	// THEN
	after := d.Snapshot()
	assert.True(t, errors.Is(rateErr, pacing.ErrLocked))
	assert.True(t, errors.Is(sensErr, pacing.ErrLocked))
	assert.True(t, errors.Is(modeErr, pacing.ErrLocked))
	assert.True(t, errors.Is(channelErr, pacing.ErrLocked))
	assert.Equal(t, before.Rate, after.Rate)
	assert.Equal(t, before.AOutput, after.AOutput)
	assert.Equal(t, before.VOutput, after.VOutput)
	assert.Equal(t, before.ASensitivity, after.ASensitivity)
	assert.Equal(t, before.VSensitivity, after.VSensitivity)
	assert.Equal(t, before.Mode, after.Mode)
	assert.Equal(t, before.ActiveControl, after.ActiveControl)
	stats := d.Statistics()
	assert.Equal(t, int64(8), stats.Rejections[pacing.ReasonLocked])
	assert.Equal(t, int64(4), stats.TicksDropped)
	assert.Equal(t, int64(0), stats.TicksApplied)
}

func TestEmergency_WhileLocked(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	d.SetLocked(true)

	// WHEN
	mode, err := d.SetMode(pacing.ModeEmergency)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, pacing.ModeDOO, mode)
	snapshot := d.Snapshot()
	assert.True(t, snapshot.Emergency)
	assert.Equal(t, 80, snapshot.Rate)
	assert.Equal(t, 20.0, snapshot.AOutput)
	assert.Equal(t, 25.0, snapshot.VOutput)

	// WHEN
	_, err = d.SetParameter(pacing.VOutput, 5.0)

	// THEN
	assert.True(t, errors.Is(err, pacing.ErrEmergency))
}

func TestEmergency_PinsUntilExit(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	_, _ = d.SetParameter(pacing.Rate, 120)

	// WHEN
	snapshot := d.TriggerEmergency()
	d.OnTick(encoders.SourceRate, 1)
	d.OnTick(encoders.SourceAOutput, -1)
	_, errRate := d.SetParameter(pacing.Rate, 60)
	_, errA := d.ResetParameter(pacing.AOutput)

	// THEN
	assert.Equal(t, 80, snapshot.Rate)
	assert.True(t, errors.Is(errRate, pacing.ErrEmergency))
	assert.True(t, errors.Is(errA, pacing.ErrEmergency))
	assert.Equal(t, 80, d.Snapshot().Rate)
	assert.Equal(t, 20.0, d.Snapshot().AOutput)

	// WHEN
	mode, err := d.ExitEmergency(d.ExitMode())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, pacing.ModeVVI, mode)
	value, err := d.SetParameter(pacing.Rate, 60)
	assert.NoError(t, err)
	assert.Equal(t, 60.0, value)
}

func TestEmergency_ResyncsCursors(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	d.SetLocked(true)
	// movement while locked is dropped
	d.OnPosition(encoders.SourceRate, 85)

	// WHEN
	d.OnButtonEdge(encoders.ButtonEmergency)
	d.SetLocked(false)
	_, _ = d.ExitEmergency(pacing.ModeVVI)
	d.OnPosition(encoders.SourceRate, 84)

	// THEN the cursor was re-anchored at 85 on emergency entry
	assert.Equal(t, 79, d.Snapshot().Rate)
}

func TestSensitivity_ChannelSwitchHasNoJump(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	_, _ = d.SetActiveSensitivityControl(pacing.ChannelASensitivity)
	before := d.Snapshot().ASensitivity

	// WHEN
	_, _ = d.SetActiveSensitivityControl(pacing.ChannelVSensitivity)
	_, _ = d.SetActiveSensitivityControl(pacing.ChannelASensitivity)

	// THEN
	assert.Equal(t, before, d.Snapshot().ASensitivity)
}

func TestSensitivity_MovementOnOtherChannelIsNotReplayed(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	_, _ = d.SetActiveSensitivityControl(pacing.ChannelVSensitivity)

	// WHEN
	for i := 1; i <= 3; i++ {
		d.OnPosition(encoders.SourceSensitivity, 50+i)
	}
	_, _ = d.SetActiveSensitivityControl(pacing.ChannelASensitivity)
	d.OnPosition(encoders.SourceSensitivity, 54)

	// THEN
	snapshot := d.Snapshot()
	// 2.0 -> 1.5 -> 1.0 -> 0.8
	assert.Equal(t, 0.8, snapshot.VSensitivity)
	assert.Equal(t, 0.4, snapshot.ASensitivity)
}

func TestSensitivity_AsyncRoundTrip(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	_, _ = d.SetActiveSensitivityControl(pacing.ChannelASensitivity)
	_, _ = d.SetParameter(pacing.ASensitivity, 0.4)

	// WHEN
	d.OnTick(encoders.SourceSensitivity, 1)

	// THEN
	assert.Equal(t, 0.0, d.Snapshot().ASensitivity)
	info, _ := d.GetParameter(pacing.ASensitivity)
	assert.True(t, info.Async)

	// WHEN
	d.OnTick(encoders.SourceSensitivity, -1)

	// THEN
	assert.Equal(t, 0.4, d.Snapshot().ASensitivity)
}

func TestSensitivity_NoChannelSelected(t *testing.T) {
	// GIVEN
	d, _, publisher := createDevice()

	// WHEN
	d.OnTick(encoders.SourceSensitivity, 1)
	_, _ = d.SetActiveSensitivityControl(pacing.ChannelVSensitivity)
	d.OnTick(encoders.SourceSensitivity, 1)

	// THEN
	assert.Equal(t, 1.5, d.Snapshot().VSensitivity)
	assert.Equal(t, 0.5, d.Snapshot().ASensitivity)
	assert.Equal(t, 2, publisher.Count())
}

func TestSensitivity_AllowedInEmergency(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	d.TriggerEmergency()

	// WHEN
	channel, err := d.SetActiveSensitivityControl(pacing.ChannelASensitivity)
	value, err2 := d.SetParameter(pacing.ASensitivity, 1.0)

	// THEN
	assert.NoError(t, err)
	assert.NoError(t, err2)
	assert.Equal(t, pacing.ChannelASensitivity, channel)
	assert.Equal(t, 1.0, value)
}

func TestWatchdog_ResyncsStaleCursor(t *testing.T) {
	// GIVEN
	d, clock, _ := createDevice()
	lagBehind(d, encoders.SourceVOutput, 104)

	// WHEN
	assert.Equal(t, 0, d.CheckWatchdog())
	clock.Advance(4 * time.Second)
	resynced := d.CheckWatchdog()
	d.OnPosition(encoders.SourceVOutput, 105)

	// THEN
	assert.Equal(t, 1, resynced)
	assert.Equal(t, 11.0, d.Snapshot().VOutput)
	assert.Equal(t, int64(1), d.Statistics().WatchdogResyncs)
}

func TestResetEncoder(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	_, _ = d.SetActiveSensitivityControl(pacing.ChannelVSensitivity)
	lagBehind(d, encoders.SourceSensitivity, 55)

	// WHEN
	raw := d.ResetEncoder(encoders.SourceSensitivity)
	d.OnPosition(encoders.SourceSensitivity, 55)

	// THEN
	assert.Equal(t, 55, raw)
	assert.Equal(t, 2.0, d.Snapshot().VSensitivity)
}

func TestButtons_LockAndLatch(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()

	// WHEN
	d.OnButtonEdge(encoders.ButtonLock)
	d.OnButtonEdge(encoders.ButtonUp)

	// THEN
	assert.True(t, d.Snapshot().Locked)
	assert.Equal(t, map[string]bool{"lock": true, "up": true}, d.ConsumeButtons())
	assert.Empty(t, d.ConsumeButtons())
}

func TestRestore_NormalizesAndPins(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	snapshot := d.Snapshot()
	snapshot.Rate = 500
	snapshot.AOutput = 3.3
	snapshot.VSensitivity = 0
	snapshot.ActiveControl = pacing.Channel("bogus")

	// WHEN
	restored := d.Restore(snapshot)

	// THEN
	assert.Equal(t, 200, restored.Rate)
	assert.Equal(t, 3.5, restored.AOutput)
	assert.Equal(t, 0.0, restored.VSensitivity)
	assert.Equal(t, pacing.ChannelNone, restored.ActiveControl)

	// WHEN restoring an emergency snapshot
	snapshot.Mode = pacing.ModeDOO
	restored = d.Restore(snapshot)

	// THEN
	assert.True(t, restored.Emergency)
	assert.Equal(t, 80, restored.Rate)
	assert.Equal(t, 25.0, restored.VOutput)
}

func TestStatistics_IsCopy(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	d.SetLocked(true)
	_, _ = d.SetParameter(pacing.Rate, 100)

	// WHEN
	stats := d.Statistics()
	stats.Rejections[pacing.ReasonLocked] = 100

	// THEN
	assert.Equal(t, int64(1), d.Statistics().Rejections[pacing.ReasonLocked])
}

func TestConcurrentMutations_StayInBounds(t *testing.T) {
	// GIVEN
	d, _, _ := createDevice()
	_, _ = d.SetActiveSensitivityControl(pacing.ChannelVSensitivity)
	var wg sync.WaitGroup

	// WHEN
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				direction := 1
				if (i+worker)%3 == 0 {
					direction = -1
				}
				for _, source := range encoders.Sources {
					d.OnTick(source, direction)
				}
				_, _ = d.SetParameter(pacing.AOutput, float64(i%30))
				if i%50 == 0 {
					_, _ = d.SetActiveSensitivityControl(pacing.ChannelASensitivity)
				}
			}
		}(worker)
	}
	wg.Wait()

	// THEN
	snapshot := d.Snapshot()
	for _, p := range pacing.Parameters {
		def := pacing.MustLookup(p)
		assert.True(t, def.Contains(snapshot.Value(p)), "%s: %v", p, snapshot.Value(p))
	}
}
