package statistics

import (
	"testing"
	"time"

	"github.com/markusressel/pace2go/internal/device"
	"github.com/markusressel/pace2go/internal/encoders"
	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func createDevice() *device.Device {
	return device.New(device.Options{
		GlitchThreshold: 10,
		WatchdogTimeout: 3 * time.Second,
	})
}

func TestParameterCollector_Collect(t *testing.T) {
	// GIVEN
	d := createDevice()
	collector := NewParameterCollector(d)

	// WHEN
	count := testutil.CollectAndCount(collector)

	// THEN
	assert.Equal(t, 3*len(pacing.Parameters), count)
	assert.Equal(t, len(pacing.Parameters), testutil.CollectAndCount(collector, "pace2go_parameter_value"))
}

func TestDeviceCollector_Rejections(t *testing.T) {
	// GIVEN
	d := createDevice()
	d.SetLocked(true)
	_, err := d.SetParameter(pacing.Rate, 100)
	assert.Error(t, err)
	collector := NewDeviceCollector(d)

	// WHEN
	registry := prometheus.NewPedanticRegistry()
	registry.MustRegister(collector)
	families, err := registry.Gather()

	// THEN
	assert.NoError(t, err)
	var locked float64
	for _, family := range families {
		if family.GetName() != "pace2go_device_rejections_total" {
			continue
		}
		assert.Len(t, family.GetMetric(), len(pacing.Reasons))
		for _, metric := range family.GetMetric() {
			if metric.GetLabel()[0].GetValue() == string(pacing.ReasonLocked) {
				locked = metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, locked)
}

func TestDeviceCollector_Emergency(t *testing.T) {
	// GIVEN
	d := createDevice()
	d.TriggerEmergency()
	collector := NewDeviceCollector(d)

	// WHEN
	registry := prometheus.NewPedanticRegistry()
	registry.MustRegister(collector)
	families, err := registry.Gather()

	// THEN
	assert.NoError(t, err)
	values := map[string]float64{}
	for _, family := range families {
		metric := family.GetMetric()[0]
		if metric.GetGauge() != nil {
			values[family.GetName()] = metric.GetGauge().GetValue()
		}
	}
	assert.Equal(t, 1.0, values["pace2go_device_emergency"])
	assert.Equal(t, float64(pacing.ModeDOO), values["pace2go_device_mode"])
	assert.Equal(t, 0.0, values["pace2go_device_locked"])
}

func TestEncoderCollector_Collect(t *testing.T) {
	// GIVEN
	d := createDevice()
	activity := encoders.NewActivity(d, 5, nil)
	activity.OnPosition(encoders.SourceRate, 2)
	activity.OnButtonEdge(encoders.ButtonUp)
	collector := NewEncoderCollector(activity)

	// WHEN
	count := testutil.CollectAndCount(collector)

	// THEN
	assert.Equal(t, 2*len(encoders.Sources)+len(encoders.Buttons), count)
	assert.Equal(t, 81, d.Snapshot().Rate)
}
