package statistics

import (
	"github.com/markusressel/pace2go/internal/device"
	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemDevice = "device"

type DeviceCollector struct {
	device *device.Device

	mode            *prometheus.Desc
	locked          *prometheus.Desc
	emergency       *prometheus.Desc
	revision        *prometheus.Desc
	ticksApplied    *prometheus.Desc
	ticksDropped    *prometheus.Desc
	glitches        *prometheus.Desc
	watchdogResyncs *prometheus.Desc
	rejections      *prometheus.Desc
}

func NewDeviceCollector(d *device.Device) *DeviceCollector {
	return &DeviceCollector{
		device: d,
		mode: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemDevice, "mode"),
			"Current pacing mode",
			[]string{"name"}, nil,
		),
		locked: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemDevice, "locked"),
			"1 if the device is locked",
			nil, nil,
		),
		emergency: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemDevice, "emergency"),
			"1 if the device is in emergency mode",
			nil, nil,
		),
		revision: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemDevice, "revision"),
			"Revision of the device state, increases on every change",
			nil, nil,
		),
		ticksApplied: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemDevice, "ticks_applied_total"),
			"Number of encoder ticks that changed a parameter",
			nil, nil,
		),
		ticksDropped: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemDevice, "ticks_dropped_total"),
			"Number of encoder ticks that were rejected or had no target",
			nil, nil,
		),
		glitches: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemDevice, "glitches_total"),
			"Number of implausible encoder deltas that were discarded",
			nil, nil,
		),
		watchdogResyncs: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemDevice, "watchdog_resyncs_total"),
			"Number of encoder cursors resynchronized by the watchdog",
			nil, nil,
		),
		rejections: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemDevice, "rejections_total"),
			"Number of rejected operations by reason",
			[]string{"reason"}, nil,
		),
	}
}

func (collector *DeviceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.mode
	ch <- collector.locked
	ch <- collector.emergency
	ch <- collector.revision
	ch <- collector.ticksApplied
	ch <- collector.ticksDropped
	ch <- collector.glitches
	ch <- collector.watchdogResyncs
	ch <- collector.rejections
}

// Collect implements required collect function for all prometheus collectors
func (collector *DeviceCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := collector.device.Snapshot()
	stats := collector.device.Statistics()

	ch <- prometheus.MustNewConstMetric(collector.mode, prometheus.GaugeValue, float64(snapshot.Mode), snapshot.ModeName)
	ch <- prometheus.MustNewConstMetric(collector.locked, prometheus.GaugeValue, boolValue(snapshot.Locked))
	ch <- prometheus.MustNewConstMetric(collector.emergency, prometheus.GaugeValue, boolValue(snapshot.Emergency))
	ch <- prometheus.MustNewConstMetric(collector.revision, prometheus.GaugeValue, float64(snapshot.Revision))
	ch <- prometheus.MustNewConstMetric(collector.ticksApplied, prometheus.CounterValue, float64(stats.TicksApplied))
	ch <- prometheus.MustNewConstMetric(collector.ticksDropped, prometheus.CounterValue, float64(stats.TicksDropped))
	ch <- prometheus.MustNewConstMetric(collector.glitches, prometheus.CounterValue, float64(stats.Glitches))
	ch <- prometheus.MustNewConstMetric(collector.watchdogResyncs, prometheus.CounterValue, float64(stats.WatchdogResyncs))
	for _, reason := range pacing.Reasons {
		ch <- prometheus.MustNewConstMetric(collector.rejections, prometheus.CounterValue, float64(stats.Rejections[reason]), string(reason))
	}
}
