package statistics

import (
	"github.com/markusressel/pace2go/internal/device"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemParameter = "parameter"

type ParameterCollector struct {
	device *device.Device
	value  *prometheus.Desc
	min    *prometheus.Desc
	max    *prometheus.Desc
}

func NewParameterCollector(d *device.Device) *ParameterCollector {
	return &ParameterCollector{
		device: d,
		value: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemParameter, "value"),
			"Current value of the pacing parameter, 0 means ASYNC for sensitivities",
			[]string{"id", "unit"}, nil,
		),
		min: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemParameter, "min"),
			"Lower limit of the pacing parameter",
			[]string{"id", "unit"}, nil,
		),
		max: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemParameter, "max"),
			"Upper limit of the pacing parameter",
			[]string{"id", "unit"}, nil,
		),
	}
}

func (collector *ParameterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.value
	ch <- collector.min
	ch <- collector.max
}

// Collect implements required collect function for all prometheus collectors
func (collector *ParameterCollector) Collect(ch chan<- prometheus.Metric) {
	for _, info := range collector.device.Parameters() {
		id := string(info.Parameter)
		ch <- prometheus.MustNewConstMetric(collector.value, prometheus.GaugeValue, info.Value, id, info.Unit)
		ch <- prometheus.MustNewConstMetric(collector.min, prometheus.GaugeValue, info.Min, id, info.Unit)
		ch <- prometheus.MustNewConstMetric(collector.max, prometheus.GaugeValue, info.Max, id, info.Unit)
	}
}
