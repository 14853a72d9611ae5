package statistics

import (
	"github.com/markusressel/pace2go/internal/encoders"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemEncoder = "encoder"

type EncoderCollector struct {
	activity *encoders.Activity
	position *prometheus.Desc
	recent   *prometheus.Desc
	presses  *prometheus.Desc
}

func NewEncoderCollector(activity *encoders.Activity) *EncoderCollector {
	return &EncoderCollector{
		activity: activity,
		position: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemEncoder, "position"),
			"Raw position of the rotary encoder",
			[]string{"id"}, nil,
		),
		recent: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemEncoder, "recent_steps"),
			"Steps moved within the activity window",
			[]string{"id"}, nil,
		),
		presses: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemEncoder, "button_presses_total"),
			"Number of debounced button presses",
			[]string{"button"}, nil,
		),
	}
}

func (collector *EncoderCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.position
	ch <- collector.recent
	ch <- collector.presses
}

// Collect implements required collect function for all prometheus collectors
func (collector *EncoderCollector) Collect(ch chan<- prometheus.Metric) {
	for _, source := range collector.activity.Sources() {
		id := string(source.Source)
		ch <- prometheus.MustNewConstMetric(collector.position, prometheus.GaugeValue, float64(source.Position), id)
		ch <- prometheus.MustNewConstMetric(collector.recent, prometheus.GaugeValue, source.Recent, id)
	}
	presses := collector.activity.Presses()
	for _, button := range encoders.Buttons {
		ch <- prometheus.MustNewConstMetric(collector.presses, prometheus.CounterValue, float64(presses[button]), string(button))
	}
}
