package statistics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "pace2go"
)

func Register(collector prometheus.Collector) {
	prometheus.MustRegister(collector)
}

func boolValue(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
