package layout

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusLayoutSteps           *prometheus.CounterVec
	prometheusLayoutStepDuration    prometheus.Histogram
	prometheusLayoutMaxDisplacement prometheus.Gauge
	prometheusLayoutBodies          prometheus.Gauge
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusLayoutSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "layout",
			Name:      "steps",
			Help:      "Number of layout iterations, by kernel",
		},
		[]string{"kernel"},
	)

	prometheusLayoutStepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "txflow",
			Subsystem: "layout",
			Name:      "step_duration_micros",
			Help:      "Duration of a layout iteration",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 16),
		},
	)

	prometheusLayoutMaxDisplacement = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "txflow",
			Subsystem: "layout",
			Name:      "max_displacement",
			Help:      "Largest displacement of the last layout iteration",
		},
	)

	prometheusLayoutBodies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "txflow",
			Subsystem: "layout",
			Name:      "bodies",
			Help:      "Number of rects in the last layout iteration",
		},
	)
}
