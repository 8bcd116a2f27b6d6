package simulation

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusSimulationFrames      prometheus.Counter
	prometheusSimulationSteps       prometheus.Counter
	prometheusSimulationTransitions *prometheus.CounterVec
	prometheusSimulationCommands    prometheus.Counter
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusSimulationFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "simulation",
			Name:      "frames",
			Help:      "Number of frames ticked",
		},
	)

	prometheusSimulationSteps = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "simulation",
			Name:      "layout_steps",
			Help:      "Number of frames that ran a layout step",
		},
	)

	prometheusSimulationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "simulation",
			Name:      "transitions",
			Help:      "Number of driver state changes, by state entered",
		},
		[]string{"state"},
	)

	prometheusSimulationCommands = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "simulation",
			Name:      "commands",
			Help:      "Number of commands run on the session loop",
		},
	)
}
