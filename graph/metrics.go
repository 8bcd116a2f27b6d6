package graph

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusGraphNodes     prometheus.Gauge
	prometheusGraphRequests  prometheus.Counter
	prometheusGraphCanceled  prometheus.Counter
	prometheusGraphLoaded    prometheus.Counter
	prometheusGraphFailed    prometheus.Counter
	prometheusGraphMerged    prometheus.Counter
	prometheusGraphReclaimed prometheus.Counter
	prometheusGraphStale     prometheus.Counter
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusGraphNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "txflow",
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Number of visible nodes",
		},
	)

	prometheusGraphRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "graph",
			Name:      "fetch_requests",
			Help:      "Number of fetches requested by the graph",
		},
	)

	prometheusGraphCanceled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "graph",
			Name:      "fetch_canceled",
			Help:      "Number of fetches canceled because their node was removed",
		},
	)

	prometheusGraphLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "graph",
			Name:      "loaded",
			Help:      "Number of nodes loaded",
		},
	)

	prometheusGraphFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "graph",
			Name:      "failed",
			Help:      "Number of fetches that left a node failed",
		},
	)

	prometheusGraphMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "graph",
			Name:      "merged",
			Help:      "Number of spend placeholders merged into an existing node",
		},
	)

	prometheusGraphReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "graph",
			Name:      "reclaimed",
			Help:      "Number of nodes removed after they became unreachable",
		},
	)

	prometheusGraphStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "graph",
			Name:      "stale_results",
			Help:      "Number of fetch results dropped because no node was waiting for them",
		},
	)
}
