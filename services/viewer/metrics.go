package viewer

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusViewerRequests   *prometheus.CounterVec
	prometheusViewerClients    prometheus.Gauge
	prometheusViewerBroadcasts prometheus.Counter
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusViewerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "viewer",
			Name:      "requests",
			Help:      "Number of HTTP requests handled, by route and status",
		},
		[]string{
			"route",
			"status",
		},
	)

	prometheusViewerClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "txflow",
			Subsystem: "viewer",
			Name:      "websocket_clients",
			Help:      "Number of connected websocket clients",
		},
	)

	prometheusViewerBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "viewer",
			Name:      "broadcasts",
			Help:      "Number of views pushed to websocket clients",
		},
	)
}
