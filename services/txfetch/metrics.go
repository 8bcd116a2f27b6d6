package txfetch

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusTxFetchRequests  *prometheus.CounterVec
	prometheusTxFetchCoalesced prometheus.Counter
	prometheusTxFetchCanceled  prometheus.Counter
	prometheusTxFetchFailed    *prometheus.CounterVec
	prometheusTxFetchDuration  *prometheus.HistogramVec
	prometheusTxFetchInFlight  prometheus.Gauge
	prometheusTxCacheHit       prometheus.Counter
	prometheusTxCacheMiss      prometheus.Counter
	prometheusTxCacheEvicted   prometheus.Counter
	prometheusTxFetchHTTP      *prometheus.CounterVec
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusTxFetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "txfetch",
			Name:      "requests",
			Help:      "Number of fetch requests accepted by the pipeline",
		},
		[]string{"kind"},
	)

	prometheusTxFetchCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "txfetch",
			Name:      "coalesced",
			Help:      "Number of fetch requests folded into an in-flight request for the same key",
		},
	)

	prometheusTxFetchCanceled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "txfetch",
			Name:      "canceled",
			Help:      "Number of fetch requests canceled before their result was drained",
		},
	)

	prometheusTxFetchFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "txfetch",
			Name:      "failed",
			Help:      "Number of fetch requests that completed with an error",
		},
		[]string{"kind"},
	)

	prometheusTxFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "txflow",
			Subsystem: "txfetch",
			Name:      "duration_millis",
			Help:      "Duration of fetch requests",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		},
		[]string{"kind"},
	)

	prometheusTxFetchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "txflow",
			Subsystem: "txfetch",
			Name:      "in_flight",
			Help:      "Number of fetch requests currently being executed",
		},
	)

	prometheusTxCacheHit = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "txcache",
			Name:      "hit",
			Help:      "Number of transaction cache hits",
		},
	)

	prometheusTxCacheMiss = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "txcache",
			Name:      "miss",
			Help:      "Number of transaction cache misses",
		},
	)

	prometheusTxCacheEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "txcache",
			Name:      "evicted",
			Help:      "Number of transactions evicted from the cache",
		},
	)

	prometheusTxFetchHTTP = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txflow",
			Subsystem: "txfetch",
			Name:      "http",
			Help:      "Number of HTTP requests sent to the lookup service",
		},
		[]string{"endpoint", "result"},
	)
}
