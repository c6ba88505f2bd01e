package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline metrics. Registered explicitly from the composition root
// (no init()) so tests can import this package without polluting the default
// registry twice.
var (
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "corpsearch",
		Name:      "result_cache_hits_total",
		Help:      "Result cache hits",
	})

	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "corpsearch",
		Name:      "result_cache_misses_total",
		Help:      "Result cache misses",
	})

	GeocodeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "corpsearch",
		Name:      "geocode_failures_total",
		Help:      "Geocoding resolver failures",
	})

	SearchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "corpsearch",
		Name:      "search_duration_seconds",
		Help:      "End-to-end search duration in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
	})
)

// RegisterSearchMetrics registers the search pipeline metrics.
func RegisterSearchMetrics() {
	prometheus.MustRegister(CacheHits, CacheMisses, GeocodeFailures, SearchDuration)
}
