package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// resolverMetrics contains Prometheus metrics for path resolution.
type resolverMetrics struct {
	resolutions          *prometheus.CounterVec
	distanceComputations prometheus.Counter
}

var (
	resolverMetricsInstance *resolverMetrics
	resolverMetricsOnce     sync.Once
)

// getResolverMetrics returns the singleton resolver metrics instance.
func getResolverMetrics() *resolverMetrics {
	resolverMetricsOnce.Do(func() {
		resolverMetricsInstance = &resolverMetrics{
			resolutions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "pathhint",
					Subsystem: "router",
					Name:      "resolutions_total",
					Help:      "Total number of path resolutions by result kind",
				},
				[]string{"result"},
			),
			distanceComputations: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "pathhint",
					Subsystem: "router",
					Name:      "distance_computations_total",
					Help:      "Total number of edit distance computations",
				},
			),
		}
	})
	return resolverMetricsInstance
}

func recordResolution(kind MatchKind) {
	getResolverMetrics().resolutions.WithLabelValues(kind.String()).Inc()
}

func recordDistanceComputations(n int) {
	if n > 0 {
		getResolverMetrics().distanceComputations.Add(float64(n))
	}
}
