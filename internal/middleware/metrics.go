package middleware

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MiddlewareMetrics holds Prometheus metrics for the middleware chain.
type MiddlewareMetrics struct {
	panicsRecovered prometheus.Counter
	slowRequests    prometheus.Counter
}

var (
	middlewareMetrics     *MiddlewareMetrics
	middlewareMetricsOnce sync.Once
)

// GetMiddlewareMetrics returns the singleton middleware metrics instance.
func GetMiddlewareMetrics() *MiddlewareMetrics {
	middlewareMetricsOnce.Do(func() {
		middlewareMetrics = newMiddlewareMetrics()
	})
	return middlewareMetrics
}

func newMiddlewareMetrics() *MiddlewareMetrics {
	return &MiddlewareMetrics{
		panicsRecovered: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "registry",
				Subsystem: "middleware",
				Name:      "panics_recovered_total",
				Help:      "Total number of panics recovered",
			},
		),
		slowRequests: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "registry",
				Subsystem: "middleware",
				Name:      "slow_requests_total",
				Help:      "Total number of requests slower than the slow-request threshold",
			},
		),
	}
}
