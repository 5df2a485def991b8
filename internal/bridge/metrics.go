package bridge

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// bridgeMetrics holds Prometheus metrics for the bridge.
type bridgeMetrics struct {
	guardRejected   *prometheus.CounterVec
	handlerFailures *prometheus.CounterVec

	poolWorkers    prometheus.Gauge
	poolInFlight   prometheus.Gauge
	poolQueueDepth prometheus.Gauge
}

var (
	metricsInstance *bridgeMetrics
	metricsOnce     sync.Once
)

func getBridgeMetrics() *bridgeMetrics {
	metricsOnce.Do(func() {
		metricsInstance = newBridgeMetrics()
	})
	return metricsInstance
}

func newBridgeMetrics() *bridgeMetrics {
	return &bridgeMetrics{
		guardRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "registry",
				Subsystem: "bridge",
				Name:      "content_length_rejected_total",
				Help:      "Total number of requests rejected by the Content-Length guard",
			},
			[]string{"reason"},
		),
		handlerFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "registry",
				Subsystem: "bridge",
				Name:      "handler_failures_total",
				Help:      "Total number of handler invocations converted to a generic server error",
			},
			[]string{"kind"},
		),
		poolWorkers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "registry",
				Subsystem: "bridge",
				Name:      "pool_workers",
				Help:      "Number of blocking pool workers",
			},
		),
		poolInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "registry",
				Subsystem: "bridge",
				Name:      "pool_in_flight",
				Help:      "Number of handler invocations currently executing",
			},
		),
		poolQueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "registry",
				Subsystem: "bridge",
				Name:      "pool_queue_depth",
				Help:      "Number of tasks waiting for a blocking pool worker",
			},
		),
	}
}

// Failure kinds for the handler_failures metric.
const (
	failureKindError    = "handler_error"
	failureKindPanic    = "panic"
	failureKindDispatch = "dispatch"
	failureKindBodyRead = "body_read"
)
