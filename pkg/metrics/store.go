package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shelf-storage/shelf/pkg/store"
)

// storeCollectors holds the metric families shared by every store instance.
// They are registered once; individual stores are told apart by the "store"
// label so that a registry with several named stores stays panic-free.
type storeCollectors struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

var (
	collectors     *storeCollectors
	collectorsOnce sync.Once
)

func getCollectors() *storeCollectors {
	collectorsOnce.Do(func() {
		reg := GetRegistry()

		collectors = &storeCollectors{
			operationsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "shelf_store_operations_total",
					Help: "Total number of store operations by store, operation and status",
				},
				[]string{"store", "operation", "status"},
			),
			operationDuration: promauto.With(reg).NewHistogramVec(
				prometheus.HistogramOpts{
					Name: "shelf_store_operation_duration_seconds",
					Help: "Duration of store operations in seconds",
					Buckets: []float64{
						0.001, // 1ms
						0.005, // 5ms
						0.01,  // 10ms
						0.025, // 25ms
						0.05,  // 50ms
						0.1,   // 100ms
						0.25,  // 250ms
						0.5,   // 500ms
						1.0,   // 1s
						2.5,   // 2.5s
						5.0,   // 5s
					},
				},
				[]string{"store", "operation"},
			),
		}
	})
	return collectors
}

// storeMetrics is the Prometheus implementation of the store.Metrics
// interface for one named store.
type storeMetrics struct {
	name       string
	collectors *storeCollectors
}

// NewStoreMetrics creates a Prometheus-backed store.Metrics instance for the
// store with the given name.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// causes stores to use their built-in no-op implementation.
func NewStoreMetrics(name string) store.Metrics {
	if !IsEnabled() {
		return nil
	}

	return &storeMetrics{
		name:       name,
		collectors: getCollectors(),
	}
}

// ObserveOperation records one completed store operation.
func (m *storeMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.collectors.operationsTotal.WithLabelValues(m.name, operation, status).Inc()
	m.collectors.operationDuration.WithLabelValues(m.name, operation).Observe(duration.Seconds())
}
