package store

import "time"

// Metrics provides observability for store operations.
//
// Implementations record operation counts, latency, and error outcomes.
// This is optional: adapters constructed without a Metrics use the built-in
// no-op implementation, which costs nothing.
//
// Example implementations:
//   - Prometheus metrics (pkg/metrics)
//   - In-memory counters for testing
type Metrics interface {
	// ObserveOperation records one store operation with its duration and
	// outcome. The operation name is the contract method ("Get", "Put", ...).
	ObserveOperation(operation string, duration time.Duration, err error)
}

// NopMetrics returns a Metrics that discards every observation. Adapters
// use it when no collector is configured.
func NopMetrics() Metrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, time.Duration, error) {}
