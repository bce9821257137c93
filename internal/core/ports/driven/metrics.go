package driven

import "time"

// Metrics receives pipeline observations. Implementations must be safe for concurrent use.
type Metrics interface {
	// ObserveIngest records one ingestion call.
	ObserveIngest(outcome string, chunks int, elapsed time.Duration)

	// ObserveResolution records one resolution call.
	ObserveResolution(resolved, unresolved int, elapsed time.Duration)

	// ObserveUpstreamError records a failed outbound call.
	ObserveUpstreamError(op string)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

// ObserveIngest implements Metrics.
func (NopMetrics) ObserveIngest(string, int, time.Duration) {}

// ObserveResolution implements Metrics.
func (NopMetrics) ObserveResolution(int, int, time.Duration) {}

// ObserveUpstreamError implements Metrics.
func (NopMetrics) ObserveUpstreamError(string) {}
