// Package metrics provides Prometheus metrics for rosterd.
//
// Two modes are supported:
//   - Scrape: metrics are registered with a Prometheus registry and exposed on /metrics
//   - Push: point-in-time samples are sent to a Prometheus remote write endpoint
//     such as VictoriaMetrics
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gauge is a metric that represents a single numerical value that can go up and down.
type Gauge interface {
	Set(float64)
}

// Counter is a metric that represents a single monotonically increasing counter.
type Counter interface {
	Inc()
	// Add adds the given value to the counter. It panics if the value is negative.
	Add(float64)
}

// GaugeVec is a Gauge with labels.
type GaugeVec interface {
	With(prometheus.Labels) Gauge
}

// CounterVec is a Counter with labels.
type CounterVec interface {
	With(prometheus.Labels) Counter
}

// Registry creates and registers metrics.
type Registry interface {
	NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error)
	NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error)
}
