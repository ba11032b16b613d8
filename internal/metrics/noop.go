package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NoopMetrics discards everything. Used by the CLI and in tests.
type NoopMetrics struct{}

func NewNoopMetrics() Metrics {
	return &NoopMetrics{}
}

func (m *NoopMetrics) GetRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func (m *NoopMetrics) ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64) {}

func (m *NoopMetrics) IncrementHTTPRequests() {}

func (m *NoopMetrics) IncrementHTTPErrors() {}

func (m *NoopMetrics) ObserveRun(status string, elapsed float64) {}

func (m *NoopMetrics) ObserveObjects(kind string, replaced, failed int) {}
