package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricsNamespace       = "hwp_transformer"
	MetricsSubsystemAPI    = "api"
	MetricsSubsystemHTTP   = "http"
	MetricsSubsystemRun    = "run"
	MetricsSubsystemObject = "object"

	RunSucceeded = "succeeded"
	RunFailed    = "failed"

	ObjectEquation = "equation"
	ObjectImage    = "image"
)

type Metrics interface {
	GetRegistry() *prometheus.Registry

	ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64)
	IncrementHTTPRequests()
	IncrementHTTPErrors()

	// ObserveRun records one finished transcription run.
	ObserveRun(status string, elapsed float64)
	// ObserveObjects records what one pass produced for an object kind.
	ObserveObjects(kind string, replaced, failed int)
}

type metrics struct {
	registry *prometheus.Registry

	apiTime *prometheus.HistogramVec

	httpRequestsTotal prometheus.Counter
	httpErrorsTotal   prometheus.Counter

	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Histogram
	objectsTotal *prometheus.CounterVec
	failedTotal  *prometheus.CounterVec
}

// NewMetrics builds a collector on its own registry.
func NewMetrics() Metrics {
	m := &metrics{}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		Namespace: MetricsNamespace,
	}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.apiTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystemAPI,
			Name:      "time_seconds",
			Help:      "Time to execute the api handler",
		},
		[]string{"handler", "method", "status_code"},
	)
	m.registry.MustRegister(m.apiTime)

	m.httpRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemHTTP,
		Name:      "requests_total",
		Help:      "The total number of http API requests.",
	})
	m.registry.MustRegister(m.httpRequestsTotal)

	m.httpErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemHTTP,
		Name:      "errors_total",
		Help:      "The total number of http API errors.",
	})
	m.registry.MustRegister(m.httpErrorsTotal)

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemRun,
		Name:      "total",
		Help:      "The total number of transcription runs by outcome.",
	}, []string{"status"})
	m.registry.MustRegister(m.runsTotal)

	m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemRun,
		Name:      "duration_seconds",
		Help:      "Time to transcribe one source.",
	})
	m.registry.MustRegister(m.runDuration)

	m.objectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemObject,
		Name:      "inserted_total",
		Help:      "The total number of equations and images inserted.",
	}, []string{"kind"})
	m.registry.MustRegister(m.objectsTotal)

	m.failedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemObject,
		Name:      "failed_total",
		Help:      "The total number of occurrences that could not be replaced.",
	}, []string{"kind"})
	m.registry.MustRegister(m.failedTotal)

	return m
}

func (m *metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *metrics) ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64) {
	if m != nil {
		m.apiTime.With(prometheus.Labels{"handler": handler, "method": method, "status_code": statusCode}).Observe(elapsed)
	}
}

func (m *metrics) IncrementHTTPRequests() {
	if m != nil {
		m.httpRequestsTotal.Inc()
	}
}

func (m *metrics) IncrementHTTPErrors() {
	if m != nil {
		m.httpErrorsTotal.Inc()
	}
}

func (m *metrics) ObserveRun(status string, elapsed float64) {
	if m != nil {
		m.runsTotal.With(prometheus.Labels{"status": status}).Inc()
		m.runDuration.Observe(elapsed)
	}
}

func (m *metrics) ObserveObjects(kind string, replaced, failed int) {
	if m != nil {
		m.objectsTotal.With(prometheus.Labels{"kind": kind}).Add(float64(replaced))
		m.failedTotal.With(prometheus.Labels{"kind": kind}).Add(float64(failed))
	}
}

type errorLogger struct {
	log *slog.Logger
}

func (el errorLogger) Println(v ...interface{}) {
	el.log.Warn("metric handler error", "detail", v)
}

// NewMetricsHandler exposes the registry in the Prometheus text format.
func NewMetricsHandler(m Metrics, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return promhttp.HandlerFor(m.GetRegistry(), promhttp.HandlerOpts{
		ErrorLog: errorLogger{log: log},
	})
}
