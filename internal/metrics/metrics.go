package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingestion sources.
const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"
)

// Metrics holds the application collectors, registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	readings     *prometheus.CounterVec
	logins       *prometheus.CounterVec
}

// New creates the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "energisense",
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "energisense",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		readings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "energisense",
				Name:      "readings_ingested_total",
				Help:      "Readings persisted, by ingestion source.",
			},
			[]string{"source"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "energisense",
				Name:      "logins_total",
				Help:      "Login attempts by outcome.",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.readings,
		m.logins,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ReadingIngested counts one persisted reading from source.
func (m *Metrics) ReadingIngested(source string) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(source).Inc()
}

// Login counts one login attempt; outcome is "success", "invalid" or "error".
func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}
