package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Batch result labels.
const (
	BatchAccepted  = "accepted"
	BatchRejected  = "rejected"
	BatchFailed    = "failed"
	BatchDuplicate = "duplicate"
)

// Event kind labels.
const (
	KindJourney = "journey"
	KindEvent   = "event"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec

	// Telemetry pipeline metrics
	BatchesTotal *prometheus.CounterVec
	EventsTotal  *prometheus.CounterVec
	BatchSize    prometheus.Histogram

	// Live feed metrics
	StreamConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telemetry_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telemetry_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		BatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_batches_total",
				Help: "Telemetry batches by outcome",
			},
			[]string{"result"},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_events_total",
				Help: "Telemetry events materialized by kind",
			},
			[]string{"kind"},
		),
		BatchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "telemetry_batch_size_events",
				Help:    "Events per accepted batch",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),

		StreamConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "telemetry_stream_connections",
				Help: "Open live feed connections",
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "telemetry_uptime_seconds",
			Help: "Seconds since service start",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records one served HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
}

// RecordBatch records a batch outcome and, when accepted, its size
func (m *Metrics) RecordBatch(result string, events int) {
	m.BatchesTotal.WithLabelValues(result).Inc()
	if result == BatchAccepted {
		m.BatchSize.Observe(float64(events))
	}
}

// RecordEvent records one materialized event
func (m *Metrics) RecordEvent(kind string) {
	m.EventsTotal.WithLabelValues(kind).Inc()
}

// Handler exposes the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
