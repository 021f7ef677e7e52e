package web

import (
	"net/http"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors exported on /metrics
type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	skipped    prometheus.Counter
	leases     prometheus.Gauge
	fileEvents *prometheus.CounterVec
	lastChange *prometheus.GaugeVec
}

// NewMetrics creates collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leaseapi_lease_requests_total",
			Help: "Lease listing requests by HTTP status code.",
		}, []string{"code"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leaseapi_lines_skipped_total",
			Help: "Malformed lease lines skipped in lax mode.",
		}),
		leases: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "leaseapi_leases",
			Help: "Number of leases returned by the last successful listing.",
		}),
		fileEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leaseapi_lease_file_events_total",
			Help: "Filesystem events seen on candidate lease files.",
		}, []string{"path", "op"}),
		lastChange: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "leaseapi_lease_file_last_change_timestamp_seconds",
			Help: "Unix time of the last filesystem event on each candidate lease file.",
		}, []string{"path"}),
	}
	m.registry.MustRegister(m.requests, m.skipped, m.leases, m.fileEvents, m.lastChange)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// LeaseFileEvent counts a watcher event. It matches monitor.ChangeFunc.
func (m *Metrics) LeaseFileEvent(path string, op fsnotify.Op) {
	m.fileEvents.WithLabelValues(path, op.String()).Inc()
	m.lastChange.WithLabelValues(path).SetToCurrentTime()
}

func (m *Metrics) observeRequest(code int) {
	m.requests.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *Metrics) observeListing(count, skipped int) {
	m.leases.Set(float64(count))
	if skipped > 0 {
		m.skipped.Add(float64(skipped))
	}
}
