// Package metrics exposes Prometheus collectors for the command server.
//
// A nil *Metrics is valid and records nothing, so the server can run
// without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UnknownCommand is the label used for names missing from the registry,
// keeping label cardinality bounded by the registry size.
const UnknownCommand = "unknown"

type Metrics struct {
	// RequestsTotal counts dispatched requests by command and status
	RequestsTotal *prometheus.CounterVec

	// RequestDuration tracks handler latency
	RequestDuration *prometheus.HistogramVec

	// ActiveConnections is the number of open client connections
	ActiveConnections prometheus.Gauge

	// ConnectionsTotal counts accepted connections
	ConnectionsTotal prometheus.Counter

	// RateLimited counts requests rejected by the per-connection limiter
	RateLimited prometheus.Counter
}

// NewMetrics creates the collectors with the rcmd_ prefix and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rcmd_requests_total",
				Help: "Total requests by command and status",
			},
			[]string{"command", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rcmd_request_duration_seconds",
				Help:    "Request handling duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		ActiveConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rcmd_active_connections",
				Help: "Current number of open client connections",
			},
		),
		ConnectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rcmd_connections_total",
				Help: "Total accepted client connections",
			},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rcmd_rate_limited_total",
				Help: "Requests rejected by the per-connection rate limiter",
			},
		),
	}

	m.RequestsTotal = registerOrReuse(reg, m.RequestsTotal).(*prometheus.CounterVec)
	m.RequestDuration = registerOrReuse(reg, m.RequestDuration).(*prometheus.HistogramVec)
	m.ActiveConnections = registerOrReuse(reg, m.ActiveConnections).(prometheus.Gauge)
	m.ConnectionsTotal = registerOrReuse(reg, m.ConnectionsTotal).(prometheus.Counter)
	m.RateLimited = registerOrReuse(reg, m.RateLimited).(prometheus.Counter)

	return m
}

// registerOrReuse registers c, returning the already registered collector
// when an identical one exists. Panics on any other registration failure.
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// ObserveRequest records one dispatched request.
func (m *Metrics) ObserveRequest(command, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(command, status).Inc()
	m.RequestDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.Inc()
	m.ActiveConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.ActiveConnections.Dec()
}

func (m *Metrics) RateLimitExceeded() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
