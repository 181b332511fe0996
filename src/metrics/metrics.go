// Package metrics exposes Prometheus instruments for refreshes, exports and the
// HTTP surface. Instruments live on a caller-supplied registerer so tests and
// multiple dashboards in one process never collide.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobdash"

// Metrics bundles every instrument.
type Metrics struct {
	registry *prometheus.Registry

	RefreshOutcomes *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	InFlight        prometheus.Gauge
	Exports         *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New registers all instruments on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RefreshOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Chart refreshes by outcome (applied, empty, stale, failed).",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of analytics endpoint requests.",
			Buckets:   prometheus.DefBuckets,
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fetch_in_flight",
			Help:      "Analytics requests currently in flight.",
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Exports by format (png, xlsx).",
		}, []string{"format"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Dashboard HTTP requests.",
		}, []string{"endpoint", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Dashboard HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method", "status"}),
	}
	reg.MustRegister(
		m.RefreshOutcomes, m.FetchDuration, m.InFlight, m.Exports, m.HTTPRequests, m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRefresh counts one refresh outcome. Safe on a nil receiver.
func (m *Metrics) RecordRefresh(outcome string) {
	if m == nil {
		return
	}
	m.RefreshOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveFetch records one request latency in seconds. Safe on a nil receiver.
func (m *Metrics) ObserveFetch(seconds float64) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(seconds)
}

// FetchStarted and FetchDone track in-flight requests. Safe on a nil receiver.
func (m *Metrics) FetchStarted() {
	if m != nil {
		m.InFlight.Inc()
	}
}

func (m *Metrics) FetchDone() {
	if m != nil {
		m.InFlight.Dec()
	}
}

// RecordExport counts one export. Safe on a nil receiver.
func (m *Metrics) RecordExport(format string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format).Inc()
}

// RecordHTTP counts and times one HTTP request. Safe on a nil receiver.
func (m *Metrics) RecordHTTP(endpoint, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(endpoint, method, status).Inc()
	m.HTTPDuration.WithLabelValues(endpoint, method, status).Observe(seconds)
}
