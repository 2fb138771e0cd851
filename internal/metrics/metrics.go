// Package metrics provides Prometheus metrics for the npmmeta server.
//
// [Metrics] implements the observability hook interfaces, so registering it
// with [Metrics.Install] is all the instrumentation the fetcher, the store
// and the registry client need.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/npmmeta/pkg/observability"
)

const namespace = "npmmeta"

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	// Upstream fetch metrics
	fetchesTotal   *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	coalescedTotal prometheus.Counter

	// Store metrics
	cacheEvents *prometheus.CounterVec

	// Registry HTTP metrics
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamErrors   *prometheus.CounterVec

	// Served HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates a Metrics with its own registry, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		fetchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_fetches_total",
			Help:      "Total number of upstream manifest fetches",
		}, []string{"outcome"}),

		fetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Upstream manifest fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		coalescedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coalesced_requests_total",
			Help:      "Total resolutions that joined an in-flight fetch",
		}),

		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Manifest store events by type",
		}, []string{"event"}),

		upstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_requests_total",
			Help:      "Total HTTP requests to the npm registry",
		}, []string{"host", "status"}),

		upstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_request_duration_seconds",
			Help:      "npm registry request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),

		upstreamErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_errors_total",
			Help:      "npm registry requests that failed without a response",
		}, []string{"host"}),

		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		}, []string{"route", "status"}),

		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Install registers m as the global fetch, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetFetchHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// OnFetchStart implements observability.FetchHooks.
func (m *Metrics) OnFetchStart(context.Context, string) {}

// OnFetchComplete implements observability.FetchHooks.
func (m *Metrics) OnFetchComplete(_ context.Context, _ string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.fetchesTotal.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(duration.Seconds())
}

// OnCoalesced implements observability.FetchHooks.
func (m *Metrics) OnCoalesced(context.Context, string) {
	m.coalescedTotal.Inc()
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, kind string) {
	m.cacheEvents.WithLabelValues("hit_" + kind).Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(context.Context) {
	m.cacheEvents.WithLabelValues("miss").Inc()
}

// OnCacheExpired implements observability.CacheHooks.
func (m *Metrics) OnCacheExpired(_ context.Context, kind string) {
	m.cacheEvents.WithLabelValues("expired_" + kind).Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, kind string) {
	m.cacheEvents.WithLabelValues("set_" + kind).Inc()
}

// OnRequest implements observability.HTTPHooks.
func (m *Metrics) OnRequest(context.Context, string, string, string) {}

// OnResponse implements observability.HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, statusCode int, duration time.Duration) {
	m.upstreamRequests.WithLabelValues(host, strconv.Itoa(statusCode)).Inc()
	m.upstreamDuration.WithLabelValues(host).Observe(duration.Seconds())
}

// OnError implements observability.HTTPHooks.
func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.upstreamErrors.WithLabelValues(host).Inc()
}
