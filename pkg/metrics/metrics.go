// Package metrics exposes the Prometheus instrumentation for pagescope:
// inbound API traffic, upstream Confluence requests and scope denials.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all pagescope metrics.
type Registry struct {
	// Inbound HTTP API
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec

	// Upstream Confluence requests
	UpstreamRequests *prometheus.CounterVec

	// Access-scope guard
	ScopeDenials prometheus.Counter
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagescope_api_requests_total",
		Help: "Total API requests",
	}, []string{"method", "path", "status"})

	r.APILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagescope_api_request_duration_seconds",
		Help:    "API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	r.UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagescope_upstream_requests_total",
		Help: "Total requests sent to Confluence",
	}, []string{"method", "outcome"})

	r.ScopeDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagescope_scope_denials_total",
		Help: "Write operations rejected by the parent-page scope guard",
	})

	return r
}

// RecordAPIRequest records one handled API request.
func (r *Registry) RecordAPIRequest(method, path string, status int, duration float64) {
	r.APIRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.APILatency.WithLabelValues(method, path).Observe(duration)
}

// RecordUpstreamRequest records a Confluence request that got an HTTP
// response. The outcome label is the status class, e.g. "2xx".
func (r *Registry) RecordUpstreamRequest(method string, status int) {
	r.UpstreamRequests.WithLabelValues(method, statusClass(status)).Inc()
}

// RecordUpstreamTransportError records a Confluence request that failed
// before any response arrived.
func (r *Registry) RecordUpstreamTransportError(method string) {
	r.UpstreamRequests.WithLabelValues(method, "transport_error").Inc()
}

// RecordScopeDenial records a write rejected by the scope guard.
func (r *Registry) RecordScopeDenial() {
	r.ScopeDenials.Inc()
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
