// Package metrics holds the Prometheus collectors of the service
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Descriptor load results
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Highlight request outcomes
const (
	HighlightShown    = "shown"
	HighlightIgnored  = "ignored"
	HighlightNotReady = "not_ready"
)

// Metrics is one registry with the service collectors. Each server owns its
// own.
type Metrics struct {
	registry *prometheus.Registry

	Viewers         prometheus.Gauge
	Comparisons     prometheus.Gauge
	DescriptorLoads *prometheus.CounterVec
	ViewportChanges prometheus.Counter
	Highlights      *prometheus.CounterVec
	EventStreams    prometheus.Gauge

	httpDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// New creates the collectors. withRuntime adds the Go and process collectors.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Viewers: f.NewGauge(prometheus.GaugeOpts{
			Name: "cosmoview_viewers",
			Help: "Number of live viewer sessions.",
		}),
		Comparisons: f.NewGauge(prometheus.GaugeOpts{
			Name: "cosmoview_comparisons",
			Help: "Number of live comparison sessions.",
		}),
		DescriptorLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cosmoview_descriptor_loads_total",
			Help: "Tile source descriptor loads by result.",
		}, []string{"result"}),
		ViewportChanges: f.NewCounter(prometheus.CounterOpts{
			Name: "cosmoview_viewport_changes_total",
			Help: "Viewport change notifications emitted by all viewers.",
		}),
		Highlights: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cosmoview_highlight_requests_total",
			Help: "Region highlight requests by outcome.",
		}, []string{"outcome"}),
		EventStreams: f.NewGauge(prometheus.GaugeOpts{
			Name: "cosmoview_event_streams",
			Help: "Open websocket event streams.",
		}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "http_response_time_seconds",
			Help: "Duration of HTTP requests.",
		}, []string{"path"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Number of HTTP requests.",
		}, []string{"path"}),
	}
}

// DescriptorLoaded counts a finished descriptor fetch
func (m *Metrics) DescriptorLoaded(err error) {
	if err != nil {
		m.DescriptorLoads.WithLabelValues(ResultFailed).Inc()
		return
	}
	m.DescriptorLoads.WithLabelValues(ResultOK).Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and durations labelled with the chi
// route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				path = p
			}
		}
		m.httpDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(path).Inc()
	})
}
