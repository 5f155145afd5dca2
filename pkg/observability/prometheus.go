package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements every hook interface on its own registry.
type Prometheus struct {
	LayoutTotal    *prometheus.CounterVec
	LayoutDuration *prometheus.HistogramVec
	RenderTotal    *prometheus.CounterVec
	CacheEvents    *prometheus.CounterVec
	CacheSetBytes  *prometheus.HistogramVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewPrometheus creates the metrics on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		LayoutTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathwaygraph_layout_total",
				Help: "Total number of layout passes",
			},
			[]string{"engine", "status"},
		),
		LayoutDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pathwaygraph_layout_duration_seconds",
				Help:    "Layout pass latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"engine"},
		),
		RenderTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathwaygraph_render_total",
				Help: "Total number of renders per format",
			},
			[]string{"format", "status"},
		),
		CacheEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathwaygraph_cache_events_total",
				Help: "Cache hits, misses and writes",
			},
			[]string{"type", "event"},
		),
		CacheSetBytes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pathwaygraph_cache_entry_size_bytes",
				Help:    "Size of cache writes in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"type"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathwaygraph_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pathwaygraph_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Registry returns the underlying Prometheus registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Register installs p as the layout, cache and HTTP hooks.
func (p *Prometheus) Register() {
	SetLayoutHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (p *Prometheus) OnLayoutStart(context.Context, string, int) {}

func (p *Prometheus) OnLayoutComplete(_ context.Context, engine string, d time.Duration, err error) {
	p.LayoutTotal.WithLabelValues(engine, status(err)).Inc()
	p.LayoutDuration.WithLabelValues(engine).Observe(d.Seconds())
}

func (p *Prometheus) OnRenderStart(context.Context, []string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, formats []string, _ time.Duration, err error) {
	for _, f := range formats {
		p.RenderTotal.WithLabelValues(f, status(err)).Inc()
	}
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheEvents.WithLabelValues(keyType, "set").Inc()
	p.CacheSetBytes.WithLabelValues(keyType).Observe(float64(size))
}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	p.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ LayoutHooks = (*Prometheus)(nil)
	_ CacheHooks  = (*Prometheus)(nil)
	_ HTTPHooks   = (*Prometheus)(nil)
)
