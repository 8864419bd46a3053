// Package prom implements the observability hooks on Prometheus collectors.
package prom

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/procgraph/pkg/observability"
)

const namespace = "procgraph"

// Hooks records pipeline, cache and HTTP events as Prometheus metrics.
type Hooks struct {
	assemblies  *prometheus.CounterVec
	assembleDur *prometheus.HistogramVec
	graphs      prometheus.Counter
	layouts     *prometheus.CounterVec
	layoutDur   prometheus.Histogram
	links       *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	cacheOps    *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec
	requests    *prometheus.CounterVec
	requestDur  *prometheus.HistogramVec
	httpErrors  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Hooks {
	h := &Hooks{
		assemblies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assemblies_total",
			Help:      "Topology assemblies by view type and outcome",
		}, []string{"view", "outcome"}),
		assembleDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assemble_duration_seconds",
			Help:      "Wall time of topology assembly",
			Buckets:   prometheus.DefBuckets,
		}, []string{"view"}),
		graphs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphs_total",
			Help:      "Process graphs produced, black boxes included",
		}),
		layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Layout engine runs by outcome",
		}, []string{"outcome"}),
		layoutDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Wall time of a single layout engine run",
			Buckets:   prometheus.DefBuckets,
		}),
		links: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_total",
			Help:      "Inferred cross-service links by kind",
		}, []string{"kind"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Recoverable assembly failures by error code",
		}, []string{"code"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and result",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses by method, route and status",
		}, []string{"method", "route", "status"}),
		requestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP requests that failed with an error",
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		h.assemblies, h.assembleDur, h.graphs,
		h.layouts, h.layoutDur, h.links, h.diagnostics,
		h.cacheOps, h.cacheBytes,
		h.requests, h.requestDur, h.httpErrors,
	)
	return h
}

// Install registers h as the pipeline, cache and HTTP hooks.
func (h *Hooks) Install() {
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *Hooks) OnAssembleStart(context.Context, string, int) {}

func (h *Hooks) OnAssembleComplete(_ context.Context, view string, graphs int, d time.Duration, err error) {
	h.assemblies.WithLabelValues(view, outcome(err)).Inc()
	h.assembleDur.WithLabelValues(view).Observe(d.Seconds())
	h.graphs.Add(float64(graphs))
}

func (h *Hooks) OnLayoutStart(context.Context, string, string) {}

// OnLayoutComplete does not label by service: service names come from
// request bodies and would make the series unbounded.
func (h *Hooks) OnLayoutComplete(_ context.Context, _, _ string, d time.Duration, err error) {
	h.layouts.WithLabelValues(outcome(err)).Inc()
	h.layoutDur.Observe(d.Seconds())
}

func (h *Hooks) OnLinksInferred(_ context.Context, kind string, n int) {
	h.links.WithLabelValues(kind).Add(float64(n))
}

func (h *Hooks) OnDiagnostic(_ context.Context, code string) {
	h.diagnostics.WithLabelValues(code).Inc()
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *Hooks) OnRequest(context.Context, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.requests.WithLabelValues(method, route, statusClass(status)).Inc()
	h.requestDur.WithLabelValues(method, route).Observe(d.Seconds())
}

func (h *Hooks) OnError(_ context.Context, method, route string, _ error) {
	h.httpErrors.WithLabelValues(method, route).Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

var (
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.HTTPHooks     = (*Hooks)(nil)
)
