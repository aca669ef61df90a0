package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	errs "github.com/matzehuels/mindgraph/pkg/errors"
)

// Prometheus implements every hook interface with metrics on a private
// registry.
type Prometheus struct {
	registry *prometheus.Registry

	aiRequests   *prometheus.CounterVec
	aiDuration   *prometheus.HistogramVec
	generations  *prometheus.CounterVec
	genDuration  prometheus.Histogram
	documents    *prometheus.CounterVec
	renders      *prometheus.CounterVec
	renderNodes  *prometheus.HistogramVec
	fallbacks    prometheus.Counter
	cacheEvents  *prometheus.CounterVec
	cacheBytes   prometheus.Counter
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheus creates the metrics under namespace.
func NewPrometheus(namespace string) *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "AI requests by kind, provider and outcome code.",
		}, []string{"kind", "provider", "code"}),
		aiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "AI request latency.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"kind", "provider"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generations by outcome code and whether a logic diagram was found.",
		}, []string{"code", "diagram"}),
		genDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "End to end generation latency.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Ingested documents by detected type and outcome code.",
		}, []string{"mime", "code"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Rendered frames by kind.",
		}, []string{"kind"}),
		renderNodes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_nodes",
			Help:      "Nodes drawn per frame.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"kind"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_fallbacks_total",
			Help:      "Logic diagram layouts that fell back to the built-in layouter.",
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache hits, misses and writes by key type.",
		}, []string{"type", "event"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_requests_total",
			Help:      "Outgoing HTTP requests by host and status.",
		}, []string{"method", "host", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_client_request_duration_seconds",
			Help:      "Outgoing HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "host"}),
	}
	p.registry.MustRegister(
		p.aiRequests, p.aiDuration, p.generations, p.genDuration, p.documents,
		p.renders, p.renderNodes, p.fallbacks, p.cacheEvents, p.cacheBytes,
		p.httpRequests, p.httpDuration,
	)
	return p
}

// Registry returns the private registry.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// outcome labels an error by its code, "ok" for nil.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if c := errs.GetCode(err); c != "" {
		return string(c)
	}
	return string(errs.ErrCodeInternal)
}

func (p *Prometheus) OnRequestComplete(_ context.Context, kind, provider string, d time.Duration, err error) {
	p.aiRequests.WithLabelValues(kind, provider, outcome(err)).Inc()
	p.aiDuration.WithLabelValues(kind, provider).Observe(d.Seconds())
}

func (p *Prometheus) OnGenerateComplete(_ context.Context, d time.Duration, diagram bool, err error) {
	label := "false"
	if diagram {
		label = "true"
	}
	p.generations.WithLabelValues(outcome(err), label).Inc()
	p.genDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnDocumentExtracted(_ context.Context, mime string, _ int, err error) {
	p.documents.WithLabelValues(mime, outcome(err)).Inc()
}

func (p *Prometheus) OnRender(_ context.Context, kind string, nodes int, _ time.Duration) {
	p.renders.WithLabelValues(kind).Inc()
	p.renderNodes.WithLabelValues(kind).Observe(float64(nodes))
}

func (p *Prometheus) OnLayoutFallback(context.Context, error) { p.fallbacks.Inc() }

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheEvents.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *Prometheus) OnResponse(_ context.Context, method, host string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, host, http.StatusText(status)).Inc()
	p.httpDuration.WithLabelValues(method, host).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, method, host string, _ error) {
	p.httpRequests.WithLabelValues(method, host, "error").Inc()
}

var (
	_ GenerationHooks = (*Prometheus)(nil)
	_ RenderHooks     = (*Prometheus)(nil)
	_ CacheHooks      = (*Prometheus)(nil)
	_ HTTPHooks       = (*Prometheus)(nil)
)
