// Package observability carries metrics events out of mindgraph's libraries.
//
// The generator, the renderers, the cache and the REST clients report
// through four hook interfaces and never import a metrics backend. All
// hooks start as no-ops; `mindgraph serve --metrics` installs [Prometheus]
// for the life of the server:
//
//	prom := observability.NewPrometheus("mindgraph")
//	defer observability.Install(prom)()
//
// Emitting an event:
//
//	start := time.Now()
//	resp, err := provider.Complete(ctx, req)
//	observability.Generation().OnRequestComplete(ctx, "mindmap", provider.Name(), time.Since(start), err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Generation Hooks
// =============================================================================

// GenerationHooks receives events from the generation orchestrator.
type GenerationHooks interface {
	// OnRequestComplete records one AI request of the given kind
	// ("mindmap" or "logic").
	OnRequestComplete(ctx context.Context, kind, provider string, duration time.Duration, err error)

	// OnGenerateComplete records a whole generation; diagram reports whether
	// a non-empty logic diagram came back.
	OnGenerateComplete(ctx context.Context, duration time.Duration, diagram bool, err error)

	// OnDocumentExtracted records an ingested document.
	OnDocumentExtracted(ctx context.Context, mime string, chars int, err error)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the renderers.
type RenderHooks interface {
	// OnRender records one drawn frame of the given kind ("mindmap" or "logic").
	OnRender(ctx context.Context, kind string, nodes int, duration time.Duration)

	// OnLayoutFallback records the layered layout falling back to the
	// built-in layouter.
	OnLayoutFallback(ctx context.Context, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnRequestComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopGenerationHooks) OnGenerateComplete(context.Context, time.Duration, bool, error) {}
func (NoopGenerationHooks) OnDocumentExtracted(context.Context, string, int, error)       {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRender(context.Context, string, int, time.Duration) {}
func (NoopRenderHooks) OnLayoutFallback(context.Context, error)              {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, error)                 {}

// =============================================================================
// Registry
// =============================================================================

type hookSet struct {
	generation GenerationHooks
	render     RenderHooks
	cache      CacheHooks
	http       HTTPHooks
}

var noopHooks = hookSet{
	generation: NoopGenerationHooks{},
	render:     NoopRenderHooks{},
	cache:      NoopCacheHooks{},
	http:       NoopHTTPHooks{},
}

var current atomic.Pointer[hookSet]

func init() { Reset() }

func load() *hookSet { return current.Load() }

// update copies the current set, applies fn and publishes the copy.
func update(fn func(*hookSet)) {
	for {
		old := current.Load()
		next := *old
		fn(&next)
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Install registers h for every hook interface it implements and returns
// a function that restores the previous hooks.
func Install(h any) (restore func()) {
	prev := *load()
	update(func(s *hookSet) {
		if g, ok := h.(GenerationHooks); ok {
			s.generation = g
		}
		if r, ok := h.(RenderHooks); ok {
			s.render = r
		}
		if c, ok := h.(CacheHooks); ok {
			s.cache = c
		}
		if x, ok := h.(HTTPHooks); ok {
			s.http = x
		}
	})
	return func() { current.Store(&prev) }
}

// SetGenerationHooks registers h. A nil h is ignored.
func SetGenerationHooks(h GenerationHooks) {
	if h != nil {
		update(func(s *hookSet) { s.generation = h })
	}
}

// SetRenderHooks registers h. A nil h is ignored.
func SetRenderHooks(h RenderHooks) {
	if h != nil {
		update(func(s *hookSet) { s.render = h })
	}
}

// SetCacheHooks registers h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks registers h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

func Generation() GenerationHooks { return load().generation }
func Render() RenderHooks         { return load().render }
func Cache() CacheHooks           { return load().cache }
func HTTP() HTTPHooks             { return load().http }

// Reset restores the no-op hooks.
func Reset() {
	set := noopHooks
	current.Store(&set)
}
