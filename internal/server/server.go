// Package server is the local mindgraph viewer: a single page with a topic
// box, a file picker and tabs for the mind map and the logic diagram.
//
// The viewer binds to loopback by default and keeps every generation in
// memory as a session.View. Clicking a mind map node posts a toggle and
// swaps in the re-rendered frame.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/mindgraph/pkg/generate"
	"github.com/matzehuels/mindgraph/pkg/logic"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
	"github.com/matzehuels/mindgraph/pkg/session"
)

// Generator produces diagrams; *generate.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Result, error)
}

// Extractor reads uploaded documents; *document.Extractor implements it.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// Config holds server configuration.
type Config struct {
	Addr           string
	Width, Height  int
	ViewTTL        time.Duration
	MaxViews       int
	RequestTimeout time.Duration // bounds one generation
	Metrics        http.Handler  // served at /metrics when set

	// AllowedOrigins lets pages on other local origins embed the SVG
	// endpoints, e.g. "http://localhost:*". Empty allows same-origin only.
	AllowedOrigins []string

	LogicOptions []logic.Option // extra options for logic.Render
}

// DefaultConfig returns loopback defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:8080",
		Width:          960,
		Height:         600,
		ViewTTL:        session.DefaultTTL,
		MaxViews:       session.DefaultMaxViews,
		RequestTimeout: 3 * time.Minute,
	}
}

// Server serves the viewer.
type Server struct {
	cfg        Config
	gen        Generator
	docs       Extractor
	views      session.Store
	logger     *log.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. A nil logger discards output.
func New(cfg Config, gen Generator, docs Extractor, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.ViewTTL <= 0 {
		cfg.ViewTTL = def.ViewTTL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	s := &Server{
		cfg:    cfg,
		gen:    gen,
		docs:   docs,
		views:  session.NewMemoryStore(cfg.MaxViews),
		logger: logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/", s.handleIndex)
	r.Post("/generate", s.handleGenerate)
	r.Route("/view/{id}", func(r chi.Router) {
		r.Get("/", s.handleView)
		r.Get("/mindmap.svg", s.handleMindMapSVG)
		r.Get("/logic.svg", s.handleLogicSVG)
		r.Post("/toggle/{node}", s.handleToggle)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if s.cfg.Metrics != nil {
		r.Handle("/metrics", s.cfg.Metrics)
	}
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go s.cleanupLoop(ctx)

	errc := make(chan error, 1)
	go func() { errc <- s.httpServer.ListenAndServe() }()
	s.logger.Info("viewer listening", "url", "http://"+s.cfg.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) cleanupLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = s.views.Cleanup(ctx)
		}
	}
}

func (s *Server) mindmapOptions() []mindmap.Option {
	return []mindmap.Option{mindmap.WithSize(float64(s.cfg.Width), float64(s.cfg.Height))}
}

func (s *Server) logicOptions() []logic.Option {
	opts := []logic.Option{
		logic.WithSize(float64(s.cfg.Width), float64(s.cfg.Height)),
		logic.WithLogger(s.logger),
	}
	return append(opts, s.cfg.LogicOptions...)
}

// logRequests logs one line per request. Server errors log at warn.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		logf := s.logger.Debug
		if m.Code >= http.StatusInternalServerError {
			logf = s.logger.Warn
		}
		logf("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
