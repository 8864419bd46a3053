// Package server exposes the assembly pipeline over HTTP.
//
// Routes:
//
//	POST /v1/assemble        topology request → model JSON
//	POST /v1/hull            {points, options, radius} → {polygon, path}
//	GET  /v1/models          stored model summaries
//	GET  /v1/models/{id}     one stored model
//	GET  /healthz            build info
//	GET  /metrics            Prometheus metrics, when a gatherer is set
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/procgraph/pkg/assembly"
	"github.com/matzehuels/procgraph/pkg/graph"
	"github.com/matzehuels/procgraph/pkg/observability/prom"
	"github.com/matzehuels/procgraph/pkg/pipeline"
	"github.com/matzehuels/procgraph/pkg/store"
)

// Options configures a Server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	// Defaults applied to every assemble request.
	Tiling    assembly.TilingOptions
	Groups    graph.GroupOptions
	Algorithm string

	// Gatherer backs /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
}

// Server serves the HTTP API.
type Server struct {
	router *chi.Mux
	srv    *http.Server
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	opts   Options
}

// New creates a Server. A nil st disables the model routes' storage and
// answers them with 404.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger, opts Options) *Server {
	const (
		defaultReadTimeout  = 30 * time.Second
		defaultWriteTimeout = 2 * time.Minute
		defaultMaxBody      = 64 << 20
	)
	if logger == nil {
		logger = log.Default()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBody
	}
	if opts.Groups == (graph.GroupOptions{}) {
		opts.Groups = graph.DefaultGroupOptions()
	}

	s := &Server{runner: runner, store: st, logger: logger, opts: opts}
	s.router = s.routes()
	s.srv = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", prom.Handler(s.opts.Gatherer))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/assemble", s.handleAssemble)
		r.Post("/hull", s.handleHull)
		r.Get("/models", s.handleListModels)
		r.Get("/models/{id}", s.handleGetModel)
	})
	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()
	s.logger.Info("server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
