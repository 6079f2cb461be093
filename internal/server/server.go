// Package server exposes the stippling pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz      liveness and build version
//	POST /v1/stipple   raw image body in, one rendered artifact out
//
// Query parameters of /v1/stipple mirror the relax command flags: points,
// passes, damping, polarity, seed, seeding, raster, cells, delaunay, image,
// radius, scale and format. Every response carries an X-Run-ID header that
// also tags the run's log lines.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stippler/pkg/pipeline"
)

// Defaults for Config fields left zero.
const (
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 16 << 20
	DefaultTimeout      = 2 * time.Minute
	DefaultMaxPoints    = 20000
	DefaultMaxPasses    = 1000
)

// Config configures a Server.
type Config struct {
	// Addr is the listen address.
	Addr string

	// MaxBodyBytes caps the uploaded image size.
	MaxBodyBytes int64

	// Timeout bounds one request, relaxation included.
	Timeout time.Duration

	// MaxPoints and MaxPasses bound the work one request may ask for.
	MaxPoints int
	MaxPasses int
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxPoints <= 0 {
		c.MaxPoints = DefaultMaxPoints
	}
	if c.MaxPasses <= 0 {
		c.MaxPasses = DefaultMaxPasses
	}
}

// Server serves the HTTP API. It is safe for concurrent use.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	cfg    Config
}

// New creates a server around runner.
func New(runner *pipeline.Runner, logger *log.Logger, cfg Config) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, logger: logger, cfg: cfg}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Timeout))
		r.Post("/stipple", s.handleStipple)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// logRequests logs one line per request at info level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"run", ww.Header().Get(HeaderRunID),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}
