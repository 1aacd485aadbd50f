package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mercator-hq/snippets/pkg/config"
	"mercator-hq/snippets/pkg/lifecycle"
	"mercator-hq/snippets/pkg/snippet"
	"mercator-hq/snippets/pkg/telemetry/tracing"
)

// SnippetSource looks up single snippet rows for the REST route.
type SnippetSource interface {
	Get(ctx context.Context, id int64, table string) (*snippet.Snippet, bool, error)
	Tables() snippet.Tables
}

// Server is the HTTP host of the snippet engine.
type Server struct {
	config  *config.ServerConfig
	engine  *lifecycle.Engine
	source  SnippetSource
	logger  *slog.Logger
	metrics http.Handler
	tracer  *tracing.Tracer

	metricsPath string

	httpServer   *http.Server
	listener     net.Listener
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Option configures a Server.
type Option func(*Server)

// WithSnippetSource enables the REST snippet route.
func WithSnippetSource(src SnippetSource) Option {
	return func(s *Server) { s.source = src }
}

// WithMetricsHandler serves h at path.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTracer opens a server span per request.
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithListener serves on ln instead of listening on the configured address.
func WithListener(ln net.Listener) Option {
	return func(s *Server) { s.listener = ln }
}

// NewServer creates a server for engine.
func NewServer(cfg *config.ServerConfig, engine *lifecycle.Engine, opts ...Option) *Server {
	s := &Server{
		config:       cfg,
		engine:       engine,
		logger:       slog.Default(),
		shutdownChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Info("starting snippet server", "address", s.listener.Addr().String())
			err = httpServer.Serve(s.listener)
		} else {
			s.logger.Info("starting snippet server", "address", s.config.ListenAddress)
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		return s.shutdown(context.Background())
	}
}

// Shutdown asks a running Start to drain and return.
func (s *Server) Shutdown() {
	s.mu.RLock()
	running := s.isRunning
	s.mu.RUnlock()
	if !running {
		return
	}

	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

func (s *Server) shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		s.mu.RLock()
		httpServer := s.httpServer
		s.mu.RUnlock()

		if httpServer != nil {
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("snippet server stopped")
	})

	return shutdownErr
}

// setupRoutes configures the router and middleware chain.
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	if s.tracer.Enabled() {
		r.Use(s.tracer.HTTPMiddleware)
	}
	r.Use(loggingMiddleware(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.metricsPath != "" {
		r.Method(http.MethodGet, s.metricsPath, s.metrics)
	}
	if s.source != nil {
		r.Get(s.engine.RoutePrefix()+"/{id}", s.handleSnippet)
	}
	r.HandleFunc("/*", s.handlePage)

	return r
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
