package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"tickerwire/llmgateway/pkg/gateway"
	"tickerwire/llmgateway/pkg/ledger"
	"tickerwire/llmgateway/pkg/server/middleware"
	"tickerwire/llmgateway/pkg/telemetry/health"
)

// Gateway is the subset of *gateway.Gateway the server calls.
type Gateway interface {
	Submit(ctx context.Context, req gateway.Request) gateway.Response
	SubmitBatch(ctx context.Context, reqs []gateway.Request) []gateway.Response
	Estimate(req gateway.Request) (gateway.Estimate, error)
	GetStats() gateway.StatsReport
}

// UsageSource answers daily usage queries; *ledger.Store implements it.
type UsageSource interface {
	Daily(ctx context.Context, f ledger.Filter) ([]ledger.DailyUsage, error)
}

// Config holds listener and limit settings.
type Config struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MaxBodyBytes caps request bodies. Zero means 4 MiB.
	MaxBodyBytes int64

	// MaxBatchSize caps /v1/batch items. Zero means 100.
	MaxBatchSize int

	// MetricsPath is where the metrics handler is mounted. Defaults to
	// /metrics.
	MetricsPath string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics mounts h at Config.MetricsPath.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithHealth serves readiness from checker.
func WithHealth(checker *health.Checker) Option {
	return func(s *Server) { s.health = checker }
}

// WithUsage enables /v1/usage.
func WithUsage(src UsageSource) Option {
	return func(s *Server) { s.usage = src }
}

// WithVersion sets the build information served at /version.
func WithVersion(version, commit, buildTime string) Option {
	return func(s *Server) {
		s.version = [3]string{version, commit, buildTime}
	}
}

// Server is the HTTP front end for a Gateway.
type Server struct {
	config  Config
	gateway Gateway
	logger  *slog.Logger
	metrics http.Handler
	health  *health.Checker
	usage   UsageSource
	version [3]string

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// New creates a server. Call Start to listen or Handler to embed it.
func New(cfg Config, gw Gateway, opts ...Option) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 20
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &Server{
		config:  cfg,
		gateway: gw,
		version: [3]string{"dev", "unknown", "unknown"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "server")
	if s.health == nil {
		s.health = health.New(0)
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/submit", s.handleSubmit)
	mux.HandleFunc("POST /v1/batch", s.handleBatch)
	mux.HandleFunc("POST /v1/estimate", s.handleEstimate)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /v1/usage", s.handleUsage)

	mux.HandleFunc("/healthz", s.health.LivenessHandler())
	mux.HandleFunc("/readyz", s.health.ReadinessHandler())
	mux.HandleFunc("/version", health.VersionHandler(s.version[0], s.version[1], s.version[2]))
	if s.metrics != nil {
		mux.Handle("GET "+s.config.MetricsPath, s.metrics)
	}

	var handler http.Handler = mux
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(s.logger)(handler)
	return handler
}

// Start listens on Config.ListenAddress and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server is already running")
	}
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.listener = ln
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway server", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	}
}

// Addr returns the bound address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting connections and waits for in-flight requests up
// to ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("gateway server stopped")
	return nil
}
