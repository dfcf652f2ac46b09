package server

import (
	"context"
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/api/http"
	"github.com/GriffinCanCode/playground/internal/api/middleware"
	"github.com/GriffinCanCode/playground/internal/api/ws"
	"github.com/GriffinCanCode/playground/internal/domain/preview"
	"github.com/GriffinCanCode/playground/internal/domain/resolver"
	"github.com/GriffinCanCode/playground/internal/domain/session"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/infrastructure/tracing"
)

const (
	streamPath      = "/stream"
	metricsPath     = "/metrics"
	shutdownTimeout = 10 * time.Second
)

// Server wraps the HTTP server and dependencies
type Server struct {
	config   *config.Config
	router   *gin.Engine
	handler  nethttp.Handler
	stack    *Stack
	sessions *session.Manager
	tracer   *tracing.Tracer
	metrics  *monitoring.Metrics
	logger   *logging.Logger
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)
	return NewServerWithLogger(cfg, logger)
}

// NewServerWithLogger creates a server that logs to logger
func NewServerWithLogger(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Initializing playground server",
		zap.String("port", cfg.Server.Port),
		zap.String("package_host", cfg.Packages.Host),
		zap.String("runtime_link", cfg.Packages.RuntimeLink),
		zap.String("executor", cfg.Preview.Executor),
	)

	// Metrics first, everything below reports into them
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("playground", logger.Logger)

	stack, err := NewStack(cfg, metrics, logger)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	sessions := session.NewManager(stack.Orchestrator, stack.Executor, logger).WithObserver(metrics)
	hub := ws.NewHub()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics, metricsPath))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	s := &Server{
		config:   cfg,
		router:   router,
		stack:    stack,
		sessions: sessions,
		tracer:   tracer,
		metrics:  metrics,
		logger:   logger,
	}

	handlers := http.NewHandlers(stack.Orchestrator, sessions, http.Options{
		Notifier: hub,
		Metrics:  http.NewHandlerMetrics(metrics),
		Tracer:   tracer,
		Health:   s.health,
	}, logger)
	handlers.Register(router)

	router.GET(streamPath, ws.NewHandler(sessions, hub, metrics, logger).HandleConnection)
	router.GET(metricsPath, gin.WrapH(metrics.Handler()))

	// The stream upgrades the connection, so it bypasses compression
	gz := gzhttp.GzipHandler(router)
	s.handler = nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == streamPath {
			router.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})

	logger.Info("Server initialized successfully")
	return s, nil
}

// health reports component state for GET /health
func (s *Server) health() gin.H {
	body := gin.H{
		"engine": s.stack.Engine.State().String(),
		"package_host": gin.H{
			"url":     s.config.Packages.Host,
			"breaker": s.stack.Fetcher.BreakerState().String(),
		},
		"runtime": gin.H{
			"link":      s.config.Packages.RuntimeLink,
			"libraries": resolver.LibraryNames(),
		},
		"executor":      s.config.Preview.Executor,
		"spans_dropped": s.tracer.Dropped(),
	}
	if h, ok := s.stack.Executor.(*preview.HeadlessExecutor); ok {
		body["pool"] = h.Stats()
	}
	return body
}

// Handler returns the root HTTP handler
func (s *Server) Handler() nethttp.Handler {
	return s.handler
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases sessions, the executor and the tracer
func (s *Server) Close() error {
	s.sessions.Close()

	err := s.stack.Close()
	s.tracer.Close()
	_ = s.logger.Sync()
	return err
}
