package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/bundle"
	"github.com/GriffinCanCode/playground/internal/domain/project"
	"github.com/GriffinCanCode/playground/internal/domain/session"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Builder runs builds and dependency checks
type Builder interface {
	Build(ctx context.Context, snap *project.Snapshot) *bundle.Result
	Check(snap *project.Snapshot) []string
}

// Notifier pushes events to clients watching a session
type Notifier interface {
	Publish(sid id.SessionID, event interface{})
}

// Handlers contains all HTTP handlers
type Handlers struct {
	builder  Builder
	sessions *session.Manager
	notifier Notifier
	metrics  *HandlerMetrics
	tracer   *tracing.Tracer
	health   func() gin.H
	log      *logging.Logger
	started  time.Time
}

// Options carries the optional collaborators of Handlers
type Options struct {
	Notifier Notifier
	Metrics  *HandlerMetrics
	Tracer   *tracing.Tracer
	// Health adds component details to GET /health
	Health func() gin.H
}

// NewHandlers creates a new handler set
func NewHandlers(builder Builder, sessions *session.Manager, opts Options, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	if err := RegisterValidators(); err != nil {
		log.Warn("custom validators unavailable", zap.Error(err))
	}
	return &Handlers{
		builder:  builder,
		sessions: sessions,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		health:   opts.Health,
		log:      log.Named("http"),
		started:  time.Now(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/starter", h.Starter)

	r.POST("/build", h.Build)
	r.POST("/check", h.Check)

	r.GET("/sessions", h.ListSessions)
	r.POST("/sessions", h.CreateSession)
	r.POST("/sessions/:id/run", h.RunSession)
	r.GET("/sessions/:id/preview", h.Preview)
	r.GET("/sessions/:id/error", h.SessionError)
	r.DELETE("/sessions/:id", h.DeleteSession)

	if h.metrics != nil {
		r.GET("/metrics/json", h.metrics.Stats)
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "playground",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":   "healthy",
		"uptime":   time.Since(h.started).Round(time.Second).String(),
		"sessions": len(h.sessions.List()),
	}
	if h.health != nil {
		for k, v := range h.health() {
			body[k] = v
		}
	}
	c.JSON(http.StatusOK, body)
}

// Starter returns the starter project
func (h *Handlers) Starter(c *gin.Context) {
	c.JSON(http.StatusOK, FilesRequest{Files: project.Starter()})
}

// Build bundles a project without presenting it
func (h *Handlers) Build(c *gin.Context) {
	snap, ok := h.bindSnapshot(c)
	if !ok {
		return
	}

	var res *bundle.Result
	_ = h.trace(c, "build", func(ctx context.Context) error {
		res = h.builder.Build(ctx, snap)
		return res.Err()
	})

	if !res.OK() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"build_id":    res.ID,
			"diagnostics": res.Diagnostics,
		})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Check runs only the dependency gate
func (h *Handlers) Check(c *gin.Context) {
	snap, ok := h.bindSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"missing": h.builder.Check(snap)})
}

// bindSnapshot decodes and validates a files payload
func (h *Handlers) bindSnapshot(c *gin.Context) (*project.Snapshot, bool) {
	var req FilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": describe(err)})
		return nil, false
	}
	snap, err := req.Snapshot()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return snap, true
}

func (h *Handlers) trace(c *gin.Context, name string, fn func(ctx context.Context) error, fields ...zap.Field) error {
	if h.tracer == nil {
		return fn(c.Request.Context())
	}
	return h.tracer.Trace(c.Request.Context(), name, fn, fields...)
}

// sessionError maps session errors to responses
func (h *Handlers) sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
