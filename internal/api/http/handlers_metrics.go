package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
)

// HandlerMetrics exposes collected metrics as JSON
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// Stats serves the current snapshot
func (hm *HandlerMetrics) Stats(c *gin.Context) {
	snap := hm.metrics.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"requests":       snap.TotalRequests,
		"errors":         snap.TotalErrors,
		"avg_latency_ms": hm.metrics.AverageLatency().Milliseconds(),
		"builds":         snap.Builds,
		"fetches":        snap.Fetches,
		"stubs":          snap.Stubs,
		"build_latency":  hm.metrics.BuildLatency(),
		"preview_errors": snap.PreviewErrors,
		"sessions":       snap.ActiveSessions,
		"ws_connections": snap.ActiveConnections,
		"uptime_seconds": int64(hm.metrics.UptimeSeconds()),
	})
}
