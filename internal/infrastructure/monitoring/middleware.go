package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request count, latency and sizes per route template.
// Routes listed in skip, typically the scrape endpoint, are not recorded.
func Middleware(metrics *Metrics, skip ...string) gin.HandlerFunc {
	ignored := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		ignored[route] = struct{}{}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := ignored[route]; ok {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		start := time.Now()
		c.Next()

		metrics.RecordHTTPRequest(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
			max(c.Request.ContentLength, 0),
			int64(max(c.Writer.Size(), 0)),
		)
	}
}

// Stage times one pipeline stage such as engine startup
type Stage struct {
	name    string
	start   time.Time
	metrics *Metrics
}

// StartStage begins timing a stage
func StartStage(metrics *Metrics, name string) *Stage {
	return &Stage{name: name, start: time.Now(), metrics: metrics}
}

// Done records the stage as "success" or "error" and returns its duration
func (s *Stage) Done(err error) time.Duration {
	status := "success"
	if err != nil {
		status = "error"
	}
	d := time.Since(s.start)
	s.metrics.RecordStage(s.name, status, d)
	return d
}
