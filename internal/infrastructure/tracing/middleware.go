package tracing

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTPMiddleware opens one span per request, continuing a trace the client
// started through the propagation headers.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := WithRemoteParent(c.Request.Context(),
			TraceID(c.GetHeader(HeaderTraceID)), SpanID(c.GetHeader(HeaderSpanID)))
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+route)
		span.Annotate(zap.String("client_ip", c.ClientIP()))

		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		span.Status = c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			span.Fail(c.Errors.Last())
		case span.Status >= http.StatusInternalServerError:
			span.Fail(fmt.Errorf("status %d", span.Status))
		}
		tracer.Finish(span)
	}
}
