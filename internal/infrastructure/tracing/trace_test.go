package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTracer(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return New("playground", zap.New(core)), logs
}

func TestChildSpansShareTrace(t *testing.T) {
	tracer, _ := newTracer(t)
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "run")
	child, childCtx := tracer.StartSpan(ctx, "build")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)

	trace, span := FromContext(childCtx)
	assert.Equal(t, parent.TraceID, trace)
	assert.Equal(t, child.SpanID, span)
}

func TestTraceLogsSpans(t *testing.T) {
	tracer, logs := newTracer(t)

	boom := errors.New("boom")
	err := tracer.Trace(context.Background(), "build", func(ctx context.Context) error {
		trace, _ := FromContext(ctx)
		assert.NotEmpty(t, trace)
		return boom
	}, zap.String("session_id", "sess_1"))
	assert.ErrorIs(t, err, boom)
	require.NoError(t, tracer.Trace(context.Background(), "check", func(context.Context) error { return nil }))

	tracer.Close()
	tracer.Finish(&Span{Name: "late"})
	assert.Equal(t, uint64(1), tracer.Dropped())

	require.Equal(t, 2, logs.Len())
	failed := logs.All()[0]
	assert.Equal(t, "span failed", failed.Message)
	assert.Equal(t, "sess_1", failed.ContextMap()["session_id"])
	assert.Equal(t, "span finished", logs.All()[1].Message)
}

func TestCloseIsIdempotent(t *testing.T) {
	tracer, _ := newTracer(t)
	tracer.Close()
	tracer.Close()
}

func TestHTTPMiddlewareContinuesClientTrace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newTracer(t)

	var seen TraceID
	r := gin.New()
	r.Use(HTTPMiddleware(tracer))
	r.GET("/health", func(c *gin.Context) {
		seen, _ = FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	r.GET("/broken", func(c *gin.Context) {
		c.Status(http.StatusServiceUnavailable)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderTraceID, "trace-from-editor")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, TraceID("trace-from-editor"), seen)
	assert.Equal(t, "trace-from-editor", w.Header().Get(HeaderTraceID))
	assert.NotEmpty(t, w.Header().Get(HeaderSpanID))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))

	tracer.Close()
	require.Equal(t, 2, logs.Len())
	ok := logs.All()[0].ContextMap()
	assert.Equal(t, "GET /health", ok["operation"])
	assert.Equal(t, int64(204), ok["status"])
	assert.Equal(t, "span failed", logs.All()[1].Message)
}
