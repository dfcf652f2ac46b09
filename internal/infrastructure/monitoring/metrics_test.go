package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserversUpdateCountersAndSnapshot(t *testing.T) {
	m := NewMetrics()

	m.BuildCompleted("success", 10*time.Millisecond)
	m.BuildCompleted("rejected", time.Millisecond)
	m.BuildCompleted("success", 20*time.Millisecond)
	m.FetchCompleted("ok", 5*time.Millisecond)
	m.FetchCompleted("cache_hit", 0)
	m.StubSubstituted()
	m.PreviewError()
	m.SessionsActive(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BuildsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("cache_hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StubsSubstituted))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveSessions))

	snap := m.Snapshot()
	assert.Equal(t, map[string]int64{"success": 2, "rejected": 1}, snap.Builds)
	assert.Equal(t, int64(1), snap.Stubs)
	assert.Equal(t, int64(1), snap.PreviewErrors)
	assert.Equal(t, int64(3), snap.ActiveSessions)

	snap.Builds["success"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Builds["success"], "snapshot is a copy")
}

func TestIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.PreviewError()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.PreviewErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PreviewErrors))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	r := gin.New()
	r.Use(Middleware(m, "/metrics"))
	r.GET("/sessions/:id/preview", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/preview", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/sessions/:id/preview", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, int64(1), m.Snapshot().TotalErrors)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "playground_http_requests_total")
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestsTotal), "scrapes are not recorded")
}

func TestStage(t *testing.T) {
	m := NewMetrics()
	d := StartStage(m, "engine_init").Done(nil)
	assert.GreaterOrEqual(t, d, time.Duration(0))
	StartStage(m, "engine_init").Done(errors.New("no wasm"))
	assert.Equal(t, 2, testutil.CollectAndCount(m.StageDuration))
}

func TestBuildLatencySummary(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, LatencySummary{}, m.BuildLatency())

	for i := 1; i <= 100; i++ {
		m.BuildCompleted("success", time.Duration(i)*time.Millisecond)
	}

	s := m.BuildLatency()
	assert.Equal(t, 100, s.Count)
	assert.InDelta(t, 50.5, s.MeanMs, 0.001)
	assert.InDelta(t, 50, s.P50Ms, 0.001)
	assert.InDelta(t, 95, s.P95Ms, 1)
	assert.InDelta(t, 100, s.MaxMs, 0.001)
	assert.Greater(t, s.StdDevMs, 0.0)
}

func TestLatencyWindowKeepsRecentSamples(t *testing.T) {
	w := newWindow()
	for i := 0; i < latencyWindow; i++ {
		w.add(time.Second)
	}
	for i := 0; i < latencyWindow; i++ {
		w.add(time.Millisecond)
	}

	s := w.summary()
	assert.Equal(t, latencyWindow, s.Count)
	assert.InDelta(t, 1, s.MaxMs, 0.001)
}
