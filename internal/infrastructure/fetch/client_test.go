package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/infrastructure/resilience"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 2 * time.Second
	cfg.Retries = 0
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

func TestGetFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tiny-lib", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/tiny-lib@1.2.0/dist/index.js", http.StatusFound)
	})
	mux.HandleFunc("/tiny-lib@1.2.0/dist/index.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte("export default 42"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(testConfig(), nil)
	resp, err := c.Get(context.Background(), srv.URL+"/tiny-lib")
	require.NoError(t, err)

	assert.Equal(t, "export default 42", string(resp.Body))
	assert.Equal(t, srv.URL+"/tiny-lib@1.2.0/dist/index.js", resp.URL)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "application/javascript", resp.ContentType)
}

func TestGetNotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := testConfig()
	cfg.Breaker.ReadyToTrip = func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 1 }
	c := New(cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), srv.URL+"/lodash")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestGetRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Retries = 3
	c := New(cfg, nil)

	resp, err := c.Get(context.Background(), srv.URL+"/flaky")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(3), hits.Load())
}

func TestGetOpensCircuitOnRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Breaker.ReadyToTrip = func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 2 }
	c := New(cfg, nil)

	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), srv.URL+"/pkg")
		assert.ErrorIs(t, err, ErrStatus)
	}
	require.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := c.Get(context.Background(), srv.URL+"/pkg")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load(), "open circuit must not reach the host")
}

func TestGetRejectsOversizedBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodyBytes = 16
	c := New(cfg, nil)

	_, err := c.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestGetHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	c.SetRateLimit(0.001)

	// The first token is available; the second wait exceeds the deadline.
	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, srv.URL)
	assert.Error(t, err)
}
