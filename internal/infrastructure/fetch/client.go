package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/resilience"
)

var (
	// ErrNotFound means the host answered 404 for the module
	ErrNotFound = errors.New("module not found")
	// ErrStatus wraps any other non-2xx answer
	ErrStatus = errors.New("unexpected status")
	// ErrTooLarge means the body exceeded MaxBodyBytes
	ErrTooLarge = errors.New("module too large")
)

const userAgent = "playground-bundler/1.0"

// Config configures the fetch client
type Config struct {
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RPS          float64 // 0 means unlimited
	MaxBodyBytes int
	Breaker      resilience.Settings
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Timeout:      15 * time.Second,
		Retries:      2,
		RetryWaitMin: 250 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		MaxBodyBytes: 8 << 20,
		Breaker: resilience.Settings{
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 8 ||
					(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.6)
			},
		},
	}
}

// Response is a successfully downloaded module
type Response struct {
	Body        []byte
	URL         string // final URL after redirects
	Status      int
	ContentType string
	Duration    time.Duration
}

// Client wraps resty with rate limiting and a circuit breaker
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	maxBody int
	log     *logging.Logger
	mu      sync.RWMutex
}

// New creates a fetch client
func New(cfg Config, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}

	// Pooled transport from retryablehttp; retries are driven by resty using
	// retryablehttp's policy.
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTransport(retryClient.HTTPClient.Transport).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(cfg.RetryWaitMin).
		SetRetryMaxWaitTime(cfg.RetryWaitMax).
		SetHeader("User-Agent", userAgent).
		AddRetryCondition(retryPolicy)

	breakerSettings := cfg.Breaker
	breakerSettings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrTooLarge) || errors.Is(err, context.Canceled)
	}
	userHook := breakerSettings.OnStateChange
	breakerSettings.OnStateChange = func(name string, from, to resilience.State) {
		log.Warn("package host breaker changed state",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
		if userHook != nil {
			userHook(name, from, to)
		}
	}

	c := &Client{
		resty:   restyClient,
		breaker: resilience.New("package-host", breakerSettings),
		maxBody: cfg.MaxBodyBytes,
		log:     log.Named("fetch"),
	}
	c.SetRateLimit(cfg.RPS)
	return c
}

// SetRateLimit configures outbound requests per second; <= 0 disables it
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// SetHeader adds a default header
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetHeader(key, value)
}

// Get downloads url. Any non-2xx answer, transport error or open circuit is
// returned as an error.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	c.mu.RLock()
	limiter := c.limiter
	req := c.resty.R()
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	resp, err := resilience.Call(c.breaker, func() (*Response, error) {
		return c.do(ctx, req, url)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, req *resty.Request, url string) (*Response, error) {
	resp, err := req.SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		return nil, ErrNotFound
	case code < 200 || code > 299:
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status())
	}

	body := resp.Body()
	if c.maxBody > 0 && len(body) > c.maxBody {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(body))
	}

	final := url
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		final = resp.RawResponse.Request.URL.String()
	}

	c.log.Debug("fetched module",
		zap.String("url", url),
		zap.String("final_url", final),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", resp.Time()))

	return &Response{
		Body:        body,
		URL:         final,
		Status:      resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Duration:    resp.Time(),
	}, nil
}

// BreakerState returns the package host breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// BreakerCounts returns the package host breaker statistics
func (c *Client) BreakerCounts() resilience.Counts {
	return c.breaker.Counts()
}

func retryPolicy(r *resty.Response, err error) bool {
	ctx := context.Background()
	var raw *http.Response
	if r != nil {
		raw = r.RawResponse
		if r.Request != nil {
			ctx = r.Request.Context()
		}
	}
	if raw == nil && err == nil {
		return false
	}
	retry, _ := retryablehttp.DefaultRetryPolicy(ctx, raw, err)
	return retry
}
