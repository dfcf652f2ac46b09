package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errHost = errors.New("host unreachable")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(clock *fakeClock, trip uint32) *Breaker {
	return New("package-host", Settings{
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= trip },
		Now:         clock.Now,
	})
}

func fail() error    { return errHost }
func succeed() error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		calls    []func() error
		expected State
	}{
		{"stays closed on successes", []func() error{succeed, succeed, succeed}, StateClosed},
		{"stays closed below threshold", []func() error{fail, fail, succeed, fail}, StateClosed},
		{"opens after consecutive failures", []func() error{fail, fail, fail}, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBreaker(&fakeClock{now: time.Unix(0, 0)}, 3)
			for _, call := range tt.calls {
				_ = b.Execute(call)
			}
			assert.Equal(t, tt.expected, b.State())
		})
	}
}

func TestBreakerOpenFailsFast(t *testing.T) {
	b := newTestBreaker(&fakeClock{now: time.Unix(0, 0)}, 1)
	require.ErrorIs(t, b.Execute(fail), errHost)

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var transitions []string
	b := New("package-host", Settings{
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
		Now: clock.Now,
	})

	_ = b.Execute(fail)
	assert.Equal(t, StateOpen, b.State())

	clock.Advance(31 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())
	assert.NoError(t, b.Allow())

	require.NoError(t, b.Execute(succeed))
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, b.Execute(succeed))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := newTestBreaker(clock, 1)

	_ = b.Execute(fail)
	clock.Advance(31 * time.Second)
	require.Equal(t, StateHalfOpen, b.State())

	_ = b.Execute(fail)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerHalfOpenLimitsProbes(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := newTestBreaker(clock, 1)
	_ = b.Execute(fail)
	clock.Advance(31 * time.Second)

	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(func() error {
				<-release
				return nil
			})
		}()
	}

	require.Eventually(t, func() bool { return b.Counts().Requests == 2 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, b.Execute(succeed), ErrTooManyRequests)

	close(release)
	wg.Wait()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerIntervalResetsCounts(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := newTestBreaker(clock, 3)

	_ = b.Execute(fail)
	_ = b.Execute(fail)
	assert.Equal(t, uint32(2), b.Counts().ConsecutiveFailures)

	clock.Advance(2 * time.Minute)
	_ = b.Execute(fail)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().ConsecutiveFailures)
}

func TestBreakerIsSuccessfulClassifiesErrors(t *testing.T) {
	errNotFound := errors.New("not found")
	b := New("package-host", Settings{
		ReadyToTrip:  func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errNotFound) },
	})

	err := b.Execute(func() error { return errNotFound })
	assert.ErrorIs(t, err, errNotFound)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().TotalSuccesses)
}

func TestCall(t *testing.T) {
	b := New("package-host", Settings{})

	v, err := Call(b, func() (string, error) { return "module", nil })
	require.NoError(t, err)
	assert.Equal(t, "module", v)

	_, err = Call(b, func() (int, error) { return 0, errHost })
	assert.ErrorIs(t, err, errHost)
	assert.Equal(t, uint32(2), b.Counts().Requests)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := newTestBreaker(&fakeClock{now: time.Unix(0, 0)}, 1)

	assert.Panics(t, func() {
		_ = b.Execute(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}
