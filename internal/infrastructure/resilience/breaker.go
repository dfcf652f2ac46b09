package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrCircuitOpen means the host is considered down and calls fail fast
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests means every half-open probe slot is taken
	ErrTooManyRequests = errors.New("too many requests")
)

// State is the breaker's phase
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	}
	return "unknown"
}

// Settings configures a Breaker. Zero values take defaults in New.
type Settings struct {
	// MaxRequests is both the number of concurrent half-open probes and the
	// number of probe successes needed to close again. Default 1.
	MaxRequests uint32
	// Interval clears the counts while closed. Default 60s.
	Interval time.Duration
	// Timeout is how long the breaker stays open. Default 60s.
	Timeout time.Duration
	// ReadyToTrip is consulted after each failure while closed. Default:
	// more than five consecutive failures.
	ReadyToTrip func(counts Counts) bool
	// IsSuccessful classifies call errors; a 404 from a healthy host is a
	// success. Default: err == nil.
	IsSuccessful  func(err error) bool
	OnStateChange func(name string, from State, to State)
	Now           func() time.Time
}

// Counts are the outcomes recorded since the last reset
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) record(success bool) {
	if success {
		c.TotalSuccesses++
		c.ConsecutiveSuccesses++
		c.ConsecutiveFailures = 0
		return
	}
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Breaker guards calls to one remote host
type Breaker struct {
	name string
	cfg  Settings

	mu     sync.Mutex
	state  State
	counts Counts
	epoch  uint64    // bumped on every reset; stale outcomes are ignored
	since  time.Time // when the current state or counting window began
}

// New creates a closed breaker
func New(name string, cfg Settings) *Breaker {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.ReadyToTrip == nil {
		cfg.ReadyToTrip = func(c Counts) bool { return c.ConsecutiveFailures > 5 }
	}
	if cfg.IsSuccessful == nil {
		cfg.IsSuccessful = func(err error) bool { return err == nil }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Breaker{name: name, cfg: cfg, since: cfg.Now()}
}

// Name returns the breaker's name
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tick(b.cfg.Now())
	return b.state
}

// Counts returns the counts of the current window
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Allow reports whether a call would be admitted now. It takes no probe slot.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tick(b.cfg.Now())
	return b.gate()
}

// Execute runs fn if admitted and records its outcome. A panic in fn is
// recorded as a failure and re-raised.
func (b *Breaker) Execute(fn func() error) (err error) {
	epoch, err := b.admit()
	if err != nil {
		return err
	}

	settled := false
	defer func() {
		if !settled {
			b.settle(epoch, false)
		}
	}()

	err = fn()
	settled = true
	b.settle(epoch, b.cfg.IsSuccessful(err))
	return err
}

// Call is Execute for functions that return a value
func Call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var out T
	err := b.Execute(func() (err error) {
		out, err = fn()
		return err
	})
	return out, err
}

func (b *Breaker) gate() error {
	switch {
	case b.state == StateOpen:
		return ErrCircuitOpen
	case b.state == StateHalfOpen && b.counts.Requests >= b.cfg.MaxRequests:
		return ErrTooManyRequests
	}
	return nil
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tick(b.cfg.Now())
	if err := b.gate(); err != nil {
		return 0, err
	}
	b.counts.Requests++
	return b.epoch, nil
}

func (b *Breaker) settle(epoch uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.cfg.Now()
	b.tick(now)
	if epoch != b.epoch {
		return
	}

	b.counts.record(success)
	switch {
	case b.state == StateHalfOpen && !success:
		b.moveTo(StateOpen, now)
	case b.state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.cfg.MaxRequests:
		b.moveTo(StateClosed, now)
	case b.state == StateClosed && !success && b.cfg.ReadyToTrip(b.counts):
		b.moveTo(StateOpen, now)
	}
}

// tick applies the time-driven moves: the closed window reset and the end
// of the open period.
func (b *Breaker) tick(now time.Time) {
	switch b.state {
	case StateClosed:
		if now.Sub(b.since) > b.cfg.Interval {
			b.reset(now)
		}
	case StateOpen:
		if now.Sub(b.since) > b.cfg.Timeout {
			b.moveTo(StateHalfOpen, now)
		}
	}
}

func (b *Breaker) moveTo(state State, now time.Time) {
	if b.state == state {
		return
	}
	from := b.state
	b.state = state
	b.reset(now)

	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, state)
	}
}

func (b *Breaker) reset(now time.Time) {
	b.epoch++
	b.counts = Counts{}
	b.since = now
}
