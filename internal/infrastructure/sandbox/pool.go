package sandbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrTimeout    = errors.New("sandbox acquisition timeout")
)

const defaultPoolSize = 2

// Pool hands out pre-built runtimes. Every runtime is reset before it is
// handed out again so one preview never sees another's globals.
type Pool struct {
	config Config
	idle   chan *Runtime
	size   int

	mu     sync.RWMutex
	closed bool // Protected by mu

	runs     atomic.Uint64
	timeouts atomic.Uint64
	replaced atomic.Uint64
}

// Stats describes pool occupancy and history
type Stats struct {
	Size      int    `json:"size"`
	Available int    `json:"available"`
	InUse     int    `json:"in_use"`
	Closed    bool   `json:"closed"`
	Runs      uint64 `json:"runs"`
	Timeouts  uint64 `json:"acquire_timeouts"`
	Replaced  uint64 `json:"replaced"`
}

// NewPool builds size runtimes up front; size <= 0 means two
func NewPool(config Config, size int) (*Pool, error) {
	if size <= 0 {
		size = defaultPoolSize
	}
	p := &Pool{config: config, idle: make(chan *Runtime, size), size: size}

	for range size {
		rt, err := New(config)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.idle <- rt
	}
	return p, nil
}

// Acquire takes an idle runtime, waiting at most AcquireTimeout. The wait
// holds no lock, so Close and Release are never held up by a waiter.
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}

	wait := p.config.AcquireTimeout
	if wait <= 0 {
		wait = 5 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	select {
	case rt, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return rt, nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.timeouts.Add(1)
		return nil, ErrTimeout
	}
}

// Release resets rt and puts it back. A runtime that fails to reset is
// swapped for a fresh one.
func (p *Pool) Release(rt *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return rt.Close()
	}

	if err := rt.Reset(); err != nil {
		rt.Close()
		if fresh, ferr := New(p.config); ferr == nil {
			p.replaced.Add(1)
			p.idle <- fresh
		}
		return err
	}

	select {
	case p.idle <- rt:
		return nil
	default:
		return rt.Close()
	}
}

// Execute runs req on a pooled runtime
func (p *Pool) Execute(ctx context.Context, req Request) (*Result, error) {
	rt, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(rt)

	p.runs.Add(1)
	return rt.Execute(ctx, req)
}

// Close disposes of every idle runtime; runtimes in use are closed on release
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}

	p.closed = true
	close(p.idle)
	for rt := range p.idle {
		rt.Close()
	}
	return nil
}

// Stats reports occupancy and counters
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	available := len(p.idle)
	return Stats{
		Size:      p.size,
		Available: available,
		InUse:     p.size - available,
		Closed:    p.closed,
		Runs:      p.runs.Load(),
		Timeouts:  p.timeouts.Load(),
		Replaced:  p.replaced.Load(),
	}
}
