package engine

import (
	"context"
	"fmt"
	"sync"
)

// State is the engine lifecycle
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// initializer runs a setup function at most once. Every caller awaits the
// same attempt; a failed attempt is terminal.
type initializer struct {
	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
	setup func() error
}

func newInitializer(setup func() error) *initializer {
	return &initializer{setup: setup}
}

func (i *initializer) current() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// await starts initialization if needed and waits for it or for ctx
func (i *initializer) await(ctx context.Context) error {
	i.mu.Lock()
	switch i.state {
	case Ready:
		i.mu.Unlock()
		return nil
	case Failed:
		err := i.err
		i.mu.Unlock()
		return err
	case Uninitialized:
		i.state = Initializing
		i.done = make(chan struct{})
		go i.run()
	}
	done := i.done
	i.mu.Unlock()

	select {
	case <-done:
		i.mu.Lock()
		defer i.mu.Unlock()
		return i.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *initializer) run() {
	err := i.safeSetup()

	i.mu.Lock()
	defer i.mu.Unlock()
	if err != nil {
		i.state = Failed
		i.err = fmt.Errorf("%w: %v", ErrEngineFailed, err)
	} else {
		i.state = Ready
	}
	close(i.done)
}

func (i *initializer) safeSetup() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during setup: %v", r)
		}
	}()
	return i.setup()
}
