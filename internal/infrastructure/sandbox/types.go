package sandbox

import (
	"errors"
	"time"
)

var (
	// ErrInterrupted means the run was stopped by its timeout or context
	ErrInterrupted = errors.New("sandbox execution interrupted")
)

// Config defines sandbox configuration
type Config struct {
	Timeout        time.Duration // Execution timeout per run
	MaxCallStack   int           // Maximum JS call stack depth
	MaxTimers      int           // Timer callbacks drained after the scripts
	AcquireTimeout time.Duration // How long Pool.Acquire waits for a free runtime
	EnableConsole  bool          // Capture console.log/warn/error
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Timeout:        3 * time.Second,
		MaxCallStack:   1024,
		MaxTimers:      1000,
		AcquireTimeout: 5 * time.Second,
		EnableConsole:  true,
	}
}

// Script is one inline script to run
type Script struct {
	Name   string
	Source string
}

// Request is one headless run
type Request struct {
	Scripts []Script
	DOM     *DOM
	// OnMessage receives every value posted through parent.postMessage, in
	// order, on the executing goroutine
	OnMessage func(data interface{})
}

// Result holds execution result
type Result struct {
	Console  []LogEntry    // Console output
	Messages []interface{} // Values posted to the parent
	Uncaught []string      // Exceptions nobody listened for
	Duration time.Duration // Execution time
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, warn, error, info
	Message string    // Log message
	Time    time.Time // Timestamp
}
