package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"golang.org/x/net/html"
)

type timer struct {
	id   int64
	fn   goja.Callable
	args []goja.Value
}

// Runtime wraps a goja VM with a browser-like global scope
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	// Per-run state, reset by prepare
	result    *Result
	request   Request
	listeners map[string][]goja.Callable
	timers    []timer
	nextTimer int64
	proxies   map[*html.Node]*goja.Object
	nodes     map[*goja.Object]*html.Node
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	r := &Runtime{config: config}
	if err := r.reset(); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute runs req's scripts in order against req.DOM. Script exceptions are
// part of the result; only an interrupted run returns an error.
func (r *Runtime) Execute(ctx context.Context, req Request) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, errors.New("sandbox runtime is closed")
	}

	start := time.Now()
	if err := r.prepare(req); err != nil {
		return nil, err
	}

	// The watchdog may fire after Reset swaps r.vm, so it holds its own copy
	vm := r.vm
	done := make(chan struct{})
	defer close(done)
	go func() {
		timeout := time.NewTimer(r.config.Timeout)
		defer timeout.Stop()
		select {
		case <-timeout.C:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	err := r.run()
	r.result.Duration = time.Since(start)
	return r.result, err
}

func (r *Runtime) run() error {
	for i, s := range r.request.Scripts {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("inline-%d.js", i)
		}
		if _, err := r.vm.RunScript(name, s.Source); err != nil {
			if stop := r.handle(err, name); stop != nil {
				return stop
			}
		}
	}

	for n := 0; len(r.timers) > 0; n++ {
		if n >= r.config.MaxTimers {
			r.result.Uncaught = append(r.result.Uncaught, "timer budget exhausted")
			break
		}
		t := r.timers[0]
		r.timers = r.timers[1:]
		if _, err := t.fn(goja.Undefined(), t.args...); err != nil {
			if stop := r.handle(err, "timer"); stop != nil {
				return stop
			}
		}
	}
	return nil
}

// handle routes a script error: interrupts stop the run, exceptions are
// dispatched to window error listeners.
func (r *Runtime) handle(err error, filename string) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		r.vm.ClearInterrupt()
		return fmt.Errorf("%w: %v", ErrInterrupted, interrupted.Value())
	}

	var ex *goja.Exception
	if !errors.As(err, &ex) {
		r.result.Uncaught = append(r.result.Uncaught, err.Error())
		return nil
	}
	r.dispatchError(ex, filename)
	return nil
}

func (r *Runtime) dispatchError(ex *goja.Exception, filename string) {
	listeners := r.listeners["error"]
	if len(listeners) == 0 {
		r.result.Uncaught = append(r.result.Uncaught, ex.String())
		return
	}

	event := r.vm.NewObject()
	_ = event.Set("type", "error")
	_ = event.Set("message", ex.Value().String())
	_ = event.Set("error", ex.Value())
	_ = event.Set("filename", filename)

	for _, fn := range listeners {
		if _, err := fn(r.vm.GlobalObject(), event); err != nil {
			r.result.Uncaught = append(r.result.Uncaught, err.Error())
		}
	}
}

// prepare installs per-run globals
func (r *Runtime) prepare(req Request) error {
	r.vm.ClearInterrupt()
	r.request = req
	r.result = &Result{Console: []LogEntry{}, Messages: []interface{}{}}
	r.listeners = map[string][]goja.Callable{}
	r.timers = nil
	r.proxies = map[*html.Node]*goja.Object{}
	r.nodes = map[*goja.Object]*html.Node{}

	if req.DOM != nil {
		return r.vm.Set("document", r.document(req.DOM))
	}
	return r.vm.Set("document", goja.Undefined())
}

// reset replaces the VM and installs the static globals
func (r *Runtime) reset() error {
	vm := goja.New()
	if r.config.MaxCallStack > 0 {
		vm.SetMaxCallStackSize(r.config.MaxCallStack)
	}
	r.vm = vm

	global := vm.GlobalObject()
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	globals := map[string]interface{}{
		"window":                global,
		"self":                  global,
		"globalThis":            global,
		"addEventListener":      r.addEventListener,
		"removeEventListener":   r.removeEventListener,
		"setTimeout":            r.setTimeout,
		"setInterval":           r.setTimeout,
		"requestAnimationFrame": r.setTimeout,
		"clearTimeout":          r.clearTimeout,
		"clearInterval":         r.clearTimeout,
		"parent":                r.parent(),
		"location":              map[string]interface{}{"href": "about:srcdoc", "origin": "null"},
		"navigator":             map[string]interface{}{"userAgent": "playground-headless"},
	}
	if r.config.EnableConsole {
		console := vm.NewObject()
		for _, level := range []string{"log", "warn", "error", "info", "debug"} {
			_ = console.Set(level, r.consoleFunc(level))
		}
		globals["console"] = console
	}
	for name, v := range globals {
		if err := vm.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

// parent is the one-way channel out of the sandbox
func (r *Runtime) parent() *goja.Object {
	obj := r.vm.NewObject()
	_ = obj.Set("postMessage", func(call goja.FunctionCall) goja.Value {
		data := call.Argument(0).Export()
		r.result.Messages = append(r.result.Messages, data)
		if r.request.OnMessage != nil {
			r.request.OnMessage(data)
		}
		return goja.Undefined()
	})
	return obj
}

func (r *Runtime) addEventListener(call goja.FunctionCall) goja.Value {
	kind := call.Argument(0).String()
	if fn, ok := goja.AssertFunction(call.Argument(1)); ok {
		r.listeners[kind] = append(r.listeners[kind], fn)
	}
	return goja.Undefined()
}

// removeEventListener drops every listener of the given type. Callables
// are not comparable, so finer removal is not supported.
func (r *Runtime) removeEventListener(call goja.FunctionCall) goja.Value {
	delete(r.listeners, call.Argument(0).String())
	return goja.Undefined()
}

func (r *Runtime) setTimeout(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		return goja.Undefined()
	}
	r.nextTimer++
	var args []goja.Value
	if len(call.Arguments) > 2 {
		args = call.Arguments[2:]
	}
	r.timers = append(r.timers, timer{id: r.nextTimer, fn: fn, args: args})
	return r.vm.ToValue(r.nextTimer)
}

func (r *Runtime) clearTimeout(call goja.FunctionCall) goja.Value {
	id := call.Argument(0).ToInteger()
	for i, t := range r.timers {
		if t.id == id {
			r.timers = append(r.timers[:i], r.timers[i+1:]...)
			break
		}
	}
	return goja.Undefined()
}

func (r *Runtime) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		r.result.Console = append(r.result.Console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		return goja.Undefined()
	}
}

// Reset replaces the VM so no state leaks into the next run
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reset()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.result = nil
	r.proxies = nil
	r.nodes = nil
	return nil
}
