package preview

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/resolver"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/sandbox"
)

//go:embed doubles/*.js
var doubles embed.FS

// doubleFiles maps a runtime library global to its headless stand-in
var doubleFiles = map[string]string{
	"React":          "doubles/react.js",
	"ReactDOM":       "doubles/react-dom.js",
	"ReactRouterDOM": "doubles/react-router-dom.js",
}

// HeadlessExecutor runs documents in pooled goja runtimes against a parsed
// DOM. Runtime library script tags load small doubles that render element
// trees to markup, so no network access is needed for the preview itself.
type HeadlessExecutor struct {
	pool *sandbox.Pool
	log  *logging.Logger
}

// NewHeadlessExecutor creates an executor backed by size runtimes
func NewHeadlessExecutor(cfg sandbox.Config, size int, log *logging.Logger) (*HeadlessExecutor, error) {
	if log == nil {
		log = logging.NewNop()
	}
	pool, err := sandbox.NewPool(cfg, size)
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox pool: %w", err)
	}
	return &HeadlessExecutor{pool: pool, log: log.Named("headless")}, nil
}

// Present implements Executor
func (e *HeadlessExecutor) Present(ctx context.Context, document string, post func(Message)) (*Presentation, error) {
	start := time.Now()
	dom, err := sandbox.ParseDOM(document)
	if err != nil {
		return nil, fmt.Errorf("failed to parse preview document: %w", err)
	}

	p := &Presentation{Errors: []string{}}
	emit := collect(p, post)

	scripts, skipped := e.scripts(dom)
	p.Skipped = skipped

	res, err := e.pool.Execute(ctx, sandbox.Request{
		Scripts: scripts,
		DOM:     dom,
		OnMessage: func(data interface{}) {
			if m, ok := ParseMessage(data); ok {
				emit(m)
			}
		},
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	switch {
	case errors.Is(err, sandbox.ErrInterrupted):
		emit(Message{Type: MessageTypeError, Message: fmt.Sprintf("preview stopped: %v", err)})
	case err != nil:
		return nil, err
	}

	if res != nil {
		for _, u := range res.Uncaught {
			emit(Message{Type: MessageTypeError, Message: u})
		}
		for _, c := range res.Console {
			p.Console = append(p.Console, c.Level+": "+c.Message)
		}
	}
	p.Rendered = dom.Render()
	p.Duration = time.Since(start)

	e.log.Debug("headless preview finished",
		zap.Int("scripts", len(scripts)),
		zap.Int("errors", len(p.Errors)),
		zap.Strings("skipped", skipped),
		zap.Duration("duration", p.Duration))
	return p, nil
}

// scripts lists the document's scripts in order. Runtime library tags are
// replaced by their doubles; other external sources are skipped.
func (e *HeadlessExecutor) scripts(dom *sandbox.DOM) ([]sandbox.Script, []string) {
	var (
		out     []sandbox.Script
		skipped []string
		loaded  = map[string]bool{}
	)

	for i, n := range dom.Query("script") {
		src, ok := dom.Attr(n, "src")
		if !ok {
			out = append(out, sandbox.Script{Name: fmt.Sprintf("inline-%d.js", i), Source: dom.InnerText(n)})
			continue
		}

		lib, ok := libraryFor(src)
		if !ok {
			skipped = append(skipped, src)
			continue
		}
		if loaded[lib.Global] {
			continue
		}
		source, err := doubles.ReadFile(doubleFiles[lib.Global])
		if err != nil {
			skipped = append(skipped, src)
			continue
		}
		loaded[lib.Global] = true
		out = append(out, sandbox.Script{Name: lib.Path, Source: string(source)})
	}
	return out, skipped
}

// libraryFor matches a script src against the pinned runtime builds
func libraryFor(src string) (resolver.Library, bool) {
	path := src
	if u, err := url.Parse(src); err == nil {
		path = u.Path
	}
	for _, lib := range resolver.Libraries {
		if _, ok := doubleFiles[lib.Global]; ok && strings.HasSuffix(path, lib.Path) {
			return lib, true
		}
	}
	return resolver.Library{}, false
}

// Stats reports sandbox pool occupancy
func (e *HeadlessExecutor) Stats() sandbox.Stats {
	return e.pool.Stats()
}

// Close releases the sandbox pool
func (e *HeadlessExecutor) Close() error {
	return e.pool.Close()
}
