package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/domain/resolver"
)

// memoryHost serves virtual files from a map and treats runtime libraries
// as globals.
type memoryHost struct {
	files    map[string]string
	resolver *resolver.Default
}

func newMemoryHost(files map[string]string) *memoryHost {
	return &memoryHost{files: files, resolver: resolver.New("https://unpkg.com")}
}

func (h *memoryHost) Resolve(spec string, from resolver.Importer) resolver.Resource {
	known := map[string]struct{}{}
	for p := range h.files {
		known[p] = struct{}{}
	}
	return h.resolver.Resolve(spec, from, known)
}

func (h *memoryHost) Load(_ context.Context, res resolver.Resource) (string, resolver.LoaderKind, string, error) {
	switch res.Origin {
	case resolver.Virtual:
		c, ok := h.files[res.Locator]
		if !ok {
			return "", 0, "", fmt.Errorf("virtual file not found: %s", res.Locator)
		}
		return c, res.Kind, "", nil
	case resolver.RuntimeLibrary:
		if res.Library == "react/jsx-runtime" {
			return "exports.jsx = function(t, p) { return [t, p]; }; exports.jsxs = exports.jsx;", resolver.PlainScript, "", nil
		}
		return "module.exports = window.React;", resolver.PlainScript, "", nil
	default:
		return "", 0, "", errors.New("network disabled in tests")
	}
}

func readyEngine(t *testing.T) *Esbuild {
	t.Helper()
	e := NewEsbuild(nil)
	require.NoError(t, e.Init(context.Background()))
	require.Equal(t, Ready, e.State())
	return e
}

func TestInitSharedAcrossCallers(t *testing.T) {
	var runs atomic.Int32
	release := make(chan struct{})
	e := newEsbuild(func() error {
		runs.Add(1)
		<-release
		return nil
	}, nil)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.Init(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return e.State() == Initializing }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, Ready, e.State())
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestInitFailureIsTerminal(t *testing.T) {
	var runs atomic.Int32
	e := newEsbuild(func() error {
		runs.Add(1)
		return errors.New("wasm download failed")
	}, nil)

	err := e.Init(context.Background())
	require.ErrorIs(t, err, ErrEngineFailed)
	assert.Equal(t, Failed, e.State())

	assert.ErrorIs(t, e.Init(context.Background()), ErrEngineFailed)
	assert.Equal(t, int32(1), runs.Load())

	_, err = e.Compile(context.Background(), Request{Entry: "index.jsx"})
	assert.ErrorIs(t, err, ErrEngineFailed)
}

func TestInitPanicBecomesFailure(t *testing.T) {
	e := newEsbuild(func() error { panic("boom") }, nil)
	assert.ErrorIs(t, e.Init(context.Background()), ErrEngineFailed)
	assert.Equal(t, Failed, e.State())
}

func TestInitRespectsCallerContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	e := newEsbuild(func() error {
		<-release
		return nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Init(ctx), context.DeadlineExceeded)
	assert.Equal(t, Initializing, e.State())
}

func TestCompileBeforeInit(t *testing.T) {
	e := NewEsbuild(nil)
	_, err := e.Compile(context.Background(), Request{Entry: "index.jsx"})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestCompileBundlesVirtualGraph(t *testing.T) {
	e := readyEngine(t)
	host := newMemoryHost(map[string]string{
		"index.jsx": `import App from './App'; import data from './data.json'; console.log(<App />, data.greeting)`,
		"App.jsx":   `export default () => <div>hi</div>`,
		"data.json": `{"greeting": "hello"}`,
	})

	out, err := e.Compile(context.Background(), Request{
		Entry:           "index.jsx",
		Host:            host,
		JSXImportSource: "react",
		Defines:         map[string]string{"process.env.NODE_ENV": `"production"`},
	})
	require.NoError(t, err)

	assert.Contains(t, out.Code, "hi")
	assert.Contains(t, out.Code, "hello")
	assert.Contains(t, out.Code, "(() => {", "output is a self-executing function")
	assert.Contains(t, out.Metafile, "virtual:App.jsx")
	assert.Contains(t, out.Metafile, "runtime:")
}

func TestCompileReportsSyntaxErrorsVerbatim(t *testing.T) {
	e := readyEngine(t)
	host := newMemoryHost(map[string]string{
		"index.jsx": `import App from './App'; App()`,
		"App.jsx":   "export default () => {\n  return <div>\n}",
	})

	_, err := e.Compile(context.Background(), Request{Entry: "index.jsx", Host: host, JSXImportSource: "react"})
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	require.NotEmpty(t, ce.Messages)
	assert.Equal(t, "App.jsx", ce.Messages[0].File)
	assert.Positive(t, ce.Messages[0].Line)
	assert.Contains(t, err.Error(), "App.jsx:")
}

func TestCompileSurfacesHostLoadErrors(t *testing.T) {
	e := readyEngine(t)
	host := newMemoryHost(map[string]string{
		"index.jsx": `import Missing from './Missing'; Missing()`,
	})

	_, err := e.Compile(context.Background(), Request{Entry: "index.jsx", Host: host})
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "virtual file not found: Missing.jsx")
}

func TestCompileCanceled(t *testing.T) {
	e := readyEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Compile(ctx, Request{Entry: "index.jsx", Host: newMemoryHost(map[string]string{"index.jsx": "1"})})
	assert.ErrorIs(t, err, context.Canceled)
}
