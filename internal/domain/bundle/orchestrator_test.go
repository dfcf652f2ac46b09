package bundle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/domain/loader"
	"github.com/GriffinCanCode/playground/internal/domain/project"
	"github.com/GriffinCanCode/playground/internal/domain/resolver"
	"github.com/GriffinCanCode/playground/internal/infrastructure/engine"
	"github.com/GriffinCanCode/playground/internal/infrastructure/fetch"
)

type packageHost struct {
	*httptest.Server
	hits atomic.Int32
}

func newPackageHost(t *testing.T, modules map[string]string) *packageHost {
	t.Helper()
	h := &packageHost{}
	h.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.hits.Add(1)
		body, ok := modules[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(h.Close)
	return h
}

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) BuildCompleted(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func newOrchestrator(t *testing.T, host string, eng engine.Engine, obs Observer) *Orchestrator {
	t.Helper()
	cfg := fetch.DefaultConfig()
	cfg.Retries = 0
	l := loader.New(fetch.New(cfg, nil), loader.Options{Link: loader.LinkGlobal}, nil)
	return NewOrchestrator(eng, resolver.New(host), l, Options{PackageHost: host, Observer: obs}, nil)
}

func snapshot(t *testing.T, files map[string]string) *project.Snapshot {
	t.Helper()
	snap, err := project.NewSnapshot(files)
	require.NoError(t, err)
	return snap
}

func TestBuildSimpleProject(t *testing.T) {
	pkgs := newPackageHost(t, nil)
	obs := &recordingObserver{}
	o := newOrchestrator(t, pkgs.URL, engine.NewEsbuild(nil), obs)

	res := o.Build(context.Background(), snapshot(t, map[string]string{
		"index.jsx": "import App from './App'; console.log(App())",
		"App.jsx":   "export default () => 'hi'",
	}))

	require.True(t, res.OK(), "diagnostics: %+v", res.Diagnostics)
	assert.Empty(t, res.Diagnostics)
	assert.Contains(t, res.Artifact, "hi")
	assert.Equal(t, "index.jsx", res.Entry)
	assert.Len(t, res.Hash, 64)
	assert.Equal(t, []string{"success"}, obs.outcomes)
	assert.Zero(t, pkgs.hits.Load())
}

func TestBuildRejectsUndeclaredDependencyWithoutNetwork(t *testing.T) {
	pkgs := newPackageHost(t, map[string]string{"/lodash": "export default {}"})
	eng := engine.NewEsbuild(nil)
	obs := &recordingObserver{}
	o := newOrchestrator(t, pkgs.URL, eng, obs)

	res := o.Build(context.Background(), snapshot(t, map[string]string{
		"index.jsx":    "import _ from 'lodash'; console.log(_)",
		"package.json": `{"dependencies":{}}`,
	}))

	assert.False(t, res.OK())
	assert.Empty(t, res.Artifact)
	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, MissingDependency, d.Kind)
	assert.Equal(t, []string{"lodash"}, d.Packages)
	assert.Equal(t, "Missing dependencies in package.json: lodash", d.Message)
	assert.True(t, d.Fatal)

	assert.Zero(t, pkgs.hits.Load(), "no network before the gate passes")
	assert.Equal(t, engine.Uninitialized, eng.State(), "engine untouched")
	assert.Equal(t, []string{"rejected"}, obs.outcomes)
}

func TestBuildDeclaredRemoteDependency(t *testing.T) {
	pkgs := newPackageHost(t, map[string]string{
		"/tiny-lib": "export const shout = (s) => s.toUpperCase() + '!!'",
	})
	o := newOrchestrator(t, pkgs.URL, engine.NewEsbuild(nil), nil)

	res := o.Build(context.Background(), snapshot(t, map[string]string{
		"index.jsx":    "import { shout } from 'tiny-lib'; console.log(shout('hey'))",
		"package.json": `{"dependencies":{"tiny-lib":"1.0.0"}}`,
	}))

	require.True(t, res.OK(), "diagnostics: %+v", res.Diagnostics)
	assert.Contains(t, res.Artifact, "toUpperCase")
	require.NotNil(t, res.Summary)
	assert.Equal(t, []string{pkgs.URL + "/tiny-lib"}, res.Summary.Remote)
}

func TestBuildStubsUnavailableRemoteModule(t *testing.T) {
	pkgs := newPackageHost(t, nil)
	o := newOrchestrator(t, pkgs.URL, engine.NewEsbuild(nil), nil)

	res := o.Build(context.Background(), snapshot(t, map[string]string{
		"index.jsx":    "import Widget from 'ghost-widget'; console.log(Widget())",
		"package.json": `{"dependencies":{"ghost-widget":"1.0.0"}}`,
	}))

	require.True(t, res.OK())
	assert.Contains(t, res.Artifact, "return null")
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, ResolutionFailure, res.Diagnostics[0].Kind)
	assert.False(t, res.Diagnostics[0].Fatal)
	assert.Equal(t, pkgs.URL+"/ghost-widget", res.Diagnostics[0].Locator)
}

func TestBuildCompileFailureIsAtomic(t *testing.T) {
	o := newOrchestrator(t, "https://packages.invalid", engine.NewEsbuild(nil), nil)

	files := map[string]string{
		"index.jsx": "import App from './App'; App()",
		"App.jsx":   "export default () => {\n  return <div>\n}",
	}
	res := o.Build(context.Background(), snapshot(t, files))

	assert.False(t, res.OK())
	assert.Empty(t, res.Artifact)
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, CompileFailure, res.Diagnostics[0].Kind)
	assert.Equal(t, "App.jsx", res.Diagnostics[0].File)

	artifact, err := o.BuildArtifact(context.Background(), files)
	assert.Empty(t, artifact)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, CompileFailure, be.Kind())
	assert.Contains(t, err.Error(), "App.jsx:")
}

func TestBuildMissingVirtualFileIsResolutionFailure(t *testing.T) {
	o := newOrchestrator(t, "https://packages.invalid", engine.NewEsbuild(nil), nil)

	res := o.Build(context.Background(), snapshot(t, map[string]string{
		"index.jsx": "import Header from './Header'; Header()",
	}))

	require.False(t, res.OK())
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, ResolutionFailure, res.Diagnostics[0].Kind)
	assert.True(t, res.Diagnostics[0].Fatal)
	assert.Contains(t, res.Diagnostics[0].Message, "Header.jsx")
}

func TestBuildCollectsRuntimeScriptsAndStylesheets(t *testing.T) {
	host := "https://unpkg.com"
	o := newOrchestrator(t, host, engine.NewEsbuild(nil), nil)

	res := o.Build(context.Background(), snapshot(t, map[string]string{
		"index.jsx": `import './styles.css'
import { BrowserRouter } from 'react-router-dom'
import { createRoot } from 'react-dom/client'
createRoot(document.getElementById('root')).render(<BrowserRouter><h1>hi</h1></BrowserRouter>)`,
		"styles.css": "h1 { color: teal; }",
	}))

	require.True(t, res.OK(), "diagnostics: %+v", res.Diagnostics)
	assert.Equal(t, []string{
		host + "/react@18.3.1/umd/react.production.min.js",
		host + "/react-dom@18.3.1/umd/react-dom.production.min.js",
		host + "/react-router-dom@5.3.4/umd/react-router-dom.min.js",
	}, res.ScriptURLs)
	require.Len(t, res.Stylesheets, 1)
	assert.Equal(t, "styles.css", res.Stylesheets[0].Path)
	assert.Equal(t, "h1 { color: teal; }", res.Stylesheets[0].Content)
	assert.Contains(t, res.Artifact, "window.ReactRouterDOM", "runtime libraries link to their globals")
}

func TestBuildEntryFallback(t *testing.T) {
	o := newOrchestrator(t, "https://packages.invalid", engine.NewEsbuild(nil), nil)

	res := o.Build(context.Background(), snapshot(t, map[string]string{
		"main.js":    "console.log('from main')",
		"README.txt": "docs",
	}))

	require.True(t, res.OK(), "diagnostics: %+v", res.Diagnostics)
	assert.Equal(t, "main.js", res.Entry)
	assert.Contains(t, res.Artifact, "from main")
}

type failingEngine struct{}

func (failingEngine) Init(context.Context) error { return engine.ErrEngineFailed }
func (failingEngine) State() engine.State        { return engine.Failed }
func (failingEngine) Compile(context.Context, engine.Request) (*engine.Output, error) {
	return nil, errors.New("unreachable")
}

func TestBuildEngineFailure(t *testing.T) {
	obs := &recordingObserver{}
	o := newOrchestrator(t, "https://packages.invalid", failingEngine{}, obs)

	_, err := o.BuildArtifact(context.Background(), map[string]string{"index.jsx": "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize")
	assert.Equal(t, []string{"failed"}, obs.outcomes)
}

func TestBuildArtifactRejectsInvalidPaths(t *testing.T) {
	o := newOrchestrator(t, "https://packages.invalid", failingEngine{}, nil)

	_, err := o.BuildArtifact(context.Background(), map[string]string{"../escape.jsx": "1"})
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ResolutionFailure, be.Kind())
}

func TestBuildCanceledContext(t *testing.T) {
	o := newOrchestrator(t, "https://packages.invalid", engine.NewEsbuild(nil), nil)
	require.NoError(t, o.engine.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := o.Build(ctx, snapshot(t, map[string]string{"index.jsx": "1"}))

	require.False(t, res.OK())
	assert.Contains(t, res.Diagnostics[0].Message, "canceled")
}
