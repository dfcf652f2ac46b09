package bundle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/deps"
	"github.com/GriffinCanCode/playground/internal/domain/loader"
	"github.com/GriffinCanCode/playground/internal/domain/project"
	"github.com/GriffinCanCode/playground/internal/domain/resolver"
	"github.com/GriffinCanCode/playground/internal/infrastructure/engine"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// JSXImportSource is the package the automatic JSX transform imports from
const JSXImportSource = "react"

// Defines are substituted into every build
var Defines = map[string]string{
	"process.env.NODE_ENV": `"production"`,
	"global":               "window",
}

// baseLibraries are always script-tagged in global link mode
var baseLibraries = []string{"react", "react-dom"}

// Observer receives build events, typically metrics
type Observer interface {
	BuildCompleted(outcome string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) BuildCompleted(string, time.Duration) {}

// Options configures an Orchestrator
type Options struct {
	PackageHost string
	Minify      bool
	Observer    Observer
}

// Orchestrator runs the pre-flight dependency check and the engine for a
// snapshot. Builds are serialized on one engine.
type Orchestrator struct {
	engine   engine.Engine
	resolver resolver.Resolver
	loader   *loader.Loader
	opts     Options
	log      *logging.Logger
	mu       sync.Mutex
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(e engine.Engine, r resolver.Resolver, l *loader.Loader, opts Options, log *logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Orchestrator{
		engine:   e,
		resolver: r,
		loader:   l,
		opts:     opts,
		log:      log.Named("bundle"),
	}
}

// BuildArtifact bundles files and returns the artifact, or an error whose
// message describes the failure. It is the contract UI hosts consume.
func (o *Orchestrator) BuildArtifact(ctx context.Context, files map[string]string) (string, error) {
	snap, err := project.NewSnapshot(files)
	if err != nil {
		return "", &BuildError{Diagnostics: []Diagnostic{{
			Kind:    ResolutionFailure,
			Message: err.Error(),
			Fatal:   true,
		}}}
	}
	res := o.Build(ctx, snap)
	if err := res.Err(); err != nil {
		return "", err
	}
	return res.Artifact, nil
}

// Check runs only the dependency gate
func (o *Orchestrator) Check(snap *project.Snapshot) []string {
	return deps.Check(snap, snap.Manifest())
}

// Build bundles snap. It never returns an error: every failure is a fatal
// diagnostic on the result.
func (o *Orchestrator) Build(ctx context.Context, snap *project.Snapshot) *Result {
	start := time.Now()
	res := &Result{ID: id.NewBuildID()}
	log := o.log.ForBuild(res.ID)

	outcome := o.build(ctx, snap, res, log)

	res.Duration = time.Since(start)
	o.opts.Observer.BuildCompleted(outcome, res.Duration)
	log.Info("build finished",
		zap.String("outcome", outcome),
		zap.Int("files", snap.Len()),
		zap.Int("diagnostics", len(res.Diagnostics)),
		zap.Int("bytes", len(res.Artifact)),
		zap.Duration("duration", res.Duration))
	return res
}

func (o *Orchestrator) build(ctx context.Context, snap *project.Snapshot, res *Result, log *logging.Logger) string {
	if missing := o.Check(snap); len(missing) > 0 {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:     MissingDependency,
			Message:  "Missing dependencies in package.json: " + strings.Join(missing, ", "),
			Fatal:    true,
			Packages: missing,
		})
		return "rejected"
	}

	entry, err := snap.Entry()
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{Kind: ResolutionFailure, Message: err.Error(), Fatal: true})
		return "failed"
	}
	res.Entry = entry

	if err := o.engine.Init(ctx); err != nil {
		return o.fail(res, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return o.fail(res, err)
	}

	host := newBuildHost(snap, o.resolver, o.loader)
	out, err := o.engine.Compile(ctx, engine.Request{
		Entry:           entry,
		Host:            host,
		Defines:         Defines,
		JSXImportSource: JSXImportSource,
		Minify:          o.opts.Minify,
	})
	if err != nil {
		return o.fail(res, err)
	}

	for _, f := range host.stubbed() {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:    ResolutionFailure,
			Message: fmt.Sprintf("Could not load %s (%s); using an empty module", f.Locator, f.Reason),
			Locator: f.Locator,
		})
	}
	for _, w := range out.Warnings {
		log.Debug("engine warning", zap.String("message", w.String()))
	}

	if m, err := ParseMetafile(out.Metafile); err != nil {
		log.Warn("metafile unreadable", zap.Error(err))
	} else {
		res.Summary = Summarize(m)
	}

	res.Artifact = out.Code
	res.Hash = utils.DefaultHasher().HashString(out.Code)
	res.Stylesheets = host.stylesheets()
	if o.loader.Link() == loader.LinkGlobal {
		res.ScriptURLs = resolver.ScriptURLs(o.opts.PackageHost, append(host.usedLibraries(), baseLibraries...))
	}
	return "success"
}

// fail records err as fatal diagnostics and returns the outcome label
func (o *Orchestrator) fail(res *Result, err error) string {
	var ce *engine.CompileError
	switch {
	case errors.As(err, &ce):
		for _, m := range ce.Messages {
			kind := CompileFailure
			if strings.Contains(m.Text, loader.ErrMissingVirtual.Error()) {
				kind = ResolutionFailure
			}
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind:    kind,
				Message: m.String(),
				Fatal:   true,
				File:    m.File,
				Line:    m.Line,
				Column:  m.Column,
			})
		}
		return "failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		res.Diagnostics = append(res.Diagnostics, Diagnostic{Kind: CompileFailure, Message: "build canceled: " + err.Error(), Fatal: true})
		return "canceled"
	default:
		res.Diagnostics = append(res.Diagnostics, Diagnostic{Kind: CompileFailure, Message: err.Error(), Fatal: true})
		return "failed"
	}
}
