package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/resolver"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
)

// Namespaces the engine files resources under
const (
	NamespaceVirtual = "virtual"
	NamespaceRuntime = "runtime"
	NamespaceRemote  = "remote"
)

const pluginName = "playground"

// Esbuild is the esbuild-backed engine
type Esbuild struct {
	init *initializer
	log  *logging.Logger
}

// NewEsbuild creates an engine whose initialization is a warm-up transform
func NewEsbuild(log *logging.Logger) *Esbuild {
	return newEsbuild(warmup, log)
}

func newEsbuild(setup func() error, log *logging.Logger) *Esbuild {
	if log == nil {
		log = logging.NewNop()
	}
	return &Esbuild{
		init: newInitializer(setup),
		log:  log.Named("engine"),
	}
}

// Init initializes the engine once; concurrent callers share the attempt
func (e *Esbuild) Init(ctx context.Context) error {
	err := e.init.await(ctx)
	if err != nil && errors.Is(err, ErrEngineFailed) {
		e.log.Error("engine initialization failed", zap.Error(err))
	}
	return err
}

// State returns the lifecycle state
func (e *Esbuild) State() State {
	return e.init.current()
}

// Compile bundles req.Entry and everything it reaches into one IIFE
func (e *Esbuild) Compile(ctx context.Context, req Request) (*Output, error) {
	switch e.init.current() {
	case Ready:
	case Failed:
		return nil, e.init.await(ctx)
	default:
		return nil, ErrNotReady
	}

	opts := api.BuildOptions{
		EntryPoints:       []string{req.Entry},
		Bundle:            true,
		Write:             false,
		Format:            api.FormatIIFE,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		JSX:               api.JSXAutomatic,
		JSXImportSource:   req.JSXImportSource,
		Define:            req.Defines,
		Metafile:          true,
		LogLevel:          api.LogLevelSilent,
		MinifyWhitespace:  req.Minify,
		MinifyIdentifiers: req.Minify,
		MinifySyntax:      req.Minify,
		Plugins:           []api.Plugin{hostPlugin(ctx, req.Host)},
	}

	bctx, cerr := api.Context(opts)
	if cerr != nil {
		return nil, &CompileError{Messages: convert(cerr.Errors)}
	}
	defer bctx.Dispose()

	stop := context.AfterFunc(ctx, bctx.Cancel)
	defer stop()

	result := bctx.Rebuild()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(result.Errors) > 0 {
		return nil, &CompileError{Messages: convert(result.Errors)}
	}
	if len(result.OutputFiles) == 0 {
		return nil, &CompileError{Messages: []Message{{Text: "engine produced no output"}}}
	}

	return &Output{
		Code:     string(result.OutputFiles[0].Contents),
		Metafile: result.Metafile,
		Warnings: convert(result.Warnings),
	}, nil
}

func hostPlugin(ctx context.Context, host Host) api.Plugin {
	return api.Plugin{
		Name: pluginName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				var res resolver.Resource
				if args.Kind == api.ResolveEntryPoint {
					res = resolver.Resource{Origin: resolver.Virtual, Locator: args.Path, Kind: resolver.KindForPath(args.Path)}
				} else {
					from, _ := args.PluginData.(resolver.Importer)
					res = host.Resolve(args.Path, from)
				}
				return api.OnResolveResult{
					Path:       res.Locator,
					Namespace:  namespace(res.Origin),
					PluginData: res,
				}, nil
			})

			build.OnLoad(api.OnLoadOptions{Filter: ".*"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				res, ok := args.PluginData.(resolver.Resource)
				if !ok {
					return api.OnLoadResult{}, fmt.Errorf("module %s was not resolved by the playground", args.Path)
				}
				contents, kind, base, err := host.Load(ctx, res)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				return api.OnLoadResult{
					Contents:   &contents,
					Loader:     loaderFor(kind),
					PluginData: resolver.ImporterOf(res, base),
				}, nil
			})
		},
	}
}

func namespace(o resolver.Origin) string {
	switch o {
	case resolver.Virtual:
		return NamespaceVirtual
	case resolver.RuntimeLibrary:
		return NamespaceRuntime
	default:
		return NamespaceRemote
	}
}

func loaderFor(kind resolver.LoaderKind) api.Loader {
	switch kind {
	case resolver.PlainScript:
		return api.LoaderJS
	case resolver.StructuredData:
		return api.LoaderJSON
	case resolver.StyleText:
		return api.LoaderText
	default:
		return api.LoaderJSX
	}
}

func convert(msgs []api.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		msg := Message{Text: m.Text}
		if m.Location != nil {
			msg.File = strings.TrimPrefix(m.Location.File, NamespaceVirtual+":")
			msg.Line = m.Location.Line
			msg.Column = m.Location.Column
		}
		out = append(out, msg)
	}
	return out
}

func warmup() error {
	res := api.Transform("export default () => <div>ready</div>", api.TransformOptions{
		Loader: api.LoaderJSX,
		JSX:    api.JSXAutomatic,
	})
	if len(res.Errors) > 0 {
		return errors.New(res.Errors[0].Text)
	}
	return nil
}
