package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/GriffinCanCode/playground/internal/domain/project"
	"github.com/GriffinCanCode/playground/internal/domain/resolver"
	"github.com/GriffinCanCode/playground/internal/infrastructure/fetch"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/resilience"
)

// ErrMissingVirtual means a virtual resource is not in the snapshot
var ErrMissingVirtual = errors.New("virtual file not found")

// Loaded is the content the engine consumes for one resource
type Loaded struct {
	Kind     resolver.LoaderKind
	Contents string
	// EffectiveBase is the URL relative imports of this module resolve
	// against. Empty for virtual modules.
	EffectiveBase string
	// Failure is set when Contents is the stub substituted for a remote
	// module that could not be fetched.
	Failure *Failure
}

// Failure describes a remote fetch that was replaced by the stub module
type Failure struct {
	Locator string
	Package string
	Reason  string
}

// Fetcher downloads a URL
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Observer receives loader events, typically metrics
type Observer interface {
	FetchCompleted(outcome string, d time.Duration)
	StubSubstituted()
}

type nopObserver struct{}

func (nopObserver) FetchCompleted(string, time.Duration) {}
func (nopObserver) StubSubstituted()                     {}

// Options configures a Loader
type Options struct {
	Link     string // LinkGlobal or LinkBundle
	CacheTTL time.Duration
	Observer Observer
}

// Loader produces module contents for resolved resources. It is safe for
// concurrent use; identical concurrent remote loads share one request.
type Loader struct {
	fetcher  Fetcher
	link     string
	cache    *moduleCache
	group    singleflight.Group
	observer Observer
	log      *logging.Logger
}

// New creates a loader
func New(fetcher Fetcher, opts Options, log *logging.Logger) *Loader {
	if log == nil {
		log = logging.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Link == "" {
		opts.Link = LinkGlobal
	}
	return &Loader{
		fetcher:  fetcher,
		link:     opts.Link,
		cache:    newModuleCache(opts.CacheTTL),
		observer: opts.Observer,
		log:      log.Named("loader"),
	}
}

// Link returns the runtime library link mode
func (l *Loader) Link() string {
	return l.link
}

// Load returns the contents of res. Only a missing virtual file is an error;
// remote failures come back as the stub module with Failure set.
func (l *Loader) Load(ctx context.Context, res resolver.Resource, snap *project.Snapshot) (*Loaded, error) {
	switch res.Origin {
	case resolver.Virtual:
		content, ok := snap.Get(res.Locator)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingVirtual, res.Locator)
		}
		return &Loaded{Kind: res.Kind, Contents: content}, nil

	case resolver.RuntimeLibrary:
		return l.loadRuntime(ctx, res), nil

	default:
		return l.loadRemote(ctx, res), nil
	}
}

func (l *Loader) loadRuntime(ctx context.Context, res resolver.Resource) *Loaded {
	lib, ok := resolver.LookupLibrary(res.Library)
	if !ok {
		return l.loadRemote(ctx, res)
	}

	if l.link == LinkGlobal {
		return &Loaded{Kind: resolver.PlainScript, Contents: globalShim(lib)}
	}
	if lib.Name == "react/jsx-runtime" {
		return &Loaded{Kind: resolver.PlainScript, Contents: bundledJSXRuntime()}
	}
	loaded := l.loadRemote(ctx, res)
	if loaded.Failure == nil {
		loaded.Kind = resolver.PlainScript
	}
	return loaded
}

func (l *Loader) loadRemote(ctx context.Context, res resolver.Resource) *Loaded {
	if cached, ok := l.cache.get(res.Locator); ok {
		l.observer.FetchCompleted("cache_hit", 0)
		out := cached
		return &out
	}

	v, err, shared := l.group.Do(res.Locator, func() (interface{}, error) {
		start := time.Now()
		resp, err := l.fetcher.Get(ctx, res.Locator)
		if err != nil {
			l.observer.FetchCompleted(outcome(err), time.Since(start))
			return nil, err
		}
		l.observer.FetchCompleted("ok", time.Since(start))

		m := Loaded{
			Kind:          resolver.KindForURL(resp.URL),
			Contents:      string(resp.Body),
			EffectiveBase: resp.URL,
		}
		l.cache.put(res.Locator, m)
		return m, nil
	})
	if err != nil {
		l.observer.StubSubstituted()
		l.log.Warn("remote module unavailable, substituting stub",
			zap.String("url", res.Locator),
			zap.String("package", res.Package),
			zap.Bool("shared", shared),
			zap.Error(err))
		return &Loaded{
			Kind:     resolver.ScriptWithMarkup,
			Contents: StubModule,
			Failure: &Failure{
				Locator: res.Locator,
				Package: res.Package,
				Reason:  err.Error(),
			},
		}
	}

	m := v.(Loaded)
	return &m
}

func outcome(err error) string {
	switch {
	case errors.Is(err, fetch.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}
