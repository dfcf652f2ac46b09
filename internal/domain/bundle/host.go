package bundle

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/GriffinCanCode/playground/internal/domain/loader"
	"github.com/GriffinCanCode/playground/internal/domain/project"
	"github.com/GriffinCanCode/playground/internal/domain/resolver"
)

// buildHost answers the engine's callbacks for one build and records what
// the build touched: substituted stubs, runtime libraries and stylesheets.
type buildHost struct {
	snap     *project.Snapshot
	known    project.PathSet
	resolver resolver.Resolver
	loader   *loader.Loader

	mu        sync.Mutex
	failures  []loader.Failure
	libraries map[string]struct{}
	styles    map[string]string
}

func newBuildHost(snap *project.Snapshot, r resolver.Resolver, l *loader.Loader) *buildHost {
	return &buildHost{
		snap:      snap,
		known:     snap.KnownPaths(),
		resolver:  r,
		loader:    l,
		libraries: map[string]struct{}{},
		styles:    map[string]string{},
	}
}

func (h *buildHost) Resolve(specifier string, from resolver.Importer) resolver.Resource {
	res := h.resolver.Resolve(specifier, from, h.known)
	if res.Origin == resolver.RuntimeLibrary {
		h.mu.Lock()
		h.libraries[res.Library] = struct{}{}
		h.mu.Unlock()
	}
	return res
}

func (h *buildHost) Load(ctx context.Context, res resolver.Resource) (string, resolver.LoaderKind, string, error) {
	loaded, err := h.loader.Load(ctx, res, h.snap)
	if err != nil {
		return "", 0, "", err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if loaded.Failure != nil {
		h.failures = append(h.failures, *loaded.Failure)
	} else if loaded.Kind == resolver.StyleText && strings.HasSuffix(strings.ToLower(res.Locator), ".css") {
		h.styles[res.Locator] = loaded.Contents
	}
	return loaded.Contents, loaded.Kind, loaded.EffectiveBase, nil
}

// stubbed returns substituted modules sorted by locator
func (h *buildHost) stubbed() []loader.Failure {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := append([]loader.Failure(nil), h.failures...)
	sort.Slice(out, func(i, j int) bool { return out[i].Locator < out[j].Locator })
	return out
}

// usedLibraries returns the runtime library names the build referenced
func (h *buildHost) usedLibraries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.libraries))
	for name := range h.libraries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// stylesheets returns imported stylesheets sorted by path
func (h *buildHost) stylesheets() []Stylesheet {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Stylesheet, 0, len(h.styles))
	for p, c := range h.styles {
		out = append(out, Stylesheet{Path: p, Content: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
