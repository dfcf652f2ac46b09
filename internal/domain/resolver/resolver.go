package resolver

import (
	"net/url"
	"path"
	"strings"

	"github.com/GriffinCanCode/playground/internal/domain/project"
)

// DefaultExtension is appended to extensionless virtual specifiers.
const DefaultExtension = ".jsx"

// virtualExtensions mark a bare specifier as a project file.
var virtualExtensions = []string{".jsx", ".js", ".mjs", ".cjs", ".json", ".css", ".html"}

// Default implements the playground resolution rules against a package host.
type Default struct {
	host string
}

// New creates a resolver that maps bare specifiers onto host.
func New(host string) *Default {
	return &Default{host: strings.TrimRight(host, "/")}
}

// Host returns the package host base URL.
func (r *Default) Host() string {
	return r.host
}

// Resolve maps specifier, imported from from, to a resource. Rules apply in
// order: runtime libraries, relative or project-file specifiers, then remote
// packages. A relative specifier inside a remote module stays remote and
// resolves against that module's effective base URL.
func (r *Default) Resolve(specifier string, from Importer, known project.PathSet) Resource {
	if lib, ok := LookupLibrary(specifier); ok {
		return Resource{
			Origin:  RuntimeLibrary,
			Locator: lib.URL(r.host),
			Kind:    ScriptWithMarkup,
			Package: lib.Package,
			Library: lib.Name,
		}
	}

	if isURL(specifier) {
		return Resource{Origin: Remote, Locator: specifier, Kind: KindForURL(specifier)}
	}

	if from.Origin == Remote {
		if isRelative(specifier) || strings.HasPrefix(specifier, "/") {
			base := from.Base
			if base == "" {
				base = from.Locator
			}
			u := joinURL(base, specifier)
			return Resource{Origin: Remote, Locator: u, Kind: KindForURL(u), Package: packageFromURL(r.host, u)}
		}
	} else if isRelative(specifier) || hasVirtualExtension(specifier) {
		p := virtualPath(specifier, from, known)
		return Resource{Origin: Virtual, Locator: p, Kind: KindForPath(p)}
	}

	u := r.host + "/" + strings.TrimLeft(specifier, "/")
	return Resource{Origin: Remote, Locator: u, Kind: KindForURL(u), Package: PackageName(specifier)}
}

// PackageName returns the logical package of a bare specifier: the first
// path segment, or the first two for scoped packages.
func PackageName(specifier string) string {
	if strings.HasPrefix(specifier, "@") {
		parts := strings.SplitN(specifier, "/", 3)
		if len(parts) < 2 {
			return specifier
		}
		return parts[0] + "/" + parts[1]
	}
	name, _, _ := strings.Cut(specifier, "/")
	return name
}

// KindForPath infers the loader kind of a project file from its suffix.
func KindForPath(p string) LoaderKind {
	switch strings.ToLower(path.Ext(p)) {
	case ".mjs", ".cjs":
		return PlainScript
	case ".json":
		return StructuredData
	case ".css", ".html":
		return StyleText
	default:
		return ScriptWithMarkup
	}
}

// KindForURL infers the loader kind of a remote module from its URL path.
// Anything that is not data or a stylesheet is treated as script with markup.
func KindForURL(raw string) LoaderKind {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return StructuredData
	case ".css":
		return StyleText
	default:
		return ScriptWithMarkup
	}
}

func virtualPath(specifier string, from Importer, known project.PathSet) string {
	if !isRelative(specifier) {
		return withExtension(strings.TrimLeft(specifier, "/"))
	}

	rootRelative := withExtension(stripRelative(specifier))

	dir := "."
	if from.Origin == Virtual && from.Locator != "" {
		dir = path.Dir(from.Locator)
	}
	joined := path.Join(dir, specifier)
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return rootRelative
	}
	joined = withExtension(joined)

	if !known.Has(joined) && known.Has(rootRelative) {
		return rootRelative
	}
	return joined
}

// stripRelative drops leading ./ and ../ segments.
func stripRelative(specifier string) string {
	s := specifier
	for {
		switch {
		case strings.HasPrefix(s, "./"):
			s = s[2:]
		case strings.HasPrefix(s, "../"):
			s = s[3:]
		default:
			return path.Clean(s)
		}
	}
}

func withExtension(p string) string {
	if hasVirtualExtension(p) {
		return p
	}
	return p + DefaultExtension
}

func hasVirtualExtension(s string) bool {
	lower := strings.ToLower(s)
	for _, ext := range virtualExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func isRelative(s string) bool {
	return s == "." || s == ".." || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../")
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

func joinURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// packageFromURL recovers the package name of a module served from host,
// e.g. https://unpkg.com/@scope/pkg@1.0.0/x.js -> @scope/pkg.
func packageFromURL(host, u string) string {
	rest, ok := strings.CutPrefix(u, host+"/")
	if !ok {
		return ""
	}
	name := PackageName(rest)
	if strings.HasPrefix(name, "@") {
		scope, pkg, _ := strings.Cut(name, "/")
		pkg, _, _ = strings.Cut(pkg, "@")
		return scope + "/" + pkg
	}
	name, _, _ = strings.Cut(name, "@")
	return name
}
