package resolver

import "github.com/GriffinCanCode/playground/internal/domain/project"

// Origin says where a resource comes from.
type Origin int

const (
	Virtual Origin = iota
	RuntimeLibrary
	Remote
)

// String returns the string representation of the origin
func (o Origin) String() string {
	switch o {
	case Virtual:
		return "virtual"
	case RuntimeLibrary:
		return "runtime"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// LoaderKind selects how the engine interprets a resource's contents.
type LoaderKind int

const (
	ScriptWithMarkup LoaderKind = iota
	PlainScript
	StructuredData
	StyleText
)

// String returns the string representation of the loader kind
func (k LoaderKind) String() string {
	switch k {
	case ScriptWithMarkup:
		return "jsx"
	case PlainScript:
		return "js"
	case StructuredData:
		return "json"
	case StyleText:
		return "text"
	default:
		return "unknown"
	}
}

// Resource is the fully qualified result of resolving one import specifier.
type Resource struct {
	Origin  Origin     `json:"origin"`
	Locator string     `json:"locator"` // virtual path or absolute URL
	Kind    LoaderKind `json:"kind"`
	Package string     `json:"package,omitempty"` // logical package for remote and runtime resources
	Library string     `json:"library,omitempty"` // runtime library name, e.g. "react-dom/client"
}

// Importer describes the module that contains the import being resolved.
// The zero value stands for the entry point.
type Importer struct {
	Origin  Origin
	Locator string
	// Base is the URL relative imports of a remote module resolve against.
	// It is the final served URL, which differs from Locator after a redirect.
	Base string
}

// ImporterOf returns the importer descriptor for a resource whose effective
// base is known.
func ImporterOf(r Resource, base string) Importer {
	if base == "" {
		base = r.Locator
	}
	return Importer{Origin: r.Origin, Locator: r.Locator, Base: base}
}

// Resolver maps an import specifier to a resource. It never fails: anything
// not recognised becomes a best-effort remote guess and the engine reports
// whatever cannot be loaded.
type Resolver interface {
	Resolve(specifier string, from Importer, known project.PathSet) Resource
}
