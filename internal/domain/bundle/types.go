package bundle

import (
	"strings"
	"time"

	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// DiagnosticKind classifies a build or preview problem
type DiagnosticKind string

const (
	MissingDependency DiagnosticKind = "missing_dependency"
	ResolutionFailure DiagnosticKind = "resolution_failure"
	CompileFailure    DiagnosticKind = "compile_failure"
	RuntimeFailure    DiagnosticKind = "runtime_failure"
)

// Diagnostic is one user-visible problem. Fatal diagnostics mean no
// artifact was produced.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Message  string         `json:"message"`
	Fatal    bool           `json:"fatal"`
	Packages []string       `json:"packages,omitempty"`
	Locator  string         `json:"locator,omitempty"`
	File     string         `json:"file,omitempty"`
	Line     int            `json:"line,omitempty"`
	Column   int            `json:"column,omitempty"`
}

// Stylesheet is a stylesheet the bundle imported, injected by the preview
type Stylesheet struct {
	Path    string `json:"path"`
	Content string `json:"-"`
}

// Result is the outcome of one build. Artifact is empty whenever a fatal
// diagnostic is present.
type Result struct {
	ID          id.BuildID    `json:"id"`
	Artifact    string        `json:"artifact,omitempty"`
	Hash        string        `json:"hash,omitempty"`
	Entry       string        `json:"entry,omitempty"`
	Diagnostics []Diagnostic  `json:"diagnostics"`
	Summary     *Summary      `json:"metafile,omitempty"`
	ScriptURLs  []string      `json:"scripts,omitempty"`
	Stylesheets []Stylesheet  `json:"stylesheets,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// OK reports whether the build produced an artifact
func (r *Result) OK() bool {
	return r.Artifact != "" && !r.HasFatal()
}

// HasFatal reports whether any diagnostic is fatal
func (r *Result) HasFatal() bool {
	for _, d := range r.Diagnostics {
		if d.Fatal {
			return true
		}
	}
	return false
}

// Err returns the fatal diagnostics as a *BuildError, or nil
func (r *Result) Err() error {
	var fatal []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Fatal {
			fatal = append(fatal, d)
		}
	}
	if len(fatal) == 0 {
		return nil
	}
	return &BuildError{Diagnostics: fatal}
}

// BuildError is returned by BuildArtifact when no artifact was produced
type BuildError struct {
	Diagnostics []Diagnostic
}

func (e *BuildError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.Message
	}
	return strings.Join(msgs, "\n")
}

// Kind returns the kind of the first diagnostic
func (e *BuildError) Kind() DiagnosticKind {
	if len(e.Diagnostics) == 0 {
		return CompileFailure
	}
	return e.Diagnostics[0].Kind
}
