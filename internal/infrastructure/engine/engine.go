package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/playground/internal/domain/resolver"
)

var (
	// ErrEngineFailed means initialization failed; the engine stays unusable
	ErrEngineFailed = errors.New("compile engine failed to initialize")
	// ErrNotReady means Compile was called before Init completed
	ErrNotReady = errors.New("compile engine not initialized")
)

// Host answers the engine's resolve and load callbacks for one build
type Host interface {
	Resolve(specifier string, from resolver.Importer) resolver.Resource
	Load(ctx context.Context, res resolver.Resource) (contents string, kind resolver.LoaderKind, base string, err error)
}

// Request describes one compile-and-link run
type Request struct {
	Entry           string // virtual path of the entry module
	Host            Host
	Defines         map[string]string
	JSXImportSource string
	Minify          bool
}

// Message is one engine diagnostic
type Message struct {
	Text   string `json:"text"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// String renders the message with a file:line prefix when located
func (m Message) String() string {
	if m.File == "" {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.File, m.Line, m.Column, m.Text)
}

// Output is a successful compile
type Output struct {
	Code     string
	Metafile string
	Warnings []Message
}

// CompileError carries the engine's error messages verbatim
type CompileError struct {
	Messages []Message
}

func (e *CompileError) Error() string {
	lines := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		lines[i] = m.String()
	}
	return strings.Join(lines, "\n")
}

// Engine compiles a module graph into one self-executing script
type Engine interface {
	Init(ctx context.Context) error
	State() State
	Compile(ctx context.Context, req Request) (*Output, error)
}
