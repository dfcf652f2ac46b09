package project

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Conventional virtual paths.
const (
	EntryPath    = "index.jsx"
	IndexPath    = "index.html"
	ManifestPath = "package.json"
)

// ScriptExtensions are the extensions the pipeline treats as script sources.
var ScriptExtensions = []string{".jsx", ".js", ".mjs", ".cjs"}

var (
	ErrEmptyPath   = errors.New("empty path")
	ErrEscapesRoot = errors.New("path escapes project root")
	ErrNoFiles     = errors.New("project has no files")
)

// VirtualFile is one entry of the project.
type VirtualFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Snapshot is an immutable view of the project for the duration of one build.
type Snapshot struct {
	files map[string]string
	paths []string
}

// NewSnapshot copies files into a snapshot, normalising every path.
// Two inputs that normalise to the same path are rejected.
func NewSnapshot(files map[string]string) (*Snapshot, error) {
	s := &Snapshot{files: make(map[string]string, len(files))}
	for raw, content := range files {
		p, err := CleanPath(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", raw, err)
		}
		if _, dup := s.files[p]; dup {
			return nil, fmt.Errorf("duplicate path %q after normalisation", p)
		}
		s.files[p] = content
		s.paths = append(s.paths, p)
	}
	sort.Strings(s.paths)
	return s, nil
}

// FromFiles builds a snapshot from a VirtualFile list.
func FromFiles(files []VirtualFile) (*Snapshot, error) {
	m := make(map[string]string, len(files))
	for _, f := range files {
		if _, dup := m[f.Path]; dup {
			return nil, fmt.Errorf("duplicate path %q", f.Path)
		}
		m[f.Path] = f.Content
	}
	return NewSnapshot(m)
}

// CleanPath normalises a virtual path: forward slashes, no leading "./" or "/",
// no "." or ".." segments. Paths that climb above the root are rejected.
func CleanPath(p string) (string, error) {
	p = strings.TrimLeft(strings.ReplaceAll(strings.TrimSpace(p), "\\", "/"), "/")
	if p == "" {
		return "", ErrEmptyPath
	}
	cleaned := path.Clean(p)
	switch {
	case cleaned == ".":
		return "", ErrEmptyPath
	case cleaned == ".." || strings.HasPrefix(cleaned, "../"):
		return "", ErrEscapesRoot
	}
	return cleaned, nil
}

// Get returns the content stored at p.
func (s *Snapshot) Get(p string) (string, bool) {
	c, ok := s.files[p]
	return c, ok
}

// Has reports whether p is a known path.
func (s *Snapshot) Has(p string) bool {
	_, ok := s.files[p]
	return ok
}

// Paths returns all paths in lexicographic order.
func (s *Snapshot) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Len returns the number of files.
func (s *Snapshot) Len() int {
	return len(s.paths)
}

// KnownPaths returns the set of paths, as consumed by the resolver.
func (s *Snapshot) KnownPaths() PathSet {
	set := make(PathSet, len(s.paths))
	for _, p := range s.paths {
		set[p] = struct{}{}
	}
	return set
}

// Files returns a copy of the path -> content mapping.
func (s *Snapshot) Files() map[string]string {
	out := make(map[string]string, len(s.files))
	for k, v := range s.files {
		out[k] = v
	}
	return out
}

// Entry picks the build entry point: index.jsx when present, otherwise the
// first script file in path order, otherwise the first path.
func (s *Snapshot) Entry() (string, error) {
	if len(s.paths) == 0 {
		return "", ErrNoFiles
	}
	if s.Has(EntryPath) {
		return EntryPath, nil
	}
	for _, p := range s.paths {
		if IsScript(p) {
			return p, nil
		}
	}
	return s.paths[0], nil
}

// IndexHTML returns the project's own preview shell, if any.
func (s *Snapshot) IndexHTML() (string, bool) {
	return s.Get(IndexPath)
}

// Manifest parses package.json. It never fails.
func (s *Snapshot) Manifest() *Manifest {
	content, _ := s.Get(ManifestPath)
	return ParseManifest(content)
}

// IsScript reports whether p carries a script extension.
func IsScript(p string) bool {
	ext := path.Ext(p)
	for _, e := range ScriptExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// PathSet is a set of virtual paths.
type PathSet map[string]struct{}

// Has reports membership.
func (ps PathSet) Has(p string) bool {
	_, ok := ps[p]
	return ok
}
