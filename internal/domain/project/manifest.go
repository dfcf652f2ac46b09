package project

import (
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// Manifest is the parsed dependency declaration of a project.
type Manifest struct {
	Name         string
	Version      string
	Dependencies map[string]string // package name -> version range
}

type manifestFile struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// ParseManifest parses package.json content. Empty, malformed or non-object
// input degrades to a manifest with no declared dependencies.
func ParseManifest(content string) *Manifest {
	m := &Manifest{Dependencies: map[string]string{}}
	if strings.TrimSpace(content) == "" {
		return m
	}

	var file manifestFile
	if err := sonic.UnmarshalString(content, &file); err != nil {
		return m
	}

	m.Name = file.Name
	m.Version = file.Version
	for name, rng := range file.Dependencies {
		if name = strings.TrimSpace(name); name != "" {
			m.Dependencies[name] = rng
		}
	}
	return m
}

// Declares reports whether pkg is a declared dependency.
func (m *Manifest) Declares(pkg string) bool {
	_, ok := m.Dependencies[pkg]
	return ok
}

// Declared returns the declared package names in sorted order.
func (m *Manifest) Declared() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
