// Package deps enforces the playground dependency policy: every package a
// script imports must be declared in the manifest, runtime libraries aside.
//
// Import discovery is a textual scan. Dynamic import(), require() and
// re-exports ("export ... from") are not analysed.
package deps

import (
	"regexp"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/GriffinCanCode/playground/internal/domain/project"
	"github.com/GriffinCanCode/playground/internal/domain/resolver"
)

// ScriptGlob selects the files that are scanned for imports
const ScriptGlob = "**/*.{js,jsx,mjs,cjs}"

var (
	fromImport       = regexp.MustCompile(`import\s+[^'";]+from\s+['"]([^./][^'";]*)['"]`)
	sideEffectImport = regexp.MustCompile(`import\s+['"]([^./][^'";]*)['"]`)
)

// Imports returns the sorted set of bare package names content imports
func Imports(content string) []string {
	set := map[string]struct{}{}
	for _, re := range []*regexp.Regexp{fromImport, sideEffectImport} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if name := resolver.PackageName(m[1]); name != "" {
				set[name] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

// Scan returns the sorted set of bare packages imported anywhere in snap
func Scan(snap *project.Snapshot) []string {
	set := map[string]struct{}{}
	for _, p := range snap.Paths() {
		if ok, _ := doublestar.Match(ScriptGlob, p); !ok {
			continue
		}
		content, _ := snap.Get(p)
		for _, name := range Imports(content) {
			set[name] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Check returns the sorted packages imported by snap that manifest does not
// declare and that are not runtime libraries. Empty means the build may
// proceed.
func Check(snap *project.Snapshot, manifest *project.Manifest) []string {
	implicit := map[string]struct{}{}
	for _, pkg := range resolver.LibraryPackages() {
		implicit[pkg] = struct{}{}
	}

	missing := []string{}
	for _, name := range Scan(snap) {
		if _, ok := implicit[name]; ok {
			continue
		}
		if manifest != nil && manifest.Declares(name) {
			continue
		}
		missing = append(missing, name)
	}
	return missing
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
