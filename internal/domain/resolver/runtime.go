package resolver

import "strings"

// Library is a runtime library supplied to the preview by a script tag
// instead of being bundled.
type Library struct {
	Name    string // import specifier
	Package string // package name used by the dependency gate
	Path    string // pinned path on the package host
	Global  string // global the UMD build assigns
}

// Runtime library builds. Versions are exact so the script tags in the
// preview and the bundle's external references always agree.
var Libraries = []Library{
	{Name: "react", Package: "react", Path: "/react@18.3.1/umd/react.production.min.js", Global: "React"},
	{Name: "react-dom", Package: "react-dom", Path: "/react-dom@18.3.1/umd/react-dom.production.min.js", Global: "ReactDOM"},
	{Name: "react-dom/client", Package: "react-dom", Path: "/react-dom@18.3.1/umd/react-dom.production.min.js", Global: "ReactDOM"},
	{Name: "react-router-dom", Package: "react-router-dom", Path: "/react-router-dom@5.3.4/umd/react-router-dom.min.js", Global: "ReactRouterDOM"},
	{Name: "react/jsx-runtime", Package: "react", Path: "/react@18.3.1/umd/react.production.min.js", Global: "React"},
}

// LibraryNames returns the runtime library import specifiers.
func LibraryNames() []string {
	names := make([]string, len(Libraries))
	for i, lib := range Libraries {
		names[i] = lib.Name
	}
	return names
}

// LibraryPackages returns the distinct package names of the runtime
// libraries. The dependency gate treats them as implicitly declared.
func LibraryPackages() []string {
	var out []string
	seen := map[string]bool{}
	for _, lib := range Libraries {
		if !seen[lib.Package] {
			seen[lib.Package] = true
			out = append(out, lib.Package)
		}
	}
	return out
}

// LookupLibrary finds a runtime library by import specifier.
func LookupLibrary(name string) (Library, bool) {
	for _, lib := range Libraries {
		if lib.Name == name {
			return lib, true
		}
	}
	return Library{}, false
}

// URL returns the pinned build URL on host.
func (l Library) URL(host string) string {
	return strings.TrimRight(host, "/") + l.Path
}

// ScriptURLs returns the distinct pinned URLs for the given library names in
// load order (react before its dependants), suitable for script tags.
func ScriptURLs(host string, names []string) []string {
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}

	var urls []string
	seen := map[string]bool{}
	for _, lib := range Libraries {
		if !want[lib.Name] {
			continue
		}
		u := lib.URL(host)
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}
