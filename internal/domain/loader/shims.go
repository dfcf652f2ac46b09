package loader

import (
	"fmt"

	"github.com/GriffinCanCode/playground/internal/domain/resolver"
)

// StubModule replaces a remote module that could not be fetched. Importing
// it yields a component that renders nothing.
const StubModule = "export default function() { return null; }"

// Link modes for runtime libraries.
const (
	// LinkGlobal makes runtime imports refer to the globals installed by the
	// preview's script tags. The bundle never carries a copy.
	LinkGlobal = "global"
	// LinkBundle fetches the pinned build and bundles it.
	LinkBundle = "bundle"
)

// jsxRuntime adapts the automatic JSX transform to React.createElement,
// which is all a UMD React build exposes.
const jsxRuntime = `var React = %s;
function jsx(type, props, key) {
  var rest = {};
  var children;
  for (var name in props) {
    if (name === "children") children = props[name];
    else rest[name] = props[name];
  }
  if (key !== undefined) rest.key = key;
  if (children === undefined) return React.createElement(type, rest);
  if (Array.isArray(children)) return React.createElement.apply(React, [type, rest].concat(children));
  return React.createElement(type, rest, children);
}
exports.jsx = jsx;
exports.jsxs = jsx;
exports.jsxDEV = jsx;
exports.Fragment = React.Fragment;
`

// globalShim returns a CommonJS module re-exporting a runtime library's
// global, e.g. module.exports = window.React.
func globalShim(lib resolver.Library) string {
	if lib.Name == "react/jsx-runtime" {
		return fmt.Sprintf(jsxRuntime, "window.React")
	}
	return fmt.Sprintf("module.exports = window.%s;\n", lib.Global)
}

// bundledJSXRuntime is the jsx runtime when React itself is bundled.
func bundledJSXRuntime() string {
	return fmt.Sprintf(jsxRuntime, `require("react")`)
}
