// Package engine drives the compile-and-link engine. The esbuild
// implementation resolves and loads every module through a Host supplied
// per build, so the engine itself never touches the file system or network.
//
// Initialization is a one-shot future: the first caller starts it, all
// callers await the same outcome and a failure is permanent.
package engine
