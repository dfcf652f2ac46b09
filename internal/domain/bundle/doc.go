// Package bundle turns a project snapshot into one self-executing script.
//
// A build first runs the dependency gate, which rejects the project before
// any engine or network work when an import is undeclared. It then picks the
// entry, waits for the engine and compiles with the resolver and loader
// answering every module request. The result is all-or-nothing: a fatal
// diagnostic means no artifact. Remote modules that could not be fetched are
// stubbed and reported as non-fatal diagnostics.
package bundle
