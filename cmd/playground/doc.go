// Package main implements the playground CLI.
//
//	playground init ./demo
//	playground check ./demo
//	playground build ./demo -o dist/bundle.js
//	playground preview ./demo --rendered
//	playground serve --port 8000
//
// A project is a directory, or a single YAML, TOML or JSON file mapping
// virtual paths to contents.
package main
