/*
Package project models the virtual file set a playground view edits.

The editor and file tree own the files and mutate them freely; the bundling
pipeline never sees those mutations. Each build takes a Snapshot: an
immutable, path-normalised copy of path -> content that stays fixed for the
whole build.

# Conventional paths

  - index.jsx    build entry point
  - index.html   optional preview shell
  - package.json dependency manifest

# Manifest

ParseManifest never fails. A missing or malformed package.json yields an
empty declared-dependency set, which makes every external import a missing
dependency at the policy gate rather than a crash.

# Loading projects from disk

The CLI accepts a directory (FromDir), or a bundle file in YAML, TOML or JSON
whose "files" table maps paths to contents (FromYAML, FromTOML, FromJSON).
*/
package project
