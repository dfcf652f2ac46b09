// Package loader produces module contents for resolved resources: project
// files from the snapshot, shims or pinned builds for runtime libraries and
// remote modules from the package host. A remote module that cannot be
// fetched is replaced by a stub so the build can continue.
package loader
