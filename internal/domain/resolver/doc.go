// Package resolver maps import specifiers found in playground modules to
// fully qualified resources: project files, pinned runtime libraries or
// modules served by the package host.
package resolver
