// Package logging builds the zap logger shared by the server and the CLI.
//
// The server logs JSON to stdout in production and colored console lines in
// development. The CLI always logs console lines to stderr, leaving stdout
// for artifacts. Components derive a named child, and per-build or per-run
// children carry their IDs:
//
//	log := logger.Named("bundle").ForBuild(res.ID)
//	log.Info("build finished", zap.Int("bytes", len(res.Artifact)))
package logging
