// Package main is the entry point for the playground server.
//
// The server bundles projects sent by the editor, presents them in a
// sandboxed preview and streams preview errors back over WebSocket.
//
//	Editor → POST /sessions/:id/run → bundle → preview executor
//	       ← GET /sessions/:id/preview (document)
//	       ← /stream?session=:id (iframe-error, run_complete)
//
// Configuration:
//   - Environment variables, optionally from a .env file
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 8000 -packages https://unpkg.com -executor headless
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
