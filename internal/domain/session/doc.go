// Package session manages playground views.
//
// A session owns a preview Channel and Host for its whole lifetime. Each
// Run resets the host, builds the submitted files, assembles the preview
// document and presents it:
//
//	Reset(run) -> Build -> Document | ErrorDocument -> Executor.Present
//
// Runs are numbered per session. A run that finishes after a newer one
// started is marked superseded and never replaces the newer result, so the
// last request wins regardless of completion order.
//
// Example Usage:
//
//	manager := session.NewManager(orchestrator, executor, logger)
//	s := manager.Create()
//	result, err := manager.Run(ctx, s.ID, files)
//	doc, etag, err := manager.Preview(s.ID)
package session
