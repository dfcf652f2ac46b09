// Package tracing times requests and pipeline stages and logs each finished
// span through zap.
//
// A span joins the trace carried by its context. The HTTP middleware starts
// the root span, continuing the editor's trace when the request carries
// X-Trace-ID, and echoes both IDs back. Spans are logged by one collector
// goroutine; when its buffer is full they are dropped and counted rather
// than blocking a request.
//
//	err := tracer.Trace(ctx, "session.run", run, zap.String("session_id", sid.String()))
package tracing
