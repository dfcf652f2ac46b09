// Package ws streams preview events for a session over WebSocket.
//
// GET /stream?session=<id> upgrades the connection. The server pushes:
//   - {"type":"iframe-error","message":...,"run":n} when the session's host displays an error
//   - {"type":"run_complete",...} after every committed run
//   - {"type":"pong"} in reply to {"type":"ping"}
//
// A browser that hosts the preview iframe itself forwards what the iframe
// posts as {"type":"iframe-error","message":...}; the message is stamped
// with the session's current run and shown by its host.
//
// Each connection has one writer goroutine; everything sent to the client
// goes through its queue.
package ws
