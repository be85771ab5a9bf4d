// Package server serves arbor applications over HTTP and WebSocket.
//
// GET / renders the application to HTML on a memory host. GET /live upgrades
// to a WebSocket and starts a live session: the application is mounted on a
// remote.Renderer driven by a schedule.Loop, and every commit is streamed to
// the client as a patch frame.
//
// # Session Lifecycle
//
// Each WebSocket connection creates a Session that owns:
//   - a reactive store, so sessions never share state
//   - a loop goroutine running turns, event handlers and commits
//   - a writer goroutine draining the outbound frame queue
//
// The connection's handler goroutine runs the read loop. When it ends the
// tree is unmounted on the loop, the loop is stopped and the writer exits.
//
// # Event Processing
//
// When a client sends an event:
//  1. the read loop decodes the event frame
//  2. the event is dispatched onto the session loop
//  3. the renderer invokes the handler bound to the target node
//  4. ref writes wake the root, which walks and commits on a later turn
//  5. the commit's patches are framed and queued for the writer
package server
