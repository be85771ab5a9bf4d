// Package remote implements a host renderer whose output is a stream of
// patches instead of a live node tree.
//
// The Renderer keeps a shadow tree so the reconciler can navigate siblings,
// and records every structural or property change as a Patch. A server takes
// the recorded batch after each commit, encodes it into a frame and ships it
// to a client, which replays it with a Mirror. Events travel the other way:
// the client names a node ID and an event, and the Renderer invokes the
// handler the component bound to that node.
//
// # Wire format
//
// All integers are unsigned varints (protobuf style) and strings are
// varint-length-prefixed UTF-8. A frame is a type byte, a varint payload
// length and the payload:
//
//	Init:    rootID, sessionID
//	Patches: count, then per patch: op byte, node, op-specific fields
//	Event:   node, name, value
//	Error:   code, message
package remote
