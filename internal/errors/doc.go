// Package errors provides structured, coded errors for arbor.
//
// Every error carries a code (e.g., "E001") that maps to a registered
// template with a category, a short message, and a longer explanation.
//
// # Error Categories
//
//   - usage: a render-scoped hook was called outside an active render
//   - structural: the instance tree is corrupted (no host parent, empty instance)
//   - listener: a mount, unmount, or watcher callback panicked
//   - config: configuration file missing or invalid
//   - export: uploading rendered output failed
//
// Usage and structural errors abort the operation that triggered them.
// Listener errors are logged per callback and never returned.
//
// # Usage
//
//	err := errors.New("E020").
//	    WithDetail("instance <li> has no realized ancestor").
//	    WithSuggestion("Mount the tree on a non-nil target node")
//
//	fmt.Println(err.Format())
package errors
