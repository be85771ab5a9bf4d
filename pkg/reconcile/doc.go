// Package reconcile maintains the persistent instance tree behind a mounted
// element and keeps a host renderer in sync with it.
//
// # Instances
//
// Every rendered element is backed by an Instance linked to its parent, its
// first child and its next sibling. Instances survive across renders: the
// reconciler matches each incoming element against the current children by
// explicit key, or by position when no key is given, and reuses the matched
// instance when its type is unchanged and no ReusePlugin vetoes.
//
// # Scheduling
//
// A Root walks the tree one instance at a time in pre-order. Each step is a
// unit of work; between units the walk may yield back to its
// schedule.Driver and resume later from the saved cursor. When the cursor is
// exhausted the accumulated changes are committed to the host in one pass,
// and mount listeners fire bottom-up once the subtree is attached.
//
// Component renders run inside a dependency collection. Every ref read
// during a render subscribes the instance; a later write flags the instance
// and requests a new walk, which re-renders only the flagged components.
//
// # Hooks
//
// A component's setup function receives its instance Context as an
// element.Hooks. Hooks are valid only while that setup call is running;
// calling one afterwards panics with error E001.
package reconcile
