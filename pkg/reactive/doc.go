// Package reactive provides the observable values that drive re-rendering.
//
// A Ref is a boxed value owned by a Store. Reading a Ref while the Store is
// collecting dependencies records the Ref in the active collection; writing a
// Ref marks it pending, and its watchers run on the next Store flush rather
// than synchronously:
//
//	store := reactive.NewStore()
//	count := reactive.NewRef(store, 0)
//
//	deps := store.Collect(func() {
//	    _ = count.Get() // recorded
//	})
//
//	stop := reactive.Watch(count, func() { fmt.Println("changed") })
//	defer stop()
//
//	count.Set(1)
//	count.Set(2)  // coalesced with the previous write
//	store.Flush() // prints "changed" once
//
// # Collection scopes
//
// Exactly one collection is active at a time. Collect swaps a fresh
// collection in and restores the previous one when fn returns, so nested
// collections are isolated from each other.
//
// # Thread Safety
//
// Refs and the Store's pending queue are safe for concurrent use, so a Ref may
// be written from any goroutine. Watchers always run on the goroutine that
// calls Flush, which is the owning scheduler's goroutine.
//
// The active collection belongs to the Store, not to a goroutine. Get called
// from another goroutine while a render is collecting is recorded as a
// dependency of that render. Code running off the scheduler's goroutine
// reads with Peek.
package reactive
