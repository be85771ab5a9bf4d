// Package element defines the immutable descriptors that component code
// produces on every render.
//
// An Element is either a primitive host tag:
//
//	element.New("div", element.Props{"class": "card"}, "hello")
//
// or a component instance:
//
//	var Counter = element.Define("Counter", func(h element.Hooks, props element.Props) element.Render {
//	    count := reactive.NewRef(store, 0)
//	    return func() any {
//	        return element.New("button", nil, count.Get())
//	    }
//	})
//
//	element.New(Counter, element.Props{"key": "c1"})
//
// Elements are created fresh on every render and are never mutated after
// construction. The reconciler compares them by identity rules (Same) and
// shallow props equality (ShallowEqual).
package element
