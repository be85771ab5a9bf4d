package reconcile

import (
	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/host"
)

// slotKey is the lookup key of an unkeyed child. It is a distinct type so it
// never equals a user-supplied key.
type slotKey int

// Instance is a persistent node of the instance tree.
type Instance struct {
	node host.Node

	parent  *Instance
	child   *Instance
	sibling *Instance

	element       *element.Element
	beforeElement *element.Element
	hostElement   *element.Element

	render    element.Render
	memoProps element.Props
	namespace string

	requiredUpdate bool
	deletions      []*Instance

	// walk is the number of the last walk that visited the instance.
	walk uint64

	deps map[uint64]func()
	ctx  *Context
}

// Node returns the realized host node, or nil for component instances and
// instances not yet committed.
func (i *Instance) Node() host.Node { return i.node }

// Parent returns the parent instance.
func (i *Instance) Parent() *Instance { return i.parent }

// Child returns the first child instance.
func (i *Instance) Child() *Instance { return i.child }

// Sibling returns the next sibling instance.
func (i *Instance) Sibling() *Instance { return i.sibling }

// Element returns the element the instance was last reconciled against.
func (i *Instance) Element() *element.Element { return i.element }

// BeforeElement returns the element of the previous reconciliation, or nil
// for a new instance.
func (i *Instance) BeforeElement() *element.Element { return i.beforeElement }

// Props returns the memoized props. The map identity is stable for the
// instance lifetime; its contents follow the current element.
func (i *Instance) Props() element.Props { return i.memoProps }

// Context returns the instance context.
func (i *Instance) Context() *Context { return i.ctx }

// Namespace returns the inherited element namespace, if any.
func (i *Instance) Namespace() string { return i.namespace }

// RequiresUpdate reports whether the instance is flagged for re-render.
func (i *Instance) RequiresUpdate() bool { return i.requiredUpdate }

// Children returns the child chain as a slice.
func (i *Instance) Children() []*Instance {
	var out []*Instance
	for c := i.child; c != nil; c = c.sibling {
		out = append(out, c)
	}
	return out
}

// Dependencies returns the ids of the refs the instance is subscribed to.
func (i *Instance) Dependencies() []uint64 {
	ids := make([]uint64, 0, len(i.deps))
	for id := range i.deps {
		ids = append(ids, id)
	}
	return ids
}

// isHost reports whether the instance renders a host node of its own.
func (i *Instance) isHost() bool {
	return i.element != nil && !i.element.IsComponent()
}

// lookupKey returns the reconciliation key of el at position index.
func lookupKey(el *element.Element, index int) any {
	if k, ok := el.Key(); ok {
		return k
	}
	return slotKey(index)
}

// setProps replaces the memoized props in place.
func (i *Instance) setProps(p element.Props) {
	clear(i.memoProps)
	for k, v := range p {
		i.memoProps[k] = v
	}
}

// subtree returns i and its descendants, pending deletions included, in
// post-order: children before their parent, siblings in order.
func (i *Instance) subtree() []*Instance {
	var out []*Instance
	stack := []*Instance{i}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		for c := n.child; c != nil; c = c.sibling {
			stack = append(stack, c)
		}
		stack = append(stack, n.deletions...)
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// topHostNodes returns the outermost realized host nodes of i's subtree.
func (i *Instance) topHostNodes() []host.Node {
	var out []host.Node
	stack := []*Instance{i}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.node != nil {
			out = append(out, n.node)
			continue
		}
		var kids []*Instance
		for c := n.child; c != nil; c = c.sibling {
			kids = append(kids, c)
		}
		kids = append(kids, n.deletions...)
		for k := len(kids) - 1; k >= 0; k-- {
			stack = append(stack, kids[k])
		}
	}
	return out
}

// unsubscribeAll drops every ref subscription.
func (i *Instance) unsubscribeAll() {
	for id, unsub := range i.deps {
		unsub()
		delete(i.deps, id)
	}
}

// hostParent returns the nearest ancestor with a realized host node.
func (i *Instance) hostParent() host.Node {
	for p := i.parent; p != nil; p = p.parent {
		if p.node != nil {
			return p.node
		}
	}
	return nil
}
