package remote

import (
	"sync"

	"github.com/vango-dev/arbor/internal/errors"
	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/host"
	"github.com/vango-dev/arbor/pkg/host/memory"
)

// Renderer is a host.Renderer that records patches against a shadow tree.
// Renderer calls and Dispatch must happen on the goroutine that drives the
// root; Take may be called from any goroutine.
type Renderer struct {
	doc   *memory.Document
	root  *memory.Node
	nodes map[int]*memory.Node

	mu      sync.Mutex
	pending []Patch
}

var (
	_ host.Renderer          = (*Renderer)(nil)
	_ host.NamespaceRenderer = (*Renderer)(nil)
	_ host.Serializer        = (*Renderer)(nil)
)

// NewRenderer creates a renderer with an empty root node. The root exists on
// both ends of the stream before the first patch.
func NewRenderer() *Renderer {
	doc := memory.NewDocument()
	root := doc.CreateLeaf("root").(*memory.Node)
	return &Renderer{
		doc:   doc,
		root:  root,
		nodes: map[int]*memory.Node{root.ID: root},
	}
}

// Root returns the mount target.
func (r *Renderer) Root() host.Node { return r.root }

// RootID returns the ID of the mount target.
func (r *Renderer) RootID() int { return r.root.ID }

// Lookup returns the live node with the given ID.
func (r *Renderer) Lookup(id int) (*memory.Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// Take returns the patches recorded since the last call and clears them.
func (r *Renderer) Take() []Patch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}

// Pending returns the number of recorded patches not yet taken.
func (r *Renderer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Renderer) emit(p Patch) {
	r.mu.Lock()
	r.pending = append(r.pending, p)
	r.mu.Unlock()
}

func (r *Renderer) track(node host.Node) *memory.Node {
	n := node.(*memory.Node)
	r.nodes[n.ID] = n
	return n
}

// CreateLeaf implements host.Renderer.
func (r *Renderer) CreateLeaf(tag string) host.Node {
	n := r.track(r.doc.CreateLeaf(tag))
	r.emit(Patch{Op: OpCreateLeaf, Node: n.ID, Name: tag})
	return n
}

// CreateLeafNS implements host.NamespaceRenderer.
func (r *Renderer) CreateLeafNS(namespace, tag string) host.Node {
	n := r.track(r.doc.CreateLeafNS(namespace, tag))
	r.emit(Patch{Op: OpCreateLeaf, Node: n.ID, Name: tag, Value: namespace})
	return n
}

// CreateText implements host.Renderer.
func (r *Renderer) CreateText(content string) host.Node {
	n := r.track(r.doc.CreateText(content))
	r.emit(Patch{Op: OpCreateText, Node: n.ID, Value: content})
	return n
}

// CreateComment implements host.Renderer.
func (r *Renderer) CreateComment(content string) host.Node {
	n := r.track(r.doc.CreateComment(content))
	r.emit(Patch{Op: OpCreateComment, Node: n.ID, Value: content})
	return n
}

// UpdateProperties implements host.Renderer. Handler replacements update the
// shadow tree only; a patch is sent when an event gains or loses its handler.
func (r *Renderer) UpdateProperties(node host.Node, next, prev element.Props) {
	n, ok := node.(*memory.Node)
	if !ok {
		return
	}
	delta := host.Diff(next, prev)
	if delta.TextChanged && delta.Text != n.Text {
		r.emit(Patch{Op: OpSetText, Node: n.ID, Value: delta.Text})
	}
	if delta.ClassChanged {
		r.emit(Patch{Op: OpSetClass, Node: n.ID, Value: delta.Class})
	}
	for _, k := range delta.StyleNames() {
		r.emit(Patch{Op: OpSetStyle, Node: n.ID, Name: k, Value: delta.Styles[k]})
	}
	for _, k := range delta.AttrNames() {
		r.emit(Patch{Op: OpSetAttr, Node: n.ID, Name: k, Value: delta.Attrs[k]})
	}
	for _, k := range delta.EventNames() {
		had, has := n.Events[k] != nil, delta.Events[k] != nil
		if had != has {
			r.emit(Patch{Op: OpSetEvent, Node: n.ID, Name: k, Flag: has})
		}
	}
	memory.Apply(n, delta)
}

// Insert implements host.Renderer.
func (r *Renderer) Insert(parent, node, before host.Node) {
	p, pok := parent.(*memory.Node)
	n, nok := node.(*memory.Node)
	if !pok || !nok {
		return
	}
	patch := Patch{Op: OpInsert, Node: n.ID, Parent: p.ID}
	if b, ok := before.(*memory.Node); ok && b != nil {
		patch.Before = b.ID
	}
	r.emit(patch)
	r.doc.Insert(parent, node, before)
}

// Remove implements host.Renderer. The node and its descendants are
// forgotten, so later events naming them fail.
func (r *Renderer) Remove(node host.Node) {
	n, ok := node.(*memory.Node)
	if !ok {
		return
	}
	r.emit(Patch{Op: OpRemove, Node: n.ID})
	r.doc.Remove(node)
	for _, x := range n.FindAll(func(*memory.Node) bool { return true }) {
		delete(r.nodes, x.ID)
	}
}

// Parent implements host.Renderer.
func (r *Renderer) Parent(node host.Node) host.Node { return r.doc.Parent(node) }

// FirstChild implements host.Renderer.
func (r *Renderer) FirstChild(node host.Node) host.Node { return r.doc.FirstChild(node) }

// NextSibling implements host.Renderer.
func (r *Renderer) NextSibling(node host.Node) host.Node { return r.doc.NextSibling(node) }

// Serialize implements host.Serializer over the shadow tree.
func (r *Renderer) Serialize(node host.Node) (string, error) {
	return r.doc.Serialize(node)
}

// Dispatch invokes the handler bound to ev.Name on ev.Node. Handlers may be
// func(), func(Event) or func(string); the string form receives ev.Value.
func (r *Renderer) Dispatch(ev Event) error {
	n, ok := r.nodes[ev.Node]
	if !ok {
		return errors.New("E040").WithDetailf("node #%d is not mounted", ev.Node)
	}
	handler := n.Handler(ev.Name)
	if handler == nil {
		return errors.New("E040").WithDetailf("node #%d has no %q handler", ev.Node, ev.Name)
	}
	switch fn := handler.(type) {
	case func():
		fn()
	case func(Event):
		fn(ev)
	case func(string):
		fn(ev.Value)
	default:
		return errors.New("E041").WithDetailf("handler for %q is %T", ev.Name, handler)
	}
	return nil
}
