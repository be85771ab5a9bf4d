package memory

import (
	"fmt"

	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/host"
)

// OpKind identifies a renderer call in the operation log.
type OpKind string

const (
	OpCreateLeaf    OpKind = "createLeaf"
	OpCreateText    OpKind = "createText"
	OpCreateComment OpKind = "createComment"
	OpUpdate        OpKind = "update"
	OpInsert        OpKind = "insert"
	OpRemove        OpKind = "remove"
)

// Op is one recorded renderer call. Node IDs are assigned in creation order,
// so the log of two identical renders is identical.
type Op struct {
	Kind   OpKind
	Node   int
	Parent int
	Before int
	Arg    string
}

func (o Op) String() string {
	switch o.Kind {
	case OpInsert:
		return fmt.Sprintf("insert #%d into #%d before #%d", o.Node, o.Parent, o.Before)
	case OpRemove:
		return fmt.Sprintf("remove #%d", o.Node)
	default:
		return fmt.Sprintf("%s #%d %s", o.Kind, o.Node, o.Arg)
	}
}

// Document is an in-memory host.Renderer and host.Serializer.
type Document struct {
	nextID int
	record bool
	ops    []Op
	pretty bool
	indent string
}

// Option configures a Document.
type Option func(*Document)

// WithOpLog enables recording of every renderer call.
func WithOpLog() Option {
	return func(d *Document) {
		d.record = true
	}
}

// WithPretty enables indented serialization.
func WithPretty(indent string) Option {
	return func(d *Document) {
		d.pretty = true
		d.indent = indent
	}
}

// NewDocument creates an empty document.
func NewDocument(opts ...Option) *Document {
	d := &Document{indent: "  "}
	for _, opt := range opts {
		opt(d)
	}
	if d.indent == "" {
		d.indent = "  "
	}
	return d
}

var (
	_ host.Renderer          = (*Document)(nil)
	_ host.Serializer        = (*Document)(nil)
	_ host.NamespaceRenderer = (*Document)(nil)
)

// Ops returns a copy of the operation log.
func (d *Document) Ops() []Op {
	out := make([]Op, len(d.ops))
	copy(out, d.ops)
	return out
}

// ResetOps clears the operation log.
func (d *Document) ResetOps() {
	d.ops = nil
}

// Count returns how many recorded operations have the given kind.
func (d *Document) Count(kind OpKind) int {
	n := 0
	for _, op := range d.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

func (d *Document) log(op Op) {
	if d.record {
		d.ops = append(d.ops, op)
	}
}

func (d *Document) create(tag string) *Node {
	d.nextID++
	return newNode(d.nextID, tag)
}

// CreateLeaf implements host.Renderer.
func (d *Document) CreateLeaf(tag string) host.Node {
	n := d.create(tag)
	d.log(Op{Kind: OpCreateLeaf, Node: n.ID, Arg: tag})
	return n
}

// CreateLeafNS implements host.NamespaceRenderer.
func (d *Document) CreateLeafNS(namespace, tag string) host.Node {
	n := d.create(tag)
	n.Namespace = namespace
	d.log(Op{Kind: OpCreateLeaf, Node: n.ID, Arg: tag})
	return n
}

// CreateText implements host.Renderer.
func (d *Document) CreateText(content string) host.Node {
	n := d.create(textNode)
	n.Text = content
	d.log(Op{Kind: OpCreateText, Node: n.ID, Arg: content})
	return n
}

// CreateComment implements host.Renderer.
func (d *Document) CreateComment(content string) host.Node {
	n := d.create(commentNode)
	n.Text = content
	d.log(Op{Kind: OpCreateComment, Node: n.ID, Arg: content})
	return n
}

// UpdateProperties implements host.Renderer.
func (d *Document) UpdateProperties(node host.Node, next, prev element.Props) {
	n := asNode(node)
	if n == nil {
		return
	}
	delta := host.Diff(next, prev)
	if delta.TextChanged && delta.Text == n.Text {
		delta.TextChanged = false
	}
	if delta.Empty() {
		return
	}
	d.log(Op{Kind: OpUpdate, Node: n.ID, Arg: describe(delta)})
	Apply(n, delta)
}

// Apply writes delta into n.
func Apply(n *Node, delta host.Delta) {
	if delta.TextChanged {
		n.Text = delta.Text
	}
	if delta.ClassChanged {
		n.Class = delta.Class
	}
	for k, v := range delta.Styles {
		if v == "" {
			delete(n.Styles, k)
		} else {
			n.Styles[k] = v
		}
	}
	for k, v := range delta.Attrs {
		if v == "" {
			delete(n.Attrs, k)
			if k == element.XMLNSProp {
				n.Namespace = ""
			}
			continue
		}
		n.Attrs[k] = v
		if k == element.XMLNSProp {
			n.Namespace = v
		}
	}
	for k, v := range delta.Events {
		if v == nil {
			delete(n.Events, k)
		} else {
			n.Events[k] = v
		}
	}
}

// Insert implements host.Renderer.
func (d *Document) Insert(parent, node, before host.Node) {
	p, n, b := asNode(parent), asNode(node), asNode(before)
	if p == nil || n == nil {
		return
	}
	op := Op{Kind: OpInsert, Node: n.ID, Parent: p.ID}
	if b != nil {
		op.Before = b.ID
	}
	d.log(op)
	p.insertBefore(n, b)
}

// Remove implements host.Renderer.
func (d *Document) Remove(node host.Node) {
	n := asNode(node)
	if n == nil {
		return
	}
	d.log(Op{Kind: OpRemove, Node: n.ID})
	n.detach()
}

// Parent implements host.Renderer.
func (d *Document) Parent(node host.Node) host.Node {
	n := asNode(node)
	if n == nil {
		return nil
	}
	return wrap(n.Parent())
}

// FirstChild implements host.Renderer.
func (d *Document) FirstChild(node host.Node) host.Node {
	n := asNode(node)
	if n == nil {
		return nil
	}
	return wrap(n.FirstChild())
}

// NextSibling implements host.Renderer.
func (d *Document) NextSibling(node host.Node) host.Node {
	n := asNode(node)
	if n == nil {
		return nil
	}
	return wrap(n.NextSibling())
}

// asNode converts a host handle, tolerating nil.
func asNode(node host.Node) *Node {
	n, _ := node.(*Node)
	return n
}

// wrap keeps a nil *Node from becoming a non-nil interface.
func wrap(n *Node) host.Node {
	if n == nil {
		return nil
	}
	return n
}

func describe(delta host.Delta) string {
	s := ""
	if delta.TextChanged {
		s += fmt.Sprintf(" text=%q", delta.Text)
	}
	if delta.ClassChanged {
		s += fmt.Sprintf(" class=%q", delta.Class)
	}
	for _, k := range delta.StyleNames() {
		s += fmt.Sprintf(" style.%s=%q", k, delta.Styles[k])
	}
	for _, k := range delta.AttrNames() {
		s += fmt.Sprintf(" %s=%q", k, delta.Attrs[k])
	}
	for _, k := range delta.EventNames() {
		s += fmt.Sprintf(" on%s=%t", k, delta.Events[k] != nil)
	}
	if s == "" {
		return s
	}
	return s[1:]
}
