package memory

import "github.com/vango-dev/arbor/pkg/element"

// Node kinds that are not element tags.
const (
	textNode    = element.TextTag
	commentNode = element.CommentTag
)

// Node is one node of a Document.
type Node struct {
	ID   int
	Tag  string
	Text string

	Class     string
	Namespace string
	Styles    map[string]string
	Attrs     map[string]string
	Events    map[string]any

	parent      *Node
	firstChild  *Node
	lastChild   *Node
	nextSibling *Node
	prevSibling *Node
}

func newNode(id int, tag string) *Node {
	return &Node{
		ID:     id,
		Tag:    tag,
		Styles: make(map[string]string),
		Attrs:  make(map[string]string),
		Events: make(map[string]any),
	}
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.Tag == textNode }

// IsComment reports whether n is a comment node.
func (n *Node) IsComment() bool { return n.Tag == commentNode }

// Parent returns the parent node or nil.
func (n *Node) Parent() *Node { return n.parent }

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node { return n.firstChild }

// NextSibling returns the next sibling or nil.
func (n *Node) NextSibling() *Node { return n.nextSibling }

// Children returns the child nodes in order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.firstChild; c != nil; c = c.nextSibling {
		out = append(out, c)
	}
	return out
}

// Handler returns the handler bound to event, or nil.
func (n *Node) Handler(event string) any {
	return n.Events[event]
}

// TextContent returns the concatenated text of n and its descendants.
// Comments contribute nothing.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	if n.IsComment() {
		return ""
	}
	var s string
	for c := n.firstChild; c != nil; c = c.nextSibling {
		s += c.TextContent()
	}
	return s
}

// Find returns the first node in pre-order, n included, matching fn.
func (n *Node) Find(fn func(*Node) bool) *Node {
	if fn(n) {
		return n
	}
	for c := n.firstChild; c != nil; c = c.nextSibling {
		if found := c.Find(fn); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node in pre-order, n included, matching fn.
func (n *Node) FindAll(fn func(*Node) bool) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(x *Node) {
		if fn(x) {
			out = append(out, x)
		}
		for c := x.firstChild; c != nil; c = c.nextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// detach unlinks n from its parent.
func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}
	if n.prevSibling != nil {
		n.prevSibling.nextSibling = n.nextSibling
	} else {
		p.firstChild = n.nextSibling
	}
	if n.nextSibling != nil {
		n.nextSibling.prevSibling = n.prevSibling
	} else {
		p.lastChild = n.prevSibling
	}
	n.parent, n.prevSibling, n.nextSibling = nil, nil, nil
}

// insertBefore links child under n before ref, or at the end when ref is nil
// or not a child of n.
func (n *Node) insertBefore(child, ref *Node) {
	child.detach()
	child.parent = n
	if ref == nil || ref.parent != n {
		child.prevSibling = n.lastChild
		if n.lastChild != nil {
			n.lastChild.nextSibling = child
		} else {
			n.firstChild = child
		}
		n.lastChild = child
		return
	}
	child.nextSibling = ref
	child.prevSibling = ref.prevSibling
	if ref.prevSibling != nil {
		ref.prevSibling.nextSibling = child
	} else {
		n.firstChild = child
	}
	ref.prevSibling = child
}
