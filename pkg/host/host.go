// Package host defines the contract between the reconciler and a concrete
// rendering target.
//
// The reconciler never inspects host nodes. It creates them, moves them and
// hands them property deltas through a Renderer. Implementations live in the
// subpackages: memory (an in-process document with HTML serialization),
// remote (a patch stream for a client over the wire) and term (terminal
// output).
package host

import "github.com/vango-dev/arbor/pkg/element"

// Node is an opaque host handle. Nil means "no node".
type Node any

// Renderer realizes structural and property changes for one target.
// All methods are called from the scheduler goroutine.
type Renderer interface {
	CreateLeaf(tag string) Node
	CreateText(content string) Node
	CreateComment(content string) Node

	// UpdateProperties applies the delta between prev and next. prev is nil
	// for a freshly created node.
	UpdateProperties(node Node, next, prev element.Props)

	// Insert attaches node under parent before the given sibling, or at the
	// end when before is nil. A node that is already attached is moved.
	Insert(parent, node, before Node)

	// Remove detaches node from its parent.
	Remove(node Node)

	Parent(node Node) Node
	FirstChild(node Node) Node
	NextSibling(node Node) Node
}

// Serializer is implemented by string-producing hosts.
type Serializer interface {
	Serialize(node Node) (string, error)
}

// NamespaceRenderer is implemented by hosts that distinguish element
// namespaces (SVG, MathML). The scheduler uses CreateLeafNS for instances
// that carry a namespace.
type NamespaceRenderer interface {
	CreateLeafNS(namespace, tag string) Node
}
