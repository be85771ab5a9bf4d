package remote

import (
	"fmt"

	"github.com/vango-dev/arbor/pkg/host"
	"github.com/vango-dev/arbor/pkg/host/memory"
)

// Mirror replays patches onto a memory document. It is the client end of a
// stream and produces the same markup as the Renderer that emitted them.
type Mirror struct {
	doc   *memory.Document
	root  *memory.Node
	nodes map[int]*memory.Node
	ids   map[*memory.Node]int
}

// NewMirror creates a mirror whose root stands for the remote node rootID.
func NewMirror(rootID int, opts ...memory.Option) *Mirror {
	doc := memory.NewDocument(opts...)
	root := doc.CreateLeaf("root").(*memory.Node)
	return &Mirror{
		doc:   doc,
		root:  root,
		nodes: map[int]*memory.Node{rootID: root},
		ids:   map[*memory.Node]int{root: rootID},
	}
}

// Root returns the mirrored root node.
func (m *Mirror) Root() *memory.Node { return m.root }

// Node returns the mirrored node for a remote ID.
func (m *Mirror) Node(id int) (*memory.Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// NodeID returns the remote ID of a mirrored node.
func (m *Mirror) NodeID(n *memory.Node) (int, bool) {
	id, ok := m.ids[n]
	return id, ok
}

// Serialize returns the markup under the root.
func (m *Mirror) Serialize() (string, error) {
	return m.doc.Serialize(m.root)
}

// Apply replays patches in order. It stops at the first patch naming an
// unknown node.
func (m *Mirror) Apply(patches []Patch) error {
	for i, p := range patches {
		if err := m.apply(p); err != nil {
			return fmt.Errorf("remote: patch %d (%s): %w", i, p, err)
		}
	}
	return nil
}

func (m *Mirror) bind(id int, node host.Node) {
	n := node.(*memory.Node)
	m.nodes[id] = n
	m.ids[n] = id
}

func (m *Mirror) apply(p Patch) error {
	switch p.Op {
	case OpCreateLeaf:
		if p.Value != "" {
			m.bind(p.Node, m.doc.CreateLeafNS(p.Value, p.Name))
		} else {
			m.bind(p.Node, m.doc.CreateLeaf(p.Name))
		}
		return nil
	case OpCreateText:
		m.bind(p.Node, m.doc.CreateText(p.Value))
		return nil
	case OpCreateComment:
		m.bind(p.Node, m.doc.CreateComment(p.Value))
		return nil
	}

	n, ok := m.nodes[p.Node]
	if !ok {
		return fmt.Errorf("unknown node #%d", p.Node)
	}

	switch p.Op {
	case OpSetText:
		n.Text = p.Value
	case OpSetClass:
		memory.Apply(n, host.Delta{Class: p.Value, ClassChanged: true})
	case OpSetStyle:
		memory.Apply(n, host.Delta{Styles: map[string]string{p.Name: p.Value}})
	case OpSetAttr:
		memory.Apply(n, host.Delta{Attrs: map[string]string{p.Name: p.Value}})
	case OpSetEvent:
		var marker any
		if p.Flag {
			marker = true
		}
		memory.Apply(n, host.Delta{Events: map[string]any{p.Name: marker}})
	case OpInsert:
		parent, ok := m.nodes[p.Parent]
		if !ok {
			return fmt.Errorf("unknown parent #%d", p.Parent)
		}
		var before host.Node
		if p.Before != 0 {
			b, ok := m.nodes[p.Before]
			if !ok {
				return fmt.Errorf("unknown sibling #%d", p.Before)
			}
			before = b
		}
		m.doc.Insert(parent, n, before)
	case OpRemove:
		m.doc.Remove(n)
		for _, x := range n.FindAll(func(*memory.Node) bool { return true }) {
			if id, ok := m.ids[x]; ok {
				delete(m.nodes, id)
				delete(m.ids, x)
			}
		}
	default:
		return fmt.Errorf("unknown op %s", p.Op)
	}
	return nil
}
