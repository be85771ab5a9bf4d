package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vango-dev/arbor/pkg/element"
)

func TestInsertAppendAndMove(t *testing.T) {
	d := NewDocument(WithOpLog())
	root := d.CreateLeaf("div").(*Node)
	a := d.CreateLeaf("a").(*Node)
	b := d.CreateLeaf("b").(*Node)
	c := d.CreateLeaf("c").(*Node)

	d.Insert(root, a, nil)
	d.Insert(root, b, nil)
	d.Insert(root, c, a)
	require.Equal(t, []*Node{c, a, b}, root.Children())

	d.Insert(root, c, nil)
	require.Equal(t, []*Node{a, b, c}, root.Children())
	require.Equal(t, root, d.Parent(c))
	require.Equal(t, a, d.FirstChild(root))
	require.Equal(t, b, d.NextSibling(a))
	require.Nil(t, d.NextSibling(c))

	d.Remove(b)
	require.Equal(t, []*Node{a, c}, root.Children())
	require.Nil(t, d.Parent(b))
	require.Nil(t, d.Parent(nil))

	require.Equal(t, 4, d.Count(OpInsert))
	require.Equal(t, 1, d.Count(OpRemove))
	require.Equal(t, "insert #4 into #1 before #2", d.Ops()[6].String())
}

func TestInsertAcrossParents(t *testing.T) {
	d := NewDocument()
	p1 := d.CreateLeaf("p").(*Node)
	p2 := d.CreateLeaf("p").(*Node)
	x := d.CreateText("x").(*Node)

	d.Insert(p1, x, nil)
	d.Insert(p2, x, nil)
	require.Empty(t, p1.Children())
	require.Equal(t, []*Node{x}, p2.Children())
	require.Empty(t, d.Ops(), "log disabled by default")
}

func TestUpdateProperties(t *testing.T) {
	d := NewDocument(WithOpLog())
	n := d.CreateLeaf("div").(*Node)
	click := func() {}

	d.UpdateProperties(n, element.Props{
		"id":      "main",
		"class":   "card",
		"style":   map[string]any{"fontSize": "12px"},
		"onClick": click,
	}, nil)
	require.Equal(t, "main", n.Attrs["id"])
	require.Equal(t, "card", n.Class)
	require.Equal(t, "12px", n.Styles["font-size"])
	require.NotNil(t, n.Handler("click"))

	prev := element.Props{"id": "main", "class": "card", "style": map[string]any{"fontSize": "12px"}, "onClick": click}
	d.UpdateProperties(n, element.Props{"class": "card"}, prev)
	require.Empty(t, n.Attrs)
	require.Empty(t, n.Styles)
	require.Empty(t, n.Events)
	require.Equal(t, 2, d.Count(OpUpdate))

	d.UpdateProperties(n, element.Props{"class": "card"}, element.Props{"class": "card"})
	require.Equal(t, 2, d.Count(OpUpdate), "no-op deltas are not logged")
}

func TestUpdateTextSkipsUnchanged(t *testing.T) {
	d := NewDocument(WithOpLog())
	n := d.CreateText("hi").(*Node)

	d.UpdateProperties(n, element.Props{"textContent": "hi"}, nil)
	require.Equal(t, 0, d.Count(OpUpdate))

	d.UpdateProperties(n, element.Props{"textContent": "bye"}, element.Props{"textContent": "hi"})
	require.Equal(t, "bye", n.Text)
	require.Equal(t, 1, d.Count(OpUpdate))
}

func TestNamespaceFromXMLNS(t *testing.T) {
	d := NewDocument()
	n := d.CreateLeaf("svg").(*Node)
	d.UpdateProperties(n, element.Props{"xmlns": "http://www.w3.org/2000/svg"}, nil)
	require.Equal(t, "http://www.w3.org/2000/svg", n.Namespace)
}

func TestFind(t *testing.T) {
	d := NewDocument()
	root := d.CreateLeaf("div").(*Node)
	btn := d.CreateLeaf("button").(*Node)
	d.Insert(root, d.CreateText("a"), nil)
	d.Insert(root, btn, nil)
	d.Insert(btn, d.CreateText("b"), nil)

	require.Equal(t, btn, root.Find(func(n *Node) bool { return n.Tag == "button" }))
	require.Len(t, root.FindAll(func(n *Node) bool { return n.IsText() }), 2)
	require.Equal(t, "ab", root.TextContent())
}
