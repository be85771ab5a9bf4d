package memory

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vango-dev/arbor/pkg/host"
)

// Serialize implements host.Serializer. It writes the children of node, so
// serializing a mount target yields the markup mounted into it.
func (d *Document) Serialize(node host.Node) (string, error) {
	n := asNode(node)
	if n == nil {
		return "", fmt.Errorf("memory: cannot serialize %T", node)
	}
	var buf bytes.Buffer
	for c := n.firstChild; c != nil; c = c.nextSibling {
		if err := d.writeNode(&buf, c, 0); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// SerializeNode writes node itself, including its own tag.
func (d *Document) SerializeNode(node *Node) (string, error) {
	var buf bytes.Buffer
	if err := d.writeNode(&buf, node, 0); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteTo streams the children of node to w.
func (d *Document) WriteTo(w io.Writer, node *Node) error {
	for c := node.firstChild; c != nil; c = c.nextSibling {
		if err := d.writeNode(w, c, 0); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) writeNode(w io.Writer, n *Node, depth int) error {
	switch {
	case n.IsText():
		_, err := io.WriteString(w, escapeHTML(n.Text))
		return err
	case n.IsComment():
		_, err := fmt.Fprintf(w, "<!--%s-->", escapeComment(n.Text))
		return err
	}

	if d.pretty && depth > 0 {
		d.writeIndent(w, depth)
	}
	if _, err := fmt.Fprintf(w, "<%s", n.Tag); err != nil {
		return err
	}
	if err := writeAttributes(w, n); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}
	if voidElements[n.Tag] && n.firstChild == nil {
		if d.pretty {
			io.WriteString(w, "\n")
		}
		return nil
	}

	block := d.pretty && n.firstChild != nil && !inlineElements[n.Tag] && hasElementChild(n)
	if block {
		io.WriteString(w, "\n")
	}
	for c := n.firstChild; c != nil; c = c.nextSibling {
		if err := d.writeNode(w, c, depth+1); err != nil {
			return err
		}
	}
	if block {
		d.writeIndent(w, depth)
	}
	if _, err := fmt.Fprintf(w, "</%s>", n.Tag); err != nil {
		return err
	}
	if d.pretty {
		io.WriteString(w, "\n")
	}
	return nil
}

func writeAttributes(w io.Writer, n *Node) error {
	if n.Class != "" {
		if _, err := fmt.Fprintf(w, ` class="%s"`, escapeAttr(n.Class)); err != nil {
			return err
		}
	}

	if len(n.Styles) > 0 {
		keys := sortedKeys(n.Styles)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+":"+n.Styles[k])
		}
		if _, err := fmt.Fprintf(w, ` style="%s"`, escapeAttr(strings.Join(parts, ";"))); err != nil {
			return err
		}
	}

	for _, k := range sortedKeys(n.Attrs) {
		v := n.Attrs[k]
		if booleanAttrs[k] {
			if v == "true" {
				if _, err := fmt.Fprintf(w, " %s", k); err != nil {
					return err
				}
			}
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, k, escapeAttr(v)); err != nil {
			return err
		}
	}

	events := make([]string, 0, len(n.Events))
	for k := range n.Events {
		events = append(events, k)
	}
	sort.Strings(events)
	for _, k := range events {
		if _, err := fmt.Fprintf(w, ` data-on-%s="true"`, k); err != nil {
			return err
		}
	}
	return nil
}

func hasElementChild(n *Node) bool {
	for c := n.firstChild; c != nil; c = c.nextSibling {
		if !c.IsText() && !c.IsComment() {
			return true
		}
	}
	return false
}

func (d *Document) writeIndent(w io.Writer, depth int) {
	io.WriteString(w, strings.Repeat(d.indent, depth))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
