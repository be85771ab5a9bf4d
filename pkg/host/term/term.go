// Package term renders a memory document as styled terminal text.
//
// Block elements start new lines, inline elements flow within the current
// line, and a small set of tags and inline styles map onto lipgloss styles.
// Nodes with a click handler are focusable; the focused one is highlighted.
package term

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vango-dev/arbor/pkg/host"
	"github.com/vango-dev/arbor/pkg/host/memory"
)

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	focusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var blockTags = map[string]bool{
	"div": true, "p": true, "ul": true, "ol": true, "li": true,
	"section": true, "header": true, "footer": true, "main": true,
	"nav": true, "form": true, "table": true, "tr": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "br": true,
}

// Serializer renders memory nodes for a terminal.
type Serializer struct {
	focus int
	width int
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithFocus highlights the node with the given ID.
func WithFocus(id int) Option {
	return func(s *Serializer) {
		s.focus = id
	}
}

// WithWidth sets the width of horizontal rules.
func WithWidth(width int) Option {
	return func(s *Serializer) {
		s.width = width
	}
}

// New creates a Serializer.
func New(opts ...Option) *Serializer {
	s := &Serializer{width: 40}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ host.Serializer = (*Serializer)(nil)

// Serialize implements host.Serializer for *memory.Node handles. Like the
// memory document it renders the children of node.
func (s *Serializer) Serialize(node host.Node) (string, error) {
	n, ok := node.(*memory.Node)
	if !ok || n == nil {
		return "", fmt.Errorf("term: cannot serialize %T", node)
	}
	return s.Render(n), nil
}

// Render returns the terminal text for the children of n.
func (s *Serializer) Render(n *memory.Node) string {
	w := &writer{}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		s.write(w, c)
	}
	return w.String()
}

func (s *Serializer) write(w *writer, n *memory.Node) {
	switch {
	case n.IsComment():
		return
	case n.IsText():
		w.inline(n.Text)
		return
	}

	switch n.Tag {
	case "br":
		w.newline()
		return
	case "hr":
		w.block(mutedStyle.Render(strings.Repeat("─", s.width)))
		return
	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.block(s.style(n, headingStyle).Render(inlineText(n)))
		return
	}

	if n.Handler("click") != nil {
		style := buttonStyle
		if n.ID == s.focus {
			style = focusStyle
		}
		w.inline(s.style(n, style).Render("[ " + inlineText(n) + " ]"))
		return
	}

	inner := &writer{}
	if n.Tag == "li" {
		inner.inline("• ")
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		s.write(inner, c)
	}
	text := inner.String()

	if style, ok := tagStyle(n.Tag); ok {
		text = s.style(n, style).Render(text)
	} else if len(n.Styles) > 0 {
		text = s.style(n, lipgloss.NewStyle()).Render(text)
	}

	if blockTags[n.Tag] {
		w.block(text)
	} else {
		w.inline(text)
	}
}

func tagStyle(tag string) (lipgloss.Style, bool) {
	switch tag {
	case "b", "strong":
		return lipgloss.NewStyle().Bold(true), true
	case "i", "em":
		return lipgloss.NewStyle().Italic(true), true
	case "u":
		return lipgloss.NewStyle().Underline(true), true
	case "code":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")), true
	}
	return lipgloss.Style{}, false
}

// style layers the node's inline styles over base.
func (s *Serializer) style(n *memory.Node, base lipgloss.Style) lipgloss.Style {
	st := base
	if v, ok := n.Styles["color"]; ok {
		st = st.Foreground(lipgloss.Color(v))
	}
	if v, ok := n.Styles["background-color"]; ok {
		st = st.Background(lipgloss.Color(v))
	}
	if v := n.Styles["font-weight"]; v == "bold" || v == "700" {
		st = st.Bold(true)
	}
	if n.Styles["font-style"] == "italic" {
		st = st.Italic(true)
	}
	if n.Styles["text-decoration"] == "underline" {
		st = st.Underline(true)
	}
	return st
}

// inlineText flattens n to plain text.
func inlineText(n *memory.Node) string {
	return strings.Join(strings.Fields(n.TextContent()), " ")
}

// Focusable returns the nodes under root that carry a click handler, in
// document order.
func Focusable(root *memory.Node) []*memory.Node {
	var out []*memory.Node
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, c.FindAll(func(n *memory.Node) bool {
			return n.Handler("click") != nil
		})...)
	}
	return out
}

// writer accumulates lines; block content always occupies whole lines.
type writer struct {
	lines []string
	cur   strings.Builder
}

func (w *writer) inline(s string) {
	parts := strings.Split(s, "\n")
	w.cur.WriteString(parts[0])
	for _, p := range parts[1:] {
		w.newline()
		w.cur.WriteString(p)
	}
}

func (w *writer) newline() {
	w.lines = append(w.lines, w.cur.String())
	w.cur.Reset()
}

func (w *writer) block(s string) {
	if w.cur.Len() > 0 {
		w.newline()
	}
	if s == "" {
		return
	}
	w.lines = append(w.lines, strings.Split(s, "\n")...)
}

func (w *writer) String() string {
	lines := w.lines
	if w.cur.Len() > 0 {
		lines = append(lines, w.cur.String())
	}
	return strings.Join(lines, "\n")
}
