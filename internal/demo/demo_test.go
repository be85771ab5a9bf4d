package demo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vango-dev/arbor"
	"github.com/vango-dev/arbor/internal/errors"
	"github.com/vango-dev/arbor/pkg/host/memory"
	"github.com/vango-dev/arbor/pkg/reactive"
	"github.com/vango-dev/arbor/pkg/schedule"
)

type page struct {
	t      *testing.T
	doc    *memory.Document
	target *memory.Node
	driver *schedule.Manual
}

func open(t *testing.T, name string) *page {
	t.Helper()
	app, err := Lookup(name)
	require.NoError(t, err)

	store := reactive.NewStore()
	p := &page{t: t, doc: memory.NewDocument(), driver: schedule.NewManual()}
	p.target = p.doc.CreateLeaf("root").(*memory.Node)
	h := arbor.Mount(app.New(store), p.doc, p.target, arbor.WithDriver(p.driver), arbor.WithStore(store))
	t.Cleanup(h.Unmount)
	p.settle()
	return p
}

func (p *page) settle() {
	p.t.Helper()
	require.NoError(p.t, p.driver.Run())
}

func (p *page) find(tag, text string) *memory.Node {
	p.t.Helper()
	n := p.target.Find(func(n *memory.Node) bool {
		return n.Tag == tag && n.TextContent() == text
	})
	require.NotNil(p.t, n, "no <%s> with text %q", tag, text)
	return n
}

func (p *page) click(tag, text string) {
	p.t.Helper()
	p.find(tag, text).Handler("click").(func())()
	p.settle()
}

func (p *page) text() string {
	return p.target.TextContent()
}

func TestLookup(t *testing.T) {
	require.Equal(t, []string{"counter", "todo"}, Names())

	_, err := Lookup("chess")
	require.True(t, errors.HasCode(err, "E070"))
}

func TestCounter(t *testing.T) {
	p := open(t, "counter")
	require.Equal(t, "Counter-0+reset", p.text())

	p.click("button", "+")
	p.click("button", "+")
	require.Equal(t, "Counter-2+reset", p.text())

	p.click("button", "reset")
	p.click("button", "-")
	require.Equal(t, "Counter-1+reset", p.text())
	require.Equal(t, "count negative", p.find("span", "-1").Class)
}

func TestTodo(t *testing.T) {
	p := open(t, "todo")
	require.Contains(t, p.text(), "Write the reconciler")
	require.Contains(t, p.text(), "1 item left")

	input := p.target.Find(func(n *memory.Node) bool { return n.Tag == "input" })
	input.Handler("input").(func(string))("Test it")
	p.settle()
	require.Equal(t, "Test it", input.Attrs["value"])

	p.click("button", "add")
	require.Contains(t, p.text(), "Test it")
	require.Contains(t, p.text(), "2 items left")
	_, hasValue := input.Attrs["value"]
	require.False(t, hasValue)

	p.click("span", "Write the reconciler")
	require.Equal(t, "item done", p.find("span", "Write the reconciler").Parent().Class)
	require.Contains(t, p.text(), "1 item left")

	p.click("button", "active")
	require.NotContains(t, p.text(), "Write the reconciler")
	require.Contains(t, p.text(), "Test it")

	p.click("button", "done")
	require.Contains(t, p.text(), "Write the reconciler")
	require.NotContains(t, p.text(), "Test it")

	p.click("button", "all")
	test := p.find("span", "Test it").Parent()
	test.Find(func(n *memory.Node) bool { return n.Tag == "button" }).Handler("click").(func())()
	p.settle()
	require.NotContains(t, p.text(), "Test it")
}

func TestTodoEmptyFilter(t *testing.T) {
	p := open(t, "todo")
	p.click("span", "Write the reconciler")
	p.click("button", "active")
	require.Contains(t, p.text(), "Nothing to do")
}

func TestRenderToString(t *testing.T) {
	app, err := Lookup("counter")
	require.NoError(t, err)
	store := reactive.NewStore()
	html, err := arbor.RenderToString(app.New(store), arbor.WithStore(store))
	require.NoError(t, err)
	require.Contains(t, html, `<span class="count">0</span>`)
	require.Contains(t, html, `data-on-click="true"`)
}
