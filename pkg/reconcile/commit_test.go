package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/host/memory"
	"github.com/vango-dev/arbor/pkg/reactive"
)

func TestMountFiresBottomUp(t *testing.T) {
	var order []string
	var parentSaw string
	var h *harness

	named := func(name string, children ...any) *element.Component {
		return element.Define(name, func(hooks element.Hooks, _ element.Props) element.Render {
			hooks.OnMounted(func() func() {
				order = append(order, name)
				return nil
			})
			return func() any { return element.New("span", nil, children...) }
		})
	}

	Parent := element.Define("Parent", func(hooks element.Hooks, _ element.Props) element.Render {
		hooks.OnMounted(func() func() {
			order = append(order, "parent")
			parentSaw, _ = h.doc.Serialize(h.target)
			return nil
		})
		return func() any {
			return element.New("div", nil,
				element.New(named("child1", "a"), nil),
				element.New(named("child2", "b"), nil),
			)
		}
	})

	h = newHarness(t, nil, element.New(Parent, nil), nil)
	h.run(t)

	require.Equal(t, []string{"child2", "child1", "parent"}, order)
	require.Equal(t, "<div><span>a</span><span>b</span></div>", parentSaw, "subtree attached before parent mount")
}

func TestMountFiresOnce(t *testing.T) {
	store := reactive.NewStore()
	n := reactive.NewRef(store, 0)

	mounts := 0
	App := element.Define("App", func(hooks element.Hooks, _ element.Props) element.Render {
		hooks.OnMounted(func() func() { mounts++; return nil })
		return func() any { return n.Get() }
	})
	h := mount(t, store, element.New(App, nil))

	n.Set(1)
	h.run(t)
	n.Set(2)
	h.run(t)
	require.Equal(t, 1, mounts)
}

func TestUnmountOrderAndCleanup(t *testing.T) {
	store := reactive.NewStore()
	show := reactive.NewRef(store, true)

	var events []string
	inner := func(name string) *element.Component {
		return element.Define(name, func(hooks element.Hooks, _ element.Props) element.Render {
			hooks.OnMounted(func() func() {
				return func() { events = append(events, "cleanup:"+name) }
			})
			hooks.OnUnmounted(func() { events = append(events, "unmount:"+name) })
			return func() any { return name }
		})
	}
	Outer := element.Define("Outer", func(hooks element.Hooks, _ element.Props) element.Render {
		hooks.OnUnmounted(func() { events = append(events, "unmount:outer") })
		return func() any {
			return element.New("div", nil, element.New(inner("in1"), nil), element.New(inner("in2"), nil))
		}
	})
	App := element.Define("App", func(_ element.Hooks, _ element.Props) element.Render {
		return func() any {
			if show.Get() {
				return element.New(Outer, nil)
			}
			return nil
		}
	})
	h := mount(t, store, element.New(App, nil))
	require.Equal(t, "<div>in1in2</div>", h.html(t))

	show.Set(false)
	h.run(t)

	require.Equal(t, []string{
		"unmount:in1", "cleanup:in1",
		"unmount:in2", "cleanup:in2",
		"unmount:outer",
	}, events)
	require.Equal(t, "<!--nil-->", h.html(t))

	h.root.Unmount()
	require.Len(t, events, 5, "torn-down instances never fire again")
}

func TestDeletionRemovesOnlyTopLevelNodes(t *testing.T) {
	store := reactive.NewStore()
	show := reactive.NewRef(store, true)

	Pair := element.Define("Pair", func(_ element.Hooks, _ element.Props) element.Render {
		return func() any {
			return []any{element.New("span", nil, element.New("b", nil, "a")), element.New("span", nil, "b")}
		}
	})
	App := element.Define("App", func(_ element.Hooks, _ element.Props) element.Render {
		return func() any {
			var first any = false
			if show.Get() {
				first = element.New(Pair, nil)
			}
			return element.New("div", nil, first, element.New("p", nil, "z"))
		}
	})
	h := mount(t, store, element.New(App, nil))
	require.Equal(t, "<div><span><b>a</b></span><span>b</span><p>z</p></div>", h.html(t))
	pair := h.root.App().Child().Child()
	h.doc.ResetOps()

	show.Set(false)
	h.run(t)

	require.Equal(t, 2, h.doc.Count(memory.OpRemove), h.ops())
	require.Equal(t, "<div><!--false--><p>z</p></div>", h.html(t))
	require.True(t, pair.Context().Disposed())
	for _, c := range pair.Children() {
		require.Nil(t, c.Node())
		require.True(t, c.Context().Disposed())
	}
}

func TestRefPropReceivesHostNode(t *testing.T) {
	store := reactive.NewStore()
	show := reactive.NewRef(store, true)
	nodeRef := reactive.NewRef[any](store, nil)

	App := element.Define("App", func(_ element.Hooks, _ element.Props) element.Render {
		return func() any {
			if show.Get() {
				return element.New("input", element.Props{"ref": nodeRef, "value": "x"})
			}
			return nil
		}
	})
	h := mount(t, store, element.New(App, nil))

	n, ok := nodeRef.Peek().(*memory.Node)
	require.True(t, ok)
	require.Equal(t, "input", n.Tag)
	require.Equal(t, `<input value="x">`, h.html(t))

	show.Set(false)
	h.run(t)
	require.Nil(t, nodeRef.Peek())
}

func TestListenerPanicsAreIsolated(t *testing.T) {
	store := reactive.NewStore()
	show := reactive.NewRef(store, true)
	rec := newRecorder()

	ran := 0
	Bad := element.Define("Bad", func(hooks element.Hooks, _ element.Props) element.Render {
		hooks.OnMounted(func() func() { panic("mount boom") })
		hooks.OnMounted(func() func() { ran++; return nil })
		hooks.OnUnmounted(func() { panic("unmount boom") })
		hooks.OnUnmounted(func() { ran++ })
		return func() any { return "bad" }
	})
	App := element.Define("App", func(_ element.Hooks, _ element.Props) element.Render {
		return func() any {
			if show.Get() {
				return element.New(Bad, nil)
			}
			return "gone"
		}
	})
	h := mount(t, store, element.New(App, nil), WithObserver(rec))
	require.Equal(t, 1, ran)
	require.Equal(t, "bad", h.html(t))

	show.Set(false)
	h.run(t)
	require.Equal(t, 2, ran)
	require.Equal(t, "gone", h.html(t))
	require.Equal(t, 1, rec.listeners[ListenerMounted])
	require.Equal(t, 1, rec.listeners[ListenerUnmounted])
}

func TestCommitStats(t *testing.T) {
	rec := newRecorder()
	mount(t, nil, element.New("ul", nil, element.New("li", nil, "a"), element.New("li", nil, "b")), WithObserver(rec))

	require.Equal(t, 1, rec.commits)
	stats := rec.stats[0]
	require.Equal(t, 5, stats.Created)
	require.Equal(t, 5, stats.Placed)
	require.Equal(t, 5, stats.Mounted)
}
