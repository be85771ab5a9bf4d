package arbor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vango-dev/arbor/pkg/host/memory"
	"github.com/vango-dev/arbor/pkg/schedule"
)

func TestRenderToString(t *testing.T) {
	html, err := RenderToString(New("p", nil, "hello"))
	require.NoError(t, err)
	require.Equal(t, "<p>hello</p>", html)
}

func TestRenderToStringComponents(t *testing.T) {
	Item := Define("Item", func(_ Hooks, props Props) Render {
		return func() any { return New("li", nil, props["label"]) }
	})
	List := Define("List", func(_ Hooks, _ Props) Render {
		return func() any {
			return New("ul", Props{"class": "items"},
				New(Item, Props{"key": "a", "label": "one"}),
				New(Fragment, nil, New(Item, Props{"label": "two"}), "tail"),
			)
		}
	})

	html, err := RenderToString(New(List, nil))
	require.NoError(t, err)
	require.Equal(t, `<ul class="items"><li>one</li><li>two</li>tail</ul>`, html)
}

func TestRenderToStringFiresMountBeforeReturn(t *testing.T) {
	store := NewStore()
	status := NewRef(store, "rendering")

	mounted := false
	App := Define("App", func(h Hooks, _ Props) Render {
		h.OnMounted(func() func() {
			mounted = true
			status.Set("mounted")
			return nil
		})
		return func() any { return New("div", nil, status.Get()) }
	})

	html, err := RenderToString(New(App, nil), WithStore(store))
	require.NoError(t, err)
	require.True(t, mounted)
	require.Equal(t, "<div>mounted</div>", html)
}

func TestRenderToStringIndent(t *testing.T) {
	html, err := RenderToString(New("ul", nil, New("li", nil, "x")), WithIndent("  "))
	require.NoError(t, err)
	require.Equal(t, "<ul>\n  <li>x</li>\n</ul>\n", html)
}

func TestMountManual(t *testing.T) {
	store := NewStore()
	n := NewRef(store, 1)
	App := Define("App", func(_ Hooks, _ Props) Render {
		return func() any { return New("b", nil, n.Get()) }
	})

	doc := memory.NewDocument()
	target := doc.CreateLeaf("root")
	driver := schedule.NewManual()
	h := Mount(New(App, nil), doc, target, WithDriver(driver), WithStore(store))

	require.NoError(t, driver.Run())
	html, _ := doc.Serialize(target)
	require.Equal(t, "<b>1</b>", html)

	n.Set(2)
	require.NoError(t, driver.Run())
	html, _ = doc.Serialize(target)
	require.Equal(t, "<b>2</b>", html)

	h.Unmount()
	h.Unmount()
	html, _ = doc.Serialize(target)
	require.Empty(t, html)
	require.NoError(t, h.Err())
}

func TestHydrateCompletesFirstTurn(t *testing.T) {
	doc := memory.NewDocument()
	target := doc.CreateLeaf("root")
	driver := schedule.NewManual(schedule.WithStepsPerTurn(1))

	h := Hydrate(New("div", nil, New("p", nil, "a"), New("p", nil, "b")), doc, target, WithDriver(driver))
	require.True(t, driver.Step())
	require.True(t, h.Root().Committed())

	html, _ := doc.Serialize(target)
	require.Equal(t, "<div><p>a</p><p>b</p></div>", html)
}

func TestMountOnLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := schedule.NewLoop()
	go loop.Run(ctx)

	store := NewStore()
	n := NewRef(store, 0)
	App := Define("App", func(_ Hooks, _ Props) Render {
		return func() any { return New("i", nil, n.Get()) }
	})

	doc := memory.NewDocument()
	target := doc.CreateLeaf("root")
	h := Mount(New(App, nil), doc, target, WithDriver(loop), WithStore(store))

	serialize := func() string {
		var html string
		require.NoError(t, loop.Call(ctx, func() { html, _ = doc.Serialize(target) }))
		return html
	}

	require.Eventually(t, func() bool { return serialize() == "<i>0</i>" }, time.Second, 5*time.Millisecond)

	n.Set(5)
	require.Eventually(t, func() bool { return serialize() == "<i>5</i>" }, time.Second, 5*time.Millisecond)

	h.Unmount()
	require.Eventually(t, func() bool { return serialize() == "" }, time.Second, 5*time.Millisecond)
}
