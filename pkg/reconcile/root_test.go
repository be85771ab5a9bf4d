package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vango-dev/arbor/internal/errors"
	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/host/memory"
	"github.com/vango-dev/arbor/pkg/reactive"
	"github.com/vango-dev/arbor/pkg/schedule"
)

// reader returns a component that renders the value of ref and counts its
// renders.
func reader(name string, ref *reactive.Ref[int], renders *int) *element.Component {
	return element.Define(name, func(_ element.Hooks, _ element.Props) element.Render {
		return func() any {
			*renders++
			return element.New("span", nil, ref.Get())
		}
	})
}

func TestDependencyPrecision(t *testing.T) {
	store := reactive.NewStore()
	a := reactive.NewRef(store, 0)
	b := reactive.NewRef(store, 0)

	var rendersA, rendersB int
	app := element.New("div", nil,
		element.New(reader("A", a, &rendersA), nil),
		element.New(reader("B", b, &rendersB), nil),
	)
	h := mount(t, store, app)
	require.Equal(t, 1, rendersA)
	require.Equal(t, 1, rendersB)

	b.Set(1)
	h.run(t)
	require.Equal(t, 1, rendersA)
	require.Equal(t, 2, rendersB)

	a.Set(1)
	a.Set(2)
	h.run(t)
	require.Equal(t, 2, rendersA, "one re-render per write batch")
	require.Equal(t, 2, rendersB)
	require.Equal(t, "<div><span>2</span><span>1</span></div>", h.html(t))
}

func TestSingleRerenderScenario(t *testing.T) {
	store := reactive.NewStore()
	ref := reactive.NewRef(store, 0)
	other := reactive.NewRef(store, 0)

	var watched, sibling1, sibling2 int
	rec := newRecorder()
	app := element.New("main", nil,
		element.New(reader("Sibling1", other, &sibling1), nil),
		element.New(reader("Watched", ref, &watched), nil),
		element.New(reader("Sibling2", other, &sibling2), nil),
	)
	h := mount(t, store, app, WithObserver(rec))
	rendersBefore := rec.renders

	ref.Set(1)
	h.run(t)

	require.Equal(t, 2, watched)
	require.Equal(t, 1, sibling1)
	require.Equal(t, 1, sibling2)
	require.Equal(t, rendersBefore+1, rec.renders)
}

func TestStaleDependencyReleased(t *testing.T) {
	store := reactive.NewStore()
	useA := reactive.NewRef(store, true)
	a := reactive.NewRef(store, 0)

	renders := 0
	App := element.Define("App", func(_ element.Hooks, _ element.Props) element.Render {
		return func() any {
			renders++
			if useA.Get() {
				return a.Get()
			}
			return "off"
		}
	})
	h := mount(t, store, element.New(App, nil))
	require.Len(t, h.root.App().Dependencies(), 2)
	require.Equal(t, 1, a.Watchers())

	useA.Set(false)
	h.run(t)
	require.Equal(t, 2, renders)
	require.Len(t, h.root.App().Dependencies(), 1)
	require.Equal(t, 0, a.Watchers())

	a.Set(5)
	h.run(t)
	require.Equal(t, 2, renders)
	require.Equal(t, "off", h.html(t))
}

// deepApp builds a tree of nested components and primitives.
func deepApp(store *reactive.Store, counter *reactive.Ref[int]) *element.Element {
	Leaf := element.Define("Leaf", func(_ element.Hooks, props element.Props) element.Render {
		return func() any {
			return element.New("li", element.Props{"class": "leaf"}, props["label"], counter.Get())
		}
	})
	Branch := element.Define("Branch", func(_ element.Hooks, props element.Props) element.Render {
		return func() any {
			n := props["n"].(int)
			var kids []any
			for i := 0; i < n; i++ {
				kids = append(kids, element.New(Leaf, element.Props{"key": i, "label": fmt.Sprintf("%d.%d", n, i)}))
			}
			return element.New("ul", nil, kids)
		}
	})
	return element.New("section", nil,
		element.New(Branch, element.Props{"n": 2}),
		element.New("hr", nil),
		element.New(Branch, element.Props{"n": 3}),
	)
}

func TestResumableWalk(t *testing.T) {
	run := func(steps int) (string, []string, *recorder) {
		store := reactive.NewStore()
		counter := reactive.NewRef(store, 0)
		rec := newRecorder()

		var driverOpts []schedule.ManualOption
		if steps > 0 {
			driverOpts = append(driverOpts, schedule.WithStepsPerTurn(steps))
		}
		h := newHarness(t, store, deepApp(store, counter), driverOpts, WithObserver(rec))
		h.run(t)

		counter.Set(1)
		h.run(t)
		return h.html(t), h.ops(), rec
	}

	html0, ops0, rec0 := run(0)
	require.Zero(t, rec0.yields)

	for _, steps := range []int{1, 2, 5} {
		html, ops, rec := run(steps)
		require.Positive(t, rec.yields, "steps=%d", steps)
		require.Equal(t, html0, html, "steps=%d", steps)
		require.Equal(t, ops0, ops, "steps=%d", steps)
		require.Equal(t, rec0.units, rec.units, "steps=%d", steps)
	}
	require.Contains(t, html0, `<li class="leaf">3.21</li>`)
}

func TestForceFirstWalk(t *testing.T) {
	store := reactive.NewStore()
	counter := reactive.NewRef(store, 0)

	h := newHarness(t, store, deepApp(store, counter), []schedule.ManualOption{schedule.WithStepsPerTurn(1)}, WithForceFirst())
	require.True(t, h.driver.Step())
	require.True(t, h.root.Committed(), "first walk completes in one turn")
	require.Contains(t, h.html(t), "<section>")

	counter.Set(1)
	require.True(t, h.driver.Step())
	require.False(t, h.root.Idle(), "later walks yield")
	h.run(t)
	require.True(t, h.root.Idle())
}

func TestWithoutForceFirstYields(t *testing.T) {
	store := reactive.NewStore()
	counter := reactive.NewRef(store, 0)
	h := newHarness(t, store, deepApp(store, counter), []schedule.ManualOption{schedule.WithStepsPerTurn(1)})

	require.True(t, h.driver.Step())
	require.False(t, h.root.Committed())
	require.Empty(t, h.html(t))
	h.run(t)
	require.True(t, h.root.Committed())
}

func TestWriteToVisitedInstanceRewalks(t *testing.T) {
	store := reactive.NewStore()
	counter := reactive.NewRef(store, 0)
	rec := newRecorder()
	h := newHarness(t, store, deepApp(store, counter), []schedule.ManualOption{schedule.WithStepsPerTurn(6)}, WithObserver(rec))

	// six units reach the first leaf, which now reads counter
	require.True(t, h.driver.Step())
	require.False(t, h.root.Committed())

	counter.Set(7)
	h.run(t)

	require.Equal(t, 2, rec.walks)
	require.Equal(t, 2, rec.commits)
	require.Contains(t, h.html(t), `<li class="leaf">2.07</li>`)
	require.NotContains(t, h.html(t), "2.00")
}

func TestWriteToUnvisitedInstanceJoinsWalk(t *testing.T) {
	store := reactive.NewStore()
	a := reactive.NewRef(store, 0)
	b := reactive.NewRef(store, 0)

	var rendersA, rendersB int
	rec := newRecorder()
	app := element.New("div", nil,
		element.New(reader("A", a, &rendersA), nil),
		element.New(reader("B", b, &rendersB), nil),
	)
	h := newHarness(t, store, app, []schedule.ManualOption{schedule.WithStepsPerTurn(1)}, WithObserver(rec))
	h.run(t)
	walks, commits := rec.walks, rec.commits

	a.Set(1)
	require.True(t, h.driver.Step(), "walk visits only the div")
	require.False(t, h.root.Idle())

	b.Set(1)
	h.run(t)

	require.Equal(t, walks+1, rec.walks, "B is picked up by the running walk")
	require.Equal(t, commits+1, rec.commits)
	require.Equal(t, 2, rendersA)
	require.Equal(t, 2, rendersB)
	require.Equal(t, "<div><span>1</span><span>1</span></div>", h.html(t))
}

func TestWriteFromOtherGoroutine(t *testing.T) {
	store := reactive.NewStore()
	ref := reactive.NewRef(store, 0)
	var renders int
	h := mount(t, store, element.New(reader("R", ref, &renders), nil))

	done := make(chan struct{})
	go func() {
		ref.Set(3)
		close(done)
	}()
	<-done

	require.True(t, h.driver.Pending())
	h.run(t)
	require.Equal(t, "<span>3</span>", h.html(t))
}

func TestMissingHostParentIsStructuralError(t *testing.T) {
	doc := memory.NewDocument()
	driver := schedule.NewManual()
	root := NewRoot(element.New("div", nil), doc, nil, WithDriver(driver))
	root.Start()

	require.NoError(t, driver.Run())
	require.True(t, errors.HasCode(root.Err(), "E020"), "got %v", root.Err())
	require.NoError(t, root.Tick(schedule.Unlimited), "a failed root stays stopped")
}

func TestSetupWithoutFunctionPanics(t *testing.T) {
	doc := memory.NewDocument()
	target := doc.CreateLeaf("root")
	driver := schedule.NewManual()
	root := NewRoot(element.New(&element.Component{Name: "Broken"}, nil), doc, target, WithDriver(driver))
	root.Start()

	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(t, ok)
		require.True(t, errors.HasCode(err, "E002"))
	}()
	driver.Run()
	t.Fatal("expected panic")
}

func TestUnmount(t *testing.T) {
	store := reactive.NewStore()
	ref := reactive.NewRef(store, 0)

	unmounts := 0
	App := element.Define("App", func(h element.Hooks, _ element.Props) element.Render {
		h.OnUnmounted(func() { unmounts++ })
		return func() any { return element.New("p", nil, ref.Get()) }
	})
	h := mount(t, store, element.New(App, nil))
	require.Equal(t, "<p>0</p>", h.html(t))

	h.root.Unmount()
	h.root.Unmount()
	require.Equal(t, 1, unmounts)
	require.Empty(t, h.html(t))
	require.Equal(t, 0, ref.Watchers())

	ref.Set(1)
	require.False(t, h.driver.Pending())
}
