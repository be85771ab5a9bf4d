package demo

import (
	"fmt"
	"strings"

	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/reactive"
)

// Filters of the todo list.
const (
	FilterAll    = "all"
	FilterActive = "active"
	FilterDone   = "done"
)

// Item is one todo entry.
type Item struct {
	ID    int
	Title string
	Done  bool
}

type filterKey struct{}

// Todo builds the todo demo.
func Todo(store *reactive.Store) *element.Element {
	items := reactive.NewRef(store, []Item{
		{ID: 1, Title: "Write the reconciler"},
		{ID: 2, Title: "Ship the demo", Done: true},
	})
	draft := reactive.NewRef(store, "")
	nextID := 3

	add := func() {
		title := strings.TrimSpace(draft.Peek())
		if title == "" {
			return
		}
		items.Update(func(list []Item) []Item {
			out := append([]Item(nil), list...)
			return append(out, Item{ID: nextID, Title: title})
		})
		nextID++
		draft.Set("")
	}
	toggle := func(id int) {
		items.Update(func(list []Item) []Item {
			out := append([]Item(nil), list...)
			for i := range out {
				if out[i].ID == id {
					out[i].Done = !out[i].Done
				}
			}
			return out
		})
	}
	remove := func(id int) {
		items.Update(func(list []Item) []Item {
			out := make([]Item, 0, len(list))
			for _, it := range list {
				if it.ID != id {
					out = append(out, it)
				}
			}
			return out
		})
	}

	row := element.Define("TodoItem", func(_ element.Hooks, props element.Props) element.Render {
		return func() any {
			it := props["item"].(Item)
			class := "item"
			if it.Done {
				class = "item done"
			}
			return element.New("li", element.Props{"class": class},
				element.New("span", element.Props{"onClick": func() { toggle(it.ID) }}, it.Title),
				element.New("button", element.Props{"onClick": func() { remove(it.ID) }}, "x"),
			)
		}
	})

	list := element.Define("TodoList", func(h element.Hooks, _ element.Props) element.Render {
		filter := h.Inject(filterKey{})
		return func() any {
			f, _ := filter.Get().(string)
			var rows []any
			for _, it := range items.Get() {
				if (f == FilterActive && it.Done) || (f == FilterDone && !it.Done) {
					continue
				}
				rows = append(rows, element.New(row, element.Props{"key": it.ID, "item": it}))
			}
			if len(rows) == 0 {
				return element.New("p", element.Props{"class": "empty"}, "Nothing to do")
			}
			return element.New("ul", element.Props{"class": "todos"}, rows)
		}
	})

	footer := element.Define("TodoFooter", func(_ element.Hooks, props element.Props) element.Render {
		setFilter := props["setFilter"].(func(any))
		return func() any {
			left := 0
			for _, it := range items.Get() {
				if !it.Done {
					left++
				}
			}
			noun := "items"
			if left == 1 {
				noun = "item"
			}
			return element.New("footer", nil,
				element.New("span", nil, fmt.Sprintf("%d %s left", left, noun)),
				element.New("button", element.Props{"onClick": func() { setFilter(FilterAll) }}, FilterAll),
				element.New("button", element.Props{"onClick": func() { setFilter(FilterActive) }}, FilterActive),
				element.New("button", element.Props{"onClick": func() { setFilter(FilterDone) }}, FilterDone),
			)
		}
	})

	app := element.Define("Todo", func(h element.Hooks, _ element.Props) element.Render {
		setFilter := h.Provide(filterKey{}, FilterAll)
		return func() any {
			return element.New("section", element.Props{"class": "todo"},
				element.New("h1", nil, "Todo"),
				element.New("form", nil,
					element.New("input", element.Props{
						"value":       draft.Get(),
						"placeholder": "What needs doing?",
						"onInput":     func(v string) { draft.Set(v) },
					}),
					element.New("button", element.Props{"onClick": add}, "add"),
				),
				element.New(list, nil),
				element.New(footer, element.Props{"setFilter": setFilter}),
			)
		}
	})
	return element.New(app, nil)
}
