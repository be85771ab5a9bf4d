package demo

import (
	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/reactive"
)

// Counter builds the counter demo.
func Counter(store *reactive.Store) *element.Element {
	count := reactive.NewRef(store, 0)

	button := func(label string, fn func(int) int) *element.Element {
		return element.New("button", element.Props{
			"class":   "btn",
			"onClick": func() { count.Update(fn) },
		}, label)
	}

	app := element.Define("Counter", func(_ element.Hooks, _ element.Props) element.Render {
		return func() any {
			n := count.Get()
			class := "count"
			if n < 0 {
				class = "count negative"
			}
			return element.New("div", element.Props{"class": "counter"},
				element.New("h1", nil, "Counter"),
				element.New("p", nil,
					button("-", func(n int) int { return n - 1 }),
					element.New("span", element.Props{"class": class}, n),
					button("+", func(n int) int { return n + 1 }),
				),
				button("reset", func(int) int { return 0 }),
			)
		}
	})
	return element.New(app, nil)
}
