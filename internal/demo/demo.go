// Package demo contains the sample applications served and rendered by the
// arbor command.
package demo

import (
	"sort"

	"github.com/vango-dev/arbor/internal/errors"
	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/reactive"
)

// App is a demo application. New builds a fresh root element whose state
// lives in store, so every session gets its own.
type App struct {
	Name        string
	Description string
	New         func(store *reactive.Store) *element.Element
}

var apps = map[string]App{
	"counter": {
		Name:        "counter",
		Description: "A counter with increment, decrement and reset",
		New:         Counter,
	},
	"todo": {
		Name:        "todo",
		Description: "A keyed todo list with filters",
		New:         Todo,
	},
}

// Lookup returns the app registered under name.
func Lookup(name string) (App, error) {
	app, ok := apps[name]
	if !ok {
		return App{}, errors.New("E070").
			WithDetailf("no demo named %q", name).
			WithSuggestion("Available demos: " + joinNames())
	}
	return app, nil
}

// Names returns the registered demo names in sorted order.
func Names() []string {
	names := make([]string, 0, len(apps))
	for name := range apps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func joinNames() string {
	s := ""
	for i, n := range Names() {
		if i > 0 {
			s += ", "
		}
		s += n
	}
	return s
}
