// Package arbor is an incremental tree-reconciliation runtime.
//
// Components describe their output as element trees; arbor keeps a
// persistent instance tree behind them, re-renders only the components whose
// refs changed, and applies the minimal set of changes through a pluggable
// host renderer.
//
// Usage:
//
//	store := arbor.NewStore()
//	count := arbor.NewRef(store, 0)
//
//	Counter := arbor.Define("Counter", func(h arbor.Hooks, props arbor.Props) arbor.Render {
//	    return func() any {
//	        return arbor.New("button", arbor.Props{"onClick": func() { count.Update(inc) }}, count.Get())
//	    }
//	})
//
//	html, err := arbor.RenderToString(arbor.New(Counter, nil), arbor.WithStore(store))
package arbor

import (
	"log/slog"

	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/host"
	"github.com/vango-dev/arbor/pkg/host/memory"
	"github.com/vango-dev/arbor/pkg/reactive"
	"github.com/vango-dev/arbor/pkg/reconcile"
	"github.com/vango-dev/arbor/pkg/schedule"
)

// =============================================================================
// Elements (re-export from pkg/element)
// =============================================================================

type Element = element.Element
type Props = element.Props
type Component = element.Component
type Hooks = element.Hooks
type Render = element.Render

// New creates an element from a tag name or a *Component.
var New = element.New

// Define creates a named component definition.
var Define = element.Define

// Text creates a text element.
var Text = element.Text

// Fragment renders its children without a host node of its own.
var Fragment = element.Fragment

// =============================================================================
// Reactive values (re-export from pkg/reactive)
// =============================================================================

type Store = reactive.Store
type Ref[T any] = reactive.Ref[T]

// NewStore creates a reactive store.
var NewStore = reactive.NewStore

// NewRef creates a ref owned by s.
func NewRef[T any](s *Store, initial T) *Ref[T] {
	return reactive.NewRef(s, initial)
}

// =============================================================================
// Mounting
// =============================================================================

type Plugin = reconcile.Plugin
type Observer = reconcile.Observer

type options struct {
	driver     schedule.Driver
	store      *reactive.Store
	plugins    []reconcile.Plugin
	logger     *slog.Logger
	observer   reconcile.Observer
	forceFirst bool
	indent     string
}

// Option configures Mount, Hydrate and RenderToString.
type Option func(*options)

// WithDriver sets the scheduling driver. Mount defaults to a schedule.Manual
// driver that the caller steps; RenderToString ignores this option.
func WithDriver(d schedule.Driver) Option {
	return func(o *options) {
		o.driver = d
	}
}

// WithStore sets the store whose refs the components read.
func WithStore(s *Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithPlugins adds reconciler plugins after the built-in ones.
func WithPlugins(plugins ...Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugins...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver sets the observer notified of walks and commits.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithIndent makes RenderToString produce indented output.
func WithIndent(indent string) Option {
	return func(o *options) {
		o.indent = indent
	}
}

func (o *options) rootOptions() []reconcile.Option {
	var out []reconcile.Option
	if o.driver != nil {
		out = append(out, reconcile.WithDriver(o.driver))
	}
	if o.logger != nil {
		out = append(out, reconcile.WithLogger(o.logger))
	}
	if o.store == nil {
		logger := o.logger
		if logger == nil {
			logger = slog.Default()
		}
		o.store = reactive.NewStore(reactive.WithLogger(logger))
	}
	out = append(out, reconcile.WithStore(o.store))
	if len(o.plugins) > 0 {
		out = append(out, reconcile.WithPlugins(o.plugins...))
	}
	if o.observer != nil {
		out = append(out, reconcile.WithObserver(o.observer))
	}
	if o.forceFirst {
		out = append(out, reconcile.WithForceFirst())
	}
	return out
}

// Handle controls a mounted tree.
type Handle struct {
	root   *reconcile.Root
	driver schedule.Driver
}

// dispatcher is implemented by drivers that run work on their own goroutine.
type dispatcher interface {
	Dispatch(fn func()) error
}

// Mount renders el into target through r. Work starts on the driver's next
// turn.
func Mount(el *Element, r host.Renderer, target host.Node, opts ...Option) *Handle {
	return mount(el, r, target, false, opts)
}

// Hydrate is Mount with a first walk that runs to completion without
// yielding, so the first render is available after a single turn.
func Hydrate(el *Element, r host.Renderer, target host.Node, opts ...Option) *Handle {
	return mount(el, r, target, true, opts)
}

func mount(el *Element, r host.Renderer, target host.Node, forceFirst bool, opts []Option) *Handle {
	o := &options{forceFirst: forceFirst}
	for _, opt := range opts {
		opt(o)
	}
	if o.driver == nil {
		o.driver = schedule.NewManual()
	}
	root := reconcile.NewRoot(el, r, target, o.rootOptions()...)
	h := &Handle{root: root, driver: o.driver}
	h.run(root.Start)
	return h
}

// run executes fn on the driver's goroutine when the driver has one.
func (h *Handle) run(fn func()) {
	if d, ok := h.driver.(dispatcher); ok {
		if err := d.Dispatch(fn); err == nil {
			return
		}
	}
	fn()
}

// Root returns the underlying scheduler root.
func (h *Handle) Root() *reconcile.Root { return h.root }

// Driver returns the driver the tree runs on.
func (h *Handle) Driver() schedule.Driver { return h.driver }

// Store returns the reactive store of the tree.
func (h *Handle) Store() *Store { return h.root.Store() }

// Err returns the structural error that stopped the tree, if any.
func (h *Handle) Err() error { return h.root.Err() }

// Unmount tears down the tree. It is idempotent.
func (h *Handle) Unmount() {
	h.run(h.root.Unmount)
}

// RenderToString renders el to HTML. The walk and commit run to completion
// on a private manual driver, and mount listeners fire before the string is
// returned. The tree is unmounted afterwards.
func RenderToString(el *Element, opts ...Option) (string, error) {
	o := &options{forceFirst: true}
	for _, opt := range opts {
		opt(o)
	}
	driver := schedule.NewManual()
	o.driver = driver

	var docOpts []memory.Option
	if o.indent != "" {
		docOpts = append(docOpts, memory.WithPretty(o.indent))
	}
	doc := memory.NewDocument(docOpts...)
	target := doc.CreateLeaf("body")

	root := reconcile.NewRoot(el, doc, target, o.rootOptions()...)
	root.Start()
	defer root.Unmount()

	if err := driver.Run(); err != nil {
		return "", err
	}
	if err := root.Err(); err != nil {
		return "", err
	}
	return doc.Serialize(target)
}
