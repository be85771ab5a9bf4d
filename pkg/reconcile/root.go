package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/arbor/internal/errors"
	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/host"
	"github.com/vango-dev/arbor/pkg/reactive"
	"github.com/vango-dev/arbor/pkg/schedule"
)

// Root owns one instance tree mounted into a host target and schedules the
// walks and commits that keep it current.
//
// All tree work happens inside Tick, which the driver calls on its own
// goroutine. Refs may be written from any goroutine; the write requests a
// turn and the resulting re-render runs on the next Tick. Reads from other
// goroutines use Ref.Peek: a Get during a walk is recorded as a dependency
// of whichever instance is rendering.
type Root struct {
	renderer host.Renderer
	driver   schedule.Driver
	store    *reactive.Store
	plugins  pluginSet
	logger   *slog.Logger
	observer Observer

	forceFirst bool

	root *Instance
	app  *Instance

	cursor         *Instance
	walk           uint64
	walked         int
	needCommit     bool
	firstCommitted bool
	rewalk         bool

	// current is the instance whose setup is running.
	current *Instance

	inTick        atomic.Bool
	turnRequested atomic.Bool
	removeWakeup  func()

	errMu sync.Mutex
	err   error

	unmounted bool
}

// Option configures a Root.
type Option func(*Root)

// WithDriver sets the scheduling driver. The default is a schedule.Manual.
func WithDriver(d schedule.Driver) Option {
	return func(r *Root) {
		r.driver = d
	}
}

// WithStore sets the reactive store whose writes wake the root. The default
// is a fresh store.
func WithStore(s *reactive.Store) Option {
	return func(r *Root) {
		r.store = s
	}
}

// WithPlugins appends plugins after the built-in ones.
func WithPlugins(plugins ...Plugin) Option {
	return func(r *Root) {
		r.plugins = newPluginSet(append(r.plugins.all, plugins...))
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Root) {
		r.logger = logger
	}
}

// WithObserver sets the observer notified of walks, commits and listener
// failures.
func WithObserver(o Observer) Option {
	return func(r *Root) {
		r.observer = o
	}
}

// WithForceFirst makes the first walk run to completion without yielding.
func WithForceFirst() Option {
	return func(r *Root) {
		r.forceFirst = true
	}
}

// NewRoot creates a root that will render el into target. Nothing happens
// until Start is called.
func NewRoot(el *element.Element, renderer host.Renderer, target host.Node, opts ...Option) *Root {
	r := &Root{
		renderer: renderer,
		plugins:  newPluginSet(DefaultPlugins()),
		logger:   slog.Default(),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.driver == nil {
		r.driver = schedule.NewManual()
	}
	if r.store == nil {
		r.store = reactive.NewStore(reactive.WithLogger(r.logger))
	}

	r.root = &Instance{node: target}
	r.root.ctx = newContext(r, r.root)

	r.app = r.newInstance(r.root, el)
	r.root.child = r.app
	return r
}

// Start arms the first walk and requests a turn.
func (r *Root) Start() {
	r.removeWakeup = r.store.AddWakeup(r.requestTurn)
	r.arm()
	r.requestTurn()
}

// Store returns the root's reactive store.
func (r *Root) Store() *reactive.Store { return r.store }

// Renderer returns the host renderer.
func (r *Root) Renderer() host.Renderer { return r.renderer }

// Target returns the mount target node.
func (r *Root) Target() host.Node { return r.root.node }

// App returns the instance of the mounted element.
func (r *Root) App() *Instance { return r.app }

// Idle reports whether no walk or commit is pending.
func (r *Root) Idle() bool {
	return r.cursor == nil && !r.needCommit && !r.store.Pending()
}

// Committed reports whether the first commit has happened.
func (r *Root) Committed() bool { return r.firstCommitted }

// Err returns the structural error that stopped the root, if any.
func (r *Root) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.err
}

// arm points the cursor at the app instance for a new walk.
func (r *Root) arm() {
	r.cursor = r.app
	r.walk++
	r.walked = 0
	r.needCommit = true
	r.observer.WalkStarted()
}

// requestTurn asks the driver for a turn unless one is already pending or a
// turn is running.
func (r *Root) requestTurn() {
	if r.inTick.Load() {
		return
	}
	if !r.turnRequested.CompareAndSwap(false, true) {
		return
	}
	r.driver.RequestTurn(func(d schedule.Deadline) {
		if err := r.Tick(d); err != nil {
			r.fail(err)
		}
	})
}

// requestUpdate is called when inst was flagged by a ref change. It re-arms
// an idle tree. During a walk, an instance the cursor has not reached yet is
// picked up by that walk; an instance already visited schedules a fresh walk
// after the current one commits.
func (r *Root) requestUpdate(inst *Instance) {
	if r.unmounted {
		return
	}
	if r.cursor == nil && !r.needCommit {
		r.arm()
		r.requestTurn()
		return
	}
	if inst.walk != r.walk {
		return
	}
	r.rewalk = true
}

// Tick runs one scheduler turn: it flushes pending ref writes, performs units
// of work while the deadline allows, and commits when the walk completes.
// It returns a structural error if the commit failed.
func (r *Root) Tick(deadline schedule.Deadline) error {
	r.turnRequested.Store(false)
	if r.unmounted || r.Err() != nil {
		return nil
	}

	r.inTick.Store(true)
	err := r.tick(deadline)
	r.inTick.Store(false)

	if err != nil {
		return err
	}
	if r.cursor != nil || r.needCommit || r.store.Pending() {
		r.requestTurn()
	}
	return nil
}

func (r *Root) tick(deadline schedule.Deadline) error {
	r.store.Flush()

	forcing := r.forceFirst && !r.firstCommitted
	for r.cursor != nil && (forcing || deadline.TimeRemaining() > 0) {
		r.cursor = r.performUnitOfWork(r.cursor)
		r.walked++
	}

	if r.cursor != nil {
		r.observer.Yielded()
		return nil
	}
	if !r.needCommit {
		return nil
	}

	r.needCommit = false
	if err := r.commit(); err != nil {
		return err
	}
	r.firstCommitted = true

	if r.rewalk {
		r.rewalk = false
		r.arm()
	}
	return nil
}

// performUnitOfWork visits inst and returns the next instance in pre-order.
func (r *Root) performUnitOfWork(inst *Instance) *Instance {
	el := inst.element
	rendered := false
	inst.walk = r.walk

	switch {
	case el.IsComponent():
		if inst.render == nil {
			r.setup(inst)
			rendered = true
		} else if inst.requiredUpdate {
			r.rerender(inst)
			rendered = true
		}

	case el.Tag != element.TextTag && el.Tag != element.CommentTag:
		r.reconcileChildren(inst, element.Normalize(el.Children()))
	}

	r.observer.UnitPerformed(rendered)
	if r.logger.Enabled(context.Background(), slog.LevelDebug) {
		r.logger.Debug("unit of work", "element", el.String(), "rendered", rendered)
	}

	if inst.child != nil {
		return inst.child
	}
	for n := inst; n != nil && n != r.root; n = n.parent {
		if n.sibling != nil {
			return n.sibling
		}
	}
	return nil
}

// setup runs the component's setup and first render.
func (r *Root) setup(inst *Instance) {
	comp := inst.element.Component
	if comp.Setup == nil {
		panic(errors.New("E002").WithDetailf("component %q", comp.Name))
	}

	c := reactive.NewCollector(r.store)
	prev := r.current
	r.current = inst
	func() {
		defer func() { r.current = prev }()
		c.Collect(func() {
			inst.render = comp.Setup(inst.ctx, inst.memoProps)
		})
	}()
	if inst.render == nil {
		inst.render = func() any { return nil }
	}

	var out any
	c.Collect(func() { out = inst.render() })
	r.reconcileChildren(inst, element.Normalize(out))
	inst.requiredUpdate = false
	r.track(inst, c.Complete())
}

// rerender re-invokes only the memoized render closure.
func (r *Root) rerender(inst *Instance) {
	c := reactive.NewCollector(r.store)
	var out any
	c.Collect(func() { out = inst.render() })
	r.reconcileChildren(inst, element.Normalize(out))
	inst.requiredUpdate = false
	r.track(inst, c.Complete())
}

// track reconciles inst's subscriptions with deps: new refs are watched,
// refs no longer read are released.
func (r *Root) track(inst *Instance, deps []reactive.Source) {
	if inst.deps == nil {
		inst.deps = make(map[uint64]func())
	}
	seen := make(map[uint64]struct{}, len(deps))
	for _, src := range deps {
		id := src.ID()
		seen[id] = struct{}{}
		if _, ok := inst.deps[id]; ok {
			continue
		}
		inst.deps[id] = reactive.Watch(src, func() {
			if inst.ctx.disposed {
				return
			}
			inst.requiredUpdate = true
			r.requestUpdate(inst)
		})
	}
	for id, unsub := range inst.deps {
		if _, ok := seen[id]; !ok {
			unsub()
			delete(inst.deps, id)
		}
	}
}

// newInstance allocates an instance for el under parent.
func (r *Root) newInstance(parent *Instance, el *element.Element) *Instance {
	inst := &Instance{
		parent:    parent,
		element:   el,
		memoProps: el.Props.Clone(),
	}
	inst.namespace = r.namespaceFor(parent, el)
	inst.ctx = newContext(r, inst)
	inst.ctx.addDisposer(inst.unsubscribeAll)

	if !el.IsComponent() {
		if target, ok := el.Props[element.RefProp].(interface{ SetValue(any) }); ok {
			inst.ctx.onMounted(func() func() {
				target.SetValue(inst.node)
				return func() { target.SetValue(nil) }
			})
		}
	}
	return inst
}

// listenerFailed logs a recovered listener panic and reports it.
func (r *Root) listenerFailed(kind string, inst *Instance, recovered any, stack []byte) {
	name := "root"
	if inst != nil && inst.element != nil {
		name = inst.element.String()
	}
	r.logger.Error("lifecycle listener panicked",
		"code", "E030",
		"kind", kind,
		"instance", name,
		"panic", fmt.Sprint(recovered),
		"stack", string(stack))
	r.observer.ListenerFailed(kind)
}

// fail records a structural error and stops scheduling.
func (r *Root) fail(err error) {
	r.errMu.Lock()
	r.err = err
	r.errMu.Unlock()
	r.cursor = nil
	r.needCommit = false
	r.logger.Error("commit failed", "error", err)
}

// Unmount tears down the whole tree: host output is removed, unmount
// listeners fire children first, and every context is disposed. It must run
// on the driver's goroutine and is idempotent.
func (r *Root) Unmount() {
	if r.unmounted {
		return
	}
	r.unmounted = true
	if r.removeWakeup != nil {
		r.removeWakeup()
	}
	r.cursor = nil
	r.needCommit = false

	var stats CommitStats
	r.teardown(r.app, &stats)
	r.root.child = nil
	r.root.ctx.Dispose()
}
