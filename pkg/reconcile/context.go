package reconcile

import (
	"fmt"
	"runtime/debug"

	"github.com/vango-dev/arbor/internal/errors"
	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/reactive"
)

// Listener kinds reported to the Observer.
const (
	ListenerMounted   = "mounted"
	ListenerUnmounted = "unmounted"
	ListenerDisposer  = "disposer"
)

// Context holds the lifecycle listeners and provide/inject state of one
// instance. It implements element.Hooks for the instance's component.
type Context struct {
	root *Root
	inst *Instance

	mountListeners   []func() func()
	unmountListeners []func()
	disposers        []func()

	provided map[any]*reactive.Ref[any]
	injected map[any]*reactive.Ref[any]

	mounted   bool
	unmounted bool
	disposed  bool
}

var _ element.Hooks = (*Context)(nil)

func newContext(root *Root, inst *Instance) *Context {
	return &Context{root: root, inst: inst}
}

// checkRendering panics unless the owning root is running this instance's
// setup.
func (c *Context) checkRendering(hook string) {
	if c.root == nil || c.root.current != c.inst {
		panic(errors.New("E001").WithDetailf("%s called outside the component's setup", hook))
	}
}

// OnMounted implements element.Hooks.
func (c *Context) OnMounted(fn func() func()) {
	c.checkRendering("OnMounted")
	c.onMounted(fn)
}

// OnUnmounted implements element.Hooks.
func (c *Context) OnUnmounted(fn func()) {
	c.checkRendering("OnUnmounted")
	c.onUnmounted(fn)
}

// Provide implements element.Hooks.
func (c *Context) Provide(key, value any) func(any) {
	c.checkRendering("Provide")
	return c.provide(key, value)
}

// Inject implements element.Hooks.
func (c *Context) Inject(key any) *reactive.Ref[any] {
	c.checkRendering("Inject")
	return c.inject(key)
}

func (c *Context) onMounted(fn func() func()) {
	if c.mounted {
		return
	}
	c.mountListeners = append(c.mountListeners, fn)
}

func (c *Context) onUnmounted(fn func()) {
	if c.unmounted {
		return
	}
	c.unmountListeners = append(c.unmountListeners, fn)
}

// addDisposer registers a cleanup that runs once on Dispose. A disposer added
// after Dispose runs immediately.
func (c *Context) addDisposer(fn func()) {
	if c.disposed {
		c.safeCall(ListenerDisposer, fn)
		return
	}
	c.disposers = append(c.disposers, fn)
}

func (c *Context) provide(key, value any) func(any) {
	if c.provided == nil {
		c.provided = make(map[any]*reactive.Ref[any])
	}
	ref, ok := c.provided[key]
	if !ok {
		ref = reactive.NewRef[any](c.root.store, value).WithEquals(element.Same)
		c.provided[key] = ref
	} else {
		ref.Set(value)
	}
	return ref.Set
}

func (c *Context) inject(key any) *reactive.Ref[any] {
	if c.injected == nil {
		c.injected = make(map[any]*reactive.Ref[any])
	}
	result, ok := c.injected[key]
	if !ok {
		result = reactive.NewRef[any](c.root.store, nil).WithEquals(element.Same)
		c.injected[key] = result
	}

	if source := findProvider(c.inst, key); source != nil {
		c.addDisposer(reactive.Watch(source, func() {
			result.Set(source.Peek())
		}))
		result.Set(source.Peek())
	} else {
		result.Set(nil)
	}
	return result
}

// findProvider walks from inst up through its ancestors and returns the
// first provided ref for key.
func findProvider(inst *Instance, key any) *reactive.Ref[any] {
	for n := inst; n != nil; n = n.parent {
		if n.ctx == nil || n.ctx.provided == nil {
			continue
		}
		if ref, ok := n.ctx.provided[key]; ok {
			return ref
		}
	}
	return nil
}

// Provided returns the ref this instance provides for key.
func (c *Context) Provided(key any) (*reactive.Ref[any], bool) {
	ref, ok := c.provided[key]
	return ref, ok
}

// Injected returns the ref this instance injected for key.
func (c *Context) Injected(key any) (*reactive.Ref[any], bool) {
	ref, ok := c.injected[key]
	return ref, ok
}

// Mounted reports whether mount listeners have fired.
func (c *Context) Mounted() bool { return c.mounted }

// Disposed reports whether Dispose has run.
func (c *Context) Disposed() bool { return c.disposed }

// triggerMounted fires the mount listeners once. Cleanups they return run on
// Dispose.
func (c *Context) triggerMounted() {
	if c.mounted || c.disposed {
		return
	}
	c.mounted = true
	listeners := c.mountListeners
	c.mountListeners = nil
	for _, fn := range listeners {
		var cleanup func()
		c.safeCall(ListenerMounted, func() { cleanup = fn() })
		if cleanup != nil {
			c.addDisposer(cleanup)
		}
	}
}

// triggerUnmounted fires the unmount listeners once.
func (c *Context) triggerUnmounted() {
	if c.unmounted {
		return
	}
	c.unmounted = true
	listeners := c.unmountListeners
	c.unmountListeners = nil
	for _, fn := range listeners {
		c.safeCall(ListenerUnmounted, fn)
	}
}

// Dispose runs the registered disposers in reverse registration order and
// releases provide/inject state. It is idempotent.
func (c *Context) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true

	disposers := c.disposers
	c.disposers = nil
	for i := len(disposers) - 1; i >= 0; i-- {
		c.safeCall(ListenerDisposer, disposers[i])
	}

	c.mountListeners = nil
	c.unmountListeners = nil
	c.provided = nil
	c.injected = nil
}

// safeCall runs fn, logging and reporting a panic instead of propagating it.
func (c *Context) safeCall(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.root.listenerFailed(kind, c.inst, r, debug.Stack())
		}
	}()
	fn()
}

func (c *Context) String() string {
	if c.inst == nil || c.inst.element == nil {
		return "context(root)"
	}
	return fmt.Sprintf("context(%s)", c.inst.element)
}
