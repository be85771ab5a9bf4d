package reactive

import "sync"

// Source is the type-erased view of a Ref. The scheduler stores collected
// dependencies as Sources and watches them without knowing their value type.
type Source interface {
	// ID returns the unique identifier of the ref.
	ID() uint64

	// Value returns the current value without collecting it.
	Value() any

	// SetValue writes v. A nil v stores the zero value.
	SetValue(v any)

	cell() *cell
}

// watcher is a single registered listener.
type watcher struct {
	id uint64
	fn func()
}

// cell holds the watcher list shared by every Ref type.
type cell struct {
	id    uint64
	store *Store

	mu       sync.Mutex
	watchers []watcher
}

func (c *cell) add(fn func()) uint64 {
	id := nextID()
	c.mu.Lock()
	c.watchers = append(c.watchers, watcher{id: id, fn: fn})
	c.mu.Unlock()
	return id
}

func (c *cell) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.watchers {
		if w.id == id {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			return
		}
	}
}

// snapshot copies the watcher list so watchers can unsubscribe while being
// notified.
func (c *cell) snapshot() []watcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]watcher, len(c.watchers))
	copy(out, c.watchers)
	return out
}

func (c *cell) watcherCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers)
}

// Ref is an observable value cell.
// Get records the ref in the store's active collection; Set queues the
// ref's watchers for the next flush.
type Ref[T any] struct {
	c *cell

	mu    sync.RWMutex
	value T

	equal func(T, T) bool
}

// NewRef creates a ref owned by s.
func NewRef[T any](s *Store, initial T) *Ref[T] {
	return &Ref[T]{
		c:     &cell{id: nextID(), store: s},
		value: initial,
	}
}

// Get returns the current value and records the ref as a dependency of the
// active collection. Call it on the goroutine that runs the collection;
// other goroutines use Peek.
func (r *Ref[T]) Get() T {
	r.mu.RLock()
	value := r.value
	r.mu.RUnlock()

	r.c.store.track(r)
	return value
}

// Peek returns the current value without recording a dependency. It is safe
// from any goroutine.
func (r *Ref[T]) Peek() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Set stores value and queues the ref's watchers. A ref configured with
// WithEquals skips both when the new value equals the current one.
func (r *Ref[T]) Set(value T) {
	r.mu.Lock()
	changed := !r.equals(r.value, value)
	if changed {
		r.value = value
	}
	r.mu.Unlock()

	if changed {
		r.c.store.trigger(r.c)
	}
}

// Update atomically replaces the value with fn(current) and queues the
// ref's watchers, subject to the same equality rule as Set.
func (r *Ref[T]) Update(fn func(T) T) {
	r.mu.Lock()
	next := fn(r.value)
	changed := !r.equals(r.value, next)
	if changed {
		r.value = next
	}
	r.mu.Unlock()

	if changed {
		r.c.store.trigger(r.c)
	}
}

// Trigger queues the ref's watchers without changing the value. Use it after
// mutating a value in place (e.g., a slice element).
func (r *Ref[T]) Trigger() {
	r.c.store.trigger(r.c)
}

// WithEquals configures the equality function that decides whether Set
// changed the value. Without one every write counts as a change.
func (r *Ref[T]) WithEquals(fn func(T, T) bool) *Ref[T] {
	r.equal = fn
	return r
}

// ID returns the unique identifier of the ref.
func (r *Ref[T]) ID() uint64 {
	return r.c.id
}

// Value implements Source.
func (r *Ref[T]) Value() any {
	return r.Peek()
}

// SetValue implements Source. Values of the wrong type are ignored.
func (r *Ref[T]) SetValue(v any) {
	if v == nil {
		var zero T
		r.Set(zero)
		return
	}
	if tv, ok := v.(T); ok {
		r.Set(tv)
	}
}

// Watchers returns the number of registered watchers.
func (r *Ref[T]) Watchers() int {
	return r.c.watcherCount()
}

func (r *Ref[T]) cell() *cell {
	return r.c
}

func (r *Ref[T]) equals(a, b T) bool {
	return r.equal != nil && r.equal(a, b)
}

// Watch registers listener to run on every flush after src was written.
// The returned function unsubscribes; calling it more than once is a no-op.
func Watch(src Source, listener func()) (unsubscribe func()) {
	c := src.cell()
	id := c.add(listener)
	var once sync.Once
	return func() {
		once.Do(func() { c.remove(id) })
	}
}
