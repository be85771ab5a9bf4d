package reactive

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// PanicHandler is called with the recovered value when a watcher panics.
type PanicHandler func(refID uint64, recovered any)

// Store owns a set of refs, the active dependency collection, and the queue
// of refs written since the last flush.
type Store struct {
	// collecting is the collection currently recording reads, or nil.
	collecting atomic.Pointer[collection]

	mu         sync.Mutex
	pending    []*cell
	pendingSet map[*cell]struct{}
	wakeups    map[uint64]func()

	logger  *slog.Logger
	onPanic PanicHandler
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used to report watcher panics.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithPanicHandler sets a callback invoked for every recovered watcher panic,
// in addition to logging.
func WithPanicHandler(fn PanicHandler) StoreOption {
	return func(s *Store) {
		s.onPanic = fn
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		pendingSet: make(map[*cell]struct{}),
		wakeups:    make(map[uint64]func()),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddWakeup registers fn to be called when the first write of a new batch
// lands in an empty pending queue. Schedulers use it to request a turn in
// which they call Flush. The returned function removes the registration.
func (s *Store) AddWakeup(fn func()) (remove func()) {
	id := nextID()
	s.mu.Lock()
	s.wakeups[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.wakeups, id)
		s.mu.Unlock()
	}
}

// Pending reports whether refs were written since the last flush.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Flush runs the watchers of every ref written since the previous flush.
// Each written ref notifies its watchers once, in write order, no matter how
// many times it was written. Writes performed by watchers are queued for the
// next flush. Flush returns the number of refs that were notified.
func (s *Store) Flush() int {
	s.mu.Lock()
	cells := s.pending
	s.pending = nil
	s.pendingSet = make(map[*cell]struct{})
	s.mu.Unlock()

	for _, c := range cells {
		for _, w := range c.snapshot() {
			s.invoke(c.id, w)
		}
	}
	return len(cells)
}

// Collect runs fn with a fresh collection active and returns every source
// read during fn, each once, in first-read order.
func (s *Store) Collect(fn func()) []Source {
	c := newCollection()
	s.collectInto(c, fn)
	return c.sources()
}

// collectInto swaps c in as the active collection for the duration of fn.
func (s *Store) collectInto(c *collection, fn func()) {
	prev := s.collecting.Swap(c)
	defer s.collecting.Store(prev)
	fn()
}

// Untracked runs fn with no collection active.
func (s *Store) Untracked(fn func()) {
	prev := s.collecting.Swap(nil)
	defer s.collecting.Store(prev)
	fn()
}

// track records src in the active collection, if any.
func (s *Store) track(src Source) {
	if c := s.collecting.Load(); c != nil {
		c.add(src)
	}
}

// trigger queues c for the next flush and wakes schedulers on the first
// write of a batch.
func (s *Store) trigger(c *cell) {
	s.mu.Lock()
	if _, ok := s.pendingSet[c]; ok {
		s.mu.Unlock()
		return
	}
	first := len(s.pending) == 0
	s.pendingSet[c] = struct{}{}
	s.pending = append(s.pending, c)
	var wake []func()
	if first {
		wake = make([]func(), 0, len(s.wakeups))
		for _, fn := range s.wakeups {
			wake = append(wake, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range wake {
		fn()
	}
}

// invoke calls a watcher, recovering and logging a panic so the remaining
// watchers still run.
func (s *Store) invoke(refID uint64, w watcher) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("watcher panicked",
				"code", "E030",
				"ref", refID,
				"watcher", w.id,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			if s.onPanic != nil {
				s.onPanic(refID, r)
			}
		}
	}()
	w.fn()
}
