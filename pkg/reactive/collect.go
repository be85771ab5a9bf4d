package reactive

import "sync"

// collection is an insertion-ordered set of sources. The mutex keeps a Get
// from another goroutine from corrupting it; such a read is still recorded.
type collection struct {
	mu    sync.Mutex
	seen  map[uint64]struct{}
	order []Source
}

func newCollection() *collection {
	return &collection{seen: make(map[uint64]struct{})}
}

func (c *collection) add(src Source) {
	id := src.ID()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[id]; ok {
		return
	}
	c.seen[id] = struct{}{}
	c.order = append(c.order, src)
}

func (c *collection) sources() []Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Source, len(c.order))
	copy(out, c.order)
	return out
}

// Collector accumulates dependencies across several collection passes.
// The scheduler uses one Collector per unit of work: the component setup
// and its render closure are collected separately and then completed once.
type Collector struct {
	store *Store
	deps  *collection
}

// NewCollector creates a Collector bound to s.
func NewCollector(s *Store) *Collector {
	return &Collector{store: s, deps: newCollection()}
}

// Collect runs fn with this collector's set active.
func (c *Collector) Collect(fn func()) {
	c.store.collectInto(c.deps, fn)
}

// Complete returns every source recorded so far, each once.
func (c *Collector) Complete() []Source {
	return c.deps.sources()
}
