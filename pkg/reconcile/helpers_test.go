package reconcile

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/host/memory"
	"github.com/vango-dev/arbor/pkg/reactive"
	"github.com/vango-dev/arbor/pkg/schedule"
)

type harness struct {
	doc    *memory.Document
	target *memory.Node
	driver *schedule.Manual
	store  *reactive.Store
	root   *Root
}

func newHarness(t *testing.T, store *reactive.Store, el *element.Element, driverOpts []schedule.ManualOption, opts ...Option) *harness {
	t.Helper()
	if store == nil {
		store = reactive.NewStore()
	}
	h := &harness{
		doc:    memory.NewDocument(memory.WithOpLog()),
		driver: schedule.NewManual(driverOpts...),
		store:  store,
	}
	h.target = h.doc.CreateLeaf("root").(*memory.Node)
	h.doc.ResetOps()

	opts = append([]Option{WithDriver(h.driver), WithStore(store)}, opts...)
	h.root = NewRoot(el, h.doc, h.target, opts...)
	h.root.Start()
	return h
}

// mount renders el to completion with an unlimited deadline.
func mount(t *testing.T, store *reactive.Store, el *element.Element, opts ...Option) *harness {
	t.Helper()
	h := newHarness(t, store, el, nil, opts...)
	h.run(t)
	return h
}

func (h *harness) run(t *testing.T) {
	t.Helper()
	require.NoError(t, h.driver.Run())
	require.NoError(t, h.root.Err())
}

func (h *harness) html(t *testing.T) string {
	t.Helper()
	s, err := h.doc.Serialize(h.target)
	require.NoError(t, err)
	return s
}

func (h *harness) ops() []string {
	var out []string
	for _, op := range h.doc.Ops() {
		out = append(out, op.String())
	}
	return out
}

// recorder is an Observer that counts events.
type recorder struct {
	mu        sync.Mutex
	walks     int
	units     int
	renders   int
	yields    int
	commits   int
	stats     []CommitStats
	listeners map[string]int
}

func newRecorder() *recorder {
	return &recorder{listeners: make(map[string]int)}
}

func (r *recorder) WalkStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.walks++
}

func (r *recorder) UnitPerformed(rendered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units++
	if rendered {
		r.renders++
	}
}

func (r *recorder) Yielded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.yields++
}

func (r *recorder) Committed(stats CommitStats, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits++
	r.stats = append(r.stats, stats)
}

func (r *recorder) ListenerFailed(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[kind]++
}
