package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/host/memory"
	"github.com/vango-dev/arbor/pkg/reactive"
	"github.com/vango-dev/arbor/pkg/reconcile"
	"github.com/vango-dev/arbor/pkg/schedule"
)

// recordingTracer captures spans started through it.
type recordingTracer struct {
	noop.Tracer
	spans []*recordedSpan
}

type recordedSpan struct {
	noop.Span
	name   string
	parent *recordedSpan
	attrs  map[attribute.Key]attribute.Value
	events []string
	status codes.Code
	errs   []error
	ended  bool
}

type spanKey struct{}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{name: name, attrs: map[attribute.Key]attribute.Value{}}
	if p, ok := ctx.Value(spanKey{}).(*recordedSpan); ok {
		s.parent = p
	}
	s.SetAttributes(cfg.Attributes()...)
	t.spans = append(t.spans, s)
	return context.WithValue(ctx, spanKey{}, s), s
}

func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func (s *recordedSpan) AddEvent(name string, _ ...trace.EventOption) {
	s.events = append(s.events, name)
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) { s.status = code }

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) { s.errs = append(s.errs, err) }

func (s *recordedSpan) End(...trace.SpanEndOption) { s.ended = true }

func (t *recordingTracer) named(name string) []*recordedSpan {
	var out []*recordedSpan
	for _, s := range t.spans {
		if s.name == name {
			out = append(out, s)
		}
	}
	return out
}

func mountList(t *testing.T, obs reconcile.Observer, steps int) (*schedule.Manual, *reactive.Ref[[]string]) {
	t.Helper()
	store := reactive.NewStore()
	items := reactive.NewRef(store, []string{"a", "b"})
	List := element.Define("List", func(h element.Hooks, _ element.Props) element.Render {
		h.OnMounted(func() func() { panic("boom") })
		return func() any {
			var lis []any
			for _, it := range items.Get() {
				lis = append(lis, element.New("li", element.Props{"key": it}, it))
			}
			return element.New("ul", nil, lis)
		}
	})

	doc := memory.NewDocument()
	driver := schedule.NewManual(schedule.WithStepsPerTurn(steps))
	root := reconcile.NewRoot(element.New(List, nil), doc, doc.CreateLeaf("root"),
		reconcile.WithDriver(driver),
		reconcile.WithStore(store),
		reconcile.WithObserver(obs),
	)
	root.Start()
	require.NoError(t, driver.Run())
	require.NoError(t, root.Err())
	return driver, items
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	driver, items := mountList(t, m, 2)

	require.Equal(t, 1.0, testutil.ToFloat64(m.walks))
	require.Equal(t, 1.0, testutil.ToFloat64(m.commits.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.units.WithLabelValues("render")))
	require.Greater(t, testutil.ToFloat64(m.units.WithLabelValues("host")), 0.0)
	require.Greater(t, testutil.ToFloat64(m.yields), 0.0)
	require.Equal(t, 1.0, testutil.ToFloat64(m.listenerErrors.WithLabelValues(reconcile.ListenerMounted)))
	require.Equal(t, 6.0, testutil.ToFloat64(m.lifecycle.WithLabelValues("mounted")))
	created := testutil.ToFloat64(m.hostOps.WithLabelValues("created"))
	require.Greater(t, created, 0.0)

	items.Set([]string{"b"})
	require.NoError(t, driver.Run())
	require.Equal(t, 2.0, testutil.ToFloat64(m.walks))
	require.Equal(t, 1.0, testutil.ToFloat64(m.hostOps.WithLabelValues("removed")))
	require.Equal(t, created, testutil.ToFloat64(m.hostOps.WithLabelValues("created")))

	m.RecordPatches(3)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	require.Equal(t, 3.0, testutil.ToFloat64(m.patchesSent))
	require.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions))

	count, err := testutil.GatherAndCount(reg, "test_commit_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMetricsDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(WithRegistry(reg))
	require.Panics(t, func() { NewMetrics(WithRegistry(reg)) })
}

func TestTracerObserver(t *testing.T) {
	rt := &recordingTracer{}
	tr := NewTracer(WithTracer(rt), WithAttributes(attribute.String("arbor.session", "s1")))

	mountList(t, tr, 2)

	walks := rt.named("arbor.walk")
	commits := rt.named("arbor.commit")
	require.Len(t, walks, 1)
	require.Len(t, commits, 1)

	walk := walks[0]
	require.True(t, walk.ended)
	require.Equal(t, "s1", walk.attrs["arbor.session"].AsString())
	require.EqualValues(t, 1, walk.attrs["arbor.renders"].AsInt64())
	require.Greater(t, walk.attrs["arbor.yields"].AsInt64(), int64(0))
	require.Contains(t, walk.events, "yield")

	commit := commits[0]
	require.Same(t, walk, commit.parent)
	require.True(t, commit.ended)
	require.Equal(t, codes.Ok, commit.status)
	require.EqualValues(t, 6, commit.attrs["arbor.mounted"].AsInt64())
}

func TestTracerRecordsCommitError(t *testing.T) {
	rt := &recordingTracer{}
	tr := NewTracer(WithTracer(rt))

	tr.WalkStarted()
	tr.UnitPerformed(true)
	tr.Committed(reconcile.CommitStats{}, time.Millisecond, errors.New("no parent"))

	walk := rt.named("arbor.walk")[0]
	commit := rt.named("arbor.commit")[0]
	require.Equal(t, codes.Error, walk.status)
	require.Equal(t, codes.Error, commit.status)
	require.Len(t, commit.errs, 1)
	require.True(t, walk.ended)
}

func TestObserversFanOut(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	rt := &recordingTracer{}

	mountList(t, reconcile.Observers{m, NewTracer(WithTracer(rt))}, 100)

	require.Equal(t, 1.0, testutil.ToFloat64(m.commits.WithLabelValues("success")))
	require.Len(t, rt.named("arbor.commit"), 1)
}
