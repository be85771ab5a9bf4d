package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/arbor/pkg/reconcile"
)

const defaultTracerName = "arbor"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "arbor").
	TracerName string

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer

	// Context is the parent of every walk span (default: context.Background()).
	Context context.Context

	// Attributes are added to every walk span.
	Attributes []attribute.KeyValue
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracer sets the tracer directly.
func WithTracer(tracer trace.Tracer) TracerOption {
	return func(c *TracerConfig) {
		c.Tracer = tracer
	}
}

// WithParentContext sets the context walk spans are started from.
func WithParentContext(ctx context.Context) TracerOption {
	return func(c *TracerConfig) {
		c.Context = ctx
	}
}

// WithAttributes adds attributes to every walk span.
func WithAttributes(attrs ...attribute.KeyValue) TracerOption {
	return func(c *TracerConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Tracer is a reconcile.Observer that records one "arbor.walk" span per walk
// with an "arbor.commit" child span for its commit. Yields are span events.
type Tracer struct {
	config TracerConfig

	walkCtx context.Context
	walk    trace.Span
	units   int
	renders int
	yields  int
}

var _ reconcile.Observer = (*Tracer)(nil)

// NewTracer creates a tracing observer. Without WithTracer the tracer comes
// from the global OpenTelemetry provider.
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(config.TracerName)
	}
	return &Tracer{config: config}
}

func (t *Tracer) WalkStarted() {
	if t.walk != nil {
		t.endWalk()
	}
	t.walkCtx, t.walk = t.config.Tracer.Start(
		t.config.Context,
		"arbor.walk",
		trace.WithAttributes(t.config.Attributes...),
		trace.WithTimestamp(time.Now()),
	)
	t.units, t.renders, t.yields = 0, 0, 0
}

func (t *Tracer) UnitPerformed(rendered bool) {
	t.units++
	if rendered {
		t.renders++
	}
}

func (t *Tracer) Yielded() {
	t.yields++
	if t.walk != nil {
		t.walk.AddEvent("yield", trace.WithAttributes(attribute.Int("arbor.units", t.units)))
	}
}

func (t *Tracer) Committed(stats reconcile.CommitStats, elapsed time.Duration, err error) {
	parent := t.walkCtx
	if parent == nil {
		parent = t.config.Context
	}
	end := time.Now()
	_, span := t.config.Tracer.Start(parent, "arbor.commit",
		trace.WithTimestamp(end.Add(-elapsed)),
		trace.WithAttributes(
			attribute.Int("arbor.created", stats.Created),
			attribute.Int("arbor.updated", stats.Updated),
			attribute.Int("arbor.placed", stats.Placed),
			attribute.Int("arbor.removed", stats.Removed),
			attribute.Int("arbor.mounted", stats.Mounted),
			attribute.Int("arbor.unmounted", stats.Unmounted),
		),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if t.walk != nil {
			t.walk.SetStatus(codes.Error, err.Error())
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
	t.endWalk()
}

func (t *Tracer) ListenerFailed(kind string) {
	if t.walk != nil {
		t.walk.AddEvent("listener_failed", trace.WithAttributes(attribute.String("arbor.listener", kind)))
	}
}

func (t *Tracer) endWalk() {
	if t.walk == nil {
		return
	}
	t.walk.SetAttributes(
		attribute.Int("arbor.units", t.units),
		attribute.Int("arbor.renders", t.renders),
		attribute.Int("arbor.yields", t.yields),
	)
	t.walk.End()
	t.walk, t.walkCtx = nil, nil
}
