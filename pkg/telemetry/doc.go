// Package telemetry provides reconcile.Observer implementations that export
// scheduler activity as Prometheus metrics and OpenTelemetry spans.
//
//	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	tracer := telemetry.NewTracer(telemetry.WithTracerName("my-app"))
//
//	root := reconcile.NewRoot(el, renderer, target,
//	    reconcile.WithObserver(reconcile.Observers{metrics, tracer}),
//	)
//
// A Metrics value may be shared by every root of a process. A Tracer keeps
// per-walk state and must follow a single root.
package telemetry
