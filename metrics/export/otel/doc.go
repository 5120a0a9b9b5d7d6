// Package otel provides OpenTelemetry metric exporter bindings for emailauth
// counters.
//
// [NewOTelExporter] registers an Int64ObservableCounter per core metric. A
// single callback reads [emailauth.Service.MetricsSnapshot] on each
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate service state.
package otel
