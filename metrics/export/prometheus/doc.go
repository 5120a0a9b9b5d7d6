// Package prometheus provides a Prometheus collector for emailauth metrics.
//
// [NewPrometheusExporter] accepts an [emailauth.Service] and exposes an
// http.Handler that renders all core counters in Prometheus text exposition
// format. Counter names are prefixed emailauth_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the
//     Handler.
//   - Mutate service state.
package prometheus
